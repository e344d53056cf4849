package domain

// Clearable is a nullable patch field. The zero value leaves the field as is;
// Set with a nil Value clears it.
type Clearable[T any] struct {
	Set   bool
	Value *T
}

// SetTo returns a Clearable that assigns v.
func SetTo[T any](v T) Clearable[T] {
	return Clearable[T]{Set: true, Value: &v}
}

// Clear returns a Clearable that nulls the field.
func Clear[T any]() Clearable[T] {
	return Clearable[T]{Set: true}
}

// Apply returns the patched value of cur.
func (c Clearable[T]) Apply(cur *T) *T {
	if !c.Set {
		return cur
	}
	return c.Value
}
