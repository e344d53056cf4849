package dto

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/lucasvital/todocomplete/internal/domain"
)

// Date parses a timestamp from JSON as either date-only ("2006-01-02") or RFC3339.
// Date-only is stored as start of that day in UTC.
type Date struct{ t *time.Time }

var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
}

func (d *Date) UnmarshalJSON(data []byte) error {
	var raw *string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw == nil || strings.TrimSpace(*raw) == "" {
		d.t = nil
		return nil
	}
	t, err := ParseDate(*raw)
	if err != nil {
		return err
	}
	d.t = &t
	return nil
}

// ParseDate accepts the same layouts as Date. Query parameters use it.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			return parsed.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("use date (YYYY-MM-DD) or RFC3339 datetime, got %q", s)
}

// Ptr returns *time.Time for use in service/domain.
func (d Date) Ptr() *time.Time { return d.t }

// Optional distinguishes an absent JSON field from an explicit null.
type Optional[T any] struct {
	Set   bool
	Value *T
}

func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	o.Set = true
	if string(data) == "null" {
		o.Value = nil
		return nil
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	o.Value = &v
	return nil
}

// Clearable converts o into a patch field.
func (o Optional[T]) Clearable() domain.Clearable[T] {
	return domain.Clearable[T]{Set: o.Set, Value: o.Value}
}

// clearableTime converts an optional date into a patch field. A present
// but empty date clears the field.
func clearableTime(o Optional[Date]) domain.Clearable[time.Time] {
	if !o.Set {
		return domain.Clearable[time.Time]{}
	}
	if o.Value == nil {
		return domain.Clear[time.Time]()
	}
	return domain.Clearable[time.Time]{Set: true, Value: o.Value.Ptr()}
}
