package repo

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// setList accumulates "col = $n" fragments for a partial UPDATE.
// Positional args start after the reserved leading parameters.
type setList struct {
	cols []string
	args []any
}

func newSetList(reserved ...any) *setList {
	return &setList{args: reserved}
}

// add appends col = $n and returns the placeholder for reuse in the same statement.
func (s *setList) add(col string, v any) string {
	s.args = append(s.args, v)
	ph := fmt.Sprintf("$%d", len(s.args))
	s.cols = append(s.cols, col+" = "+ph)
	return ph
}

func (s *setList) raw(expr string) {
	s.cols = append(s.cols, expr)
}

func (s *setList) empty() bool { return len(s.cols) == 0 }

func (s *setList) String() string { return strings.Join(s.cols, ", ") }

func newID(id string) string {
	if id != "" {
		return id
	}
	return uuid.NewString()
}
