package scoreboard

import (
	"fmt"

	"github.com/verte-zerg/nbtscore/internal/nbt"
)

// MissingFieldError reports a required field absent from a compound.
type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("missing field %q", e.Field)
}

// TypeMismatchError reports a field holding a tag of an unexpected kind.
type TypeMismatchError struct {
	Field    string
	Expected string
	Actual   nbt.Tag
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("field %q is %s, expected type %s", e.Field, e.Actual, e.Expected)
}

// ShapeError reports a container field (list or compound) of the wrong kind.
type ShapeError struct {
	Field    string
	Expected nbt.Kind
	Actual   nbt.Kind
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("field %q is a %s, expected a %s", e.Field, e.Actual, e.Expected)
}
