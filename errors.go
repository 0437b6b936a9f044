package unitconv

import (
	"errors"
	"fmt"
	"strconv"
)

// Error kinds returned by conversions. Match them with errors.Is.
var (
	ErrUnknownCategory = errors.New("unitconv: unknown category")
	ErrUnknownUnit     = errors.New("unitconv: unknown unit")
	ErrInvalidValue    = errors.New("unitconv: invalid value")
)

// ConversionError carries the context of a failed lookup or conversion.
// Err is always one of the package error kinds.
type ConversionError struct {
	Op       string
	Category string
	Unit     string
	Value    float64
	Err      error
}

func (e *ConversionError) Error() string {
	switch {
	case errors.Is(e.Err, ErrUnknownCategory):
		return fmt.Sprintf("%s: %s %q", e.Op, e.Err, e.Category)
	case errors.Is(e.Err, ErrUnknownUnit):
		return fmt.Sprintf("%s: %s %q in %q", e.Op, e.Err, e.Unit, e.Category)
	case errors.Is(e.Err, ErrInvalidValue):
		msg := fmt.Sprintf("%s: %s %s", e.Op, e.Err, strconv.FormatFloat(e.Value, 'g', -1, 64))
		if e.Unit != "" {
			msg += " " + e.Unit
		}
		return msg
	}
	return e.Op + ": " + e.Err.Error()
}

func (e *ConversionError) Unwrap() error { return e.Err }

// ValidationError is returned when a category or rule is rejected at
// registration time.
type ValidationError struct {
	Type   string
	Field  string
	Reason string
	Value  any
}

func (e *ValidationError) Error() string {
	msg := "unitconv: invalid " + e.Type
	if e.Field != "" {
		msg += "." + e.Field
	}
	msg += ": " + e.Reason
	if e.Value != nil {
		msg += fmt.Sprintf(" (%v)", e.Value)
	}
	return msg
}
