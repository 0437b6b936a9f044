package unitconv

import (
	"math"

	"go.uber.org/multierr"
)

// Category is a physical quantity with an ordered unit list and one
// conversion rule. A Category is immutable and safe for concurrent use.
type Category struct {
	name  string
	units []string
	index map[string]int
	rule  Rule
}

// NewCategory validates and builds a category. The unit order is the
// display order; every unit must be supported by rule.
func NewCategory(name string, units []string, rule Rule) (*Category, error) {
	if name == "" {
		return nil, &ValidationError{Type: "Category", Field: "Name", Reason: "must not be empty"}
	}
	if rule == nil {
		return nil, &ValidationError{Type: "Category", Field: "Rule", Reason: "must not be nil", Value: name}
	}
	if len(units) == 0 {
		return nil, &ValidationError{Type: "Category", Field: "Units", Reason: "must not be empty", Value: name}
	}

	var err error
	index := make(map[string]int, len(units))
	for i, u := range units {
		switch {
		case u == "":
			err = multierr.Append(err, &ValidationError{Type: "Category", Field: "Units", Reason: "empty unit name in " + name})
		case !rule.Supports(u):
			err = multierr.Append(err, &ValidationError{Type: "Category", Field: "Units", Reason: "unit not supported by rule in " + name, Value: u})
		default:
			if _, dup := index[u]; dup {
				err = multierr.Append(err, &ValidationError{Type: "Category", Field: "Units", Reason: "duplicate unit in " + name, Value: u})
			}
			index[u] = i
		}
	}
	err = multierr.Append(err, rule.Validate())
	if err != nil {
		return nil, err
	}

	return &Category{
		name:  name,
		units: append([]string(nil), units...),
		index: index,
		rule:  rule,
	}, nil
}

// NewFactorCategory builds a factor-based category whose unit order is the
// order of units.
func NewFactorCategory(name string, units ...Unit) (*Category, error) {
	names := make([]string, len(units))
	for i, u := range units {
		names[i] = u.Name
	}
	return NewCategory(name, names, NewFactorRule(units...))
}

func (c *Category) Name() string { return c.name }

// Units returns a copy of the ordered unit list.
func (c *Category) Units() []string {
	return append([]string(nil), c.units...)
}

func (c *Category) Rule() Rule { return c.rule }

func (c *Category) Has(unit string) bool {
	_, ok := c.index[unit]
	return ok
}

// DefaultPair returns the units preselected as "from" and "to": the first
// and the second unit, or the first unit twice for single-unit categories.
func (c *Category) DefaultPair() (from, to string) {
	if len(c.units) > 1 {
		return c.units[0], c.units[1]
	}
	return c.units[0], c.units[0]
}

// Convert converts value from one unit of the category to another.
// The result is always finite on success.
func (c *Category) Convert(value float64, from, to string) (float64, error) {
	for _, u := range [2]string{from, to} {
		if !c.Has(u) {
			return 0, &ConversionError{Op: "convert", Category: c.name, Unit: u, Value: value, Err: ErrUnknownUnit}
		}
	}
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, &ConversionError{Op: "convert", Category: c.name, Unit: from, Value: value, Err: ErrInvalidValue}
	}
	if from == to {
		return value, nil
	}

	out, err := c.rule.Convert(value, from, to)
	if err != nil {
		return 0, &ConversionError{Op: "convert", Category: c.name, Unit: from, Value: value, Err: err}
	}
	if math.IsNaN(out) || math.IsInf(out, 0) {
		return 0, &ConversionError{Op: "convert", Category: c.name, Unit: from, Value: value, Err: ErrInvalidValue}
	}
	return out, nil
}
