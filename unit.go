package unitconv

import (
	"math"

	"go.uber.org/multierr"
)

// Unit pairs a unit name with its factor to the category base unit,
// e.g. {Name: "Kilometer", Factor: 1000} when the base is Meter.
type Unit struct {
	Name   string
	Factor float64
}

// FactorRule converts through an implicit base unit:
// value * factor[from] / factor[to].
type FactorRule struct {
	factors map[string]float64 // unit -> factor to base
}

// NewFactorRule copies units into a new rule. Call Validate (or build a
// Category, which does) before use.
func NewFactorRule(units ...Unit) FactorRule {
	factors := make(map[string]float64, len(units))
	for _, u := range units {
		factors[u.Name] = u.Factor
	}
	return FactorRule{factors: factors}
}

func (r FactorRule) Supports(unit string) bool {
	_, ok := r.factors[unit]
	return ok
}

// Factor returns the factor of unit relative to the base unit.
func (r FactorRule) Factor(unit string) (float64, bool) {
	f, ok := r.factors[unit]
	return f, ok
}

func (r FactorRule) Validate() error {
	if len(r.factors) == 0 {
		return &ValidationError{Type: "FactorRule", Reason: "no units"}
	}
	var err error
	for _, name := range sortedKeys(r.factors) {
		f := r.factors[name]
		if f <= 0 || math.IsNaN(f) || math.IsInf(f, 0) {
			err = multierr.Append(err, &ValidationError{
				Type:   "FactorRule",
				Field:  name,
				Reason: "factor must be positive and finite",
				Value:  f,
			})
		}
	}
	return err
}

func (r FactorRule) Convert(value float64, from, to string) (float64, error) {
	inBase := value * r.factors[from]
	return inBase / r.factors[to], nil
}
