package unitconv

import (
	"math"
	"sort"

	"go.uber.org/multierr"
)

// Rule converts a value between two units of one category. Implementations
// are immutable once built; Category checks units and the finiteness of
// inputs and outputs before and after calling Convert.
type Rule interface {
	Supports(unit string) bool
	Validate() error
	Convert(value float64, from, to string) (float64, error)
}

// Affine describes a unit by its relation to the base unit:
// base = (value - Offset) * Scale.
type Affine struct {
	Name   string
	Scale  float64
	Offset float64
}

// AffineRule routes every pair through one base unit, so adding a unit
// needs one entry rather than a formula per pair.
type AffineRule struct {
	units map[string]Affine
}

func NewAffineRule(units ...Affine) AffineRule {
	m := make(map[string]Affine, len(units))
	for _, u := range units {
		m[u.Name] = u
	}
	return AffineRule{units: m}
}

func (r AffineRule) Supports(unit string) bool {
	_, ok := r.units[unit]
	return ok
}

func (r AffineRule) Validate() error {
	if len(r.units) == 0 {
		return &ValidationError{Type: "AffineRule", Reason: "no units"}
	}
	var err error
	for _, name := range sortedKeys(r.units) {
		u := r.units[name]
		if u.Scale <= 0 || !finite(u.Scale) {
			err = multierr.Append(err, &ValidationError{Type: "AffineRule", Field: name, Reason: "scale must be positive and finite", Value: u.Scale})
		}
		if !finite(u.Offset) {
			err = multierr.Append(err, &ValidationError{Type: "AffineRule", Field: name, Reason: "offset must be finite", Value: u.Offset})
		}
	}
	return err
}

func (r AffineRule) Convert(value float64, from, to string) (float64, error) {
	src, dst := r.units[from], r.units[to]
	base := (value - src.Offset) * src.Scale
	return base/dst.Scale + dst.Offset, nil
}

// Relation links two units of a ReciprocalRule. A linear relation maps
// v to v*K one way and v/K the other; a reciprocal one maps v to K/v both ways.
type Relation struct {
	K          float64
	Reciprocal bool
}

// Link declares the Relation from one unit to another.
type Link struct {
	From, To string
	Relation
}

// ReciprocalRule holds an explicit relation for every unit pair, for
// quantities such as fuel economy where some units are inverses of others.
type ReciprocalRule struct {
	units map[string]struct{}
	links map[[2]string]Relation
}

func NewReciprocalRule(links ...Link) ReciprocalRule {
	r := ReciprocalRule{
		units: make(map[string]struct{}),
		links: make(map[[2]string]Relation, len(links)),
	}
	for _, l := range links {
		r.units[l.From] = struct{}{}
		r.units[l.To] = struct{}{}
		r.links[[2]string{l.From, l.To}] = l.Relation
	}
	return r
}

func (r ReciprocalRule) Supports(unit string) bool {
	_, ok := r.units[unit]
	return ok
}

func (r ReciprocalRule) Validate() error {
	if len(r.units) == 0 {
		return &ValidationError{Type: "ReciprocalRule", Reason: "no units"}
	}
	var err error
	for _, key := range sortedPairs(r.links) {
		k := r.links[key].K
		if k <= 0 || !finite(k) {
			err = multierr.Append(err, &ValidationError{Type: "ReciprocalRule", Field: key[0] + "->" + key[1], Reason: "constant must be positive and finite", Value: k})
		}
	}
	names := sortedKeys(r.units)
	for i, a := range names {
		for _, b := range names[i+1:] {
			if _, ok := r.relation(a, b); !ok {
				err = multierr.Append(err, &ValidationError{Type: "ReciprocalRule", Field: a + "->" + b, Reason: "no relation"})
			}
		}
	}
	return err
}

// relation returns the relation for from->to, deriving it from the
// to->from link when only that one is declared.
func (r ReciprocalRule) relation(from, to string) (Relation, bool) {
	if rel, ok := r.links[[2]string{from, to}]; ok {
		return rel, true
	}
	rel, ok := r.links[[2]string{to, from}]
	if !ok {
		return Relation{}, false
	}
	if !rel.Reciprocal {
		rel.K = 1 / rel.K
	}
	return rel, true
}

func (r ReciprocalRule) Convert(value float64, from, to string) (float64, error) {
	rel, ok := r.relation(from, to)
	if !ok {
		return 0, ErrUnknownUnit
	}
	if rel.Reciprocal {
		if value == 0 {
			return 0, ErrInvalidValue
		}
		return rel.K / value, nil
	}
	// keep the declared direction exact: v*K forward, v/K backward
	if fwd, ok := r.links[[2]string{from, to}]; ok && !fwd.Reciprocal {
		return value * fwd.K, nil
	}
	return value / r.links[[2]string{to, from}].K, nil
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func sortedPairs(m map[[2]string]Relation) [][2]string {
	keys := make([][2]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i][0] != keys[j][0] {
			return keys[i][0] < keys[j][0]
		}
		return keys[i][1] < keys[j][1]
	})
	return keys
}
