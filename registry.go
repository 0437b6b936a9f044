package unitconv

import (
	"golang.org/x/text/cases"
)

// Registry maps category names to categories. It is read-only once built
// and may be shared by concurrent callers without locking.
type Registry struct {
	order      []string
	categories map[string]*Category
}

// NewRegistry builds a registry keeping the given order of categories.
func NewRegistry(categories ...*Category) (*Registry, error) {
	if len(categories) == 0 {
		return nil, &ValidationError{Type: "Registry", Reason: "no categories"}
	}
	r := &Registry{
		order:      make([]string, 0, len(categories)),
		categories: make(map[string]*Category, len(categories)),
	}
	for _, c := range categories {
		if c == nil {
			return nil, &ValidationError{Type: "Registry", Reason: "nil category"}
		}
		if _, dup := r.categories[c.name]; dup {
			return nil, &ValidationError{Type: "Registry", Reason: "duplicate category", Value: c.name}
		}
		r.order = append(r.order, c.name)
		r.categories[c.name] = c
	}
	return r, nil
}

// With returns a new registry holding r's categories followed by extra.
// r itself is left unchanged.
func (r *Registry) With(extra ...*Category) (*Registry, error) {
	all := make([]*Category, 0, len(r.order)+len(extra))
	for _, name := range r.order {
		all = append(all, r.categories[name])
	}
	return NewRegistry(append(all, extra...)...)
}

// ListCategories returns the category names in registration order.
func (r *Registry) ListCategories() []string {
	return append([]string(nil), r.order...)
}

func (r *Registry) Category(name string) (*Category, error) {
	c, ok := r.categories[name]
	if !ok {
		return nil, &ConversionError{Op: "lookup", Category: name, Err: ErrUnknownCategory}
	}
	return c, nil
}

// UnitsFor returns the ordered unit names of category.
func (r *Registry) UnitsFor(category string) ([]string, error) {
	c, err := r.Category(category)
	if err != nil {
		return nil, err
	}
	return c.Units(), nil
}

// Convert converts value between two units of category.
func (r *Registry) Convert(category string, value float64, from, to string) (float64, error) {
	c, ok := r.categories[category]
	if !ok {
		return 0, &ConversionError{Op: "convert", Category: category, Value: value, Err: ErrUnknownCategory}
	}
	return c.Convert(value, from, to)
}

// ResolveCategory returns the registered spelling of a category name,
// ignoring case.
func (r *Registry) ResolveCategory(name string) (string, error) {
	if _, ok := r.categories[name]; ok {
		return name, nil
	}
	fold := cases.Fold()
	want := fold.String(name)
	for _, candidate := range r.order {
		if fold.String(candidate) == want {
			return candidate, nil
		}
	}
	return "", &ConversionError{Op: "resolve", Category: name, Err: ErrUnknownCategory}
}

// ResolveUnit returns the registered spelling of a unit of category,
// ignoring case. category must already be canonical.
func (r *Registry) ResolveUnit(category, unit string) (string, error) {
	c, err := r.Category(category)
	if err != nil {
		return "", err
	}
	if c.Has(unit) {
		return unit, nil
	}
	fold := cases.Fold()
	want := fold.String(unit)
	for _, candidate := range c.units {
		if fold.String(candidate) == want {
			return candidate, nil
		}
	}
	return "", &ConversionError{Op: "resolve", Category: category, Unit: unit, Err: ErrUnknownUnit}
}
