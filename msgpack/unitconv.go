package unitconvmsgpack

import (
	"unitconv"

	"github.com/vmihailenco/msgpack/v5"
)

type ConvertRequest struct {
	Category string  `msgpack:"category"`
	Value    float64 `msgpack:"value"`
	FromUnit string  `msgpack:"from_unit,omitempty"`
	ToUnit   string  `msgpack:"to_unit,omitempty"`
}

type ConvertResult struct {
	Category string  `msgpack:"category"`
	Value    float64 `msgpack:"value"`
	FromUnit string  `msgpack:"from_unit"`
	ToUnit   string  `msgpack:"to_unit"`
	Result   float64 `msgpack:"result"`
	Rounded  string  `msgpack:"rounded"`
}

type UnitsRequest struct {
	Category string `msgpack:"category"`
}

type Category struct {
	Name        string   `msgpack:"name"`
	Units       []string `msgpack:"units"`
	DefaultFrom string   `msgpack:"default_from,omitempty"`
	DefaultTo   string   `msgpack:"default_to,omitempty"`
}

type CategoryList struct {
	Categories []string `msgpack:"categories"`
}

func NewCategory(c *unitconv.Category) Category {
	from, to := c.DefaultPair()
	return Category{
		Name:        c.Name(),
		Units:       c.Units(),
		DefaultFrom: from,
		DefaultTo:   to,
	}
}

// Resolve fills empty units with the category defaults and returns the
// request with canonical category and unit spellings.
func (r ConvertRequest) Resolve(reg *unitconv.Registry) (ConvertRequest, error) {
	name, err := reg.ResolveCategory(r.Category)
	if err != nil {
		return r, err
	}
	c, err := reg.Category(name)
	if err != nil {
		return r, err
	}
	r.Category = name
	defFrom, defTo := c.DefaultPair()
	if r.FromUnit == "" {
		r.FromUnit = defFrom
	}
	if r.ToUnit == "" {
		r.ToUnit = defTo
	}
	if r.FromUnit, err = reg.ResolveUnit(name, r.FromUnit); err != nil {
		return r, err
	}
	if r.ToUnit, err = reg.ResolveUnit(name, r.ToUnit); err != nil {
		return r, err
	}
	return r, nil
}

// Convert resolves and runs r against reg.
func (r ConvertRequest) Convert(reg *unitconv.Registry) (ConvertResult, error) {
	r, err := r.Resolve(reg)
	if err != nil {
		return ConvertResult{}, err
	}
	out, err := reg.Convert(r.Category, r.Value, r.FromUnit, r.ToUnit)
	if err != nil {
		return ConvertResult{}, err
	}
	return ConvertResult{
		Category: r.Category,
		Value:    r.Value,
		FromUnit: r.FromUnit,
		ToUnit:   r.ToUnit,
		Result:   out,
		Rounded:  unitconv.NewDecimalFromFloat(out).String(),
	}, nil
}

func Marshal(v any) ([]byte, error) {
	return msgpack.Marshal(v)
}

func Unmarshal(data []byte, v any) error {
	return msgpack.Unmarshal(data, v)
}
