package unitconv

import (
	"errors"
	"fmt"
	"io"
	"os"

	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"
)

// catalogFile is the YAML layout of a custom catalog:
//
//	categories:
//	  - name: Typography
//	    base: Point
//	    units:
//	      - {name: Pica, factor: 12}
//	      - {name: Inch, factor: 72}
type catalogFile struct {
	Categories []categorySpec `yaml:"categories"`
}

type categorySpec struct {
	Name  string     `yaml:"name"`
	Base  string     `yaml:"base"`
	Units []unitSpec `yaml:"units"`
}

type unitSpec struct {
	Name   string  `yaml:"name"`
	Factor float64 `yaml:"factor"`
}

// LoadCatalog decodes factor-based categories from YAML. When base is set it
// becomes the first unit with factor 1 unless it is listed explicitly, in
// which case its factor must be 1. Every invalid category is reported.
func LoadCatalog(r io.Reader) ([]*Category, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var file catalogFile
	if err := dec.Decode(&file); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("unitconv: decode catalog: %w", err)
	}

	var (
		errs       error
		categories []*Category
	)
	for _, spec := range file.Categories {
		c, err := spec.build()
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		categories = append(categories, c)
	}
	if errs != nil {
		return nil, errs
	}
	return categories, nil
}

// LoadCatalogFile reads a catalog from path.
func LoadCatalogFile(path string) ([]*Category, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	categories, err := LoadCatalog(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return categories, nil
}

func (s categorySpec) build() (*Category, error) {
	units := make([]Unit, 0, len(s.Units)+1)
	listed := false
	for _, u := range s.Units {
		if s.Base != "" && u.Name == s.Base {
			listed = true
			if u.Factor != 1 {
				return nil, &ValidationError{Type: "Category", Field: "Base", Reason: "base unit factor must be 1 in " + s.Name, Value: u.Factor}
			}
		}
		units = append(units, Unit{Name: u.Name, Factor: u.Factor})
	}
	if s.Base != "" && !listed {
		units = append([]Unit{{Name: s.Base, Factor: 1}}, units...)
	}
	return NewFactorCategory(s.Name, units...)
}
