package main

import (
	"context"
	"fmt"
	"strings"
	"unitconv"
	unitconvhistory "unitconv/history"

	"golang.org/x/text/language"
)

const catalog = `
categories:
  - name: Typography
    base: Point
    units:
      - {name: Pica, factor: 12}
      - {name: Inch, factor: 72}
`

func main() {
	ctx := context.Background()

	// Open history store
	store, err := unitconvhistory.Open("file:unitconv.db?cache=shared&mode=rwc")
	if err != nil {
		panic(err)
	}
	defer store.Close()

	// Extend the built-in catalog
	extra, err := unitconv.LoadCatalog(strings.NewReader(catalog))
	if err != nil {
		panic(err)
	}
	reg, err := unitconv.Default().With(extra...)
	if err != nil {
		panic(err)
	}

	conversions := []struct {
		category string
		value    float64
		from, to string
	}{
		{unitconv.Length, 1, "Mile", "Kilometer"},
		{unitconv.Temperature, 100, "Celsius", "Fahrenheit"},
		{unitconv.FuelEconomy, 30, "Miles per Gallon", "L/100km"},
		{"Typography", 2, "Inch", "Pica"},
	}
	for _, c := range conversions {
		out, err := reg.Convert(c.category, c.value, c.from, c.to)
		if err != nil {
			panic(err)
		}
		result := unitconv.NewDecimalFromFloat(out)
		if _, err := store.Record(ctx, unitconvhistory.Entry{
			Category: c.category,
			Value:    c.value,
			FromUnit: c.from,
			ToUnit:   c.to,
			Result:   result,
		}); err != nil {
			panic(err)
		}
		fmt.Printf("%v %s = %s %s\n", c.value, c.from, result.Format(language.English), c.to)
	}

	// Invalid inputs come back as typed errors
	if _, err := reg.Convert(unitconv.FuelEconomy, 0, "L/100km", "Miles per Gallon"); err != nil {
		fmt.Println("error:", err)
	}

	entries, err := store.List(ctx, 3)
	if err != nil {
		panic(err)
	}
	fmt.Printf("last %d conversions:\n", len(entries))
	for _, e := range entries {
		fmt.Printf("  %s %s: %v %s -> %s %s\n", e.ID, e.Category, e.Value, e.FromUnit, e.Result, e.ToUnit)
	}
}
