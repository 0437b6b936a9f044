// Package unitconv converts values between named units of physical
// quantities such as length, mass, temperature and fuel economy.
//
// Each Category owns an ordered list of unit names and one Rule. Most rules
// are factor tables relative to an implicit base unit; Temperature is affine
// through Celsius and Fuel Economy relates its units pairwise, some of them
// reciprocally.
//
//	v, err := unitconv.Convert(unitconv.Length, 1, "Kilometer", "Meter") // 1000
//
// Registries are immutable after construction. Extra factor categories can be
// loaded from YAML with LoadCatalog and added with Registry.With.
package unitconv
