package unitconv

import (
	"math"
	"sync"
)

// Built-in category names.
const (
	Length           = "Length"
	Temperature      = "Temperature"
	Area             = "Area"
	Mass             = "Mass"
	DataTransferRate = "Data Transfer Rate"
	DigitalStorage   = "Digital Storage"
	Energy           = "Energy"
	Frequency        = "Frequency"
	FuelEconomy      = "Fuel Economy"
	PlaneAngle       = "Plane Angle"
	Pressure         = "Pressure"
	Speed            = "Speed"
	Time             = "Time"
	Volume           = "Volume"
)

const (
	kib = 1 << 10
	mib = 1 << 20
	gib = 1 << 30
	tib = 1 << 40
)

var factorTables = []struct {
	name  string
	units []Unit
}{
	{Length, []Unit{ // base: Meter
		{"Meter", 1},
		{"Kilometer", 1000},
		{"Centimeter", 0.01},
		{"Millimeter", 0.001},
		{"Mile", 1609.34},
		{"Yard", 0.9144},
		{"Foot", 0.3048},
		{"Inch", 0.0254},
		{"Nautical Mile", 1852},
		{"Nanometer", 1e-9},
	}},
	{Area, []Unit{ // base: Square Meter
		{"Square Meter", 1},
		{"Square Kilometer", 1e6},
		{"Square Centimeter", 0.0001},
		{"Square Millimeter", 1e-6},
		{"Hectare", 10000},
		{"Acre", 4046.86},
		{"Square Mile", 2.59e6},
		{"Square Yard", 0.83612736},
		{"Square Foot", 0.09290304},
	}},
	{Mass, []Unit{ // base: Kilogram
		{"Kilogram", 1},
		{"Gram", 0.001},
		{"Milligram", 1e-6},
		{"Pound", 0.453592},
		{"Ounce", 0.0283495},
		{"Tonne", 1000},
		{"Stone", 6.35029},
		{"Imperial Ton", 1016.05},
		{"US Ton", 907.185},
		{"Microgram", 1e-9},
	}},
	{DataTransferRate, []Unit{ // base: bits per second
		{"Bits per Second (bps)", 1},
		{"Kilobits per Second (Kbps)", 1e3},
		{"Megabits per Second (Mbps)", 1e6},
		{"Gigabits per Second (Gbps)", 1e9},
		{"Terabits per Second (Tbps)", 1e12},
		{"Kibibits per Second (Kibps)", kib},
		{"Mebibits per Second (Mibps)", mib},
		{"Gibibits per Second (Gibps)", gib},
		{"Tebibits per Second (Tibps)", tib},
		{"Bytes per Second (Bps)", 8},
		{"Kilobytes per Second (KBps)", 8e3},
		{"Megabytes per Second (MBps)", 8e6},
		{"Gigabytes per Second (GBps)", 8e9},
		{"Terabytes per Second (TBps)", 8e12},
	}},
	{DigitalStorage, []Unit{ // base: Byte, binary multiples
		{"Byte", 1},
		{"Kilobyte", kib},
		{"Megabyte", mib},
		{"Gigabyte", gib},
		{"Terabyte", tib},
	}},
	{Energy, []Unit{ // base: Joule
		{"Joule (J)", 1},
		{"Kilojoule (kJ)", 1e3},
		{"Calorie (cal)", 4.184},
		{"Kilocalorie (kcal)", 4.184e3},
		{"Watt-hour (Wh)", 3.6e3},
		{"Kilowatt-hour (kWh)", 3.6e6},
		{"Electronvolt (eV)", 1.602176634e-19},
		{"British Thermal Unit (BTU)", 1055.06},
		{"Foot-pound (ft·lb)", 1.3558179483314004},
	}},
	{Frequency, []Unit{ // base: Hertz
		{"Hertz (Hz)", 1},
		{"Kilohertz (kHz)", 1e3},
		{"Megahertz (MHz)", 1e6},
		{"Gigahertz (GHz)", 1e9},
	}},
	{PlaneAngle, []Unit{ // base: Degree
		{"Degree", 1},
		{"Radian", 180 / math.Pi},
		{"Gradian", 0.9},
		{"Arcminute", 1.0 / 60},
		{"Arcsecond", 1.0 / 3600},
		{"Milliradian", 180 / math.Pi / 1000},
	}},
	{Pressure, []Unit{ // base: Pascal
		{"Pascal", 1},
		{"Kilopascal", 1000},
		{"Bar", 100000},
		{"Atmosphere", 101325},
		{"PSI", 6894.76},
	}},
	{Speed, []Unit{ // base: m/s
		{"m/s", 1},
		{"km/h", 1 / 3.6},
		{"mph", 0.44704},
		{"Knots", 0.514444},
	}},
	{Time, []Unit{ // base: Second
		{"Second", 1},
		{"Millisecond", 1e-3},
		{"Microsecond", 1e-6},
		{"Nanosecond", 1e-9},
		{"Minute", 60},
		{"Hour", 3600},
		{"Day", 86400},
		{"Week", 604800},
		{"Month", 2629746},          // average Gregorian month
		{"Calendar Year", 31556952}, // 365.2425 days
		{"Decade", 315569520},
		{"Century", 3155695200},
	}},
	{Volume, []Unit{ // base: Liter
		{"Liter", 1},
		{"Milliliter", 0.001},
		{"Cubic Meter", 1000},
		{"Cubic Centimeter", 0.001},
		{"US Gallon", 3.78541},
		{"US Pint", 0.473176},
	}},
}

func newTemperature() (*Category, error) {
	return NewCategory(Temperature,
		[]string{"Celsius", "Fahrenheit", "Kelvin"},
		NewAffineRule(
			Affine{Name: "Celsius", Scale: 1},
			Affine{Name: "Fahrenheit", Scale: 5.0 / 9, Offset: 32},
			Affine{Name: "Kelvin", Scale: 1, Offset: 273.15},
		))
}

func newFuelEconomy() (*Category, error) {
	return NewCategory(FuelEconomy,
		[]string{"Miles per Gallon", "L/100km", "Kilometers per Liter"},
		NewReciprocalRule(
			Link{From: "Miles per Gallon", To: "L/100km", Relation: Relation{K: 235.214583, Reciprocal: true}},
			Link{From: "Miles per Gallon", To: "Kilometers per Liter", Relation: Relation{K: 0.425144}},
			Link{From: "Kilometers per Liter", To: "L/100km", Relation: Relation{K: 100, Reciprocal: true}},
		))
}

// Builtin builds a fresh registry holding the built-in categories.
func Builtin() (*Registry, error) {
	tables := make(map[string][]Unit, len(factorTables))
	for _, t := range factorTables {
		tables[t.name] = t.units
	}
	formulas := map[string]func() (*Category, error){
		Temperature: newTemperature,
		FuelEconomy: newFuelEconomy,
	}

	order := []string{
		Length, Temperature, Area, Mass, DataTransferRate, DigitalStorage, Energy,
		Frequency, FuelEconomy, PlaneAngle, Pressure, Speed, Time, Volume,
	}
	categories := make([]*Category, 0, len(order))
	for _, name := range order {
		var (
			c   *Category
			err error
		)
		if build, ok := formulas[name]; ok {
			c, err = build()
		} else {
			c, err = NewFactorCategory(name, tables[name]...)
		}
		if err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}
	return NewRegistry(categories...)
}

var defaultRegistry = sync.OnceValue(func() *Registry {
	r, err := Builtin()
	if err != nil {
		panic(err)
	}
	return r
})

// Default returns the shared built-in registry.
func Default() *Registry { return defaultRegistry() }

// ListCategories lists the built-in categories.
func ListCategories() []string { return Default().ListCategories() }

// UnitsFor lists the units of a built-in category.
func UnitsFor(category string) ([]string, error) { return Default().UnitsFor(category) }

// Convert converts value using the built-in registry.
func Convert(category string, value float64, from, to string) (float64, error) {
	return Default().Convert(category, value, from, to)
}
