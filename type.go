package unitconv

import (
	"database/sql/driver"
	"fmt"
	"math"
	"strconv"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// Precision is the number of decimal places results are rounded to for
// display and storage.
const Precision = 4

// Decimal is a conversion result rounded to Precision decimal places.
type Decimal struct {
	value float64
}

func NewDecimalFromFloat(f float64) Decimal {
	return Decimal{value: Round(f)}
}

func NewDecimalFromStr(s string) (Decimal, error) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return Decimal{}, err
	}
	return NewDecimalFromFloat(f), nil
}

// Round rounds f to Precision decimal places.
func Round(f float64) float64 { return RoundTo(f, Precision) }

// RoundTo rounds f to places decimal places, half away from zero on the
// scaled value: RoundTo(0.03125, 4) is 0.0313, not the half-to-even 0.0312.
// Values too large to carry a fractional part are returned unchanged.
func RoundTo(f float64, places int) float64 {
	scale := math.Pow10(places)
	scaled := f * scale
	if math.IsInf(scaled, 0) || math.Abs(scaled) >= 1<<53 {
		return f
	}
	return math.Round(scaled) / scale
}

func (d Decimal) Float64() float64 { return d.value }

func (d Decimal) String() string {
	return strconv.FormatFloat(d.value, 'f', -1, 64)
}

// Format renders d for tag with grouping and at most Precision fraction
// digits, e.g. "1,609.34" for English.
func (d Decimal) Format(tag language.Tag) string {
	return d.FormatPlaces(tag, Precision)
}

// FormatPlaces is Format with at most places fraction digits. places is
// clamped to 0..Precision.
func (d Decimal) FormatPlaces(tag language.Tag, places int) string {
	places = min(max(places, 0), Precision)
	p := message.NewPrinter(tag)
	return p.Sprint(number.Decimal(RoundTo(d.value, places), number.MaxFractionDigits(places)))
}

func (d *Decimal) Scan(src any) error {
	switch v := src.(type) {
	case float64:
		*d = NewDecimalFromFloat(v)
	case int64:
		*d = NewDecimalFromFloat(float64(v))
	case []byte:
		dec, err := NewDecimalFromStr(string(v))
		if err != nil {
			return err
		}
		*d = dec
	case string:
		dec, err := NewDecimalFromStr(v)
		if err != nil {
			return err
		}
		*d = dec
	default:
		return fmt.Errorf("unitconv: cannot scan %T into Decimal", src)
	}
	return nil
}

func (d Decimal) Value() (driver.Value, error) {
	return d.value, nil
}
