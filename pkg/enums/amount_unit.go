package enums

import "fmt"

// AmountUnit is the unit a bycatch amount is reported in. Most PSC species
// report weight; salmon-type species report individual counts.
type AmountUnit string

const (
	AmountUnitPounds AmountUnit = "lbs"
	AmountUnitCount  AmountUnit = "count"
)

var validAmountUnits = []AmountUnit{
	AmountUnitPounds,
	AmountUnitCount,
}

// String implements fmt.Stringer.
func (u AmountUnit) String() string {
	return string(u)
}

// IsValid reports whether the value is a known AmountUnit.
func (u AmountUnit) IsValid() bool {
	for _, candidate := range validAmountUnits {
		if candidate == u {
			return true
		}
	}
	return false
}

// ParseAmountUnit converts the raw string to AmountUnit.
func ParseAmountUnit(value string) (AmountUnit, error) {
	for _, candidate := range validAmountUnits {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid amount unit %q", value)
}
