package models

import "strings"

// QuantityUnit is a discrete size tier. Prices scale from the SMALL base price.
type QuantityUnit string

const (
	UnitSmall  QuantityUnit = "SMALL"
	UnitMedium QuantityUnit = "MEDIUM"
	UnitLarge  QuantityUnit = "LARGE"
)

// ParseQuantityUnit normalizes raw input and reports whether it names a known tier.
func ParseQuantityUnit(raw string) (QuantityUnit, bool) {
	u := QuantityUnit(strings.ToUpper(strings.TrimSpace(raw)))
	return u, u.Valid()
}

func (u QuantityUnit) Valid() bool {
	switch u {
	case UnitSmall, UnitMedium, UnitLarge:
		return true
	default:
		return false
	}
}

func (u QuantityUnit) String() string {
	return string(u)
}
