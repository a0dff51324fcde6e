package domain

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// USD is a non-negative market price held in cents.
// Inputs are assumed to be at cent precision, as Scryfall prices are.
// Fixed-point storage keeps the category boundaries exact (99 cents is LOW,
// 100 cents is MID) where float comparisons would wobble.
type USD int64

// Price category boundaries, in cents.
const (
	midThreshold  USD = 100
	highThreshold USD = 500
)

// NewUSDFromCents creates USD from cents.
func NewUSDFromCents(cents int64) USD {
	return USD(cents)
}

// ParseUSD parses a decimal dollar string such as "4.99".
// Empty, unparsable, negative or non-finite inputs yield zero, which means
// "no market price available". Amounts beyond the int64 cent range saturate.
func ParseUSD(s string) USD {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}

	dollars, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(dollars) || math.IsInf(dollars, 0) || dollars <= 0 {
		return 0
	}

	cents := math.Round(dollars * 100)
	if cents >= math.MaxInt64 {
		return USD(math.MaxInt64)
	}
	return USD(cents)
}

// Cents returns the raw cent amount.
func (u USD) Cents() int64 {
	return int64(u)
}

// Dollars returns the amount as a float for display.
func (u USD) Dollars() float64 {
	return float64(u) / 100
}

// IsZero reports whether no price is available.
func (u USD) IsZero() bool {
	return u == 0
}

// String formats as "$1.23".
func (u USD) String() string {
	return fmt.Sprintf("$%d.%02d", int64(u)/100, int64(u)%100)
}

// MarshalJSON encodes the price as a decimal dollar number.
func (u USD) MarshalJSON() ([]byte, error) {
	return []byte(fmt.Sprintf("%d.%02d", int64(u)/100, int64(u)%100)), nil
}

// UnmarshalJSON accepts either a JSON number or a quoted decimal string.
func (u *USD) UnmarshalJSON(data []byte) error {
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("%w: price must be a number", ErrInvalidFormat)
		}
		*u = ParseUSD(s)
		return nil
	}
	*u = ParseUSD(n.String())
	return nil
}

// PriceCategory is the LOW/MID/HIGH bucket derived from a unit price.
type PriceCategory string

// Valid price categories
const (
	PriceLow  PriceCategory = "LOW"
	PriceMid  PriceCategory = "MID"
	PriceHigh PriceCategory = "HIGH"
)

// AllPriceCategories lists every category in ascending order.
var AllPriceCategories = []PriceCategory{PriceLow, PriceMid, PriceHigh}

// CategoryForPrice buckets a price: LOW below 1.00, MID below 5.00, HIGH otherwise.
func CategoryForPrice(price USD) PriceCategory {
	switch {
	case price < midThreshold:
		return PriceLow
	case price < highThreshold:
		return PriceMid
	default:
		return PriceHigh
	}
}

// Valid checks if the category is one of the defined values.
func (c PriceCategory) Valid() bool {
	switch c {
	case PriceLow, PriceMid, PriceHigh:
		return true
	default:
		return false
	}
}

// ParsePriceCategory accepts the canonical names and the "$", "$$", "$$$" shorthand.
func ParsePriceCategory(s string) (PriceCategory, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "LOW", "$":
		return PriceLow, nil
	case "MID", "$$":
		return PriceMid, nil
	case "HIGH", "$$$":
		return PriceHigh, nil
	default:
		return "", fmt.Errorf("%w: unknown price category %q", ErrInvalidFormat, s)
	}
}
