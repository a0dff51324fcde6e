package domain

import (
	"encoding/json"
	"errors"
	"strings"
)

// Card-specific validation errors
var (
	// ErrCardNameEmpty is returned when a card record has no name.
	ErrCardNameEmpty = errors.New("card name cannot be empty")

	// ErrCardPriceNegative is returned when a card record carries a negative price.
	ErrCardPriceNegative = errors.New("card price cannot be negative")

	// ErrCardColorInvalid is returned when a color code is outside W, U, B, R, G, C.
	ErrCardColorInvalid = errors.New("card color must be one of W, U, B, R, G, C")
)

// validColors is the closed set of single-letter color codes.
var validColors = map[string]struct{}{
	"W": {}, "U": {}, "B": {}, "R": {}, "G": {}, "C": {},
}

// CardRecord is one print of a card in one set.
// Its price category is not stored; PriceCategory derives it from Price.
type CardRecord struct {
	Name     string   `json:"name"`
	Colors   []string `json:"colors"`
	ImageURL string   `json:"image_url"`
	Price    USD      `json:"price"`
}

// NewCardRecord builds a CardRecord and validates it.
// A nil colors slice is normalized to an empty one so JSON output is always a list.
func NewCardRecord(name string, colors []string, imageURL string, price USD) (CardRecord, error) {
	if colors == nil {
		colors = []string{}
	}

	record := CardRecord{
		Name:     name,
		Colors:   colors,
		ImageURL: imageURL,
		Price:    price,
	}

	if err := record.Validate(); err != nil {
		return CardRecord{}, err
	}

	return record, nil
}

// Validate checks that the record has a name, a non-negative price and
// only known color codes.
func (c CardRecord) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrCardNameEmpty
	}

	if c.Price < 0 {
		return ErrCardPriceNegative
	}

	for _, color := range c.Colors {
		if _, ok := validColors[color]; !ok {
			return ErrCardColorInvalid
		}
	}

	return nil
}

// PriceCategory returns the price bucket for the record's current price.
func (c CardRecord) PriceCategory() PriceCategory {
	return CategoryForPrice(c.Price)
}

// CardRecordJSON is the wire form of a CardRecord. It carries the derived
// price category alongside the price.
type CardRecordJSON struct {
	Name          string        `json:"name"`
	Colors        []string      `json:"colors"`
	ImageURL      string        `json:"image_url"`
	Price         USD           `json:"price"`
	PriceCategory PriceCategory `json:"price_category"`
}

// Wire returns the record as encoded in API responses.
func (c CardRecord) Wire() CardRecordJSON {
	return CardRecordJSON{
		Name:          c.Name,
		Colors:        c.Colors,
		ImageURL:      c.ImageURL,
		Price:         c.Price,
		PriceCategory: c.PriceCategory(),
	}
}

// MarshalJSON emits price_category computed from Price. Decoding ignores it.
func (c CardRecord) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.Wire())
}
