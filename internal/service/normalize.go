package service

import (
	"log/slog"

	"github.com/phrazzld/setgrouper/internal/aggregate"
	"github.com/phrazzld/setgrouper/internal/domain"
	"github.com/phrazzld/setgrouper/internal/platform/scryfall"
)

// Policy controls which prints survive normalization.
type Policy struct {
	// ExcludeZeroPrice drops prints with no usable market price. When false
	// they are kept at a price of zero.
	ExcludeZeroPrice bool
}

// DefaultPolicy excludes unpriced prints.
func DefaultPolicy() Policy {
	return Policy{ExcludeZeroPrice: true}
}

// Normalize folds every eligible print of resp into groups and returns how
// many records were added. Promo and oversized prints are skipped, as are
// prints that fail record validation.
func Normalize(resp *scryfall.SearchResponse, groups *aggregate.Groups, policy Policy, logger *slog.Logger) int {
	added := 0
	for _, card := range resp.Data {
		if card.Promo || card.Oversized {
			continue
		}

		price := domain.ParseUSD(card.Prices.USD)
		if price.IsZero() && policy.ExcludeZeroPrice {
			continue
		}

		record, err := domain.NewCardRecord(card.Name, printColors(card), printImage(card), price)
		if err != nil {
			if logger != nil {
				logger.Debug("skipping invalid print",
					slog.String("card", card.Name),
					slog.String("set", card.SetName),
					slog.String("error", err.Error()))
			}
			continue
		}

		if groups.Add(card.SetName, record) {
			added++
		}
	}
	return added
}

func printColors(c scryfall.Card) []string {
	if len(c.ColorIdentity) > 0 {
		return append([]string(nil), c.ColorIdentity...)
	}
	return append([]string{}, c.Colors...)
}

// printImage prefers the print's own image and falls back to the first face
// that has one.
func printImage(c scryfall.Card) string {
	if c.ImageURIs != nil && c.ImageURIs.Normal != "" {
		return c.ImageURIs.Normal
	}
	for _, face := range c.CardFaces {
		if face.ImageURIs != nil && face.ImageURIs.Normal != "" {
			return face.ImageURIs.Normal
		}
	}
	return ""
}
