package api

import (
	"encoding/json"
	"fmt"

	"github.com/phrazzld/setgrouper/internal/aggregate"
	"github.com/phrazzld/setgrouper/internal/api/shared"
	"github.com/phrazzld/setgrouper/internal/domain"
)

// ParseRequest carries raw deck-list text. Text is kept raw so that a
// non-string value can be reported instead of failing JSON decoding.
type ParseRequest struct {
	Text json.RawMessage `json:"text"`
}

// ParseResponse lists the extracted card names in input order.
type ParseResponse struct {
	Names []string `json:"names"`
}

// FetchSetsRequest names the cards to resolve, either as deck-list text or
// as an explicit list.
type FetchSetsRequest struct {
	Text  json.RawMessage `json:"text,omitempty"`
	Names []string        `json:"names,omitempty" validate:"omitempty,max=1000,dive,required,max=200"`
}

// Validate checks the struct tags and that exactly one source is given.
func (r *FetchSetsRequest) Validate() error {
	if err := shared.ValidateStruct(r); err != nil {
		return err
	}
	hasText := len(r.Text) > 0 && string(r.Text) != "null"
	if hasText == (len(r.Names) > 0) {
		return domain.NewValidationError("text", "provide either text or names", domain.ErrValidation)
	}
	return nil
}

// FetchSetsResponse is the grouped result of a pipeline run.
type FetchSetsResponse struct {
	Groups    domain.ResultCollection `json:"groups"`
	Processed int                     `json:"processed"`
	Cards     int                     `json:"cards"`
}

// ViewRequest applies a selection to a previously fetched collection.
// An absent categories list enables every category.
type ViewRequest struct {
	Groups     domain.ResultCollection `json:"groups"     validate:"dive"`
	Deselected []string                `json:"deselected"`
	Categories []string                `json:"categories" validate:"omitempty,dive,required"`
}

// Selection converts the request into a domain selection.
func (r ViewRequest) Selection() (domain.Selection, error) {
	if r.Categories == nil {
		sel := domain.DefaultSelection()
		for _, name := range r.Deselected {
			sel = sel.Deselect(name)
		}
		return sel, nil
	}
	enabled := make([]domain.PriceCategory, 0, len(r.Categories))
	for _, c := range r.Categories {
		cat, err := domain.ParsePriceCategory(c)
		if err != nil {
			return domain.Selection{}, fmt.Errorf("category %q: %w", c, err)
		}
		enabled = append(enabled, cat)
	}
	return domain.NewSelection(r.Deselected, enabled), nil
}

// ViewResponse is the displayed view of a collection.
type ViewResponse struct {
	Groups  []aggregate.GroupView `json:"groups"`
	Visible int                   `json:"visible"`
}

// PruneRequest removes one card name from every group.
type PruneRequest struct {
	Groups domain.ResultCollection `json:"groups" validate:"dive"`
	Name   string                  `json:"name"   validate:"required"`
}

// ExportRequest carries the collection to export.
type ExportRequest struct {
	Groups domain.ResultCollection `json:"groups" validate:"dive"`
}

// EvictResponse reports how many cache entries were removed.
type EvictResponse struct {
	Evicted int `json:"evicted"`
}

// KeysResponse lists cache keys, oldest first.
type KeysResponse struct {
	Keys []string `json:"keys"`
}
