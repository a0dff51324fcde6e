package aggregate

import (
	"encoding/json"
	"sort"

	"github.com/phrazzld/setgrouper/internal/domain"
)

// CardView is a card as displayed under a selection.
type CardView struct {
	domain.CardRecord
	PriceCategory domain.PriceCategory `json:"price_category"`
	Selected      bool                 `json:"selected"`
}

// MarshalJSON keeps the record fields flat next to selected. Without it the
// embedded record's encoder would drop the view fields.
func (v CardView) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		domain.CardRecordJSON
		Selected bool `json:"selected"`
	}{v.CardRecord.Wire(), v.Selected})
}

// GroupView is a set group as displayed under a selection.
type GroupView struct {
	SetName       string     `json:"set_name"`
	Cards         []CardView `json:"cards"`
	SelectedCount int        `json:"selected_count"`
}

// View applies selection to collection. Cards outside the enabled price
// categories are hidden and groups left with no visible card are omitted.
// Deselected cards stay visible with Selected false. Groups are ordered by
// selected count, largest first, ties keeping collection order.
func View(collection domain.ResultCollection, selection domain.Selection) []GroupView {
	views := make([]GroupView, 0, len(collection))
	for _, g := range collection {
		gv := GroupView{SetName: g.SetName}
		for _, c := range g.Cards {
			category := c.PriceCategory()
			if !selection.CategoryEnabled(category) {
				continue
			}
			selected := selection.IsSelected(c.Name)
			if selected {
				gv.SelectedCount++
			}
			gv.Cards = append(gv.Cards, CardView{CardRecord: c, PriceCategory: category, Selected: selected})
		}
		if len(gv.Cards) > 0 {
			views = append(views, gv)
		}
	}

	sort.SliceStable(views, func(i, j int) bool {
		return views[i].SelectedCount > views[j].SelectedCount
	})
	return views
}

// VisibleCount returns the number of cards across all views.
func VisibleCount(views []GroupView) int {
	n := 0
	for _, v := range views {
		n += len(v.Cards)
	}
	return n
}
