package domain

import "sort"

// Selection is the user's view state: which card names are deselected and
// which price categories are shown. It is an immutable value; every mutator
// returns a new Selection and leaves the receiver untouched.
type Selection struct {
	deselected map[string]struct{}
	enabled    map[PriceCategory]struct{}
}

// DefaultSelection enables every price category and deselects nothing.
func DefaultSelection() Selection {
	enabled := make(map[PriceCategory]struct{}, len(AllPriceCategories))
	for _, c := range AllPriceCategories {
		enabled[c] = struct{}{}
	}
	return Selection{
		deselected: map[string]struct{}{},
		enabled:    enabled,
	}
}

// NewSelection builds a Selection from explicit lists.
// Unknown categories are ignored.
func NewSelection(deselected []string, enabled []PriceCategory) Selection {
	s := Selection{
		deselected: make(map[string]struct{}, len(deselected)),
		enabled:    make(map[PriceCategory]struct{}, len(enabled)),
	}
	for _, name := range deselected {
		s.deselected[name] = struct{}{}
	}
	for _, c := range enabled {
		if c.Valid() {
			s.enabled[c] = struct{}{}
		}
	}
	return s
}

func (s Selection) clone() Selection {
	out := Selection{
		deselected: make(map[string]struct{}, len(s.deselected)),
		enabled:    make(map[PriceCategory]struct{}, len(s.enabled)),
	}
	for k := range s.deselected {
		out.deselected[k] = struct{}{}
	}
	for k := range s.enabled {
		out.enabled[k] = struct{}{}
	}
	return out
}

// Deselect marks a card name inactive in every group at once.
func (s Selection) Deselect(name string) Selection {
	out := s.clone()
	out.deselected[name] = struct{}{}
	return out
}

// Select restores a previously deselected card name.
func (s Selection) Select(name string) Selection {
	out := s.clone()
	delete(out.deselected, name)
	return out
}

// Toggle flips the selection state of a card name.
func (s Selection) Toggle(name string) Selection {
	if s.IsSelected(name) {
		return s.Deselect(name)
	}
	return s.Select(name)
}

// WithCategory enables or disables one price category.
func (s Selection) WithCategory(c PriceCategory, enabled bool) Selection {
	out := s.clone()
	if enabled && c.Valid() {
		out.enabled[c] = struct{}{}
	} else {
		delete(out.enabled, c)
	}
	return out
}

// IsSelected reports whether the card name is active.
func (s Selection) IsSelected(name string) bool {
	_, deselected := s.deselected[name]
	return !deselected
}

// CategoryEnabled reports whether cards in the category are shown.
func (s Selection) CategoryEnabled(c PriceCategory) bool {
	_, ok := s.enabled[c]
	return ok
}

// Deselected returns the deselected names, sorted.
func (s Selection) Deselected() []string {
	names := make([]string, 0, len(s.deselected))
	for name := range s.deselected {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// EnabledCategories returns the enabled categories in ascending price order.
func (s Selection) EnabledCategories() []PriceCategory {
	out := make([]PriceCategory, 0, len(s.enabled))
	for _, c := range AllPriceCategories {
		if s.CategoryEnabled(c) {
			out = append(out, c)
		}
	}
	return out
}
