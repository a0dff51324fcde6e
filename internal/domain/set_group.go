package domain

import "sort"

// SetGroup is the collection of distinct cards sharing one named release.
// Card names are unique within a group.
type SetGroup struct {
	SetName string       `json:"set_name"`
	Cards   []CardRecord `json:"cards"`
}

// Contains reports whether a card with the given name is already in the group.
func (g SetGroup) Contains(name string) bool {
	for _, c := range g.Cards {
		if c.Name == name {
			return true
		}
	}
	return false
}

// Names returns the card names in stored order.
func (g SetGroup) Names() []string {
	names := make([]string, 0, len(g.Cards))
	for _, c := range g.Cards {
		names = append(names, c.Name)
	}
	return names
}

// ResultCollection is the ordered output of the resolution pipeline.
type ResultCollection []SetGroup

// SortBySize orders groups by card count, largest first.
// Ties keep the order in which the groups were first encountered.
func (rc ResultCollection) SortBySize() {
	sort.SliceStable(rc, func(i, j int) bool {
		return len(rc[i].Cards) > len(rc[j].Cards)
	})
}

// CardCount returns the total number of records across all groups.
func (rc ResultCollection) CardCount() int {
	total := 0
	for _, g := range rc {
		total += len(g.Cards)
	}
	return total
}
