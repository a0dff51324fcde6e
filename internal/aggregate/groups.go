// Package aggregate folds normalized card records into set groups and
// derives the filtered, selection-aware view of a result collection.
package aggregate

import "github.com/phrazzld/setgrouper/internal/domain"

// Groups accumulates records by set name, preserving first-encounter order
// of sets and of cards within a set.
type Groups struct {
	order []string
	index map[string]int
	sets  []domain.SetGroup
}

// NewGroups returns an empty accumulator.
func NewGroups() *Groups {
	return &Groups{index: make(map[string]int)}
}

// Add appends record to the group for setName unless a card with the same
// name is already there. It reports whether the record was added.
func (g *Groups) Add(setName string, record domain.CardRecord) bool {
	i, ok := g.index[setName]
	if !ok {
		i = len(g.sets)
		g.index[setName] = i
		g.order = append(g.order, setName)
		g.sets = append(g.sets, domain.SetGroup{SetName: setName})
	}
	if g.sets[i].Contains(record.Name) {
		return false
	}
	g.sets[i].Cards = append(g.sets[i].Cards, record)
	return true
}

// Len returns the number of sets seen so far.
func (g *Groups) Len() int {
	return len(g.sets)
}

// Collection returns a copy of the groups sorted by size, largest first,
// with ties in first-encounter order.
func (g *Groups) Collection() domain.ResultCollection {
	out := make(domain.ResultCollection, len(g.sets))
	for i, s := range g.sets {
		out[i] = domain.SetGroup{
			SetName: s.SetName,
			Cards:   append([]domain.CardRecord(nil), s.Cards...),
		}
	}
	out.SortBySize()
	return out
}

// Prune removes every card named name from every group and drops groups
// left empty. The input is not modified.
func Prune(collection domain.ResultCollection, name string) domain.ResultCollection {
	out := make(domain.ResultCollection, 0, len(collection))
	for _, g := range collection {
		kept := make([]domain.CardRecord, 0, len(g.Cards))
		for _, c := range g.Cards {
			if c.Name != name {
				kept = append(kept, c)
			}
		}
		if len(kept) > 0 {
			out = append(out, domain.SetGroup{SetName: g.SetName, Cards: kept})
		}
	}
	return out
}
