// Package domain contains the core entities of the set grouper: card
// records, set groups, price categories and the user's selection state.
// It is independent of any storage, transport or presentation concern.
package domain
