// Package service provides the card resolution pipeline: it turns deck-list
// names into price-categorized set groups, consulting the persistent entry
// cache before the card-data service and isolating failures per name.
package service
