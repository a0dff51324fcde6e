// Package decklist turns pasted deck list text into canonical card names.
//
// Recognized line shapes:
//
//	Lightning Bolt
//	4 Lightning Bolt
//	4 Lightning Bolt (M10)
//	4 Lightning Bolt (M10) 146
//	1 Delver of Secrets // Insectile Aberration (ISD) 51a
//	1 Sol Ring *F*
//
// Blank lines, comment lines starting with "/" and the section labels
// "Deck", "Sideboard" and "Commander" are skipped.
package decklist
