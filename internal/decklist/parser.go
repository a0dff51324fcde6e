package decklist

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrInputNotText is returned when a deck list is not a string.
// Values are never coerced into text.
var ErrInputNotText = errors.New("deck list input must be text")

var (
	lineBreak = regexp.MustCompile(`\r?\n`)

	// "4 Lightning Bolt" -> "Lightning Bolt"
	quantityPrefix = regexp.MustCompile(`^\d+\s+`)

	// "Lightning Bolt *F*" -> "Lightning Bolt"
	flagSuffix = regexp.MustCompile(`\s+\*\w*\*$`)

	// "Lightning Bolt (M10) 146a" -> "Lightning Bolt"
	setCodeSuffix = regexp.MustCompile(`\s*\([A-Z0-9]+\)(?:\s+[A-Z0-9-]*\d+[a-z]*)?$`)

	// "Lightning Bolt 146" -> "Lightning Bolt"
	collectorSuffix = regexp.MustCompile(`\s+[A-Z0-9-]*\d+[a-z]*$`)
)

// sectionLabels are the reserved headers exported by deck builders.
var sectionLabels = map[string]struct{}{
	"Deck":      {},
	"Sideboard": {},
	"Commander": {},
}

// ExtractCardNames converts free-form deck list text into canonical card
// names, one per eligible line, in input order. Duplicates are kept.
func ExtractCardNames(input string) []string {
	lines := lineBreak.Split(input, -1)
	names := make([]string, 0, len(lines))

	for _, line := range lines {
		line = strings.TrimSpace(line)
		if !eligible(line) {
			continue
		}

		if name := CanonicalName(line); name != "" {
			names = append(names, name)
		}
	}

	return names
}

// ExtractFromValue is ExtractCardNames for untyped input such as a decoded
// JSON field. Anything other than a string fails with ErrInputNotText.
func ExtractFromValue(v any) ([]string, error) {
	text, ok := v.(string)
	if !ok {
		return nil, fmt.Errorf("%w: got %T", ErrInputNotText, v)
	}
	return ExtractCardNames(text), nil
}

// CanonicalName strips quantity, set code, collector number and flag
// annotations from a single trimmed line. Names containing "//" or
// parentheses that are not a trailing set code are preserved.
func CanonicalName(line string) string {
	name := strings.TrimSpace(line)
	name = quantityPrefix.ReplaceAllString(name, "")
	name = flagSuffix.ReplaceAllString(name, "")

	if setCodeSuffix.MatchString(name) {
		name = setCodeSuffix.ReplaceAllString(name, "")
	} else if stripped := collectorSuffix.ReplaceAllString(name, ""); strings.TrimSpace(stripped) != "" {
		name = stripped
	}

	return strings.TrimSpace(name)
}

// CountEligibleLines returns how many lines survive the blank, comment and
// section-label filters. ExtractCardNames never returns more names than this.
func CountEligibleLines(input string) int {
	count := 0
	for _, line := range lineBreak.Split(input, -1) {
		if eligible(strings.TrimSpace(line)) {
			count++
		}
	}
	return count
}

func eligible(line string) bool {
	if line == "" || strings.HasPrefix(line, "/") {
		return false
	}
	_, reserved := sectionLabels[line]
	return !reserved
}
