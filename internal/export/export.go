package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/phrazzld/setgrouper/internal/domain"
)

// Filename is the suggested name for a CSV download.
const Filename = "mtg_set_groups.csv"

// ContentType is the MIME type of WriteCSV output.
const ContentType = "text/csv; charset=utf-8"

var csvHeader = []string{"Set", "Cards"}

// WriteCSV writes one row per group: the set name and its card names joined
// with ", ", in collection order.
func WriteCSV(w io.Writer, collection domain.ResultCollection) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, g := range collection {
		if err := cw.Write([]string{g.SetName, strings.Join(g.Names(), ", ")}); err != nil {
			return fmt.Errorf("write csv row for %q: %w", g.SetName, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteText writes a human-readable listing: each set with its card count,
// followed by the cards and their prices.
func WriteText(w io.Writer, collection domain.ResultCollection) error {
	for i, g := range collection {
		if i > 0 {
			if _, err := fmt.Fprintln(w); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintf(w, "%s (%d)\n", g.SetName, len(g.Cards)); err != nil {
			return err
		}
		for _, c := range g.Cards {
			if _, err := fmt.Fprintf(w, "  %s  %s  [%s]\n", c.Name, c.Price, c.PriceCategory()); err != nil {
				return err
			}
		}
	}
	return nil
}
