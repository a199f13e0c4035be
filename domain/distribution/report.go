package distribution

import (
	"fmt"
	"strings"
)

// SheetSummary describes what a run did to one derived table
type SheetSummary struct {
	Name      string `json:"name"`
	Created   bool   `json:"created"`
	RowsAdded int    `json:"rows_added"`
	Skipped   int    `json:"duplicates_skipped"`
	TotalRows int    `json:"total_rows"`
}

// Report aggregates the outcome of a distribution run
type Report struct {
	SheetsCreated     int                     `json:"sheets_created"`
	RowsAdded         int                     `json:"rows_added"`
	DuplicatesSkipped int                     `json:"duplicates_skipped"`
	RowsIgnored       int                     `json:"rows_ignored"`
	Sheets            []SheetSummary          `json:"sheets"`
	Warnings          []MergeAlignmentWarning `json:"warnings,omitempty"`
}

// Message is the one-line summary shown to the user
func (r Report) Message() string {
	return fmt.Sprintf("Verteilung abgeschlossen: %d neue Sheets erstellt, %d Zeilen hinzugefügt",
		r.SheetsCreated, r.RowsAdded)
}

// Markdown renders the report with a per-sheet table
func (r Report) Markdown() string {
	var b strings.Builder
	b.WriteString("### ")
	b.WriteString(r.Message())
	b.WriteString("\n\n")

	if len(r.Sheets) > 0 {
		b.WriteString("| Sheet | Neu | Hinzugefügt | Duplikate | Zeilen gesamt |\n")
		b.WriteString("|---|---|---|---|---|\n")
		for _, s := range r.Sheets {
			created := "nein"
			if s.Created {
				created = "ja"
			}
			fmt.Fprintf(&b, "| %s | %s | %d | %d | %d |\n",
				escapeCell(s.Name), created, s.RowsAdded, s.Skipped, s.TotalRows)
		}
		b.WriteString("\n")
	}

	if r.RowsIgnored > 0 {
		fmt.Fprintf(&b, "%d Zeilen ohne Praxis-Namen wurden ignoriert.\n\n", r.RowsIgnored)
	}
	for _, w := range r.Warnings {
		b.WriteString("- ")
		b.WriteString(w.String())
		b.WriteString("\n")
	}
	return b.String()
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}
