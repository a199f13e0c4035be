// Package sampledata generates deterministic Praxis workbooks for demos and
// load tests of the distributor.
package sampledata

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"math/rand"
	"time"

	"sheetsort/domain/table"
)

// Columns of the generated sheet; Praxis is column B
var Columns = []string{"Patient-Nr", "Praxis", "Datum", "Leistung", "Betrag"}

var defaultPractices = []string{
	"Praxis Nord", "Praxis Süd", "Praxis West", "Dr. Weber/Schmidt", "MVZ Am Markt",
}

var services = []string{"Kontrolle", "Beratung", "Impfung", "Labor", "Röntgen", "Nachsorge"}

// Config controls the generated data
type Config struct {
	Rows      int
	Seed      int64
	StartDate time.Time
	SheetName string
	Practices []string

	// BlankKeyRate is the share of rows without a practice name
	BlankKeyRate float64
	// PaddedKeyRate is the share of practice names with surrounding spaces
	PaddedKeyRate float64
	// DuplicateRate is the share of rows repeating an earlier row
	DuplicateRate float64
}

// DefaultConfig returns a small mixed workbook
func DefaultConfig() Config {
	return Config{
		Rows:          200,
		Seed:          42,
		StartDate:     time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		SheetName:     "Tabelle1",
		Practices:     defaultPractices,
		BlankKeyRate:  0.05,
		PaddedKeyRate: 0.1,
		DuplicateRate: 0.05,
	}
}

// Generate builds the sample sheet. The same config always yields the same
// table.
func Generate(cfg Config) (*table.Table, error) {
	if cfg.Rows <= 0 {
		return nil, fmt.Errorf("rows must be > 0")
	}
	if len(cfg.Practices) == 0 {
		return nil, fmt.Errorf("at least one practice is required")
	}
	for name, rate := range map[string]float64{
		"blank key rate":  cfg.BlankKeyRate,
		"padded key rate": cfg.PaddedKeyRate,
		"duplicate rate":  cfg.DuplicateRate,
	} {
		if rate < 0 || rate > 1 {
			return nil, fmt.Errorf("%s must be within [0, 1]", name)
		}
	}
	if cfg.SheetName == "" {
		cfg.SheetName = "Tabelle1"
	}

	rng := rand.New(rand.NewSource(cfg.Seed))
	t := table.New(cfg.SheetName, Columns...)

	for i := 0; i < cfg.Rows; i++ {
		if i > 0 && rng.Float64() < cfg.DuplicateRate {
			t.Append(t.Rows[rng.Intn(len(t.Rows))].Clone())
			continue
		}

		practice := table.Text(cfg.Practices[rng.Intn(len(cfg.Practices))])
		switch r := rng.Float64(); {
		case r < cfg.BlankKeyRate:
			practice = table.Empty()
		case r < cfg.BlankKeyRate+cfg.PaddedKeyRate:
			practice = table.Text("  " + practice.String() + " ")
		}

		t.Append(table.Row{
			"Patient-Nr": table.Number(float64(10000 + i)),
			"Praxis":     practice,
			"Datum":      table.Text(cfg.StartDate.AddDate(0, 0, rng.Intn(90)).Format("02.01.2006")),
			"Leistung":   table.Text(services[rng.Intn(len(services))]),
			"Betrag":     table.Number(round(20+rng.Float64()*180, 2)),
		})
	}
	return t, nil
}

// WriteCSV writes t with a header row
func WriteCSV(w io.Writer, t *table.Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Columns); err != nil {
		return err
	}
	record := make([]string, len(t.Columns))
	for _, row := range t.Rows {
		for i, column := range t.Columns {
			record[i] = row.Get(column).String()
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func round(x float64, decimals int) float64 {
	p := math.Pow10(decimals)
	return math.Round(x*p) / p
}
