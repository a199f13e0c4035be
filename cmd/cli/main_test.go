package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"sheetsort/adapters/excel"
	"sheetsort/domain/table"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeCSV(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestRunDistributeMergesAcrossRuns(t *testing.T) {
	dir := t.TempDir()
	output := filepath.Join(dir, "sortiert.xlsx")
	codec := excel.NewCodec(excel.DefaultConfig())

	first := writeCSV(t, dir, "montag.csv", "Name,Praxis\nA,Nord\nB,Süd\n")
	var stdout, stderr bytes.Buffer
	err := runDistribute(distributeOptions{input: first, output: output, profile: "default"}, &stdout, &stderr)
	require.NoError(t, err)
	assert.Contains(t, stdout.String(), "Verteilung abgeschlossen: 2 neue Sheets erstellt, 2 Zeilen hinzugefügt")

	second := writeCSV(t, dir, "dienstag.csv", "Name,Praxis\nA,Nord\nC,Nord\n")
	stdout.Reset()
	err = runDistribute(distributeOptions{input: second, output: output, into: output, profile: "default"}, &stdout, &stderr)
	require.NoError(t, err)
	assert.Contains(t, stdout.String(), "Verteilung abgeschlossen: 0 neue Sheets erstellt, 1 Zeilen hinzugefügt")

	sheets, err := readWorkbook(codec, output)
	require.NoError(t, err)
	assert.Equal(t, []string{"dienstag", "montag", "Nord", "Süd"}, sheets.Names())

	nord, ok := sheets.Get("Nord")
	require.True(t, ok)
	require.Equal(t, 2, nord.Len())
	assert.Equal(t, "C", nord.Rows[0].Get("Name").String())
	assert.Equal(t, "A", nord.Rows[1].Get("Name").String())
}

func TestRunDistributeGroupKeyOverride(t *testing.T) {
	dir := t.TempDir()
	input := writeCSV(t, dir, "liste.csv", "Praxis,Name\nNord,A\nSüd,B\n")
	output := filepath.Join(dir, "out.xlsx")

	var stdout, stderr bytes.Buffer
	err := runDistribute(distributeOptions{
		input:         input,
		output:        output,
		profile:       "default",
		groupKeyIndex: 0,
		overrideIndex: true,
	}, &stdout, &stderr)
	require.NoError(t, err)

	sheets, err := readWorkbook(excel.NewCodec(excel.DefaultConfig()), output)
	require.NoError(t, err)
	assert.Equal(t, []string{"liste", "Nord", "Süd"}, sheets.Names())
}

func TestRunDistributeErrors(t *testing.T) {
	dir := t.TempDir()
	var stdout, stderr bytes.Buffer

	single := writeCSV(t, dir, "einspaltig.csv", "Name\nA\n")
	err := runDistribute(distributeOptions{input: single, output: filepath.Join(dir, "out.xlsx"), profile: "default"}, &stdout, &stderr)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Nicht genügend Spalten")
	assert.NoFileExists(t, filepath.Join(dir, "out.xlsx"))

	err = runDistribute(distributeOptions{input: single, output: filepath.Join(dir, "out.csv"), profile: "default"}, &stdout, &stderr)
	assert.Error(t, err)

	err = runDistribute(distributeOptions{input: single, output: filepath.Join(dir, "out.xlsx"), profile: "fehlt"}, &stdout, &stderr)
	assert.Error(t, err)

	err = runDistribute(distributeOptions{input: single, output: filepath.Join(dir, "out.xlsx"), profile: "dashboard"}, &stdout, &stderr)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Keine Daten zum Sortieren gefunden")
}

func TestPrintSheets(t *testing.T) {
	nord := table.New("Nord", "Name", "Praxis")
	nord.Append(table.Row{"Name": table.Text("A"), "Praxis": table.Text("Nord")})

	var out bytes.Buffer
	require.NoError(t, printSheets(&out, table.NewSet(nord)))
	assert.Contains(t, out.String(), "Nord")
	assert.Contains(t, out.String(), "Name, Praxis")
}
