package excel

import (
	"bytes"
	"log"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"sheetsort/domain/table"
	"sheetsort/internal"
)

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		name    string
		want    Format
		wantErr bool
	}{
		{"praxen.xlsx", FormatXLSX, false},
		{"PRAXEN.XLSM", FormatXLSX, false},
		{"export.csv", FormatCSV, false},
		{"alt.xls", "", true},
		{"notes.txt", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DetectFormat(tt.name)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestHeaderNames(t *testing.T) {
	got := headerNames([]string{" A ", "", "A", "A.1", "A"}, 6)
	assert.Equal(t, []string{"A", "Unnamed: 1", "A.1", "A.1.1", "A.2", "Unnamed: 5"}, got)
}

func TestReadCSV(t *testing.T) {
	input := "Nr,Praxis,Notiz\n1,Nord,x\n2,Süd,\n3,,0123abc\n\n"
	sheets, err := NewCodec(DefaultConfig()).ReadWorkbook(strings.NewReader(input), "uploads/liste.csv")
	require.NoError(t, err)

	require.Equal(t, []string{"liste"}, sheets.Names())
	tbl, _ := sheets.Get("liste")
	assert.Equal(t, []string{"Nr", "Praxis", "Notiz"}, tbl.Columns)
	require.Equal(t, 3, tbl.Len())
	assert.Equal(t, table.KindNumber, tbl.Rows[0].Get("Nr").Kind())
	assert.Equal(t, "Süd", tbl.Rows[1].Get("Praxis").String())
	assert.True(t, tbl.Rows[1].Get("Notiz").IsEmpty())
	assert.Equal(t, table.KindText, tbl.Rows[2].Get("Notiz").Kind())
}

func TestCodecLogsThroughLeveledLogger(t *testing.T) {
	var buf bytes.Buffer
	log.SetOutput(&buf)
	level := internal.DefaultLogger.GetLevel()
	defer func() {
		log.SetOutput(os.Stderr)
		internal.DefaultLogger.SetLevel(level)
	}()

	input := "Nr,Praxis\n1,Nord\n"

	internal.DefaultLogger.SetLevel(internal.LogLevelError)
	_, err := NewCodec(DefaultConfig()).ReadWorkbook(strings.NewReader(input), "liste.csv")
	require.NoError(t, err)
	assert.Empty(t, buf.String())

	internal.DefaultLogger.SetLevel(internal.LogLevelDebug)
	_, err = NewCodec(DefaultConfig()).ReadWorkbook(strings.NewReader(input), "liste.csv")
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "[DEBUG] [ExcelCodec] CSV file processed (2 columns, 1 rows)")
}

func TestReadUnsupported(t *testing.T) {
	_, err := NewCodec(DefaultConfig()).ReadWorkbook(strings.NewReader(""), "alt.xls")
	assert.Error(t, err)
}

func TestWriteReadRoundTrip(t *testing.T) {
	source := table.New("Tabelle1", "Nr", "Praxis", "Notiz")
	source.Append(
		table.Row{"Nr": table.Number(1), "Praxis": table.Text("Nord"), "Notiz": table.Text("x")},
		table.Row{"Nr": table.Number(2.5), "Praxis": table.Text("Süd")},
	)
	require.NoError(t, source.SetColor(0, "#FFCC00"))

	nord := table.New("Nord", "Nr", "Praxis", "Notiz")
	nord.Append(table.Row{"Nr": table.Number(1), "Praxis": table.Text("Nord"), "Notiz": table.Text("x")})

	codec := NewCodec(DefaultConfig())
	var buf bytes.Buffer
	require.NoError(t, codec.WriteWorkbook(&buf, table.NewSet(source, nord)))

	sheets, err := codec.ReadWorkbook(bytes.NewReader(buf.Bytes()), "out.xlsx")
	require.NoError(t, err)
	assert.Equal(t, []string{"Tabelle1", "Nord"}, sheets.Names())

	got, _ := sheets.Get("Tabelle1")
	assert.Equal(t, source.Columns, got.Columns)
	require.Equal(t, 2, got.Len())
	assert.Equal(t, table.KindNumber, got.Rows[1].Get("Nr").Kind())
	assert.Equal(t, "2.5", got.Rows[1].Get("Nr").String())
	assert.True(t, got.Rows[1].Get("Notiz").IsEmpty())

	// identity survives the round trip
	assert.Equal(t, source.Key(0), got.Key(0))
}

func TestWriteAppliesRowFill(t *testing.T) {
	tbl := table.New("Nord", "A", "B")
	tbl.Append(table.Row{"A": table.Text("a"), "B": table.Text("b")})
	require.NoError(t, tbl.SetColor(0, "#00FF00"))

	var buf bytes.Buffer
	require.NoError(t, NewCodec(Config{}).WriteWorkbook(&buf, table.NewSet(tbl)))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	styleID, err := f.GetCellStyle("Nord", "B2")
	require.NoError(t, err)
	style, err := f.GetStyle(styleID)
	require.NoError(t, err)
	require.NotEmpty(t, style.Fill.Color)
	assert.True(t, strings.HasSuffix(strings.ToUpper(style.Fill.Color[0]), "00FF00"), style.Fill.Color[0])
}

func TestUniqueSheetNames(t *testing.T) {
	long := strings.Repeat("x", 40)
	got := uniqueSheetNames([]string{"Nord", "nord", long, long + "y", "a/b", ""})
	assert.Equal(t, "Nord", got[0])
	assert.Equal(t, "nord~2", got[1])
	assert.Equal(t, strings.Repeat("x", 31), got[2])
	assert.Equal(t, strings.Repeat("x", 29)+"~2", got[3])
	assert.Equal(t, "a_b", got[4])
	assert.Equal(t, "Sheet1", got[5])
}
