package excel

// Config holds workbook parsing and rendering options
type Config struct {
	// CSVComma is the field delimiter of CSV uploads
	CSVComma rune `json:"csv_comma"`
	// HeaderFill colours the header row of exported sheets; empty disables it
	HeaderFill string `json:"header_fill"`
}

// DefaultConfig returns sensible defaults for workbook processing
func DefaultConfig() Config {
	return Config{
		CSVComma:   ',',
		HeaderFill: "#D9E1F2",
	}
}
