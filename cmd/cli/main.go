package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"sheetsort/adapters/excel"
	"sheetsort/domain/distribution"
	"sheetsort/domain/table"
	"sheetsort/internal/profiles"

	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:          "sheetsort",
		Short:        "Distribute spreadsheet rows into one sheet per group key",
		SilenceUsage: true,
	}

	rootCmd.AddCommand(
		newDistributeCmd(),
		newSheetsCmd(),
		newProfilesCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type distributeOptions struct {
	input         string
	output        string
	into          string
	sheet         string
	profile       string
	profilesFile  string
	groupKeyIndex int
	overrideIndex bool
}

func newDistributeCmd() *cobra.Command {
	var opts distributeOptions

	cmd := &cobra.Command{
		Use:   "distribute [input]",
		Short: "Distribute the rows of a sheet by its group-key column",
		Long: `Distribute the rows of the source sheet into one sheet per distinct
group key (column B by default) and write the merged workbook.

Without --into the derived sheets are merged into the input workbook itself.
With --into they are merged into the sheets of an existing workbook, so rows
distributed in earlier runs are kept and duplicates are skipped.

Example: sheetsort distribute liste.xlsx -o sortiert.xlsx --into sortiert.xlsx`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.input = args[0]
			opts.overrideIndex = cmd.Flags().Changed("group-key-index")
			return runDistribute(opts, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "Output workbook (.xlsx)")
	cmd.Flags().StringVar(&opts.into, "into", "", "Existing workbook to merge into")
	cmd.Flags().StringVar(&opts.sheet, "sheet", "", "Source sheet (default: from profile, else the first sheet)")
	cmd.Flags().StringVar(&opts.profile, "profile", profiles.DefaultName, "Distribution profile")
	cmd.Flags().StringVar(&opts.profilesFile, "profiles", "", "TOML file with additional profiles")
	cmd.Flags().IntVar(&opts.groupKeyIndex, "group-key-index", distribution.DefaultGroupKeyIndex, "Zero-based group-key column (1 = column B)")
	cmd.MarkFlagRequired("output")

	return cmd
}

func runDistribute(opts distributeOptions, stdout, stderr io.Writer) error {
	if !strings.EqualFold(filepath.Ext(opts.output), ".xlsx") {
		return fmt.Errorf("output must be an .xlsx file: %s", opts.output)
	}

	registry, err := profiles.Load(opts.profilesFile)
	if err != nil {
		return err
	}
	cfg, err := registry.Get(opts.profile)
	if err != nil {
		return err
	}
	if opts.overrideIndex {
		cfg.GroupKeyIndex = opts.groupKeyIndex
		cfg.GroupKeyColumn = ""
	}
	if opts.sheet != "" {
		cfg.SourceSheet = opts.sheet
	}

	codec := excel.NewCodec(excel.DefaultConfig())
	input, err := readWorkbook(codec, opts.input)
	if err != nil {
		return err
	}
	source, ok := cfg.SelectSource(input)
	if !ok {
		return fmt.Errorf("Keine Daten zum Sortieren gefunden: Sheet '%s' fehlt in %s", cfg.SourceSheet, opts.input)
	}

	existing := input
	if opts.into != "" {
		if existing, err = readWorkbook(codec, opts.into); err != nil {
			return err
		}
	}

	out := distribution.NewDistributor(cfg).Apply(source, existing)
	if out.Failed() {
		return out.Err
	}
	for _, w := range out.Report.Warnings {
		fmt.Fprintf(stderr, "Warnung: %s\n", w.String())
	}

	if err := writeWorkbook(codec, opts.output, out.Tables); err != nil {
		return err
	}

	fmt.Fprintln(stdout, out.Report.Message())
	tw := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SHEET\tNEU\tHINZUGEFÜGT\tDUPLIKATE\tZEILEN")
	for _, s := range out.Report.Sheets {
		created := "nein"
		if s.Created {
			created = "ja"
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%d\n", s.Name, created, s.RowsAdded, s.Skipped, s.TotalRows)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	if out.Report.RowsIgnored > 0 {
		fmt.Fprintf(stdout, "%d Zeilen ohne Praxis-Namen ignoriert\n", out.Report.RowsIgnored)
	}
	fmt.Fprintf(stdout, "Gespeichert: %s\n", opts.output)
	return nil
}

func newSheetsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sheets [file]",
		Short: "List the sheets of a workbook with their size",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sheets, err := readWorkbook(excel.NewCodec(excel.DefaultConfig()), args[0])
			if err != nil {
				return err
			}
			return printSheets(cmd.OutOrStdout(), sheets)
		},
	}
}

func printSheets(w io.Writer, sheets *table.Set) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SHEET\tZEILEN\tSPALTEN")
	for _, t := range sheets.Tables() {
		fmt.Fprintf(tw, "%s\t%d\t%s\n", t.Name, t.Len(), strings.Join(t.Columns, ", "))
	}
	return tw.Flush()
}

func newProfilesCmd() *cobra.Command {
	var profilesFile string

	cmd := &cobra.Command{
		Use:   "profiles",
		Short: "List the available distribution profiles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			registry, err := profiles.Load(profilesFile)
			if err != nil {
				return err
			}
			for _, p := range registry.List() {
				fmt.Fprintf(cmd.OutOrStdout(), "%-12s %s\n", p.Name, p.Description)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&profilesFile, "profiles", "", "TOML file with additional profiles")
	return cmd
}

func readWorkbook(codec *excel.Codec, path string) (*table.Set, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	sheets, err := codec.ReadWorkbook(f, filepath.Base(path))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return sheets, nil
}

// writeWorkbook writes to a temporary file first so that --into and -o may
// name the same file
func writeWorkbook(codec *excel.Codec, path string, sheets *table.Set) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".sheetsort-*.xlsx")
	if err != nil {
		return fmt.Errorf("failed to create output: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := codec.WriteWorkbook(tmp, sheets); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
