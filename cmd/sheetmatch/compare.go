package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rpggio/sheetmatch/internal/domain/compare"
	"github.com/rpggio/sheetmatch/internal/report"
	"github.com/rpggio/sheetmatch/internal/workbook"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// Report formats accepted by --report.
const (
	reportMarkdown = "markdown"
	reportJSON     = "json"
	reportNone     = "none"
)

// NewCompareCmd creates the compare command.
func NewCompareCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compare <raw-file> <previous-file>",
		Short: "Annotate a raw sheet against a previous sheet",
		Long: `Compare reads the raw and previous files (.xlsx or .csv), marks every raw row
whose patient name appears in the previous sheet as "Done", writes the annotated
workbook and prints a summary report.

Examples:
  # Annotate the first sheets, writing raw_annotated.xlsx next to raw.xlsx
  sheetmatch compare raw.xlsx previous.xlsx

  # Pick sheets and output path, print the report as JSON
  sheetmatch compare raw.xlsx previous.csv --raw-sheet Intake -o out.xlsx --report json`,
		Args: cobra.ExactArgs(2),
		RunE: runCompareCmd,
	}

	cmd.Flags().String("raw-sheet", "", "Raw sheet to annotate (default: first sheet)")
	cmd.Flags().String("previous-sheet", "", "Previous sheet to match against (default: first sheet)")
	cmd.Flags().StringP("output", "o", "", "Annotated output file (default: <raw>_annotated.<ext> next to the raw file)")
	cmd.Flags().StringP("report", "r", reportMarkdown, "Report format: markdown, json or none")

	return cmd
}

type compareOptions struct {
	rawPath       string
	previousPath  string
	rawSheet      string
	previousSheet string
	output        string
	reportFormat  string
}

func runCompareCmd(cmd *cobra.Command, args []string) error {
	opts := compareOptions{rawPath: args[0], previousPath: args[1]}
	var err error
	if opts.rawSheet, err = cmd.Flags().GetString("raw-sheet"); err != nil {
		return err
	}
	if opts.previousSheet, err = cmd.Flags().GetString("previous-sheet"); err != nil {
		return err
	}
	if opts.output, err = cmd.Flags().GetString("output"); err != nil {
		return err
	}
	if opts.reportFormat, err = cmd.Flags().GetString("report"); err != nil {
		return err
	}
	switch opts.reportFormat {
	case reportMarkdown, reportJSON, reportNone:
	default:
		return fmt.Errorf("unknown report format %q (use markdown, json or none)", opts.reportFormat)
	}

	r, err := compareFiles(cmd.Context(), opts)
	if err != nil {
		return err
	}

	switch opts.reportFormat {
	case reportJSON:
		return report.WriteJSON(cmd.OutOrStdout(), r)
	case reportMarkdown:
		return report.WriteMarkdown(cmd.OutOrStdout(), r)
	}
	return nil
}

// compareFiles parses both files concurrently, annotates the raw sheet and writes the
// annotated workbook.
func compareFiles(ctx context.Context, opts compareOptions) (*report.Report, error) {
	var raw, previous *workbook.Workbook

	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		wb, err := readWorkbook(opts.rawPath)
		raw = wb
		return err
	})
	g.Go(func() error {
		wb, err := readWorkbook(opts.previousPath)
		previous = wb
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	rawSheet := firstSheet(raw, opts.rawSheet)
	previousSheet := firstSheet(previous, opts.previousSheet)

	source, err := raw.Sheets.MustSheet(rawSheet)
	if err != nil {
		return nil, &compare.ComparisonError{Side: compare.SideSource, Err: err}
	}
	reference, err := previous.Sheets.MustSheet(previousSheet)
	if err != nil {
		return nil, &compare.ComparisonError{Side: compare.SideReference, Err: err}
	}

	res, err := compare.Annotate(source, reference)
	if err != nil {
		return nil, err
	}

	raw.Sheets.Set(rawSheet, res.Table)
	data, err := workbook.Write(raw)
	if err != nil {
		return nil, err
	}

	output := opts.output
	if output == "" {
		output = filepath.Join(filepath.Dir(opts.rawPath), workbook.AnnotatedFileName(raw.FileName, raw.Format))
	}
	if err := os.WriteFile(output, data, 0o644); err != nil {
		return nil, fmt.Errorf("write %s: %w", output, err)
	}

	return &report.Report{
		RawFile:       opts.rawPath,
		RawSheet:      rawSheet,
		PreviousFile:  opts.previousPath,
		PreviousSheet: previousSheet,
		OutputFile:    output,
		Summary:       res.Summary,
		Pending:       report.PendingIdentifiers(res.Table, res.Summary.SourceColumn),
		GeneratedAt:   time.Now(),
	}, nil
}

func readWorkbook(path string) (*workbook.Workbook, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return workbook.Parse(path, data)
}

func firstSheet(wb *workbook.Workbook, name string) string {
	if name != "" || wb.Sheets.Len() == 0 {
		return name
	}
	return wb.Sheets.Names()[0]
}
