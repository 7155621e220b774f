package main

import (
	"errors"
	"fmt"

	"github.com/rpggio/sheetmatch/internal/domain/compare"
	"github.com/spf13/cobra"
)

// NewColumnsCmd creates the columns command.
func NewColumnsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "columns <file>",
		Short: "List sheets and columns and show the detected name column",
		Args:  cobra.ExactArgs(1),
		RunE:  runColumnsCmd,
	}
	cmd.Flags().String("sheet", "", "Only show this sheet")
	return cmd
}

func runColumnsCmd(cmd *cobra.Command, args []string) error {
	only, err := cmd.Flags().GetString("sheet")
	if err != nil {
		return err
	}

	wb, err := readWorkbook(args[0])
	if err != nil {
		return err
	}
	names := wb.Sheets.Names()
	if only != "" {
		if _, err := wb.Sheets.MustSheet(only); err != nil {
			return err
		}
		names = []string{only}
	}

	out := cmd.OutOrStdout()
	for _, name := range names {
		tbl, _ := wb.Sheets.Sheet(name)
		fmt.Fprintf(out, "%s (%d rows)\n", name, tbl.RowCount())
		for _, col := range tbl.ColumnNames() {
			fmt.Fprintf(out, "  - %s\n", col)
		}
		col, err := compare.ResolveIdentifierColumn(tbl.ColumnNames())
		switch {
		case err == nil:
			fmt.Fprintf(out, "  name column: %s\n", col)
		case errors.Is(err, compare.ErrColumnNotFound):
			fmt.Fprintln(out, "  name column: none")
		default:
			return err
		}
	}
	return nil
}
