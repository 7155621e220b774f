package workbook

import (
	"bytes"
	"fmt"
	"math"
	"strconv"

	"github.com/rpggio/sheetmatch/internal/domain/table"
	"github.com/xuri/excelize/v2"
)

const defaultSheet = "Sheet1"

func parseXLSX(data []byte) (table.TableSet, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return table.TableSet{}, err
	}
	defer f.Close()

	var set table.TableSet
	for _, sheetName := range f.GetSheetList() {
		tbl, err := readSheet(f, sheetName)
		if err != nil {
			return table.TableSet{}, fmt.Errorf("sheet %q: %w", sheetName, err)
		}
		set.Set(sheetName, tbl)
	}
	return set, nil
}

// readSheet uses the first row as header and every following row as data.
func readSheet(f *excelize.File, sheetName string) (table.Table, error) {
	rows, err := f.GetRows(sheetName, excelize.Options{RawCellValue: true})
	if err != nil {
		return table.Table{}, err
	}
	if len(rows) == 0 {
		return table.Table{}, nil
	}

	width := maxWidth(rows)
	header := headerNames(rows[0], width)

	data := make([][]table.Cell, 0, len(rows)-1)
	for rowIdx, row := range rows[1:] {
		cells := make([]table.Cell, width)
		for colIdx := 0; colIdx < width; colIdx++ {
			if colIdx >= len(row) || row[colIdx] == "" {
				cells[colIdx] = table.Empty()
				continue
			}
			cellName, err := excelize.CoordinatesToCellName(colIdx+1, rowIdx+2)
			if err != nil {
				return table.Table{}, err
			}
			cellType, err := f.GetCellType(sheetName, cellName)
			if err != nil {
				return table.Table{}, err
			}
			cells[colIdx] = cellValue(row[colIdx], cellType)
		}
		data = append(data, cells)
	}

	return table.New(header, data), nil
}

// cellValue keeps string cells as text and parses everything else as a number when
// it looks like one.
func cellValue(raw string, cellType excelize.CellType) table.Cell {
	switch cellType {
	case excelize.CellTypeSharedString, excelize.CellTypeInlineString, excelize.CellTypeBool, excelize.CellTypeError:
		return table.Text(raw)
	}
	return parseValue(raw)
}

// parseValue returns a number cell for finite numeric text and a text cell otherwise,
// so names like "Nan" stay text.
func parseValue(s string) table.Cell {
	if s == "" {
		return table.Empty()
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && !math.IsInf(f, 0) && !math.IsNaN(f) {
		return table.Number(f)
	}
	return table.Text(s)
}

func writeXLSX(set table.TableSet) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	for i, sheet := range set.Sheets {
		if i == 0 {
			if sheet.Name != defaultSheet {
				if err := f.SetSheetName(defaultSheet, sheet.Name); err != nil {
					return nil, fmt.Errorf("sheet %q: %w", sheet.Name, err)
				}
			}
		} else if _, err := f.NewSheet(sheet.Name); err != nil {
			return nil, fmt.Errorf("sheet %q: %w", sheet.Name, err)
		}

		if err := writeSheet(f, sheet.Name, sheet.Table); err != nil {
			return nil, fmt.Errorf("sheet %q: %w", sheet.Name, err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeSheet(f *excelize.File, sheetName string, tbl table.Table) error {
	if len(tbl.Columns) == 0 {
		return nil
	}

	header := make([]any, len(tbl.Columns))
	for i, name := range tbl.ColumnNames() {
		header[i] = name
	}
	if err := f.SetSheetRow(sheetName, "A1", &header); err != nil {
		return err
	}

	for r := 0; r < tbl.RowCount(); r++ {
		cell, err := excelize.CoordinatesToCellName(1, r+2)
		if err != nil {
			return err
		}
		row := tbl.Row(r)
		values := make([]any, len(row))
		for i, c := range row {
			values[i] = c.Value()
		}
		if err := f.SetSheetRow(sheetName, cell, &values); err != nil {
			return err
		}
	}
	return nil
}
