package workbook

import (
	"bytes"
	"encoding/csv"
	"errors"
	"io"

	"github.com/rpggio/sheetmatch/internal/domain/table"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

func parseCSV(sheetName string, data []byte) (table.TableSet, error) {
	r := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(data, utf8BOM)))
	r.FieldsPerRecord = -1

	var rows [][]string
	for {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return table.TableSet{}, err
		}
		rows = append(rows, record)
	}

	var set table.TableSet
	if len(rows) == 0 {
		set.Set(sheetName, table.Table{})
		return set, nil
	}

	width := maxWidth(rows)
	header := headerNames(rows[0], width)
	records := make([][]table.Cell, 0, len(rows)-1)
	for _, row := range rows[1:] {
		cells := make([]table.Cell, width)
		for i := 0; i < width; i++ {
			if i < len(row) {
				cells[i] = parseValue(row[i])
			} else {
				cells[i] = table.Empty()
			}
		}
		records = append(records, cells)
	}
	set.Set(sheetName, table.New(header, records))
	return set, nil
}

// writeCSV writes the first sheet; CSV has no notion of multiple sheets.
func writeCSV(set table.TableSet) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if set.Len() > 0 {
		tbl := set.Sheets[0].Table
		if len(tbl.Columns) > 0 {
			if err := w.Write(tbl.ColumnNames()); err != nil {
				return nil, err
			}
		}
		for r := 0; r < tbl.RowCount(); r++ {
			row := tbl.Row(r)
			record := make([]string, len(row))
			for i, c := range row {
				record[i] = c.String()
			}
			if err := w.Write(record); err != nil {
				return nil, err
			}
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
