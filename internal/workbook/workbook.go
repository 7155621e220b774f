// Package workbook reads uploaded spreadsheet files into table sets and writes them back.
package workbook

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/rpggio/sheetmatch/internal/domain/table"
)

// Format identifies a file encoding.
type Format string

const (
	FormatXLSX Format = "xlsx"
	FormatCSV  Format = "csv"
)

// Workbook is a parsed upload: its sheets plus where they came from.
type Workbook struct {
	FileName string         `json:"file_name"`
	Format   Format         `json:"format"`
	Size     int64          `json:"size"`
	Sheets   table.TableSet `json:"sheets"`
}

// FormatFromName picks the format from a file extension.
func FormatFromName(name string) (Format, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".xlsx", ".xlsm":
		return FormatXLSX, nil
	case ".csv":
		return FormatCSV, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(name))
	}
}

// Parse decodes file bytes according to the extension of fileName.
func Parse(fileName string, data []byte) (*Workbook, error) {
	format, err := FormatFromName(fileName)
	if err != nil {
		return nil, &ParseError{FileName: fileName, Err: err}
	}

	var sheets table.TableSet
	switch format {
	case FormatXLSX:
		sheets, err = parseXLSX(data)
	case FormatCSV:
		sheets, err = parseCSV(stem(fileName), data)
	}
	if err != nil {
		return nil, &ParseError{FileName: fileName, Err: err}
	}
	if sheets.Len() == 0 {
		return nil, &ParseError{FileName: fileName, Err: ErrNoSheets}
	}

	return &Workbook{
		FileName: filepath.Base(fileName),
		Format:   format,
		Size:     int64(len(data)),
		Sheets:   sheets,
	}, nil
}

// Write encodes the workbook in its own format.
func Write(wb *Workbook) ([]byte, error) {
	var (
		data []byte
		err  error
	)
	switch wb.Format {
	case FormatXLSX:
		data, err = writeXLSX(wb.Sheets)
	case FormatCSV:
		data, err = writeCSV(wb.Sheets)
	default:
		err = fmt.Errorf("%w: %q", ErrUnsupportedFormat, wb.Format)
	}
	if err != nil {
		return nil, &WriteError{FileName: wb.FileName, Err: err}
	}
	return data, nil
}

// ContentType returns the MIME type used when serving a file of the given format.
func ContentType(format Format) string {
	switch format {
	case FormatCSV:
		return "text/csv; charset=utf-8"
	default:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
}

// AnnotatedFileName derives the download name, e.g. "raw.xlsx" -> "raw_annotated.xlsx".
func AnnotatedFileName(name string, format Format) string {
	base := stem(name)
	if base == "" {
		base = "result"
	}
	return base + "_annotated." + string(format)
}

func stem(name string) string {
	base := filepath.Base(name)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// headerNames turns a header row into unique, non-blank column names.
func headerNames(header []string, width int) []string {
	names := make([]string, width)
	used := make(map[string]int, width)
	for i := 0; i < width; i++ {
		name := ""
		if i < len(header) {
			name = header[i]
		}
		if strings.TrimSpace(name) == "" {
			name = fmt.Sprintf("Unnamed: %d", i)
		}
		if n, ok := used[name]; ok {
			base := name
			for {
				n++
				name = fmt.Sprintf("%s.%d", base, n)
				if _, taken := used[name]; !taken {
					break
				}
			}
			used[base] = n
		}
		used[name] = 0
		names[i] = name
	}
	return names
}

func maxWidth(rows [][]string) int {
	width := 0
	for _, row := range rows {
		if len(row) > width {
			width = len(row)
		}
	}
	return width
}
