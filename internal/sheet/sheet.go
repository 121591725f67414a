// Package sheet abstracts the tabular collaborators of the grader: the
// question and rubric tables it reads and the results table it appends to.
package sheet

import (
	"context"
	"strings"
)

// RecordReader returns every data row keyed by its header cell.
type RecordReader interface {
	Records(ctx context.Context) ([]map[string]string, error)
}

// RowAppender appends one row after the last used row.
type RowAppender interface {
	AppendRow(ctx context.Context, row []any) error
}

// keyRows turns a header row plus data rows into keyed records. Short rows
// are padded with "" and rows with no content are dropped.
func keyRows(rows [][]string) []map[string]string {
	if len(rows) == 0 {
		return nil
	}

	header := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		header[i] = strings.TrimSpace(h)
	}

	records := make([]map[string]string, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if blank(row) {
			continue
		}
		rec := make(map[string]string, len(header))
		for i, h := range header {
			if h == "" {
				continue
			}
			if i < len(row) {
				rec[h] = row[i]
			} else {
				rec[h] = ""
			}
		}
		records = append(records, rec)
	}
	return records
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
