// Package fetcher downloads remote tables and parses CSV and XLSX sources
// into header-plus-rows form.
package fetcher

import (
	"context"
	"io"
)

// Fetcher defines the interface for downloading remote data.
type Fetcher interface {
	// Download fetches the URL and returns the response body.
	Download(ctx context.Context, url string) (io.ReadCloser, error)
}

// Table is a parsed tabular source: the first row split off as header.
type Table struct {
	Header []string
	Rows   [][]string
}

// Empty reports whether the table has neither header nor rows.
func (t Table) Empty() bool {
	return len(t.Header) == 0 && len(t.Rows) == 0
}

func splitHeader(rows [][]string) Table {
	if len(rows) == 0 {
		return Table{}
	}
	return Table{Header: rows[0], Rows: rows[1:]}
}
