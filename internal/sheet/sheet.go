package sheet

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/hypelist/internal/fetcher"
	"github.com/sells-group/hypelist/internal/model"
	"github.com/sells-group/hypelist/internal/normalize"
)

// SourceName labels the spreadsheet in warnings and reports.
const SourceName = "sheet"

// Layout names the spreadsheet columns and marker values.
type Layout struct {
	TitleColumn   string
	KindColumn    string
	PayloadColumn string
	ManualMarker  string
	WatchedMarker string
	ManualTag     string
}

// DefaultLayout returns the column names the shared sheet has always used.
func DefaultLayout() Layout {
	return Layout{
		TitleColumn:   "Title",
		KindColumn:    "Type",
		PayloadColumn: "Details",
		ManualMarker:  "MANUAL",
		WatchedMarker: "WATCHED",
		ManualTag:     "Manual",
	}
}

// Rows is the decoded content of one sheet snapshot.
type Rows struct {
	Manual   []model.MovieRecord
	Watched  []string
	Report   model.SourceReport
	Warnings []model.Warning
}

// Parse splits a sheet table into manual movie records and watched ids.
// Rows of any other kind are ignored. Malformed manual rows are dropped and
// reported; parsing always continues.
func Parse(tbl fetcher.Table, layout Layout) *Rows {
	rows := &Rows{Report: model.SourceReport{Name: SourceName, Kind: model.SourceKindSheet}}

	idx := columnIndex(tbl.Header)
	titleCol, okTitle := idx[strings.ToLower(layout.TitleColumn)]
	kindCol, okKind := idx[strings.ToLower(layout.KindColumn)]
	payloadCol, okPayload := idx[strings.ToLower(layout.PayloadColumn)]
	if !okTitle || !okKind || !okPayload {
		rows.Report.Skipped = true
		rows.Warnings = append(rows.Warnings, model.Warning{
			Source:  SourceName,
			Kind:    model.WarningSourceUnusable,
			Message: "sheet is missing the title, kind or payload column",
		})
		return rows
	}

	for i, row := range tbl.Rows {
		kind := strings.TrimSpace(cell(row, kindCol))
		switch {
		case strings.EqualFold(kind, layout.WatchedMarker):
			if id := strings.TrimSpace(cell(row, payloadCol)); id != "" {
				rows.Watched = append(rows.Watched, id)
			}
		case strings.EqualFold(kind, layout.ManualMarker):
			rows.decodeManual(i+2, cell(row, titleCol), cell(row, payloadCol), layout.ManualTag)
		}
	}

	rows.Report.Rows = len(rows.Manual)
	return rows
}

// line is the 1-based spreadsheet row number, header included.
func (r *Rows) decodeManual(line int, title, payload, manualTag string) {
	if strings.TrimSpace(title) == "" {
		r.drop(line, "missing title")
		return
	}
	rec, coerced, err := DecodePayload(payload, title, manualTag)
	if err != nil {
		r.drop(line, err.Error())
		return
	}
	for _, msg := range coerced {
		zap.L().Info("sheet: coerced field to default",
			zap.Int("row", line),
			zap.String("title", rec.Title),
			zap.String("reason", msg),
		)
		r.Warnings = append(r.Warnings, model.Warning{
			Source: SourceName, Kind: model.WarningRowCoerced, Message: rowMessage(line, msg),
		})
	}
	r.Manual = append(r.Manual, rec)
}

func (r *Rows) drop(line int, reason string) {
	zap.L().Warn("sheet: dropping malformed row",
		zap.Int("row", line),
		zap.String("reason", reason),
	)
	r.Report.Dropped++
	r.Warnings = append(r.Warnings, model.Warning{
		Source: SourceName, Kind: model.WarningRowMalformed, Message: rowMessage(line, reason),
	})
}

func rowMessage(line int, msg string) string {
	return fmt.Sprintf("row %d: %s", line, msg)
}

func columnIndex(header []string) map[string]int {
	idx := make(map[string]int, len(header))
	for i, h := range header {
		key := strings.ToLower(normalize.CleanHeader(h))
		if _, seen := idx[key]; !seen && key != "" {
			idx[key] = i
		}
	}
	return idx
}

func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return row[i]
}

// Downloader fetches a URL into memory.
type Downloader interface {
	DownloadBytes(ctx context.Context, url string) ([]byte, error)
}

// Client fetches the published CSV export of the shared sheet.
type Client struct {
	Downloader Downloader
	URL        string
	Timeout    time.Duration
	Layout     Layout
}

// Configured reports whether a sheet URL is set.
func (c *Client) Configured() bool {
	return c != nil && strings.TrimSpace(c.URL) != ""
}

// Fetch downloads and parses the sheet within c.Timeout. Any transport
// failure, timeout included, is returned as an error so the caller can
// treat the sheet as unavailable.
func (c *Client) Fetch(ctx context.Context) (*Rows, error) {
	if !c.Configured() {
		return nil, eris.New("sheet: no url configured")
	}
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	raw, err := c.Downloader.DownloadBytes(ctx, c.URL)
	if err != nil {
		return nil, eris.Wrap(err, "sheet: fetch")
	}
	decoded, err := normalize.Decode(raw, normalize.EncodingAuto)
	if err != nil {
		return nil, eris.Wrap(err, "sheet: decode")
	}
	tbl, err := fetcher.ReadCSVTable(ctx, strings.NewReader(string(decoded)), fetcher.CSVOptions{LazyQuotes: true})
	if err != nil {
		return nil, eris.Wrap(err, "sheet: parse csv")
	}
	return Parse(tbl, c.Layout), nil
}

// Merge concatenates primary file records and secondary sheet records,
// primary first. Neither input is modified.
func Merge(primary, secondary []model.MovieRecord) []model.MovieRecord {
	out := make([]model.MovieRecord, 0, len(primary)+len(secondary))
	out = append(out, primary...)
	return append(out, secondary...)
}
