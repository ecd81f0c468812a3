// Package loader runs the ingestion pipeline: scan files, fetch the shared
// sheet, merge, and aggregate into a catalog.
package loader

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/hypelist/internal/catalog"
	"github.com/sells-group/hypelist/internal/metrics"
	"github.com/sells-group/hypelist/internal/model"
	"github.com/sells-group/hypelist/internal/sheet"
	"github.com/sells-group/hypelist/internal/source"
)

// SheetSource is the secondary record source.
type SheetSource interface {
	Configured() bool
	Fetch(ctx context.Context) (*sheet.Rows, error)
}

// Loader rebuilds the catalog from scratch on every call.
type Loader struct {
	Scanner source.Scanner
	Sheet   SheetSource // optional
	Now     func() time.Time
}

// Result is one pipeline run. Catalog is nil when no source produced a
// single usable record.
type Result struct {
	Catalog    *model.Catalog
	WatchedIDs []string
	Warnings   []model.Warning
}

// Load runs the pipeline synchronously. Per-row and per-source problems are
// reported in Result.Warnings; an error is returned only when the file
// scan cannot start or ctx is cancelled.
func (l *Loader) Load(ctx context.Context) (*Result, error) {
	start := l.now()

	scan, err := l.Scanner.Scan(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "loader: scan sources")
	}

	res := &Result{Warnings: scan.Warnings}
	records := scan.Records
	reports := scan.Reports

	if l.Sheet != nil && l.Sheet.Configured() {
		rows, err := l.Sheet.Fetch(ctx)
		if err != nil {
			zap.L().Warn("loader: sheet unavailable, continuing with files only", zap.Error(err))
			res.Warnings = append(res.Warnings, model.Warning{
				Source:  sheet.SourceName,
				Kind:    model.WarningSheetUnavailable,
				Message: err.Error(),
			})
			reports = append(reports, model.SourceReport{Name: sheet.SourceName, Kind: model.SourceKindSheet, Skipped: true})
		} else {
			records = sheet.Merge(records, rows.Manual)
			res.WatchedIDs = rows.Watched
			res.Warnings = append(res.Warnings, rows.Warnings...)
			reports = append(reports, rows.Report)
		}
	}

	res.Catalog = catalog.Aggregate(records)
	if res.Catalog != nil {
		res.Catalog.Sources = reports
		res.Catalog.LoadedAt = l.now()
	}

	elapsed := l.now().Sub(start)
	metrics.RecordLoad(res.Catalog, res.Warnings, elapsed)
	zap.L().Info("loader: catalog rebuilt",
		zap.Int("records", len(records)),
		zap.Int("movies", res.Catalog.Len()),
		zap.Int("warnings", len(res.Warnings)),
		zap.Int("watched", len(res.WatchedIDs)),
		zap.Duration("elapsed", elapsed),
	)
	return res, nil
}

func (l *Loader) now() time.Time {
	if l.Now != nil {
		return l.Now()
	}
	return time.Now()
}
