// Package source scans the on-disk watchlist exports and turns each file
// into canonical movie records.
package source

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/hypelist/internal/fetcher"
	"github.com/sells-group/hypelist/internal/model"
	"github.com/sells-group/hypelist/internal/normalize"
)

// DefaultPatterns are the file globs scanned when none are configured.
var DefaultPatterns = []string{"*.csv", "*.xlsx"}

// Scanner reads every matching file in Dir.
type Scanner struct {
	Dir      string
	Patterns []string
	Encoding normalize.Encoding
}

// Result is the outcome of one scan. Records keep file-then-row order.
type Result struct {
	Records  []model.MovieRecord
	Reports  []model.SourceReport
	Warnings []model.Warning
}

// Files lists matching files sorted by name. Duplicates across patterns
// are removed.
func (s Scanner) Files() ([]string, error) {
	patterns := s.Patterns
	if len(patterns) == 0 {
		patterns = DefaultPatterns
	}
	seen := make(map[string]struct{})
	var files []string
	for _, p := range patterns {
		matches, err := filepath.Glob(filepath.Join(s.Dir, p))
		if err != nil {
			return nil, eris.Wrapf(err, "source: bad pattern %q", p)
		}
		for _, m := range matches {
			if _, ok := seen[m]; ok {
				continue
			}
			if info, err := os.Stat(m); err != nil || info.IsDir() {
				continue
			}
			seen[m] = struct{}{}
			files = append(files, m)
		}
	}
	sort.Strings(files)
	return files, nil
}

// Scan reads all files. A file that cannot be read or lacks a title column
// is skipped with a warning; Scan itself only fails when the directory
// cannot be listed.
func (s Scanner) Scan(ctx context.Context) (*Result, error) {
	files, err := s.Files()
	if err != nil {
		return nil, err
	}

	res := &Result{}
	for _, path := range files {
		if ctx.Err() != nil {
			return res, eris.Wrap(ctx.Err(), "source: scan cancelled")
		}
		name := normalize.SourceName(path)

		tbl, err := s.readTable(ctx, path)
		if err != nil {
			zap.L().Warn("source: skipping unreadable file",
				zap.String("file", path),
				zap.Error(err),
			)
			res.Warnings = append(res.Warnings, model.Warning{
				Source: name, Kind: model.WarningSourceUnreadable, Message: err.Error(),
			})
			res.Reports = append(res.Reports, model.SourceReport{Name: name, Kind: model.SourceKindFile, Skipped: true})
			continue
		}

		records, report, warn := FromTable(tbl, name)
		if warn != nil {
			res.Warnings = append(res.Warnings, *warn)
		}
		res.Records = append(res.Records, records...)
		res.Reports = append(res.Reports, report)
	}

	zap.L().Debug("source: scan complete",
		zap.String("dir", s.Dir),
		zap.Int("files", len(files)),
		zap.Int("records", len(res.Records)),
	)
	return res, nil
}

func (s Scanner) readTable(ctx context.Context, path string) (fetcher.Table, error) {
	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		return fetcher.ReadXLSX(path, fetcher.XLSXOptions{})
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return fetcher.Table{}, eris.Wrap(err, "source: read file")
	}
	decoded, err := normalize.Decode(raw, s.Encoding)
	if err != nil {
		return fetcher.Table{}, err
	}
	return fetcher.ReadCSVTable(ctx, strings.NewReader(string(decoded)), fetcher.CSVOptions{LazyQuotes: true})
}

// FromTable normalizes one parsed table tagged with source name. The
// returned warning is non-nil when the table is unusable.
func FromTable(tbl fetcher.Table, name string) ([]model.MovieRecord, model.SourceReport, *model.Warning) {
	report := model.SourceReport{Name: name, Kind: model.SourceKindFile}

	mapper, err := normalize.NewMapper(tbl.Header)
	if err != nil {
		report.Skipped = true
		zap.L().Warn("source: skipping file without title column",
			zap.String("source", name),
			zap.Strings("header", tbl.Header),
		)
		return nil, report, &model.Warning{
			Source: name, Kind: model.WarningSourceUnusable, Message: "no title column in header",
		}
	}

	records := make([]model.MovieRecord, 0, len(tbl.Rows))
	for _, row := range tbl.Rows {
		rec, ok := mapper.Record(row, name)
		if !ok {
			report.Dropped++
			continue
		}
		records = append(records, rec)
	}
	report.Rows = len(records)

	if report.Dropped > 0 {
		zap.L().Info("source: dropped rows without title",
			zap.String("source", name),
			zap.Int("dropped", report.Dropped),
		)
	}
	return records, report, nil
}
