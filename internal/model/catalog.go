package model

import "time"

// KeyStrategy names the identity key used for one aggregation run.
type KeyStrategy string

const (
	// KeyExternalID groups by (external id, title, year). Chosen only when
	// every record carries an external id.
	KeyExternalID KeyStrategy = "external_id"
	// KeyTitleYear groups by (title, year).
	KeyTitleYear KeyStrategy = "title_year"
)

// SourceKind distinguishes file sources from the shared spreadsheet.
type SourceKind string

const (
	SourceKindFile  SourceKind = "file"
	SourceKindSheet SourceKind = "sheet"
)

// SourceReport summarises how a single source contributed to a load.
type SourceReport struct {
	Name    string     `json:"name"`
	Kind    SourceKind `json:"kind"`
	Rows    int        `json:"rows"`
	Dropped int        `json:"dropped"`
	Skipped bool       `json:"skipped"`
}

// Catalog is the scored, deduplicated movie table. It is rebuilt wholesale
// on every load and never mutated afterwards.
type Catalog struct {
	Movies      []AggregatedMovie `json:"movies"`
	KeyStrategy KeyStrategy       `json:"key_strategy"`
	Sources     []SourceReport    `json:"sources"`
	LoadedAt    time.Time         `json:"loaded_at"`
}

// Len returns the number of movies, treating a nil catalog as empty.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.Movies)
}
