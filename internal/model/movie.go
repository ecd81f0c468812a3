package model

import (
	"strconv"
	"strings"
)

// MovieRecord is one canonical row from a single source list. String fields
// use "" for absent values; numeric fields are always defined.
type MovieRecord struct {
	ExternalID string  `json:"external_id,omitempty"`
	Title      string  `json:"title"`
	Year       int     `json:"year"`
	Rating     float64 `json:"rating"`
	Genres     string  `json:"genres,omitempty"`
	Director   string  `json:"director,omitempty"`
	Cast       string  `json:"cast,omitempty"`
	URL        string  `json:"url,omitempty"`
	SourceList string  `json:"source_list"`
}

// HasExternalID reports whether the record carries a cross-source identity.
func (r MovieRecord) HasExternalID() bool {
	return strings.TrimSpace(r.ExternalID) != ""
}

// AggregatedMovie is the deduplicated view of every record sharing an
// identity key.
type AggregatedMovie struct {
	ExternalID  string   `json:"external_id,omitempty" yaml:"external_id,omitempty"`
	Title       string   `json:"title" yaml:"title"`
	Year        int      `json:"year" yaml:"year"`
	Rating      float64  `json:"rating" yaml:"rating"`
	Genres      string   `json:"genres,omitempty" yaml:"genres,omitempty"`
	Director    string   `json:"director,omitempty" yaml:"director,omitempty"`
	Cast        string   `json:"cast,omitempty" yaml:"cast,omitempty"`
	URL         string   `json:"url,omitempty" yaml:"url,omitempty"`
	HypeScore   int      `json:"hype_score" yaml:"hype_score"`
	SourceLists []string `json:"source_lists" yaml:"source_lists"`
}

// SourceListsDisplay renders the source lists the way the table shows them.
func (m AggregatedMovie) SourceListsDisplay() string {
	return strings.Join(m.SourceLists, ", ")
}

// GenreList splits the comma-joined genres into trimmed, non-empty entries.
func (m AggregatedMovie) GenreList() []string {
	if m.Genres == "" {
		return nil
	}
	parts := strings.Split(m.Genres, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// ID returns the identifier used in links and watched marks: the external
// id when present, otherwise "Title (Year)", or the bare title when the year
// is unknown. Movies without an external id are grouped by title and year,
// so the year keeps same-titled movies apart.
func (m AggregatedMovie) ID() string {
	if m.ExternalID != "" {
		return m.ExternalID
	}
	if m.Year > 0 {
		return m.Title + " (" + strconv.Itoa(m.Year) + ")"
	}
	return m.Title
}
