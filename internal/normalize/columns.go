// Package normalize maps inconsistently named source columns onto the
// canonical movie record and coerces their values.
package normalize

import (
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/hypelist/internal/model"
)

// Field is a canonical attribute of a movie record.
type Field int

const (
	FieldExternalID Field = iota
	FieldTitle
	FieldYear
	FieldRating
	FieldGenres
	FieldDirector
	FieldCast
	FieldURL
	fieldCount
)

var fieldNames = [fieldCount]string{
	"external_id", "title", "year", "rating", "genres", "director", "cast", "url",
}

func (f Field) String() string {
	if f < 0 || f >= fieldCount {
		return "unknown"
	}
	return fieldNames[f]
}

// Aliases lists, per canonical field, the source header spellings in
// priority order. The first one present in a header row wins.
var Aliases = map[Field][]string{
	FieldExternalID: {"Const", "IMDb ID", "imdb_id", "tconst", "ID"},
	FieldTitle:      {"Title", "Name", "Original Title"},
	FieldYear:       {"Year", "Release Year"},
	FieldRating:     {"IMDb Rating", "Rating", "Your Rating"},
	FieldGenres:     {"Genres", "Genre"},
	FieldDirector:   {"Directors", "Director"},
	FieldCast:       {"Stars", "Cast", "Starring"},
	FieldURL:        {"URL", "Link", "IMDb URL"},
}

// ErrMissingTitle marks a source whose header has no title column at all.
var ErrMissingTitle = eris.New("normalize: no title column")

// byte-order marks as they appear after UTF-8 and Latin-1 decoding.
var bomArtifacts = []string{"\ufeff", "\u00ef\u00bb\u00bf"}

// CleanHeader strips whitespace, byte-order-mark artifacts and stray quotes
// from a header cell.
func CleanHeader(h string) string {
	h = strings.TrimSpace(h)
	for _, bom := range bomArtifacts {
		h = strings.TrimPrefix(h, bom)
	}
	h = strings.Trim(h, `"`)
	return strings.TrimSpace(h)
}

// Mapper resolves canonical fields to column positions for one source.
type Mapper struct {
	index [fieldCount]int
}

// NewMapper resolves every canonical field against header. Absent optional
// fields are left unmapped; an absent title column yields ErrMissingTitle.
func NewMapper(header []string) (*Mapper, error) {
	cleaned := make(map[string]int, len(header))
	for i, h := range header {
		key := strings.ToLower(CleanHeader(h))
		if key == "" {
			continue
		}
		if _, seen := cleaned[key]; !seen {
			cleaned[key] = i
		}
	}

	m := &Mapper{}
	for f := Field(0); f < fieldCount; f++ {
		m.index[f] = -1
		for _, alias := range Aliases[f] {
			if i, ok := cleaned[strings.ToLower(alias)]; ok {
				m.index[f] = i
				break
			}
		}
	}

	if m.index[FieldTitle] < 0 {
		return nil, ErrMissingTitle
	}
	return m, nil
}

// Has reports whether the source carries a column for f.
func (m *Mapper) Has(f Field) bool {
	return f >= 0 && f < fieldCount && m.index[f] >= 0
}

// Missing returns the canonical fields with no matching column.
func (m *Mapper) Missing() []Field {
	var out []Field
	for f := Field(0); f < fieldCount; f++ {
		if m.index[f] < 0 {
			out = append(out, f)
		}
	}
	return out
}

func (m *Mapper) value(row []string, f Field) string {
	i := m.index[f]
	if i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// Record builds the canonical record for row, tagged with source. It
// returns false when the row has no title.
func (m *Mapper) Record(row []string, source string) (model.MovieRecord, bool) {
	title := m.value(row, FieldTitle)
	if title == "" {
		return model.MovieRecord{}, false
	}
	year, _ := ParseYear(m.value(row, FieldYear))
	rating, _ := ParseRating(m.value(row, FieldRating))

	return model.MovieRecord{
		ExternalID: m.value(row, FieldExternalID),
		Title:      title,
		Year:       year,
		Rating:     rating,
		Genres:     m.value(row, FieldGenres),
		Director:   m.value(row, FieldDirector),
		Cast:       m.value(row, FieldCast),
		URL:        m.value(row, FieldURL),
		SourceList: source,
	}, true
}
