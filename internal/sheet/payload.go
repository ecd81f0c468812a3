// Package sheet reads the shared spreadsheet that carries manually added
// movies and watched marks, and decodes its packed payload cells.
package sheet

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/hypelist/internal/model"
	"github.com/sells-group/hypelist/internal/normalize"
)

// Payload layout: source | year | rating⭐ | external_id | genres | director | cast
const (
	Delimiter    = " | "
	PayloadParts = 7
)

const (
	partSource = iota
	partYear
	partRating
	partExternalID
	partGenres
	partDirector
	partCast
)

// ErrPartCount is returned for payloads that do not split into exactly
// PayloadParts fields.
var ErrPartCount = eris.New("sheet: wrong number of payload parts")

// ratingDecorations are stripped from the rating part before parsing.
var ratingDecorations = []string{"⭐", "\ufe0f", "/10"}

// DecodePayload parses a packed cell into a record titled title. Non-numeric
// year or rating fall back to 0 and are reported in coerced; a wrong part
// count is an error.
func DecodePayload(payload, title, manualTag string) (rec model.MovieRecord, coerced []string, err error) {
	parts := strings.Split(payload, "|")
	if len(parts) != PayloadParts {
		return model.MovieRecord{}, nil, eris.Wrapf(ErrPartCount, "got %d, want %d", len(parts), PayloadParts)
	}
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}

	source := parts[partSource]
	if source == "" {
		source = manualTag
	}

	year, ok := normalize.ParseYear(parts[partYear])
	if !ok && parts[partYear] != "" {
		coerced = append(coerced, fmt.Sprintf("year %q is not numeric", parts[partYear]))
	}

	ratingText := parts[partRating]
	for _, d := range ratingDecorations {
		ratingText = strings.ReplaceAll(ratingText, d, "")
	}
	rating, ok := normalize.ParseRating(ratingText)
	if !ok && strings.TrimSpace(ratingText) != "" {
		coerced = append(coerced, fmt.Sprintf("rating %q is not a number in [0, 10]", parts[partRating]))
	}

	return model.MovieRecord{
		ExternalID: parts[partExternalID],
		Title:      strings.TrimSpace(title),
		Year:       year,
		Rating:     rating,
		Genres:     parts[partGenres],
		Director:   parts[partDirector],
		Cast:       parts[partCast],
		SourceList: source,
	}, coerced, nil
}

// EncodePayload packs rec into the spreadsheet cell format. The title is
// stored in its own column and is not part of the payload.
func EncodePayload(rec model.MovieRecord) string {
	year := ""
	if rec.Year > 0 {
		year = strconv.Itoa(rec.Year)
	}
	rating := ""
	if rec.Rating > 0 {
		rating = strconv.FormatFloat(rec.Rating, 'f', 1, 64) + "⭐"
	}
	parts := []string{
		rec.SourceList, year, rating, rec.ExternalID, rec.Genres, rec.Director, rec.Cast,
	}
	for i, p := range parts {
		parts[i] = strings.TrimSpace(strings.ReplaceAll(p, "|", "/"))
	}
	return strings.Join(parts, Delimiter)
}
