// Package links builds outbound links for a movie.
package links

import (
	"net/url"
	"strings"

	"github.com/sells-group/hypelist/internal/model"
)

// DefaultRegion is the JustWatch storefront used when none is configured.
const DefaultRegion = "uk"

// Set is the group of links shown on a detail page.
type Set struct {
	IMDb           string `json:"imdb,omitempty"`
	RottenTomatoes string `json:"rotten_tomatoes"`
	JustWatch      string `json:"justwatch"`
}

// For builds every link for m.
func For(m model.AggregatedMovie, region string) Set {
	return Set{
		IMDb:           IMDb(m),
		RottenTomatoes: RottenTomatoes(m.Title),
		JustWatch:      JustWatch(m.Title, region),
	}
}

// IMDb prefers the source URL, then the title page for the external id.
// Empty when neither is known.
func IMDb(m model.AggregatedMovie) string {
	if m.URL != "" {
		return m.URL
	}
	if m.ExternalID != "" {
		return "https://www.imdb.com/title/" + url.PathEscape(m.ExternalID) + "/"
	}
	return ""
}

// RottenTomatoes returns a search link for title.
func RottenTomatoes(title string) string {
	return "https://www.rottentomatoes.com/search?search=" + escape(title)
}

// JustWatch returns a search link for title in region.
func JustWatch(title, region string) string {
	region = strings.ToLower(strings.TrimSpace(region))
	if region == "" {
		region = DefaultRegion
	}
	return "https://www.justwatch.com/" + url.PathEscape(region) + "/search?q=" + escape(title)
}

// escape query-escapes s with spaces as %20.
func escape(s string) string {
	return strings.ReplaceAll(url.QueryEscape(strings.TrimSpace(s)), "+", "%20")
}
