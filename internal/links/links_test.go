package links

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/hypelist/internal/model"
)

func TestIMDb(t *testing.T) {
	assert.Equal(t, "https://www.imdb.com/title/tt1160419/", IMDb(model.AggregatedMovie{ExternalID: "tt1160419"}))
	assert.Equal(t, "https://example.com/x", IMDb(model.AggregatedMovie{ExternalID: "tt1", URL: "https://example.com/x"}))
	assert.Empty(t, IMDb(model.AggregatedMovie{Title: "Manual Only"}))
}

func TestSearchLinks(t *testing.T) {
	tests := []struct {
		name   string
		title  string
		region string
		rt     string
		jw     string
	}{
		{
			name:  "spaces",
			title: "The Dark Knight",
			rt:    "https://www.rottentomatoes.com/search?search=The%20Dark%20Knight",
			jw:    "https://www.justwatch.com/uk/search?q=The%20Dark%20Knight",
		},
		{
			name:   "reserved characters",
			title:  "Mission: Impossible & Co",
			region: "US",
			rt:     "https://www.rottentomatoes.com/search?search=Mission%3A%20Impossible%20%26%20Co",
			jw:     "https://www.justwatch.com/us/search?q=Mission%3A%20Impossible%20%26%20Co",
		},
		{
			name:  "plus sign survives",
			title: "1+1",
			rt:    "https://www.rottentomatoes.com/search?search=1%2B1",
			jw:    "https://www.justwatch.com/uk/search?q=1%2B1",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.rt, RottenTomatoes(tt.title))
			assert.Equal(t, tt.jw, JustWatch(tt.title, tt.region))
		})
	}
}

func TestFor(t *testing.T) {
	s := For(model.AggregatedMovie{ExternalID: "tt1", Title: "Up"}, "de")
	assert.Equal(t, "https://www.imdb.com/title/tt1/", s.IMDb)
	assert.Equal(t, "https://www.justwatch.com/de/search?q=Up", s.JustWatch)
}
