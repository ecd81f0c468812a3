package catalog

import (
	"sort"
	"strings"

	"github.com/sells-group/hypelist/internal/model"
)

// Mood is a quick genre preset.
type Mood string

const (
	MoodAny     Mood = "any"
	MoodChill   Mood = "chill"
	MoodIntense Mood = "intense"
	MoodScary   Mood = "scary"
	MoodAction  Mood = "action"
)

// Moods lists the presets in display order with their labels.
var Moods = []struct {
	Mood  Mood
	Label string
}{
	{MoodAny, "Any"},
	{MoodChill, "Chill / Comedy"},
	{MoodIntense, "Intense / Thriller"},
	{MoodScary, "Scary / Horror"},
	{MoodAction, "Action Packed"},
}

var moodGenres = map[Mood][]string{
	MoodChill:   {"Comedy", "Romance", "Animation", "Family"},
	MoodIntense: {"Thriller", "Crime", "Mystery", "Drama"},
	MoodScary:   {"Horror"},
	MoodAction:  {"Action", "Adventure", "Sci-Fi"},
}

// ParseMood maps user input to a Mood; unknown values mean MoodAny.
func ParseMood(s string) Mood {
	m := Mood(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := moodGenres[m]; ok {
		return m
	}
	return MoodAny
}

// Filter is the set of display filters. Zero bounds are open.
type Filter struct {
	MinRating   float64  `json:"min_rating"`
	MaxRating   float64  `json:"max_rating"`
	MinYear     int      `json:"min_year"`
	MaxYear     int      `json:"max_year"`
	Mood        Mood     `json:"mood"`
	Genres      []string `json:"genres"`
	Query       string   `json:"query"`
	HideWatched bool     `json:"hide_watched"`
}

// View is a filtered slice of the catalog. NoData is set when there was no
// catalog at all, as opposed to a catalog with zero matches.
type View struct {
	NoData  bool                    `json:"no_data"`
	Total   int                     `json:"total"`
	Matches int                     `json:"matches"`
	Movies  []model.AggregatedMovie `json:"movies"`
}

// Apply filters cat, keeping catalog order. watched may be nil.
func Apply(cat *model.Catalog, f Filter, watched *model.WatchedSet) View {
	if cat == nil {
		return View{NoData: true, Movies: []model.AggregatedMovie{}}
	}

	query := strings.ToLower(strings.TrimSpace(f.Query))
	out := make([]model.AggregatedMovie, 0, len(cat.Movies))
	for _, m := range cat.Movies {
		if m.Rating < f.MinRating || (f.MaxRating > 0 && m.Rating > f.MaxRating) {
			continue
		}
		if (f.MinYear > 0 && m.Year < f.MinYear) || (f.MaxYear > 0 && m.Year > f.MaxYear) {
			continue
		}
		if genres, ok := moodGenres[f.Mood]; ok && !containsAny(m.Genres, genres) {
			continue
		}
		if len(f.Genres) > 0 && !containsAny(m.Genres, f.Genres) {
			continue
		}
		if query != "" && !strings.Contains(strings.ToLower(m.Title), query) {
			continue
		}
		if f.HideWatched && watched.Contains(m.ID()) {
			continue
		}
		out = append(out, m)
	}

	return View{Total: len(cat.Movies), Matches: len(out), Movies: out}
}

func containsAny(genres string, wanted []string) bool {
	g := strings.ToLower(genres)
	for _, w := range wanted {
		if w = strings.ToLower(strings.TrimSpace(w)); w != "" && strings.Contains(g, w) {
			return true
		}
	}
	return false
}

// Genres returns the sorted genre vocabulary of the catalog.
func Genres(cat *model.Catalog) []string {
	if cat == nil {
		return nil
	}
	seen := make(map[string]struct{})
	for _, m := range cat.Movies {
		for _, g := range m.GenreList() {
			seen[g] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for g := range seen {
		out = append(out, g)
	}
	sort.Strings(out)
	return out
}

// YearBounds returns the earliest and latest known years, ignoring
// unknown (zero) years. Both are zero when no year is known.
func YearBounds(cat *model.Catalog) (lo, hi int) {
	if cat == nil {
		return 0, 0
	}
	for _, m := range cat.Movies {
		if m.Year <= 0 {
			continue
		}
		if lo == 0 || m.Year < lo {
			lo = m.Year
		}
		if m.Year > hi {
			hi = m.Year
		}
	}
	return lo, hi
}

// Find looks a movie up by the id used in links: external id first, then
// the movie's ID. A bare title matches only when exactly one movie has it.
func Find(cat *model.Catalog, id string) (model.AggregatedMovie, bool) {
	if cat == nil || id == "" {
		return model.AggregatedMovie{}, false
	}
	for _, m := range cat.Movies {
		if m.ExternalID != "" && m.ExternalID == id {
			return m, true
		}
	}
	for _, m := range cat.Movies {
		if m.ID() == id {
			return m, true
		}
	}
	var found model.AggregatedMovie
	n := 0
	for _, m := range cat.Movies {
		if m.Title == id {
			found = m
			n++
		}
	}
	return found, n == 1
}
