package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/hypelist/internal/model"
)

func fixtureCatalog() *model.Catalog {
	return Aggregate([]model.MovieRecord{
		{ExternalID: "tt1", Title: "Dune", Year: 2021, Rating: 8.0, Genres: "Action, Adventure, Sci-Fi", SourceList: "A"},
		{ExternalID: "tt1", Title: "Dune", Year: 2021, Rating: 8.0, Genres: "Action, Adventure, Sci-Fi", SourceList: "B"},
		{ExternalID: "tt2", Title: "Hereditary", Year: 2018, Rating: 7.3, Genres: "Drama, Horror, Mystery", SourceList: "A"},
		{ExternalID: "tt3", Title: "Paddington 2", Year: 2017, Rating: 7.8, Genres: "Adventure, Comedy, Family", SourceList: "B"},
		{ExternalID: "tt4", Title: "Unrated Oddity", Genres: "Documentary", SourceList: "Manual"},
	})
}

func titles(v View) []string {
	out := make([]string, 0, len(v.Movies))
	for _, m := range v.Movies {
		out = append(out, m.Title)
	}
	return out
}

func TestApply_NoFilter(t *testing.T) {
	v := Apply(fixtureCatalog(), Filter{}, nil)
	assert.False(t, v.NoData)
	assert.Equal(t, 4, v.Total)
	assert.Equal(t, 4, v.Matches)
	assert.Equal(t, "Dune", v.Movies[0].Title)
}

func TestApply_NoDataVersusNoMatches(t *testing.T) {
	none := Apply(nil, Filter{}, nil)
	assert.True(t, none.NoData)
	assert.Empty(t, none.Movies)

	empty := Apply(fixtureCatalog(), Filter{Query: "zzz"}, nil)
	assert.False(t, empty.NoData)
	assert.Zero(t, empty.Matches)
	assert.Equal(t, 4, empty.Total)
}

func TestApply_RatingAndYear(t *testing.T) {
	v := Apply(fixtureCatalog(), Filter{MinRating: 7.5, MaxRating: 10}, nil)
	assert.Equal(t, []string{"Dune", "Paddington 2"}, titles(v))

	v = Apply(fixtureCatalog(), Filter{MinYear: 2018, MaxYear: 2020}, nil)
	assert.Equal(t, []string{"Hereditary"}, titles(v))
}

func TestApply_MoodAndGenres(t *testing.T) {
	v := Apply(fixtureCatalog(), Filter{Mood: MoodScary}, nil)
	assert.Equal(t, []string{"Hereditary"}, titles(v))

	v = Apply(fixtureCatalog(), Filter{Mood: MoodChill}, nil)
	assert.Equal(t, []string{"Paddington 2"}, titles(v))

	v = Apply(fixtureCatalog(), Filter{Genres: []string{"adventure"}}, nil)
	assert.Equal(t, []string{"Dune", "Paddington 2"}, titles(v))
}

func TestApply_QueryAndWatched(t *testing.T) {
	v := Apply(fixtureCatalog(), Filter{Query: "  dUnE "}, nil)
	assert.Equal(t, []string{"Dune"}, titles(v))

	watched := model.NewWatchedSet("tt1", "tt4")
	v = Apply(fixtureCatalog(), Filter{HideWatched: true}, watched)
	assert.Equal(t, []string{"Hereditary", "Paddington 2"}, titles(v))

	v = Apply(fixtureCatalog(), Filter{}, watched)
	assert.Equal(t, 4, v.Matches)
}

func TestParseMood(t *testing.T) {
	assert.Equal(t, MoodScary, ParseMood(" Scary "))
	assert.Equal(t, MoodAny, ParseMood("grumpy"))
	assert.Equal(t, MoodAny, ParseMood(""))
}

func TestGenresAndYearBounds(t *testing.T) {
	cat := fixtureCatalog()
	assert.Equal(t, []string{"Action", "Adventure", "Comedy", "Documentary", "Drama", "Family", "Horror", "Mystery", "Sci-Fi"}, Genres(cat))

	lo, hi := YearBounds(cat)
	assert.Equal(t, 2017, lo)
	assert.Equal(t, 2021, hi)

	assert.Nil(t, Genres(nil))
	lo, hi = YearBounds(nil)
	assert.Zero(t, lo)
	assert.Zero(t, hi)
}

func TestFind(t *testing.T) {
	cat := fixtureCatalog()

	m, ok := Find(cat, "tt2")
	require.True(t, ok)
	assert.Equal(t, "Hereditary", m.Title)

	m, ok = Find(cat, "Paddington 2")
	require.True(t, ok)
	assert.Equal(t, "tt3", m.ExternalID)

	_, ok = Find(cat, "nope")
	assert.False(t, ok)
	_, ok = Find(nil, "tt1")
	assert.False(t, ok)
}

func TestSameTitleDifferentYears(t *testing.T) {
	cat := Aggregate([]model.MovieRecord{
		{Title: "Dune", Year: 1984, SourceList: "A"},
		{Title: "Dune", Year: 2021, SourceList: "B"},
	})
	require.Equal(t, 2, cat.Len())

	ids := []string{cat.Movies[0].ID(), cat.Movies[1].ID()}
	assert.ElementsMatch(t, []string{"Dune (1984)", "Dune (2021)"}, ids)

	m, ok := Find(cat, "Dune (2021)")
	require.True(t, ok)
	assert.Equal(t, 2021, m.Year)
	m, ok = Find(cat, "Dune (1984)")
	require.True(t, ok)
	assert.Equal(t, 1984, m.Year)

	_, ok = Find(cat, "Dune")
	assert.False(t, ok, "an ambiguous bare title matches nothing")

	seen := model.NewWatchedSet("Dune (1984)")
	v := Apply(cat, Filter{HideWatched: true}, seen)
	require.Equal(t, 1, v.Matches)
	assert.Equal(t, 2021, v.Movies[0].Year)
}
