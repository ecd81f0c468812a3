// Package catalog deduplicates canonical movie records into the scored
// catalog and applies the dashboard's display filters to it.
package catalog

import (
	"sort"
	"strconv"

	"github.com/sells-group/hypelist/internal/model"
	"github.com/sells-group/hypelist/internal/normalize"
)

// ChooseStrategy picks the identity key for a whole run: external id only
// when every record carries one.
func ChooseStrategy(records []model.MovieRecord) model.KeyStrategy {
	if len(records) == 0 {
		return model.KeyTitleYear
	}
	for _, r := range records {
		if !r.HasExternalID() {
			return model.KeyTitleYear
		}
	}
	return model.KeyExternalID
}

// IdentityKey returns the grouping key of r under strategy.
func IdentityKey(r model.MovieRecord, strategy model.KeyStrategy) string {
	key := normalize.TitleKey(r.Title) + "\x1f" + strconv.Itoa(r.Year)
	if strategy == model.KeyExternalID {
		key = r.ExternalID + "\x1f" + key
	}
	return key
}

// group accumulates one identity in scan order.
type group struct {
	movie   model.AggregatedMovie
	sources map[string]struct{}
}

func (g *group) add(r model.MovieRecord) {
	m := &g.movie
	firstNonEmpty(&m.ExternalID, r.ExternalID)
	firstNonEmpty(&m.Genres, r.Genres)
	firstNonEmpty(&m.Director, r.Director)
	firstNonEmpty(&m.Cast, r.Cast)
	firstNonEmpty(&m.URL, r.URL)
	if m.Rating == 0 && r.Rating > 0 {
		m.Rating = r.Rating
	}
	if r.SourceList != "" {
		g.sources[r.SourceList] = struct{}{}
	}
}

func firstNonEmpty(dst *string, v string) {
	if *dst == "" && v != "" {
		*dst = v
	}
}

// Aggregate groups records by identity, resolves each scalar field to its
// first non-empty value in input order, scores each movie by its number of
// distinct source lists and sorts by score descending, ties in first
// appearance order. It returns nil when records is empty.
func Aggregate(records []model.MovieRecord) *model.Catalog {
	if len(records) == 0 {
		return nil
	}
	strategy := ChooseStrategy(records)

	index := make(map[string]int)
	var groups []*group
	for _, r := range records {
		if r.Title == "" {
			continue
		}
		key := IdentityKey(r, strategy)
		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			groups = append(groups, &group{
				movie:   model.AggregatedMovie{Title: r.Title, Year: r.Year},
				sources: make(map[string]struct{}),
			})
		}
		groups[i].add(r)
	}
	if len(groups) == 0 {
		return nil
	}

	movies := make([]model.AggregatedMovie, len(groups))
	for i, g := range groups {
		lists := make([]string, 0, len(g.sources))
		for s := range g.sources {
			lists = append(lists, s)
		}
		sort.Strings(lists)
		g.movie.SourceLists = lists
		g.movie.HypeScore = max(len(lists), 1)
		movies[i] = g.movie
	}

	sort.SliceStable(movies, func(a, b int) bool {
		return movies[a].HypeScore > movies[b].HypeScore
	})

	return &model.Catalog{
		Movies:      movies,
		KeyStrategy: strategy,
	}
}
