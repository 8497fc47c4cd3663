package catalog

import (
	"context"
	"sort"

	"chessbridge-backend/lib/scrapers/chesserp"
	"chessbridge-backend/lib/textutil"

	"github.com/antzucaro/matchr"
)

const fuzzyLimit = 10
const fuzzyThreshold = 0.75

// fuzzyLookup ranks the snapshot by Jaro-Winkler similarity against the
// query and returns the closest descriptions. This replaces the substring
// filter only when it matched nothing and the service is configured for
// best-effort fallback.
func (s Service) fuzzyLookup(ctx context.Context, query string) ([]chesserp.Article, error) {
	all, err := s.store.All(ctx)
	if err != nil {
		return nil, err
	}

	needle := textutil.Normalize(query)
	type scored struct {
		article chesserp.Article
		score   float64
	}
	var candidates []scored
	for _, article := range all {
		score := matchr.JaroWinkler(needle, textutil.Normalize(article.Description), true)
		if score < fuzzyThreshold {
			continue
		}
		candidates = append(candidates, scored{article: article, score: score})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})
	if len(candidates) > fuzzyLimit {
		candidates = candidates[:fuzzyLimit]
	}

	out := make([]chesserp.Article, len(candidates))
	for i, c := range candidates {
		out[i] = c.article
	}
	return out, nil
}
