package vector

import (
	"fmt"
	"sort"

	"github.com/Srinathreddy007/vidsearch/internal/models"
)

// Rank scores the segments of one transcript against a normalized query
// embedding and returns the top k as ranked search results, ordered by
// descending cosine similarity. The sort is stable, so equal scores keep the
// segments' original order (first seen wins). k larger than the segment set
// returns all segments, ranked. An empty segment set is an error: callers
// must check transcript existence first.
func Rank(query []float32, segments []*models.Segment, k int) ([]*models.SearchResult, error) {
	if len(segments) == 0 {
		return nil, fmt.Errorf("no segments to rank")
	}
	if k <= 0 {
		return nil, fmt.Errorf("k must be positive, got %d", k)
	}

	results := make([]*models.SearchResult, len(segments))
	for i, seg := range segments {
		score := InnerProduct(Renormalize(seg.Embedding), query)
		results[i] = &models.SearchResult{
			Start: seg.Start,
			End:   seg.End,
			Text:  seg.Text,
			Score: score,
		}
	}
	sort.SliceStable(results, func(i, j int) bool { return results[i].Score > results[j].Score })

	if k > len(results) {
		k = len(results)
	}
	results = results[:k]
	for i, r := range results {
		r.Rank = i + 1
	}
	return results, nil
}

// ClampTopK clamps k into [1, max]; non-positive k becomes 1.
func ClampTopK(k, max int) int {
	if k < 1 {
		return 1
	}
	if k > max {
		return max
	}
	return k
}
