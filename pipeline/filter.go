package pipeline

import (
	"sort"

	"curately/models"
)

// SelectTop keeps scored articles at or above the threshold, orders them
// by score descending, and caps the result at maxCount. The sort is
// stable, so equally-scored articles keep their collection order.
func SelectTop(articles []models.Article, threshold float64, maxCount int) []models.Article {
	if maxCount <= 0 {
		return nil
	}

	var kept []models.Article
	for _, a := range articles {
		if a.RelevanceScore >= threshold {
			kept = append(kept, a)
		}
	}
	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].RelevanceScore > kept[j].RelevanceScore
	})

	if len(kept) > maxCount {
		kept = kept[:maxCount]
	}
	return kept
}
