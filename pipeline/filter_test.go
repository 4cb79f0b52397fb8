package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"curately/models"
)

func scored(title string, score float64) models.Article {
	return models.Article{Title: title, RelevanceScore: score}
}

func titles(articles []models.Article) []string {
	out := make([]string, len(articles))
	for i, a := range articles {
		out[i] = a.Title
	}
	return out
}

func TestSelectTopFiltersSortsAndCaps(t *testing.T) {
	in := []models.Article{
		scored("low", 0.1),
		scored("best", 0.9),
		scored("edge", 0.3),
		scored("mid", 0.5),
		scored("good", 0.8),
	}

	got := SelectTop(in, 0.3, 3)
	assert.Equal(t, []string{"best", "good", "mid"}, titles(got))
}

func TestSelectTopThresholdIsInclusive(t *testing.T) {
	got := SelectTop([]models.Article{scored("edge", 0.3)}, 0.3, 10)
	assert.Len(t, got, 1)
}

func TestSelectTopStableForEqualScores(t *testing.T) {
	in := []models.Article{
		scored("first", 0.5),
		scored("second", 0.5),
		scored("third", 0.5),
	}
	got := SelectTop(in, 0.0, 10)
	assert.Equal(t, []string{"first", "second", "third"}, titles(got))
}

func TestSelectTopZeroSlots(t *testing.T) {
	got := SelectTop([]models.Article{scored("a", 0.9)}, 0.0, 0)
	assert.Empty(t, got)
}

func TestSelectTopAllBelowThreshold(t *testing.T) {
	got := SelectTop([]models.Article{scored("a", 0.1), scored("b", 0.2)}, 0.3, 10)
	assert.Empty(t, got)
}
