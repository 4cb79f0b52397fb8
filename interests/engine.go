// Package interests maintains the per-user keyword→weight profile that
// drives relevance scoring. Likes push keywords up, unlikes reverse them,
// and a periodic decay pass fades interests that stopped getting signal.
package interests

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"curately/config"
	"curately/logger"
	"curately/models"
)

// MinWeight is the removal threshold: decayed rows that would land below
// it are deleted instead of updated.
const MinWeight = 0.01

// Store is the slice of the interest repository the engine needs.
type Store interface {
	FindByUserAndKeywords(ctx context.Context, userID primitive.ObjectID, keywords []string) (map[string]models.UserInterest, error)
	UpsertWeight(ctx context.Context, userID primitive.ObjectID, keyword string, weight float64, source string, now time.Time) error
	DeleteByUserAndKeyword(ctx context.Context, userID primitive.ObjectID, keyword string) error
	ListStale(ctx context.Context, userID primitive.ObjectID, cutoff time.Time) ([]models.UserInterest, error)
	UpdateWeightByID(ctx context.Context, id primitive.ObjectID, weight float64, now time.Time) error
	DeleteByID(ctx context.Context, id primitive.ObjectID) error
}

// Engine applies interaction and decay events to the profile.
type Engine struct {
	store Store
	cfg   config.InterestsConfig
	now   func() time.Time
}

func NewEngine(store Store, cfg config.InterestsConfig, now func() time.Time) *Engine {
	if now == nil {
		now = time.Now
	}
	return &Engine{store: store, cfg: cfg, now: now}
}

// OnLike increments the weight of every keyword by the configured step,
// creating rows for keywords the user has no prior affinity to.
func (e *Engine) OnLike(ctx context.Context, userID primitive.ObjectID, keywords []string, sourceFeed string) error {
	if len(keywords) == 0 {
		logger.Log.Info("like carried no keywords, skipping interest update")
		return nil
	}

	existing, err := e.store.FindByUserAndKeywords(ctx, userID, keywords)
	if err != nil {
		return err
	}

	now := e.now()
	for _, keyword := range keywords {
		current := 0.0
		if in, ok := existing[keyword]; ok {
			current = in.Weight
		}
		if err := e.store.UpsertWeight(ctx, userID, keyword, current+e.cfg.LikeWeightIncrement, sourceFeed, now); err != nil {
			return err
		}
	}

	logger.Log.Infof("updated %d interest(s) for user %s", len(keywords), userID.Hex())
	return nil
}

// OnUnlike decrements each keyword's weight, deleting rows that drop to
// zero or below. Keywords without an existing row are skipped: an unlike
// racing ahead of its like must not create negative affinity.
func (e *Engine) OnUnlike(ctx context.Context, userID primitive.ObjectID, keywords []string) error {
	if len(keywords) == 0 {
		return nil
	}

	existing, err := e.store.FindByUserAndKeywords(ctx, userID, keywords)
	if err != nil {
		return err
	}

	now := e.now()
	touched := 0
	for _, keyword := range keywords {
		in, ok := existing[keyword]
		if !ok {
			continue
		}

		newWeight := in.Weight - e.cfg.LikeWeightIncrement
		if newWeight <= 0 {
			if err := e.store.DeleteByUserAndKeyword(ctx, userID, keyword); err != nil {
				return err
			}
		} else {
			if err := e.store.UpsertWeight(ctx, userID, keyword, newWeight, "", now); err != nil {
				return err
			}
		}
		touched++
	}

	logger.Log.Infof("removed/decremented %d interest(s) for user %s", touched, userID.Hex())
	return nil
}

// ApplyTimeDecay multiplies the weight of every record last updated before
// now−interval by the decay factor, deleting rows that land below
// MinWeight, and returns the number of rows touched. Rows refreshed by a
// previous pass fall outside the staleness filter, so repeating the pass
// within one interval is a no-op.
func (e *Engine) ApplyTimeDecay(ctx context.Context, userID primitive.ObjectID) (int, error) {
	now := e.now()
	cutoff := now.AddDate(0, 0, -e.cfg.DecayIntervalDays)

	stale, err := e.store.ListStale(ctx, userID, cutoff)
	if err != nil {
		return 0, err
	}
	if len(stale) == 0 {
		logger.Log.Infof("no stale interests found for user %s", userID.Hex())
		return 0, nil
	}

	decayed := 0
	for _, in := range stale {
		newWeight := in.Weight * e.cfg.DecayFactor

		if newWeight < MinWeight {
			if err := e.store.DeleteByID(ctx, in.ID); err != nil {
				return decayed, err
			}
			logger.Log.Debugf("removed interest %q (weight %.4f below threshold)", in.Keyword, newWeight)
		} else {
			if err := e.store.UpdateWeightByID(ctx, in.ID, newWeight, now); err != nil {
				return decayed, err
			}
		}
		decayed++
	}

	logger.Log.Infof("applied time decay to %d interest(s) for user %s", decayed, userID.Hex())
	return decayed, nil
}
