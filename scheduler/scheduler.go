// Package scheduler triggers the daily pipeline and the weekly rewind at
// their configured KST wall-clock times.
package scheduler

import (
	"context"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"curately/config"
	"curately/logger"
	"curately/models"
	"curately/pipeline"
	"curately/timeutil"
)

type PipelineRunner interface {
	Run(ctx context.Context) (pipeline.Result, error)
}

type RewindRunner interface {
	Generate(ctx context.Context, userID primitive.ObjectID) (*models.RewindReport, error)
}

type UserSource interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
}

// Scheduler runs the recurring jobs until its context is cancelled.
type Scheduler struct {
	pipeline PipelineRunner
	rewind   RewindRunner
	users    UserSource
	cfg      config.ScheduleConfig
	now      func() time.Time
}

func New(pipelineRunner PipelineRunner, rewindRunner RewindRunner, users UserSource, cfg config.ScheduleConfig, now func() time.Time) *Scheduler {
	if now == nil {
		now = time.Now
	}
	return &Scheduler{
		pipeline: pipelineRunner,
		rewind:   rewindRunner,
		users:    users,
		cfg:      cfg,
		now:      now,
	}
}

// Start launches the two job loops. It returns immediately; the loops stop
// when ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) {
	logger.Log.Infof("scheduler started: daily pipeline at %02d:%02d KST, rewind on %s at %02d:%02d KST",
		s.cfg.DailyPipelineHour, s.cfg.DailyPipelineMin,
		s.cfg.RewindDayOfWeek, s.cfg.RewindHour, s.cfg.RewindMinute)

	go s.loop(ctx, s.NextDailyRun, s.runPipeline)
	go s.loop(ctx, s.NextRewindRun, s.runRewind)
}

func (s *Scheduler) loop(ctx context.Context, next func(time.Time) time.Time, job func(ctx context.Context)) {
	for {
		wait := next(s.now()).Sub(s.now())
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
			job(ctx)
		}
	}
}

func (s *Scheduler) runPipeline(ctx context.Context) {
	res, err := s.pipeline.Run(ctx)
	if err != nil {
		logger.Log.Errorf("scheduled pipeline run failed: %v", err)
		return
	}
	logger.Log.Infof("scheduled pipeline run complete for %s: %d article(s) curated",
		res.NewsletterDate, res.ArticlesFiltered)
}

func (s *Scheduler) runRewind(ctx context.Context) {
	user, err := s.users.FindByEmail(ctx, models.DefaultUserEmail)
	if err != nil {
		logger.Log.Errorf("scheduled rewind skipped, cannot load default user: %v", err)
		return
	}
	if _, err := s.rewind.Generate(ctx, user.ID); err != nil {
		logger.Log.Errorf("scheduled rewind run failed: %v", err)
		return
	}
	logger.Log.Info("scheduled rewind run complete")
}

// NextDailyRun returns the next daily-pipeline instant strictly after now.
func (s *Scheduler) NextDailyRun(now time.Time) time.Time {
	kst := now.In(timeutil.KST())
	next := time.Date(kst.Year(), kst.Month(), kst.Day(),
		s.cfg.DailyPipelineHour, s.cfg.DailyPipelineMin, 0, 0, timeutil.KST())
	if !next.After(kst) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

// NextRewindRun returns the next weekly-rewind instant strictly after now.
func (s *Scheduler) NextRewindRun(now time.Time) time.Time {
	kst := now.In(timeutil.KST())
	target := parseWeekday(s.cfg.RewindDayOfWeek)

	next := time.Date(kst.Year(), kst.Month(), kst.Day(),
		s.cfg.RewindHour, s.cfg.RewindMinute, 0, 0, timeutil.KST())
	days := (int(target) - int(next.Weekday()) + 7) % 7
	next = next.AddDate(0, 0, days)
	if !next.After(kst) {
		next = next.AddDate(0, 0, 7)
	}
	return next
}

func parseWeekday(name string) time.Weekday {
	switch strings.ToLower(name) {
	case "mon", "monday":
		return time.Monday
	case "tue", "tuesday":
		return time.Tuesday
	case "wed", "wednesday":
		return time.Wednesday
	case "thu", "thursday":
		return time.Thursday
	case "fri", "friday":
		return time.Friday
	case "sat", "saturday":
		return time.Saturday
	default:
		return time.Sunday
	}
}
