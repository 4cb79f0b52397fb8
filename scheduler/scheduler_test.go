package scheduler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"curately/config"
	"curately/timeutil"
)

func newTestScheduler(cfg config.ScheduleConfig) *Scheduler {
	return New(nil, nil, nil, cfg, nil)
}

func kstTime(year int, month time.Month, day, hour, min int) time.Time {
	return time.Date(year, month, day, hour, min, 0, 0, timeutil.KST())
}

func TestNextDailyRunSameDay(t *testing.T) {
	s := newTestScheduler(config.ScheduleConfig{DailyPipelineHour: 6})

	now := kstTime(2026, 8, 30, 3, 0)
	next := s.NextDailyRun(now)
	assert.Equal(t, kstTime(2026, 8, 30, 6, 0), next)
}

func TestNextDailyRunRollsToTomorrow(t *testing.T) {
	s := newTestScheduler(config.ScheduleConfig{DailyPipelineHour: 6})

	now := kstTime(2026, 8, 30, 6, 0)
	next := s.NextDailyRun(now)
	assert.Equal(t, kstTime(2026, 8, 31, 6, 0), next)
}

func TestNextDailyRunUsesKSTNotUTC(t *testing.T) {
	s := newTestScheduler(config.ScheduleConfig{DailyPipelineHour: 6})

	// 2026-08-29 22:00 UTC is 2026-08-30 07:00 KST, past today's slot
	now := time.Date(2026, 8, 29, 22, 0, 0, 0, time.UTC)
	next := s.NextDailyRun(now)
	assert.Equal(t, kstTime(2026, 8, 31, 6, 0), next)
}

func TestNextRewindRunFindsConfiguredWeekday(t *testing.T) {
	s := newTestScheduler(config.ScheduleConfig{RewindDayOfWeek: "sun", RewindHour: 23})

	// 2026-08-28 is a Friday
	now := kstTime(2026, 8, 28, 12, 0)
	next := s.NextRewindRun(now)
	assert.Equal(t, kstTime(2026, 8, 30, 23, 0), next)
	assert.Equal(t, time.Sunday, next.Weekday())
}

func TestNextRewindRunSameDayBeforeSlot(t *testing.T) {
	s := newTestScheduler(config.ScheduleConfig{RewindDayOfWeek: "sun", RewindHour: 23})

	// Sunday morning still hits Sunday evening
	now := kstTime(2026, 8, 30, 9, 0)
	next := s.NextRewindRun(now)
	assert.Equal(t, kstTime(2026, 8, 30, 23, 0), next)
}

func TestNextRewindRunRollsAWeek(t *testing.T) {
	s := newTestScheduler(config.ScheduleConfig{RewindDayOfWeek: "sun", RewindHour: 23})

	now := kstTime(2026, 8, 30, 23, 0)
	next := s.NextRewindRun(now)
	assert.Equal(t, kstTime(2026, 9, 6, 23, 0), next)
}
