// Package timeutil holds timezone helpers for newsletter day-boundary logic.
// Newsletter dates are calendar days in Asia/Seoul; queries against the store
// always use UTC instants.
package timeutil

import "time"

var kst = mustLoad("Asia/Seoul")

func mustLoad(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		// Seoul has a fixed +09:00 offset, so a zoneinfo-less host
		// still gets correct day boundaries.
		return time.FixedZone("KST", 9*60*60)
	}
	return loc
}

// KST returns the newsletter timezone.
func KST() *time.Location { return kst }

// TodayKST returns the current calendar date in Asia/Seoul as YYYY-MM-DD.
func TodayKST(now time.Time) string {
	return now.In(kst).Format("2006-01-02")
}

// DateKST returns t's calendar date in Asia/Seoul as YYYY-MM-DD.
func DateKST(t time.Time) string {
	return t.In(kst).Format("2006-01-02")
}

// KSTMidnightUTC returns the UTC instant of KST midnight for the given
// YYYY-MM-DD date string. The zero time is returned for unparseable input.
func KSTMidnightUTC(date string) time.Time {
	t, err := time.ParseInLocation("2006-01-02", date, kst)
	if err != nil {
		return time.Time{}
	}
	return t.UTC()
}
