package model

import "fmt"

// ViewMode selects which ScheduleQuery parameter set governs a fetch.
type ViewMode string

const (
	ViewWeek  ViewMode = "week"
	ViewMonth ViewMode = "month"
)

// ScheduleQuery describes one schedule fetch. Exactly one parameter set
// is meaningful per view mode: ParityOverride+WeekOffset for ViewWeek,
// Month+Year for ViewMonth.
type ScheduleQuery struct {
	ViewMode ViewMode

	// ParityOverride forces a specific week parity; nil means "derive
	// from WeekOffset relative to now".
	ParityOverride *WeekParity
	// WeekOffset is signed; 0 = current week.
	WeekOffset int

	Month int // 0-11, January = 0
	Year  int
}

// Fingerprint returns a stable identity string for the query. It keys
// the Redis schedule cache and the last-query-wins guard, so it must be
// deterministic for equal queries.
func (q ScheduleQuery) Fingerprint() string {
	if q.ViewMode == ViewMonth {
		return fmt.Sprintf("month:%d:%d", q.Year, q.Month)
	}
	parity := "auto"
	if q.ParityOverride != nil {
		parity = q.ParityOverride.String()
	}
	return fmt.Sprintf("week:%s:%d", parity, q.WeekOffset)
}

// SchedulePredicate is the resolved filter actually sent to the lesson
// store. The aggregator resolves it exactly once per query so every
// fan-out fetch sees the same predicate.
type SchedulePredicate struct {
	ViewMode ViewMode
	// Parity is the resolved active parity for ViewWeek queries.
	Parity WeekParity
	Month  int
	Year   int
}
