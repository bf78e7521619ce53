package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/maxhub/max-backend/internal/config"
	"github.com/maxhub/max-backend/internal/model"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// SourceUnavailableError marks a curated-group fetch that failed. It is
// recoverable: the aggregator degrades that group's contribution to
// empty and logs the failure instead of failing the whole call. Only
// the teacher's own lessons are a mandatory source.
type SourceUnavailableError struct {
	GroupID int
	Err     error
}

func (e *SourceUnavailableError) Error() string {
	return fmt.Sprintf("schedule source for group %d unavailable: %v", e.GroupID, e.Err)
}

func (e *SourceUnavailableError) Unwrap() error { return e.Err }

// LessonSource provides lesson slots under a resolved predicate.
// Implemented by repository.LessonRepository.
type LessonSource interface {
	ListForTeacher(ctx context.Context, pred model.SchedulePredicate, teacherID int, groupID *int) ([]model.LessonSlot, error)
	ListForGroup(ctx context.Context, pred model.SchedulePredicate, groupID int) ([]model.LessonSlot, error)
	ListAll(ctx context.Context, pred model.SchedulePredicate, groupID *int) ([]model.LessonSlot, error)
}

// CuratedGroupSource lists the groups a teacher curates.
// Implemented by repository.GroupRepository.
type CuratedGroupSource interface {
	ListCuratedByTeacher(ctx context.Context, teacherID int) ([]model.Group, error)
}

// Requester identifies who is asking for a schedule.
type Requester struct {
	ID   int
	Role model.Role
}

// ScheduleService aggregates lesson slots from the teacher's own
// assignments and their curated groups into one deduplicated,
// deterministically ordered schedule.
type ScheduleService struct {
	lessons  LessonSource
	groups   CuratedGroupSource
	rdb      *redis.Client
	cacheTTL time.Duration
	log      zerolog.Logger

	// nowFunc is swapped in tests.
	nowFunc func() time.Time
}

// NewScheduleService creates a new ScheduleService. rdb may be nil, in
// which case caching and the last-query-wins guard are disabled.
func NewScheduleService(lessons LessonSource, groups CuratedGroupSource, rdb *redis.Client, cacheTTL time.Duration, log zerolog.Logger) *ScheduleService {
	return &ScheduleService{
		lessons:  lessons,
		groups:   groups,
		rdb:      rdb,
		cacheTTL: cacheTTL,
		log:      log.With().Str("component", "schedule_service").Logger(),
		nowFunc:  time.Now,
	}
}

// ResolveParity derives the active week parity for a date shifted by a
// signed number of weeks. The academic year starts September 1: weeks
// at an even distance from it are odd academic weeks (week 0 is week
// number 1). Pure and deterministic — the result feeds the schedule
// cache key.
func ResolveParity(now time.Time, weekOffsetInWeeks int) model.WeekParity {
	target := now.AddDate(0, 0, weekOffsetInWeeks*7)

	year := target.Year()
	if target.Month() < time.September {
		year--
	}
	academicYearStart := time.Date(year, time.September, 1, 0, 0, 0, 0, target.Location())

	diffWeeks := int(target.Sub(academicYearStart) / (7 * 24 * time.Hour))
	if diffWeeks%2 == 0 {
		return model.WeekOdd
	}
	return model.WeekEven
}

// ResolvePredicate turns a ScheduleQuery into the concrete filter sent
// to the lesson store. It is resolved exactly once per aggregation so
// every fan-out fetch sees the same predicate.
func (s *ScheduleService) ResolvePredicate(q model.ScheduleQuery) model.SchedulePredicate {
	if q.ViewMode == model.ViewMonth {
		return model.SchedulePredicate{ViewMode: model.ViewMonth, Month: q.Month, Year: q.Year}
	}
	parity := q.ParityOverride
	if parity == nil {
		p := ResolveParity(s.nowFunc(), q.WeekOffset)
		parity = &p
	}
	return model.SchedulePredicate{ViewMode: model.ViewWeek, Parity: *parity}
}

// Aggregate builds the requester's schedule for one query.
//
// Admins get a single exhaustive fetch. Teachers get their own lessons
// (mandatory: a failure here fails the call) merged with the lessons of
// every group they curate, fetched concurrently but merged in ascending
// group-id order so the result never depends on completion timing.
// Duplicate lesson ids keep their first occurrence under that fixed
// order.
func (s *ScheduleService) Aggregate(ctx context.Context, req Requester, query model.ScheduleQuery, groupFilter *int) ([]model.LessonSlot, error) {
	pred := s.ResolvePredicate(query)
	fingerprint := cacheFingerprint(query, groupFilter)

	s.registerQuery(ctx, req.ID, fingerprint)

	if cached, ok := s.cacheGet(ctx, req.ID, fingerprint); ok {
		return cached, nil
	}

	var schedule []model.LessonSlot

	if req.Role == model.RoleAdmin {
		all, err := s.lessons.ListAll(ctx, pred, groupFilter)
		if err != nil {
			return nil, fmt.Errorf("fetch schedule: %w", err)
		}
		schedule = all
	} else {
		own, err := s.lessons.ListForTeacher(ctx, pred, req.ID, groupFilter)
		if err != nil {
			return nil, fmt.Errorf("fetch own lessons: %w", err)
		}
		schedule = own

		if groupFilter == nil {
			schedule = append(schedule, s.fetchCuratedLessons(ctx, req.ID, pred)...)
		}
		schedule = dedupeLessons(schedule)
	}

	s.cacheSet(ctx, req.ID, fingerprint, schedule)
	return schedule, nil
}

// fetchCuratedLessons fans out over the requester's curated groups and
// returns their lessons concatenated in ascending group-id order. Each
// fetch runs concurrently; failures degrade that group to empty.
func (s *ScheduleService) fetchCuratedLessons(ctx context.Context, teacherID int, pred model.SchedulePredicate) []model.LessonSlot {
	curated, err := s.groups.ListCuratedByTeacher(ctx, teacherID)
	if err != nil {
		// Curator enrichment is optional: the teacher's own schedule
		// must still display.
		s.log.Warn().Err(err).Int("teacher_id", teacherID).Msg("Curated groups unavailable")
		return nil
	}
	if len(curated) == 0 {
		return nil
	}

	// Merge order is group-id order, never completion order.
	sort.Slice(curated, func(i, j int) bool { return curated[i].ID < curated[j].ID })

	results := make([][]model.LessonSlot, len(curated))
	var wg sync.WaitGroup
	for i, g := range curated {
		wg.Add(1)
		go func(i, groupID int) {
			defer wg.Done()
			lessons, err := s.lessons.ListForGroup(ctx, pred, groupID)
			if err != nil {
				srcErr := &SourceUnavailableError{GroupID: groupID, Err: err}
				s.log.Warn().Err(srcErr).Int("group_id", groupID).Msg("Curated group fetch failed")
				return
			}
			results[i] = lessons
		}(i, g.ID)
	}
	wg.Wait()

	var merged []model.LessonSlot
	for _, lessons := range results {
		merged = append(merged, lessons...)
	}
	return merged
}

// dedupeLessons collapses duplicate lesson ids, keeping the first
// occurrence. A lesson reachable both as "own" and through a curated
// group survives in its own-lessons position.
func dedupeLessons(lessons []model.LessonSlot) []model.LessonSlot {
	seen := make(map[int]struct{}, len(lessons))
	out := lessons[:0:0]
	for _, l := range lessons {
		if _, ok := seen[l.ID]; ok {
			continue
		}
		seen[l.ID] = struct{}{}
		out = append(out, l)
	}
	return out
}

// ─── Redis cache with last-query-wins guard ─────────────────────────

// cacheFingerprint is the full cache identity of one aggregation. The
// group filter narrows the result set, so a filtered and an unfiltered
// aggregation of the same query must never share a cache entry.
func cacheFingerprint(query model.ScheduleQuery, groupFilter *int) string {
	fingerprint := query.Fingerprint()
	if groupFilter != nil {
		fingerprint = fmt.Sprintf("%s:g%d", fingerprint, *groupFilter)
	}
	return fingerprint
}

// registerQuery marks fingerprint as the requester's current query.
// Stale aggregations check this marker before writing their result.
func (s *ScheduleService) registerQuery(ctx context.Context, userID int, fingerprint string) {
	if s.rdb == nil {
		return
	}
	key := config.CacheKey.ScheduleCurrentQueryKey(userID)
	if err := s.rdb.Set(ctx, key, fingerprint, s.cacheTTL).Err(); err != nil {
		s.log.Debug().Err(err).Msg("Register current query failed")
	}
}

func (s *ScheduleService) cacheGet(ctx context.Context, userID int, fingerprint string) ([]model.LessonSlot, bool) {
	if s.rdb == nil {
		return nil, false
	}
	raw, err := s.rdb.Get(ctx, config.CacheKey.ScheduleKey(userID, fingerprint)).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.log.Debug().Err(err).Msg("Schedule cache read failed")
		}
		return nil, false
	}
	var schedule []model.LessonSlot
	if err := json.Unmarshal([]byte(raw), &schedule); err != nil {
		return nil, false
	}
	return schedule, true
}

// cacheSet stores the aggregate unless a newer query has started since
// this one: a superseded result still returns to its own caller but
// never overwrites the current query's view of the schedule.
func (s *ScheduleService) cacheSet(ctx context.Context, userID int, fingerprint string, schedule []model.LessonSlot) {
	if s.rdb == nil {
		return
	}
	current, err := s.rdb.Get(ctx, config.CacheKey.ScheduleCurrentQueryKey(userID)).Result()
	if err == nil && current != fingerprint {
		s.log.Debug().
			Str("stale", fingerprint).
			Str("current", current).
			Msg("Discarding superseded schedule result")
		return
	}
	raw, err := json.Marshal(schedule)
	if err != nil {
		return
	}
	if err := s.rdb.Set(ctx, config.CacheKey.ScheduleKey(userID, fingerprint), raw, s.cacheTTL).Err(); err != nil {
		s.log.Debug().Err(err).Msg("Schedule cache write failed")
	}
}
