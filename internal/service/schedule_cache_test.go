package service

import (
	"context"
	"reflect"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/maxhub/max-backend/internal/model"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

func newCacheTestService(t *testing.T, lessons LessonSource, groups CuratedGroupSource) *ScheduleService {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return NewScheduleService(lessons, groups, rdb, time.Minute, zerolog.Nop())
}

func TestAggregateCacheKeyedByGroupFilter(t *testing.T) {
	// A group-filtered aggregation narrows the result set, so it must
	// never be served later for an unfiltered query of the same week:
	// the curated contribution would silently disappear.
	lessons := &fakeLessonSource{
		own:     []model.LessonSlot{slot(1, 1, "Math", 7)},
		byGroup: map[int][]model.LessonSlot{2: {slot(9, 2, "Physics", 2)}},
	}
	groups := &fakeGroupSource{groups: []model.Group{{ID: 2}}}
	svc := newCacheTestService(t, lessons, groups)

	req := Requester{ID: 10, Role: model.RoleTeacher}
	query := model.ScheduleQuery{ViewMode: model.ViewWeek}

	groupID := 7
	filtered, err := svc.Aggregate(context.Background(), req, query, &groupID)
	if err != nil {
		t.Fatalf("Aggregate() error = %v", err)
	}
	if want := []int{1}; !reflect.DeepEqual(lessonIDs(filtered), want) {
		t.Fatalf("filtered ids = %v, want %v", lessonIDs(filtered), want)
	}

	unfiltered, err := svc.Aggregate(context.Background(), req, query, nil)
	if err != nil {
		t.Fatalf("Aggregate() error = %v", err)
	}
	if want := []int{1, 9}; !reflect.DeepEqual(lessonIDs(unfiltered), want) {
		t.Errorf("unfiltered ids = %v, want %v (filtered result served from cache)",
			lessonIDs(unfiltered), want)
	}
}

func TestAggregateServesCachedResult(t *testing.T) {
	lessons := &fakeLessonSource{own: []model.LessonSlot{slot(1, 1, "Math", 1)}}
	svc := newCacheTestService(t, lessons, &fakeGroupSource{})

	req := Requester{ID: 10, Role: model.RoleTeacher}
	query := model.ScheduleQuery{ViewMode: model.ViewWeek}

	for i := 0; i < 3; i++ {
		got, err := svc.Aggregate(context.Background(), req, query, nil)
		if err != nil {
			t.Fatalf("Aggregate() error = %v", err)
		}
		if want := []int{1}; !reflect.DeepEqual(lessonIDs(got), want) {
			t.Fatalf("run %d: ids = %v, want %v", i, lessonIDs(got), want)
		}
	}
	if lessons.ownCalls != 1 {
		t.Errorf("own lessons fetched %d times, want 1", lessons.ownCalls)
	}
}

// gatedLessonSource blocks its first own-lessons fetch until released,
// so a second query can start and supersede the first mid-flight.
type gatedLessonSource struct {
	fakeLessonSource
	started chan struct{}
	release chan struct{}
	fetches int32
}

func (g *gatedLessonSource) ListForTeacher(ctx context.Context, pred model.SchedulePredicate, teacherID int, groupID *int) ([]model.LessonSlot, error) {
	if atomic.AddInt32(&g.fetches, 1) == 1 {
		close(g.started)
		<-g.release
	}
	return g.fakeLessonSource.ListForTeacher(ctx, pred, teacherID, groupID)
}

func TestAggregateSupersededQueryNotCached(t *testing.T) {
	lessons := &gatedLessonSource{
		fakeLessonSource: fakeLessonSource{own: []model.LessonSlot{slot(1, 1, "Math", 1)}},
		started:          make(chan struct{}),
		release:          make(chan struct{}),
	}
	svc := newCacheTestService(t, lessons, &fakeGroupSource{})

	req := Requester{ID: 10, Role: model.RoleTeacher}
	stale := model.ScheduleQuery{ViewMode: model.ViewWeek}
	newer := model.ScheduleQuery{ViewMode: model.ViewWeek, WeekOffset: 1}

	type result struct {
		schedule []model.LessonSlot
		err      error
	}
	done := make(chan result, 1)
	go func() {
		schedule, err := svc.Aggregate(context.Background(), req, stale, nil)
		done <- result{schedule, err}
	}()

	// Wait for the stale query to suspend in its fetch, then run a newer
	// query to completion before letting the stale one finish.
	<-lessons.started
	if _, err := svc.Aggregate(context.Background(), req, newer, nil); err != nil {
		t.Fatalf("Aggregate(newer) error = %v", err)
	}
	close(lessons.release)

	res := <-done
	if res.err != nil {
		t.Fatalf("Aggregate(stale) error = %v", res.err)
	}
	// The superseded result still returns to its own caller.
	if want := []int{1}; !reflect.DeepEqual(lessonIDs(res.schedule), want) {
		t.Errorf("stale caller ids = %v, want %v", lessonIDs(res.schedule), want)
	}
	// But it never lands in the cache once a newer query is registered.
	if _, ok := svc.cacheGet(context.Background(), req.ID, stale.Fingerprint()); ok {
		t.Error("superseded result was written to the schedule cache")
	}
}
