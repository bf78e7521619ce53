package service

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/maxhub/max-backend/internal/model"
	"github.com/rs/zerolog"
)

// fakeLessonSource records the predicates it was called with and serves
// canned lessons per teacher/group.
type fakeLessonSource struct {
	mu         sync.Mutex
	own        []model.LessonSlot
	ownErr     error
	byGroup    map[int][]model.LessonSlot
	groupErrs  map[int]error
	all        []model.LessonSlot
	allCalls   int
	ownCalls   int
	groupCalls []int
	preds      []model.SchedulePredicate
}

func (f *fakeLessonSource) ListForTeacher(_ context.Context, pred model.SchedulePredicate, _ int, _ *int) ([]model.LessonSlot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ownCalls++
	f.preds = append(f.preds, pred)
	if f.ownErr != nil {
		return nil, f.ownErr
	}
	return f.own, nil
}

func (f *fakeLessonSource) ListForGroup(_ context.Context, pred model.SchedulePredicate, groupID int) ([]model.LessonSlot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.groupCalls = append(f.groupCalls, groupID)
	f.preds = append(f.preds, pred)
	if err := f.groupErrs[groupID]; err != nil {
		return nil, err
	}
	return f.byGroup[groupID], nil
}

func (f *fakeLessonSource) ListAll(_ context.Context, pred model.SchedulePredicate, _ *int) ([]model.LessonSlot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.allCalls++
	f.preds = append(f.preds, pred)
	return f.all, nil
}

type fakeGroupSource struct {
	groups []model.Group
	err    error
}

func (f *fakeGroupSource) ListCuratedByTeacher(context.Context, int) ([]model.Group, error) {
	return f.groups, f.err
}

func slot(id, subjectID int, subject string, groupID int) model.LessonSlot {
	return model.LessonSlot{ID: id, SubjectID: subjectID, SubjectName: subject, GroupID: groupID}
}

func newTestService(lessons *fakeLessonSource, groups *fakeGroupSource) *ScheduleService {
	return NewScheduleService(lessons, groups, nil, time.Minute, zerolog.Nop())
}

func lessonIDs(lessons []model.LessonSlot) []int {
	ids := make([]int, 0, len(lessons))
	for _, l := range lessons {
		ids = append(ids, l.ID)
	}
	return ids
}

func TestResolveParity(t *testing.T) {
	date := func(y int, m time.Month, d int) time.Time {
		return time.Date(y, m, d, 12, 0, 0, 0, time.UTC)
	}

	tests := []struct {
		name   string
		now    time.Time
		offset int
		want   model.WeekParity
	}{
		{name: "academic year start is odd", now: date(2024, time.September, 1), offset: 0, want: model.WeekOdd},
		{name: "second week is even", now: date(2024, time.September, 8), offset: 0, want: model.WeekEven},
		{name: "offset shifts into next week", now: date(2024, time.September, 1), offset: 1, want: model.WeekEven},
		{name: "offset two weeks keeps parity", now: date(2024, time.September, 1), offset: 2, want: model.WeekOdd},
		{name: "spring belongs to previous september", now: date(2025, time.March, 10), offset: 0, want: ResolveParity(date(2025, time.March, 10), 0)},
		{name: "negative offset from second week", now: date(2024, time.September, 8), offset: -1, want: model.WeekOdd},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ResolveParity(tt.now, tt.offset)
			if got != tt.want {
				t.Errorf("ResolveParity() = %v, want %v", got, tt.want)
			}
			// Deterministic: repeated calls agree.
			if again := ResolveParity(tt.now, tt.offset); again != got {
				t.Errorf("ResolveParity() not deterministic: %v then %v", got, again)
			}
		})
	}
}

func TestResolveParityAugustUsesPreviousYear(t *testing.T) {
	// 2025-08-20 is before September, so the academic year started
	// 2024-09-01: 50 full weeks elapsed, and an even distance from the
	// start is an odd academic week.
	now := time.Date(2025, time.August, 20, 0, 0, 0, 0, time.UTC)
	if got := ResolveParity(now, 0); got != model.WeekOdd {
		t.Errorf("ResolveParity(aug) = %v, want odd", got)
	}
}

func TestAggregateTeacherMergesAndDedupes(t *testing.T) {
	// Teacher owns lesson 5 directly and curates group 2, which also
	// contains lesson 5 (co-taught). Lesson 5 must survive once, in the
	// own-lessons position.
	lessons := &fakeLessonSource{
		own: []model.LessonSlot{slot(5, 1, "Math", 2), slot(6, 2, "Physics", 3)},
		byGroup: map[int][]model.LessonSlot{
			1: {slot(9, 3, "History", 1)},
			2: {slot(5, 1, "Math", 2), slot(8, 4, "Chemistry", 2)},
		},
	}
	groups := &fakeGroupSource{groups: []model.Group{{ID: 2}, {ID: 1}}}
	svc := newTestService(lessons, groups)

	got, err := svc.Aggregate(context.Background(), Requester{ID: 10, Role: model.RoleTeacher},
		model.ScheduleQuery{ViewMode: model.ViewWeek}, nil)
	if err != nil {
		t.Fatalf("Aggregate() error = %v", err)
	}

	// Own lessons first, then group 1 before group 2 regardless of the
	// order the curated list arrived in.
	want := []int{5, 6, 9, 8}
	if !reflect.DeepEqual(lessonIDs(got), want) {
		t.Errorf("Aggregate() ids = %v, want %v", lessonIDs(got), want)
	}
}

func TestAggregateDeterministicAcrossRuns(t *testing.T) {
	lessons := &fakeLessonSource{
		own: []model.LessonSlot{slot(1, 1, "Math", 1)},
		byGroup: map[int][]model.LessonSlot{
			1: {slot(2, 2, "A", 1)},
			2: {slot(3, 3, "B", 2)},
			3: {slot(4, 4, "C", 3)},
		},
	}
	groups := &fakeGroupSource{groups: []model.Group{{ID: 3}, {ID: 1}, {ID: 2}}}
	svc := newTestService(lessons, groups)

	req := Requester{ID: 10, Role: model.RoleTeacher}
	query := model.ScheduleQuery{ViewMode: model.ViewWeek}

	first, err := svc.Aggregate(context.Background(), req, query, nil)
	if err != nil {
		t.Fatalf("Aggregate() error = %v", err)
	}
	for i := 0; i < 20; i++ {
		again, err := svc.Aggregate(context.Background(), req, query, nil)
		if err != nil {
			t.Fatalf("Aggregate() error = %v", err)
		}
		if !reflect.DeepEqual(lessonIDs(again), lessonIDs(first)) {
			t.Fatalf("run %d: ids = %v, want %v", i, lessonIDs(again), lessonIDs(first))
		}
	}
	if want := []int{1, 2, 3, 4}; !reflect.DeepEqual(lessonIDs(first), want) {
		t.Errorf("Aggregate() ids = %v, want %v", lessonIDs(first), want)
	}
}

func TestAggregateCuratedFailureDegradesToEmpty(t *testing.T) {
	lessons := &fakeLessonSource{
		own: []model.LessonSlot{slot(1, 1, "Math", 1)},
		byGroup: map[int][]model.LessonSlot{
			1: {slot(2, 2, "A", 1)},
			3: {slot(4, 4, "C", 3)},
		},
		groupErrs: map[int]error{2: errors.New("connection refused")},
	}
	groups := &fakeGroupSource{groups: []model.Group{{ID: 1}, {ID: 2}, {ID: 3}}}
	svc := newTestService(lessons, groups)

	got, err := svc.Aggregate(context.Background(), Requester{ID: 10, Role: model.RoleTeacher},
		model.ScheduleQuery{ViewMode: model.ViewWeek}, nil)
	if err != nil {
		t.Fatalf("Aggregate() error = %v, want nil (curated failures are recoverable)", err)
	}
	if want := []int{1, 2, 4}; !reflect.DeepEqual(lessonIDs(got), want) {
		t.Errorf("Aggregate() ids = %v, want %v", lessonIDs(got), want)
	}
}

func TestAggregateOwnLessonsFailureIsFatal(t *testing.T) {
	srcErr := errors.New("db down")
	lessons := &fakeLessonSource{ownErr: srcErr}
	groups := &fakeGroupSource{groups: []model.Group{{ID: 1}}}
	svc := newTestService(lessons, groups)

	_, err := svc.Aggregate(context.Background(), Requester{ID: 10, Role: model.RoleTeacher},
		model.ScheduleQuery{ViewMode: model.ViewWeek}, nil)
	if !errors.Is(err, srcErr) {
		t.Errorf("Aggregate() error = %v, want wrapped %v", err, srcErr)
	}
}

func TestAggregateCuratedGroupsErrorKeepsOwnSchedule(t *testing.T) {
	lessons := &fakeLessonSource{own: []model.LessonSlot{slot(1, 1, "Math", 1)}}
	groups := &fakeGroupSource{err: errors.New("groups service down")}
	svc := newTestService(lessons, groups)

	got, err := svc.Aggregate(context.Background(), Requester{ID: 10, Role: model.RoleTeacher},
		model.ScheduleQuery{ViewMode: model.ViewWeek}, nil)
	if err != nil {
		t.Fatalf("Aggregate() error = %v", err)
	}
	if want := []int{1}; !reflect.DeepEqual(lessonIDs(got), want) {
		t.Errorf("Aggregate() ids = %v, want %v", lessonIDs(got), want)
	}
}

func TestAggregateGroupFilterSkipsCuratedFanOut(t *testing.T) {
	lessons := &fakeLessonSource{own: []model.LessonSlot{slot(1, 1, "Math", 7)}}
	groups := &fakeGroupSource{groups: []model.Group{{ID: 1}, {ID: 2}}}
	svc := newTestService(lessons, groups)

	groupID := 7
	if _, err := svc.Aggregate(context.Background(), Requester{ID: 10, Role: model.RoleTeacher},
		model.ScheduleQuery{ViewMode: model.ViewWeek}, &groupID); err != nil {
		t.Fatalf("Aggregate() error = %v", err)
	}
	if len(lessons.groupCalls) != 0 {
		t.Errorf("group fan-out ran despite explicit group filter: %v", lessons.groupCalls)
	}
}

func TestAggregateAdminSingleFetch(t *testing.T) {
	lessons := &fakeLessonSource{all: []model.LessonSlot{slot(1, 1, "Math", 1), slot(2, 2, "Physics", 2)}}
	groups := &fakeGroupSource{groups: []model.Group{{ID: 1}}}
	svc := newTestService(lessons, groups)

	got, err := svc.Aggregate(context.Background(), Requester{ID: 1, Role: model.RoleAdmin},
		model.ScheduleQuery{ViewMode: model.ViewWeek}, nil)
	if err != nil {
		t.Fatalf("Aggregate() error = %v", err)
	}
	if lessons.allCalls != 1 || lessons.ownCalls != 0 || len(lessons.groupCalls) != 0 {
		t.Errorf("admin aggregation fetched more than once: all=%d own=%d groups=%v",
			lessons.allCalls, lessons.ownCalls, lessons.groupCalls)
	}
	if want := []int{1, 2}; !reflect.DeepEqual(lessonIDs(got), want) {
		t.Errorf("Aggregate() ids = %v, want %v", lessonIDs(got), want)
	}
}

func TestAggregatePredicateResolvedOnce(t *testing.T) {
	lessons := &fakeLessonSource{
		own:     []model.LessonSlot{slot(1, 1, "Math", 1)},
		byGroup: map[int][]model.LessonSlot{1: nil, 2: nil},
	}
	groups := &fakeGroupSource{groups: []model.Group{{ID: 1}, {ID: 2}}}
	svc := newTestService(lessons, groups)

	// nowFunc that drifts across midnight between calls would change
	// the parity mid-aggregation if the predicate were re-resolved.
	calls := 0
	svc.nowFunc = func() time.Time {
		calls++
		return time.Date(2024, time.September, 7, 23, 59, 59, 0, time.UTC).
			AddDate(0, 0, calls-1)
	}

	if _, err := svc.Aggregate(context.Background(), Requester{ID: 10, Role: model.RoleTeacher},
		model.ScheduleQuery{ViewMode: model.ViewWeek}, nil); err != nil {
		t.Fatalf("Aggregate() error = %v", err)
	}

	for i, pred := range lessons.preds {
		if pred != lessons.preds[0] {
			t.Errorf("fetch %d saw predicate %+v, first fetch saw %+v", i, pred, lessons.preds[0])
		}
	}
}

func TestComposeSchedule(t *testing.T) {
	schedule := []model.LessonSlot{
		slot(1, 1, "Math", 1),
		slot(2, 2, "Physics", 1),
		slot(3, 1, "Math", 2),
	}

	tests := []struct {
		name   string
		filter string
		want   []int
	}{
		{name: "no filter returns all", filter: "", want: []int{1, 2, 3}},
		{name: "exact match", filter: "Math", want: []int{1, 3}},
		{name: "case sensitive", filter: "math", want: []int{}},
		{name: "unknown subject", filter: "Biology", want: []int{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := lessonIDs(ComposeSchedule(schedule, tt.filter))
			if len(got) == 0 && len(tt.want) == 0 {
				return
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ComposeSchedule() ids = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDistinctSubjects(t *testing.T) {
	schedule := []model.LessonSlot{
		slot(1, 1, "Math", 1),
		slot(2, 2, "Physics", 1),
		slot(3, 1, "Math", 2),
		slot(4, 3, "History", 1),
	}
	want := []string{"Math", "Physics", "History"}
	if got := DistinctSubjects(schedule); !reflect.DeepEqual(got, want) {
		t.Errorf("DistinctSubjects() = %v, want %v", got, want)
	}
}

func TestQueryFingerprint(t *testing.T) {
	odd := model.WeekOdd
	tests := []struct {
		name string
		q    model.ScheduleQuery
		want string
	}{
		{name: "week auto", q: model.ScheduleQuery{ViewMode: model.ViewWeek, WeekOffset: -2}, want: "week:auto:-2"},
		{name: "week override", q: model.ScheduleQuery{ViewMode: model.ViewWeek, ParityOverride: &odd}, want: "week:odd:0"},
		{name: "month", q: model.ScheduleQuery{ViewMode: model.ViewMonth, Month: 8, Year: 2024}, want: "month:2024:8"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.q.Fingerprint(); got != tt.want {
				t.Errorf("Fingerprint() = %q, want %q", got, tt.want)
			}
		})
	}
}
