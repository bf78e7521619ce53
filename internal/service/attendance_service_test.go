package service

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/maxhub/max-backend/internal/model"
	"github.com/rs/zerolog"
)

type fakeLessonGetter struct {
	lesson *model.LessonSlot
	err    error
}

func (f *fakeLessonGetter) GetByID(context.Context, int) (*model.LessonSlot, error) {
	return f.lesson, f.err
}

type fakeRosterSource struct {
	students []model.User
	err      error
}

func (f *fakeRosterSource) ListByGroup(context.Context, int) ([]model.User, error) {
	return f.students, f.err
}

type fakeAttendanceStore struct {
	prior      []model.AttendanceRecord
	priorErr   error
	saved      []model.AttendanceRecord
	savedDate  string
	replaceErr error
}

func (f *fakeAttendanceStore) ListByLesson(context.Context, int) ([]model.AttendanceRecord, error) {
	return f.prior, f.priorErr
}

func (f *fakeAttendanceStore) ReplaceForLesson(_ context.Context, _ int, date string, records []model.AttendanceRecord) error {
	if f.replaceErr != nil {
		return f.replaceErr
	}
	f.savedDate = date
	f.saved = records
	return nil
}

func student(id int, name string) model.User {
	return model.User{ID: id, FirstName: name, LastName: "Student", Role: model.RoleStudent}
}

func record(studentID int, status model.AttendanceStatus) model.AttendanceRecord {
	return model.AttendanceRecord{StudentID: studentID, Status: status}
}

func presence(session *model.AttendanceSession) []bool {
	marks := make([]bool, 0, len(session.Roster))
	for _, e := range session.Roster {
		marks = append(marks, e.Present)
	}
	return marks
}

func TestInitializeSession(t *testing.T) {
	roster := []model.User{student(1, "A"), student(2, "B"), student(3, "C")}

	tests := []struct {
		name  string
		prior []model.AttendanceRecord
		want  []bool
	}{
		{
			name:  "no prior records defaults to absent",
			prior: nil,
			want:  []bool{false, false, false},
		},
		{
			name:  "single present record",
			prior: []model.AttendanceRecord{record(1, model.StatusPresent)},
			want:  []bool{true, false, false},
		},
		{
			name:  "explicit absent record stays absent",
			prior: []model.AttendanceRecord{record(2, model.StatusAbsent)},
			want:  []bool{false, false, false},
		},
		{
			name: "newest record wins per student",
			prior: []model.AttendanceRecord{
				record(1, model.StatusAbsent), // newest first
				record(1, model.StatusPresent),
				record(3, model.StatusPresent),
			},
			want: []bool{false, false, true},
		},
		{
			name: "records for unenrolled students are ignored",
			prior: []model.AttendanceRecord{
				record(99, model.StatusPresent),
				record(2, model.StatusPresent),
			},
			want: []bool{false, true, false},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			session := InitializeSession(42, roster, tt.prior)
			if session.Dirty {
				t.Error("fresh session must be clean")
			}
			if len(session.Roster) != len(roster) {
				t.Fatalf("roster length = %d, want %d", len(session.Roster), len(roster))
			}
			if got := presence(session); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("presence = %v, want %v", got, tt.want)
			}
			// Roster order is preserved.
			for i, entry := range session.Roster {
				if entry.StudentID != roster[i].ID {
					t.Errorf("entry %d student = %d, want %d", i, entry.StudentID, roster[i].ID)
				}
			}
		})
	}
}

func TestToggleInvolution(t *testing.T) {
	roster := []model.User{student(1, "A"), student(2, "B"), student(3, "C")}
	session := InitializeSession(42, roster, []model.AttendanceRecord{record(2, model.StatusPresent)})
	before := presence(session)

	if err := Toggle(session, 2); err != nil {
		t.Fatalf("Toggle() error = %v", err)
	}
	if session.Roster[1].Present {
		t.Error("first toggle should flip present to false")
	}
	if !session.Dirty {
		t.Error("toggle must dirty the session")
	}

	if err := Toggle(session, 2); err != nil {
		t.Fatalf("Toggle() error = %v", err)
	}
	if got := presence(session); !reflect.DeepEqual(got, before) {
		t.Errorf("double toggle presence = %v, want %v", got, before)
	}
}

func TestToggleUnknownStudent(t *testing.T) {
	session := InitializeSession(42, []model.User{student(1, "A")}, nil)

	err := Toggle(session, 99)
	if !errors.Is(err, ErrStudentNotInRoster) {
		t.Errorf("Toggle() error = %v, want ErrStudentNotInRoster", err)
	}
	if session.Dirty {
		t.Error("failed toggle must not dirty the session")
	}
	if session.Roster[0].Present {
		t.Error("failed toggle must not mutate the roster")
	}
}

func TestMarkAllAndClearAll(t *testing.T) {
	roster := []model.User{student(1, "A"), student(2, "B")}

	session := InitializeSession(42, roster, nil)
	MarkAll(session)
	if got := presence(session); !reflect.DeepEqual(got, []bool{true, true}) {
		t.Errorf("MarkAll presence = %v", got)
	}
	if !session.Dirty {
		t.Error("MarkAll must dirty the session")
	}

	// ClearAll on an already-absent session still dirties it: the
	// command is idempotent, the transition is not detected.
	session = InitializeSession(42, roster, nil)
	ClearAll(session)
	if got := presence(session); !reflect.DeepEqual(got, []bool{false, false}) {
		t.Errorf("ClearAll presence = %v", got)
	}
	if !session.Dirty {
		t.Error("ClearAll must dirty the session even without changes")
	}
}

func TestSavePayload(t *testing.T) {
	roster := []model.User{student(1, "A"), student(2, "B"), student(3, "C")}
	session := InitializeSession(42, roster, []model.AttendanceRecord{record(2, model.StatusPresent)})
	today := time.Date(2024, time.September, 2, 15, 30, 0, 0, time.UTC)

	payload := SavePayload(session, today)

	if len(payload) != len(roster) {
		t.Fatalf("payload length = %d, want %d (absent students are persisted too)", len(payload), len(roster))
	}
	wantStatus := []model.AttendanceStatus{model.StatusAbsent, model.StatusPresent, model.StatusAbsent}
	for i, rec := range payload {
		if rec.Status != wantStatus[i] {
			t.Errorf("record %d status = %s, want %s", i, rec.Status, wantStatus[i])
		}
		if rec.Date != "2024-09-02" {
			t.Errorf("record %d date = %q, want calendar date only", i, rec.Date)
		}
		if rec.LessonID != 42 {
			t.Errorf("record %d lesson = %d, want 42", i, rec.LessonID)
		}
	}
}

func TestSaveSuccessClearsDirty(t *testing.T) {
	store := &fakeAttendanceStore{}
	svc := NewAttendanceService(nil, nil, store, nil, zerolog.Nop())

	session := InitializeSession(42, []model.User{student(1, "A")}, nil)
	MarkAll(session)

	lesson := &model.LessonSlot{ID: 42, GroupID: 7, SubjectName: "Math"}
	if err := svc.Save(context.Background(), lesson, session, time.Now()); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if session.Dirty {
		t.Error("successful save must clear dirty")
	}
	if len(store.saved) != 1 {
		t.Errorf("persisted %d records, want 1", len(store.saved))
	}
}

func TestSaveFailureKeepsSessionDirty(t *testing.T) {
	storeErr := errors.New("constraint violation")
	store := &fakeAttendanceStore{replaceErr: storeErr}
	svc := NewAttendanceService(nil, nil, store, nil, zerolog.Nop())

	session := InitializeSession(42, []model.User{student(1, "A")}, nil)
	MarkAll(session)

	err := svc.Save(context.Background(), &model.LessonSlot{ID: 42}, session, time.Now())
	if !errors.Is(err, storeErr) {
		t.Errorf("Save() error = %v, want wrapped %v", err, storeErr)
	}
	if !session.Dirty {
		t.Error("failed save must keep the session dirty")
	}
	if !session.Roster[0].Present {
		t.Error("failed save must not discard local marks")
	}
}

func TestLoadSession(t *testing.T) {
	lessons := &fakeLessonGetter{lesson: &model.LessonSlot{ID: 42, GroupID: 7}}
	roster := &fakeRosterSource{students: []model.User{student(1, "A"), student(2, "B")}}
	store := &fakeAttendanceStore{prior: []model.AttendanceRecord{record(1, model.StatusPresent)}}
	svc := NewAttendanceService(lessons, roster, store, nil, zerolog.Nop())

	session, lesson, err := svc.LoadSession(context.Background(), 42)
	if err != nil {
		t.Fatalf("LoadSession() error = %v", err)
	}
	if lesson.GroupID != 7 {
		t.Errorf("lesson group = %d, want 7", lesson.GroupID)
	}
	if got := presence(session); !reflect.DeepEqual(got, []bool{true, false}) {
		t.Errorf("presence = %v, want [true false]", got)
	}
}

func TestLoadSessionPropagatesRosterFailure(t *testing.T) {
	rosterErr := errors.New("roster unavailable")
	lessons := &fakeLessonGetter{lesson: &model.LessonSlot{ID: 42, GroupID: 7}}
	roster := &fakeRosterSource{err: rosterErr}
	svc := NewAttendanceService(lessons, roster, &fakeAttendanceStore{}, nil, zerolog.Nop())

	if _, _, err := svc.LoadSession(context.Background(), 42); !errors.Is(err, rosterErr) {
		t.Errorf("LoadSession() error = %v, want wrapped %v", err, rosterErr)
	}
}
