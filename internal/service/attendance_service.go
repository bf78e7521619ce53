package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/maxhub/max-backend/internal/config"
	"github.com/maxhub/max-backend/internal/model"
	ws "github.com/maxhub/max-backend/internal/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// ErrStudentNotInRoster is returned by Toggle for a student id that is
// not part of the session's roster.
var ErrStudentNotInRoster = errors.New("student not in roster")

// LessonGetter fetches one lesson slot. Implemented by
// repository.LessonRepository.
type LessonGetter interface {
	GetByID(ctx context.Context, id int) (*model.LessonSlot, error)
}

// RosterSource lists the students of a group in roster order.
// Implemented by repository.UserRepository.
type RosterSource interface {
	ListByGroup(ctx context.Context, groupID int) ([]model.User, error)
}

// AttendanceStore reads and replaces persisted attendance records.
// Implemented by repository.AttendanceRepository.
type AttendanceStore interface {
	ListByLesson(ctx context.Context, lessonID int) ([]model.AttendanceRecord, error)
	ReplaceForLesson(ctx context.Context, lessonID int, date string, records []model.AttendanceRecord) error
}

// AttendanceService reconciles rosters with persisted records into
// per-lesson sessions and persists them back. Sessions are owned by a
// single caller at a time; the service never shares mutable state
// between calls.
type AttendanceService struct {
	lessons LessonGetter
	roster  RosterSource
	store   AttendanceStore
	rdb     *redis.Client
	log     zerolog.Logger
}

// NewAttendanceService creates a new AttendanceService. rdb may be nil;
// live monitor events and stats refreshes are then skipped.
func NewAttendanceService(lessons LessonGetter, roster RosterSource, store AttendanceStore, rdb *redis.Client, log zerolog.Logger) *AttendanceService {
	return &AttendanceService{
		lessons: lessons,
		roster:  roster,
		store:   store,
		rdb:     rdb,
		log:     log.With().Str("component", "attendance_service").Logger(),
	}
}

// LoadSession fetches the lesson, its group roster and prior records,
// and reconciles them into a clean session. Roster and prior-record
// fetch failures propagate: without them there is nothing to edit.
func (s *AttendanceService) LoadSession(ctx context.Context, lessonID int) (*model.AttendanceSession, *model.LessonSlot, error) {
	lesson, err := s.lessons.GetByID(ctx, lessonID)
	if err != nil {
		return nil, nil, fmt.Errorf("fetch lesson: %w", err)
	}

	students, err := s.roster.ListByGroup(ctx, lesson.GroupID)
	if err != nil {
		return nil, nil, fmt.Errorf("fetch roster: %w", err)
	}

	prior, err := s.store.ListByLesson(ctx, lessonID)
	if err != nil {
		return nil, nil, fmt.Errorf("fetch prior attendance: %w", err)
	}

	return InitializeSession(lessonID, students, prior), lesson, nil
}

// InitializeSession reconciles a roster against prior records: exactly
// one entry per enrolled student, in roster order, present iff that
// student's most recent record has status "present". Students without a
// record default to absent. The session starts clean.
func InitializeSession(lessonID int, students []model.User, prior []model.AttendanceRecord) *model.AttendanceSession {
	session := &model.AttendanceSession{
		LessonID: lessonID,
		Roster:   make([]model.RosterEntry, 0, len(students)),
	}
	for _, student := range students {
		present := false
		// prior is ordered newest first; the first hit is the latest mark.
		for _, rec := range prior {
			if rec.StudentID == student.ID {
				present = rec.Status == model.StatusPresent
				break
			}
		}
		session.Roster = append(session.Roster, model.RosterEntry{
			StudentID:   student.ID,
			StudentName: student.FullName(),
			Present:     present,
		})
	}
	return session
}

// Toggle flips one student's mark and dirties the session. Unknown
// student ids fail with ErrStudentNotInRoster and leave the session
// untouched.
func Toggle(session *model.AttendanceSession, studentID int) error {
	for i := range session.Roster {
		if session.Roster[i].StudentID == studentID {
			session.Roster[i].Present = !session.Roster[i].Present
			session.Dirty = true
			return nil
		}
	}
	return fmt.Errorf("toggle student %d: %w", studentID, ErrStudentNotInRoster)
}

// MarkAll marks every roster entry present. The session turns dirty
// even when no value changed.
func MarkAll(session *model.AttendanceSession) {
	for i := range session.Roster {
		session.Roster[i].Present = true
	}
	session.Dirty = true
}

// ClearAll marks every roster entry absent. The session turns dirty
// even when no value changed.
func ClearAll(session *model.AttendanceSession) {
	for i := range session.Roster {
		session.Roster[i].Present = false
	}
	session.Dirty = true
}

// SavePayload maps the session to persistable records dated today: one
// record per roster entry, absent students included.
func SavePayload(session *model.AttendanceSession, today time.Time) []model.AttendanceRecord {
	date := today.Format("2006-01-02")
	records := make([]model.AttendanceRecord, 0, len(session.Roster))
	for _, entry := range session.Roster {
		status := model.StatusAbsent
		if entry.Present {
			status = model.StatusPresent
		}
		records = append(records, model.AttendanceRecord{
			StudentID: entry.StudentID,
			LessonID:  session.LessonID,
			Date:      date,
			Status:    status,
		})
	}
	return records
}

// Save persists the session. On success the session turns clean; on
// failure it stays dirty and the storage error surfaces unchanged so
// the caller knows nothing was lost.
func (s *AttendanceService) Save(ctx context.Context, lesson *model.LessonSlot, session *model.AttendanceSession, today time.Time) error {
	records := SavePayload(session, today)
	date := today.Format("2006-01-02")

	if err := s.store.ReplaceForLesson(ctx, session.LessonID, date, records); err != nil {
		return fmt.Errorf("persist attendance: %w", err)
	}

	session.Dirty = false
	s.notifySaved(ctx, lesson, records)
	return nil
}

// SaveRecords is the bulk HTTP path: persists client-built records for
// one lesson and date without holding a server-side session. Records
// for students outside the lesson's group are rejected.
func (s *AttendanceService) SaveRecords(ctx context.Context, lesson *model.LessonSlot, date string, records []model.AttendanceRecord) error {
	students, err := s.roster.ListByGroup(ctx, lesson.GroupID)
	if err != nil {
		return fmt.Errorf("fetch roster: %w", err)
	}
	enrolled := make(map[int]bool, len(students))
	for _, student := range students {
		enrolled[student.ID] = true
	}
	for _, rec := range records {
		if !enrolled[rec.StudentID] {
			return fmt.Errorf("save student %d: %w", rec.StudentID, ErrStudentNotInRoster)
		}
	}

	if err := s.store.ReplaceForLesson(ctx, lesson.ID, date, records); err != nil {
		return fmt.Errorf("persist attendance: %w", err)
	}
	s.notifySaved(ctx, lesson, records)
	return nil
}

// notifySaved publishes a live monitor event for the lesson's group and
// enqueues a stats refresh. Both are best effort.
func (s *AttendanceService) notifySaved(ctx context.Context, lesson *model.LessonSlot, records []model.AttendanceRecord) {
	if s.rdb == nil {
		return
	}

	present := 0
	for _, rec := range records {
		if rec.Status == model.StatusPresent {
			present++
		}
	}

	event := ws.AttendanceSavedEvent{
		Event:       ws.EventAttendanceSaved,
		LessonID:    lesson.ID,
		GroupID:     lesson.GroupID,
		SubjectName: lesson.SubjectName,
		Present:     present,
		Total:       len(records),
		SavedAt:     time.Now().UTC().Format(time.RFC3339),
	}
	raw, err := json.Marshal(event)
	if err != nil {
		return
	}

	channel := config.CacheKey.GroupMonitorChannel(lesson.GroupID)
	if err := s.rdb.Publish(ctx, channel, raw).Err(); err != nil {
		s.log.Warn().Err(err).Int("group_id", lesson.GroupID).Msg("Monitor publish failed")
	}

	if err := s.rdb.RPush(ctx, config.WorkerKey.RefreshStatsQueue, lesson.GroupID).Err(); err != nil {
		s.log.Warn().Err(err).Int("group_id", lesson.GroupID).Msg("Stats refresh enqueue failed")
	}
}
