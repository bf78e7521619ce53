package model

import "time"

// AttendanceStatus is the persisted per-student mark. Absence is an
// explicit, persisted fact, not an omission: saving a lesson writes one
// record per roster entry.
type AttendanceStatus string

const (
	StatusPresent AttendanceStatus = "present"
	StatusAbsent  AttendanceStatus = "absent"
)

// AttendanceRecord is one persisted attendance mark.
type AttendanceRecord struct {
	ID          int              `json:"id,omitempty"`
	StudentID   int              `json:"student_id"`
	StudentName string           `json:"student_name,omitempty"`
	LessonID    int              `json:"lesson_id"`
	Date        string           `json:"date"` // "2006-01-02", no time component
	Status      AttendanceStatus `json:"status"`
	CreatedAt   time.Time        `json:"created_at,omitempty"`
}

// RosterEntry is one student's mutable mark inside an AttendanceSession.
type RosterEntry struct {
	StudentID   int    `json:"student_id"`
	StudentName string `json:"student_name,omitempty"`
	Present     bool   `json:"present"`
}

// AttendanceSession is the per-lesson editing state: one entry per
// student currently enrolled in the lesson's group, in roster order.
// Dirty is false at construction, set by any mutation and cleared only
// by a successful save. The session is owned by exactly one caller at a
// time; it is not safe for concurrent mutation.
type AttendanceSession struct {
	LessonID int           `json:"lesson_id"`
	Roster   []RosterEntry `json:"roster"`
	Dirty    bool          `json:"dirty"`
}

// SaveAttendanceRequest is the bulk save payload for one lesson.
type SaveAttendanceRequest struct {
	Records []SaveAttendanceItem `json:"records" binding:"required,dive"`
}

// SaveAttendanceItem is one student's mark in a bulk save.
type SaveAttendanceItem struct {
	StudentID int              `json:"student_id" binding:"required"`
	Status    AttendanceStatus `json:"status" binding:"required,oneof=present absent"`
	Date      string           `json:"date" binding:"required,datetime=2006-01-02"`
}
