package model

import "time"

// WeekParity is the alternating-week scheduling tag for a lesson slot.
// Stored as 0/1/2 in the database (week_type column).
type WeekParity int

const (
	// WeekEvery runs weekly regardless of the active parity.
	WeekEvery WeekParity = 0
	// WeekOdd runs only during odd academic weeks.
	WeekOdd WeekParity = 1
	// WeekEven runs only during even academic weeks.
	WeekEven WeekParity = 2
)

// String implements fmt.Stringer for logging.
func (p WeekParity) String() string {
	switch p {
	case WeekOdd:
		return "odd"
	case WeekEven:
		return "even"
	default:
		return "every"
	}
}

// ActiveUnder reports whether a slot tagged with parity p takes place
// during a week whose resolved parity is active. WeekEvery slots are
// active under both parities.
func (p WeekParity) ActiveUnder(active WeekParity) bool {
	return p == WeekEvery || p == active
}

// LessonType enumerates the kinds of lesson slots.
type LessonType string

const (
	LessonLecture  LessonType = "lecture"
	LessonPractice LessonType = "practice"
	LessonLab      LessonType = "lab"
)

// LessonSlot is a single scheduled lesson. SubjectName, GroupName and
// TeacherName are denormalized joins for display; identity is ID.
type LessonSlot struct {
	ID          int        `json:"id"`
	SubjectID   int        `json:"subject_id"`
	SubjectName string     `json:"subject_name"`
	GroupID     int        `json:"group_id"`
	GroupName   string     `json:"group_name"`
	TeacherID   int        `json:"teacher_id"`
	TeacherName string     `json:"teacher_name"`
	DayOfWeek   int        `json:"day_of_week"` // 1 = Monday .. 5 = Friday
	TimeStart   string     `json:"time_start"`  // "08:30"
	TimeEnd     string     `json:"time_end"`    // "10:00"
	Room        string     `json:"room"`
	WeekParity  WeekParity `json:"week_type"`
	LessonType  LessonType `json:"lesson_type"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// CreateLessonSlotRequest is the admin payload for creating or updating
// a schedule slot.
type CreateLessonSlotRequest struct {
	SubjectID  int        `json:"subject_id" binding:"required"`
	GroupID    int        `json:"group_id" binding:"required"`
	TeacherID  int        `json:"teacher_id" binding:"required"`
	DayOfWeek  int        `json:"day_of_week" binding:"required,min=1,max=5"`
	TimeStart  string     `json:"time_start" binding:"required"`
	TimeEnd    string     `json:"time_end" binding:"required"`
	Room       string     `json:"room" binding:"omitempty,max=20"`
	WeekParity WeekParity `json:"week_type" binding:"omitempty,min=0,max=2"`
	LessonType LessonType `json:"lesson_type" binding:"required,oneof=lecture practice lab"`
}
