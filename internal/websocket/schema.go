package websocket

// ─── Actions (Client → Server) ──────────────────────────────────────

type Action string

const (
	ActionPing Action = "ping"
)

// RequestEnvelope is used to peek at the action before full parsing.
type RequestEnvelope struct {
	Action Action `json:"action"`
}

// ─── Events (Server → Client) ───────────────────────────────────────

type Event string

const (
	EventError           Event = "error"
	EventPong            Event = "pong"
	EventAttendanceSaved Event = "attendance_saved"
)

// AttendanceSavedEvent is broadcast on a group's monitor channel every
// time a lesson's attendance is saved.
type AttendanceSavedEvent struct {
	Event       Event  `json:"event"`
	LessonID    int    `json:"lesson_id"`
	GroupID     int    `json:"group_id"`
	SubjectName string `json:"subject_name"`
	Present     int    `json:"present"`
	Total       int    `json:"total"`
	SavedAt     string `json:"saved_at"`
}

type ErrorResponse struct {
	Event Event  `json:"event"`
	Error string `json:"error"`
}

type PongResponse struct {
	Event Event `json:"event"`
}
