package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/maxhub/max-backend/internal/model"
)

// AttendanceRepository handles attendance record data access.
type AttendanceRepository struct {
	pool *pgxpool.Pool
}

// NewAttendanceRepository creates a new AttendanceRepository.
func NewAttendanceRepository(pool *pgxpool.Pool) *AttendanceRepository {
	return &AttendanceRepository{pool: pool}
}

// ListByLesson retrieves all persisted records for one lesson, newest
// date first so the session reconcile picks up the latest mark per
// student.
func (r *AttendanceRepository) ListByLesson(ctx context.Context, lessonID int) ([]model.AttendanceRecord, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT a.id, a.student_id, u.last_name || ' ' || u.first_name,
		        a.lesson_id, to_char(a.date, 'YYYY-MM-DD'), a.status, a.created_at
		 FROM attendance a
		 JOIN users u ON u.id = a.student_id
		 WHERE a.lesson_id = $1
		 ORDER BY a.date DESC, a.student_id`, lessonID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []model.AttendanceRecord
	for rows.Next() {
		var rec model.AttendanceRecord
		if err := rows.Scan(&rec.ID, &rec.StudentID, &rec.StudentName,
			&rec.LessonID, &rec.Date, &rec.Status, &rec.CreatedAt); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// ReplaceForLesson atomically replaces the records of one lesson for
// one calendar date. Delete-then-insert in a single transaction: a
// re-save of the same lesson+date never duplicates rows, and a failed
// save leaves the previous records untouched.
func (r *AttendanceRepository) ReplaceForLesson(ctx context.Context, lessonID int, date string, records []model.AttendanceRecord) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		`DELETE FROM attendance WHERE lesson_id = $1 AND date = $2`, lessonID, date); err != nil {
		return fmt.Errorf("clear previous records: %w", err)
	}

	batch := &pgx.Batch{}
	for _, rec := range records {
		batch.Queue(
			`INSERT INTO attendance (student_id, lesson_id, date, status) VALUES ($1, $2, $3, $4)`,
			rec.StudentID, lessonID, rec.Date, rec.Status)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("insert records: %w", err)
	}

	return tx.Commit(ctx)
}

// ReportFilter narrows a detailed attendance report.
type ReportFilter struct {
	GroupID   *int
	StudentID *int
	SubjectID *int
	DateFrom  string
	DateTo    string
}

// DetailedReport returns attendance records joined with student, group
// and subject names, newest first.
func (r *AttendanceRepository) DetailedReport(ctx context.Context, f ReportFilter) ([]model.AttendanceRecord, error) {
	query := `
		SELECT a.id, a.student_id, u.last_name || ' ' || u.first_name,
		       a.lesson_id, to_char(a.date, 'YYYY-MM-DD'), a.status, a.created_at
		FROM attendance a
		JOIN users u    ON u.id = a.student_id
		JOIN schedule s ON s.id = a.lesson_id
		WHERE TRUE`
	args := []any{}

	add := func(clause string, v any) {
		args = append(args, v)
		query += fmt.Sprintf(clause, len(args))
	}

	if f.GroupID != nil {
		add(" AND s.group_id = $%d", *f.GroupID)
	}
	if f.StudentID != nil {
		add(" AND a.student_id = $%d", *f.StudentID)
	}
	if f.SubjectID != nil {
		add(" AND s.subject_id = $%d", *f.SubjectID)
	}
	if f.DateFrom != "" {
		add(" AND a.date >= $%d", f.DateFrom)
	}
	if f.DateTo != "" {
		add(" AND a.date <= $%d", f.DateTo)
	}

	query += ` ORDER BY a.date DESC, u.last_name, u.first_name`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []model.AttendanceRecord
	for rows.Next() {
		var rec model.AttendanceRecord
		if err := rows.Scan(&rec.ID, &rec.StudentID, &rec.StudentName,
			&rec.LessonID, &rec.Date, &rec.Status, &rec.CreatedAt); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// GroupStats summarizes one group's attendance over an optional date range.
type GroupStats struct {
	GroupID        int     `json:"group_id"`
	GroupName      string  `json:"group_name"`
	TotalRecords   int     `json:"total_records"`
	PresentRecords int     `json:"present_records"`
	AttendanceRate float64 `json:"attendance_rate"`
}

// StatsForGroup computes attendance counts and rate for one group.
func (r *AttendanceRepository) StatsForGroup(ctx context.Context, groupID int, dateFrom, dateTo string) (*GroupStats, error) {
	query := `
		SELECT g.id, g.name,
		       COUNT(a.id),
		       COUNT(a.id) FILTER (WHERE a.status = 'present')
		FROM groups g
		LEFT JOIN schedule s   ON s.group_id = g.id
		LEFT JOIN attendance a ON a.lesson_id = s.id`
	args := []any{groupID}

	if dateFrom != "" {
		args = append(args, dateFrom)
		query += fmt.Sprintf(" AND a.date >= $%d", len(args))
	}
	if dateTo != "" {
		args = append(args, dateTo)
		query += fmt.Sprintf(" AND a.date <= $%d", len(args))
	}

	query += ` WHERE g.id = $1 GROUP BY g.id, g.name`

	st := &GroupStats{}
	err := r.pool.QueryRow(ctx, query, args...).
		Scan(&st.GroupID, &st.GroupName, &st.TotalRecords, &st.PresentRecords)
	if err != nil {
		return nil, err
	}
	if st.TotalRecords > 0 {
		st.AttendanceRate = float64(st.PresentRecords) / float64(st.TotalRecords)
	}
	return st, nil
}
