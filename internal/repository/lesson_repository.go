package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/maxhub/max-backend/internal/model"
)

// LessonRepository handles schedule slot data access.
type LessonRepository struct {
	pool *pgxpool.Pool
}

// NewLessonRepository creates a new LessonRepository.
func NewLessonRepository(pool *pgxpool.Pool) *LessonRepository {
	return &LessonRepository{pool: pool}
}

const lessonSelect = `
	SELECT s.id, s.subject_id, sub.name,
	       s.group_id, g.name,
	       s.teacher_id, u.last_name || ' ' || u.first_name,
	       s.day_of_week, to_char(s.time_start, 'HH24:MI'), to_char(s.time_end, 'HH24:MI'),
	       s.room, s.week_type, s.lesson_type, s.created_at, s.updated_at
	FROM schedule s
	JOIN subjects sub ON sub.id = s.subject_id
	JOIN groups g     ON g.id = s.group_id
	JOIN users u      ON u.id = s.teacher_id`

// Lessons are always returned in slot order: day of week, then start
// time, then id. This is the "source order" the aggregator preserves.
const lessonOrder = ` ORDER BY s.day_of_week, s.time_start, s.id`

func (r *LessonRepository) queryLessons(ctx context.Context, query string, args ...any) ([]model.LessonSlot, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lessons []model.LessonSlot
	for rows.Next() {
		var l model.LessonSlot
		if err := rows.Scan(&l.ID, &l.SubjectID, &l.SubjectName,
			&l.GroupID, &l.GroupName,
			&l.TeacherID, &l.TeacherName,
			&l.DayOfWeek, &l.TimeStart, &l.TimeEnd,
			&l.Room, &l.WeekParity, &l.LessonType, &l.CreatedAt, &l.UpdatedAt); err != nil {
			return nil, err
		}
		lessons = append(lessons, l)
	}
	return lessons, rows.Err()
}

// parityClause renders the predicate's week filter. Week view keeps
// every-week slots plus the resolved parity; month view is a calendar
// projection and keeps all slots regardless of parity.
func parityClause(pred model.SchedulePredicate, argn int) (string, []any) {
	if pred.ViewMode == model.ViewMonth {
		return "", nil
	}
	return fmt.Sprintf(" AND (s.week_type = 0 OR s.week_type = $%d)", argn),
		[]any{int(pred.Parity)}
}

// GetByID retrieves one lesson slot with joined display names.
func (r *LessonRepository) GetByID(ctx context.Context, id int) (*model.LessonSlot, error) {
	lessons, err := r.queryLessons(ctx, lessonSelect+` WHERE s.id = $1`, id)
	if err != nil {
		return nil, err
	}
	if len(lessons) == 0 {
		return nil, fmt.Errorf("lesson %d: %w", id, pgx.ErrNoRows)
	}
	return &lessons[0], nil
}

// ListForTeacher retrieves lessons taught by one teacher under the
// resolved predicate, optionally restricted to a single group.
func (r *LessonRepository) ListForTeacher(ctx context.Context, pred model.SchedulePredicate, teacherID int, groupID *int) ([]model.LessonSlot, error) {
	query := lessonSelect + ` WHERE s.teacher_id = $1`
	args := []any{teacherID}

	if groupID != nil {
		args = append(args, *groupID)
		query += fmt.Sprintf(" AND s.group_id = $%d", len(args))
	}

	clause, extra := parityClause(pred, len(args)+1)
	query += clause
	args = append(args, extra...)

	return r.queryLessons(ctx, query+lessonOrder, args...)
}

// ListForGroup retrieves all lessons of one group under the resolved
// predicate. The teacher is deliberately unconstrained: a curator sees
// the group's lessons taught by any teacher.
func (r *LessonRepository) ListForGroup(ctx context.Context, pred model.SchedulePredicate, groupID int) ([]model.LessonSlot, error) {
	query := lessonSelect + ` WHERE s.group_id = $1`
	args := []any{groupID}

	clause, extra := parityClause(pred, len(args)+1)
	query += clause
	args = append(args, extra...)

	return r.queryLessons(ctx, query+lessonOrder, args...)
}

// ListAll retrieves every lesson under the resolved predicate,
// optionally restricted to one group. Admin view.
func (r *LessonRepository) ListAll(ctx context.Context, pred model.SchedulePredicate, groupID *int) ([]model.LessonSlot, error) {
	query := lessonSelect + ` WHERE TRUE`
	args := []any{}

	if groupID != nil {
		args = append(args, *groupID)
		query += fmt.Sprintf(" AND s.group_id = $%d", len(args))
	}

	clause, extra := parityClause(pred, len(args)+1)
	query += clause
	args = append(args, extra...)

	return r.queryLessons(ctx, query+lessonOrder, args...)
}

// Create inserts a new schedule slot.
func (r *LessonRepository) Create(ctx context.Context, l *model.LessonSlot) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO schedule (subject_id, group_id, teacher_id, day_of_week, time_start, time_end, room, week_type, lesson_type)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 RETURNING id, created_at, updated_at`,
		l.SubjectID, l.GroupID, l.TeacherID, l.DayOfWeek, l.TimeStart, l.TimeEnd, l.Room, l.WeekParity, l.LessonType,
	).Scan(&l.ID, &l.CreatedAt, &l.UpdatedAt)
}

// Update modifies an existing schedule slot.
func (r *LessonRepository) Update(ctx context.Context, l *model.LessonSlot) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE schedule SET
		   subject_id = $1, group_id = $2, teacher_id = $3, day_of_week = $4,
		   time_start = $5, time_end = $6, room = $7, week_type = $8, lesson_type = $9,
		   updated_at = CURRENT_TIMESTAMP
		 WHERE id = $10`,
		l.SubjectID, l.GroupID, l.TeacherID, l.DayOfWeek, l.TimeStart, l.TimeEnd, l.Room, l.WeekParity, l.LessonType, l.ID,
	)
	return err
}

// Delete removes a schedule slot by ID.
func (r *LessonRepository) Delete(ctx context.Context, id int) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM schedule WHERE id = $1`, id)
	return err
}
