package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/maxhub/max-backend/internal/model"
)

// UserRepository handles user data access.
type UserRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository creates a new UserRepository.
func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

const userColumns = `id, telegram_id, username, first_name, last_name, role, email, password, group_id, created_at, updated_at`

func scanUser(row interface{ Scan(...any) error }) (*model.User, error) {
	u := &model.User{}
	err := row.Scan(&u.ID, &u.TelegramID, &u.Username, &u.FirstName, &u.LastName,
		&u.Role, &u.Email, &u.PasswordHash, &u.GroupID, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return u, nil
}

// GetByID retrieves a user by ID.
func (r *UserRepository) GetByID(ctx context.Context, id int) (*model.User, error) {
	return scanUser(r.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

// GetByEmail retrieves a user by email.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	return scanUser(r.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = $1`, email))
}

// List retrieves users, optionally filtered by role.
func (r *UserRepository) List(ctx context.Context, role *model.Role) ([]model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users`
	args := []any{}
	if role != nil {
		query += ` WHERE role = $1`
		args = append(args, *role)
	}
	query += ` ORDER BY last_name, first_name`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

// ListByGroup retrieves the students of a group in roster order
// (last name, then first name). This ordering is what attendance
// sessions preserve.
func (r *UserRepository) ListByGroup(ctx context.Context, groupID int) ([]model.User, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+userColumns+` FROM users
		 WHERE role = 'student' AND group_id = $1
		 ORDER BY last_name, first_name`, groupID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var students []model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		students = append(students, *u)
	}
	return students, rows.Err()
}

// Create inserts a new user.
func (r *UserRepository) Create(ctx context.Context, u *model.User) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO users (telegram_id, username, first_name, last_name, role, email, password, group_id)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING id, created_at, updated_at`,
		u.TelegramID, u.Username, u.FirstName, u.LastName, u.Role, u.Email, u.PasswordHash, u.GroupID,
	).Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt)
}

// Update modifies an existing user. An empty PasswordHash keeps the
// stored hash.
func (r *UserRepository) Update(ctx context.Context, u *model.User) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE users SET
		   telegram_id = $1, username = $2, first_name = $3, last_name = $4,
		   role = $5, email = $6,
		   password = COALESCE(NULLIF($7, ''), password),
		   group_id = $8, updated_at = CURRENT_TIMESTAMP
		 WHERE id = $9`,
		u.TelegramID, u.Username, u.FirstName, u.LastName, u.Role, u.Email, u.PasswordHash, u.GroupID, u.ID,
	)
	return err
}

// Delete removes a user by ID.
func (r *UserRepository) Delete(ctx context.Context, id int) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	return err
}
