package model

import "time"

// Role enumerates user roles.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleTeacher Role = "teacher"
	RoleStudent Role = "student"
)

// User represents an account: admin, teacher or student.
// Students carry a GroupID; teachers may additionally curate groups
// (see Group.CuratorID).
type User struct {
	ID           int       `json:"id"`
	TelegramID   *int64    `json:"telegram_id,omitempty"`
	Username     string    `json:"username"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	Role         Role      `json:"role"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	GroupID      *int      `json:"group_id,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// FullName returns "First Last" for display in rosters and reports.
func (u *User) FullName() string {
	return u.FirstName + " " + u.LastName
}

// LoginRequest is the payload for email/password authentication.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6,max=128"`
}

// LoginResponse is returned after successful login.
type LoginResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// CreateUserRequest is the payload for creating a new account.
type CreateUserRequest struct {
	TelegramID *int64 `json:"telegram_id" binding:"omitempty"`
	Username   string `json:"username" binding:"required,min=2,max=50"`
	FirstName  string `json:"first_name" binding:"required,min=1,max=100"`
	LastName   string `json:"last_name" binding:"required,min=1,max=100"`
	Role       Role   `json:"role" binding:"required,oneof=admin teacher student"`
	Email      string `json:"email" binding:"required,email"`
	Password   string `json:"password" binding:"required,min=6,max=128"`
	GroupID    *int   `json:"group_id" binding:"omitempty"`
}

// UpdateUserRequest is the payload for updating an existing account.
// Password is optional; empty keeps the current hash.
type UpdateUserRequest struct {
	TelegramID *int64 `json:"telegram_id" binding:"omitempty"`
	Username   string `json:"username" binding:"required,min=2,max=50"`
	FirstName  string `json:"first_name" binding:"required,min=1,max=100"`
	LastName   string `json:"last_name" binding:"required,min=1,max=100"`
	Role       Role   `json:"role" binding:"required,oneof=admin teacher student"`
	Email      string `json:"email" binding:"required,email"`
	Password   string `json:"password" binding:"omitempty,min=6,max=128"`
	GroupID    *int   `json:"group_id" binding:"omitempty"`
}
