package service

import (
	"context"

	"github.com/maxhub/max-backend/internal/model"
	"github.com/maxhub/max-backend/internal/repository"
)

// UserService handles account management business logic.
type UserService struct {
	userRepo *repository.UserRepository
	auth     *AuthService
}

// NewUserService creates a new UserService.
func NewUserService(userRepo *repository.UserRepository, auth *AuthService) *UserService {
	return &UserService{userRepo: userRepo, auth: auth}
}

// GetByID retrieves a user by ID.
func (s *UserService) GetByID(ctx context.Context, id int) (*model.User, error) {
	return s.userRepo.GetByID(ctx, id)
}

// List retrieves users, optionally filtered by role.
func (s *UserService) List(ctx context.Context, role *model.Role) ([]model.User, error) {
	return s.userRepo.List(ctx, role)
}

// ListGroupStudents retrieves a group's roster.
func (s *UserService) ListGroupStudents(ctx context.Context, groupID int) ([]model.User, error) {
	return s.userRepo.ListByGroup(ctx, groupID)
}

// Create hashes the password and inserts the account.
func (s *UserService) Create(ctx context.Context, user *model.User, password string) error {
	hash, err := s.auth.HashPassword(password)
	if err != nil {
		return err
	}
	user.PasswordHash = hash
	return s.userRepo.Create(ctx, user)
}

// Update modifies an account. An empty password keeps the current one.
func (s *UserService) Update(ctx context.Context, user *model.User, password string) error {
	if password != "" {
		hash, err := s.auth.HashPassword(password)
		if err != nil {
			return err
		}
		user.PasswordHash = hash
	} else {
		user.PasswordHash = ""
	}
	return s.userRepo.Update(ctx, user)
}

// Delete removes an account.
func (s *UserService) Delete(ctx context.Context, id int) error {
	return s.userRepo.Delete(ctx, id)
}
