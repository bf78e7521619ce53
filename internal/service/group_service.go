package service

import (
	"context"

	"github.com/maxhub/max-backend/internal/model"
	"github.com/maxhub/max-backend/internal/repository"
)

// GroupService handles group business logic.
type GroupService struct {
	groupRepo *repository.GroupRepository
}

// NewGroupService creates a new GroupService.
func NewGroupService(groupRepo *repository.GroupRepository) *GroupService {
	return &GroupService{groupRepo: groupRepo}
}

// GetByID retrieves a group by ID.
func (s *GroupService) GetByID(ctx context.Context, id int) (*model.Group, error) {
	return s.groupRepo.GetByID(ctx, id)
}

// List retrieves all groups.
func (s *GroupService) List(ctx context.Context) ([]model.Group, error) {
	return s.groupRepo.List(ctx)
}

// Create inserts a new group.
func (s *GroupService) Create(ctx context.Context, group *model.Group) error {
	return s.groupRepo.Create(ctx, group)
}

// Update modifies an existing group.
func (s *GroupService) Update(ctx context.Context, group *model.Group) error {
	return s.groupRepo.Update(ctx, group)
}

// Delete removes a group. Foreign key constraints on users and schedule
// prevent deletion while students or lessons are attached; the handler
// maps that error.
func (s *GroupService) Delete(ctx context.Context, id int) error {
	return s.groupRepo.Delete(ctx, id)
}
