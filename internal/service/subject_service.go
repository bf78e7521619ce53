package service

import (
	"context"

	"github.com/maxhub/max-backend/internal/model"
	"github.com/maxhub/max-backend/internal/repository"
)

// SubjectService handles subject business logic.
type SubjectService struct {
	subjectRepo *repository.SubjectRepository
}

// NewSubjectService creates a new SubjectService.
func NewSubjectService(subjectRepo *repository.SubjectRepository) *SubjectService {
	return &SubjectService{subjectRepo: subjectRepo}
}

// GetByID retrieves a subject by ID.
func (s *SubjectService) GetByID(ctx context.Context, id int) (*model.Subject, error) {
	return s.subjectRepo.GetByID(ctx, id)
}

// List retrieves all subjects.
func (s *SubjectService) List(ctx context.Context) ([]model.Subject, error) {
	return s.subjectRepo.List(ctx)
}

// Create inserts a new subject.
func (s *SubjectService) Create(ctx context.Context, subject *model.Subject) error {
	return s.subjectRepo.Create(ctx, subject)
}

// Update modifies an existing subject.
func (s *SubjectService) Update(ctx context.Context, subject *model.Subject) error {
	return s.subjectRepo.Update(ctx, subject)
}

// Delete removes a subject.
func (s *SubjectService) Delete(ctx context.Context, id int) error {
	return s.subjectRepo.Delete(ctx, id)
}
