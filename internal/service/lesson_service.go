package service

import (
	"context"

	"github.com/maxhub/max-backend/internal/model"
	"github.com/maxhub/max-backend/internal/repository"
)

// LessonService handles schedule slot management.
type LessonService struct {
	lessonRepo *repository.LessonRepository
}

// NewLessonService creates a new LessonService.
func NewLessonService(lessonRepo *repository.LessonRepository) *LessonService {
	return &LessonService{lessonRepo: lessonRepo}
}

// GetByID retrieves one lesson slot.
func (s *LessonService) GetByID(ctx context.Context, id int) (*model.LessonSlot, error) {
	return s.lessonRepo.GetByID(ctx, id)
}

// Create inserts a new schedule slot.
func (s *LessonService) Create(ctx context.Context, lesson *model.LessonSlot) error {
	return s.lessonRepo.Create(ctx, lesson)
}

// Update modifies an existing schedule slot.
func (s *LessonService) Update(ctx context.Context, lesson *model.LessonSlot) error {
	return s.lessonRepo.Update(ctx, lesson)
}

// Delete removes a schedule slot.
func (s *LessonService) Delete(ctx context.Context, id int) error {
	return s.lessonRepo.Delete(ctx, id)
}
