package service

import "github.com/maxhub/max-backend/internal/model"

// ComposeSchedule projects an aggregated schedule through a subject
// filter. An empty filter returns the schedule unchanged. Matching is
// exact and case-sensitive.
func ComposeSchedule(schedule []model.LessonSlot, subjectFilter string) []model.LessonSlot {
	if subjectFilter == "" {
		return schedule
	}
	filtered := make([]model.LessonSlot, 0, len(schedule))
	for _, l := range schedule {
		if l.SubjectName == subjectFilter {
			filtered = append(filtered, l)
		}
	}
	return filtered
}

// DistinctSubjects returns the subject names present in a schedule,
// deduplicated, in order of first appearance. Used to populate the
// subject filter control.
func DistinctSubjects(schedule []model.LessonSlot) []string {
	seen := make(map[string]struct{}, len(schedule))
	subjects := make([]string, 0, len(schedule))
	for _, l := range schedule {
		if _, ok := seen[l.SubjectName]; ok {
			continue
		}
		seen[l.SubjectName] = struct{}{}
		subjects = append(subjects, l.SubjectName)
	}
	return subjects
}
