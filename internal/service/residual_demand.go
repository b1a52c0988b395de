package service

import "github.com/noah-isme/sma-timetable-api/internal/models"

// Remaining returns, per lesson, how many weekly sessions are still unplaced. Each distinct
// placement counts once however many cohort rows it spans, and no counter drops below zero.
func Remaining(lessons []models.Lesson, grid *models.Grid) map[string]int {
	remaining := make(map[string]int, len(lessons))
	for _, lesson := range lessons {
		remaining[lesson.ID] += lesson.Count
	}
	if grid == nil {
		return remaining
	}
	for _, p := range grid.Placements() {
		left, ok := remaining[p.LessonID]
		if !ok || left == 0 {
			continue
		}
		remaining[p.LessonID] = left - 1
	}
	return remaining
}

// TotalRemaining sums the residual demand of every lesson.
func TotalRemaining(lessons []models.Lesson, grid *models.Grid) int {
	total := 0
	for _, left := range Remaining(lessons, grid) {
		total += left
	}
	return total
}
