package utils

import (
	"time"

	"neowatch/internal/models"
)

// PlanWindows разбивает [start, end] на окна длиной не более maxSpanDays+1 дней.
// Следующее окно начинается на день позже конца предыдущего, граничные дни
// повторно не запрашиваются.
func PlanWindows(start, end time.Time, maxSpanDays int) []models.DateWindow {
	if maxSpanDays < 1 {
		maxSpanDays = 1
	}

	start = models.TruncateDay(start)
	end = models.TruncateDay(end)

	var windows []models.DateWindow
	for current := start; !current.After(end); current = current.AddDate(0, 0, maxSpanDays+1) {
		chunkEnd := current.AddDate(0, 0, maxSpanDays)
		if chunkEnd.After(end) {
			chunkEnd = end
		}
		windows = append(windows, models.DateWindow{Start: current, End: chunkEnd})
	}

	return windows
}

// Yesterday возвращает предыдущий день относительно now (UTC).
func Yesterday(now time.Time) time.Time {
	return models.TruncateDay(now).AddDate(0, 0, -1)
}
