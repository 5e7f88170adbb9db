package lessons

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// SeedReport lists what a Seed run wrote and what failed.
type SeedReport struct {
	Written []string
	Failed  map[string]error
	// Stopped is set when a fatal store error or cancellation ended the run
	// before every lesson was attempted.
	Stopped bool
}

// Seed upserts every lesson, one document at a time and in order. All
// lessons are validated before the first write. A failed write does not undo
// earlier writes and does not stop later ones, unless the store itself became
// unavailable or ctx is done.
func Seed(ctx context.Context, store Store, lessons []Lesson, logger *slog.Logger) (SeedReport, error) {
	if logger == nil {
		logger = slog.Default()
	}
	report := SeedReport{Failed: make(map[string]error)}

	seen := make(map[string]struct{}, len(lessons))
	for _, lesson := range lessons {
		if err := lesson.Validate(); err != nil {
			return report, fmt.Errorf("invalid curriculum: %w", err)
		}
		if _, dup := seen[lesson.ID]; dup {
			return report, fmt.Errorf("invalid curriculum: duplicate lesson id %q", lesson.ID)
		}
		seen[lesson.ID] = struct{}{}
	}

	for _, lesson := range lessons {
		if err := ctx.Err(); err != nil {
			report.Stopped = true
			return report, err
		}

		if err := store.UpsertLesson(ctx, lesson); err != nil {
			report.Failed[lesson.ID] = err
			logger.Error("lesson upsert failed", "lesson_id", lesson.ID, "err", err)
			if errors.Is(err, ErrStoreUnavailable) || ctx.Err() != nil {
				report.Stopped = true
				return report, fmt.Errorf("seeding stopped at %s: %w", lesson.ID, err)
			}
			continue
		}

		report.Written = append(report.Written, lesson.ID)
		logger.Info("lesson upserted", "lesson_id", lesson.ID, "title", lesson.Title, "steps", len(lesson.Steps))
	}

	if len(report.Failed) > 0 {
		return report, fmt.Errorf("%d of %d lessons failed to upsert", len(report.Failed), len(lessons))
	}
	return report, nil
}
