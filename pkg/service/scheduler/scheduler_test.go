package scheduler_test

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/notelab/recall/pkg/domain/model/note"
	"github.com/notelab/recall/pkg/domain/types"
	"github.com/notelab/recall/pkg/service/scheduler"
	"github.com/notelab/recall/pkg/utils/clock"
)

var testNow = time.Date(2026, 6, 15, 14, 0, 0, 0, time.UTC)

func testCtx() context.Context {
	return clock.With(context.Background(), func() time.Time { return testNow })
}

func TestNextFailure(t *testing.T) {
	ctx := testCtx()

	for q := types.Quality(0); q < 3; q++ {
		state := note.MemoryState{RepetitionCount: 4, IntervalDays: 20, EaseFactor: 2.1}
		next := scheduler.Next(ctx, state, q)
		gt.Equal(t, next.RepetitionCount, 0)
		gt.Equal(t, next.IntervalDays, 1)
		gt.True(t, math.Abs(next.EaseFactor-1.9) < 1e-9)
		gt.Equal(t, types.DayOf(next.NextReviewDate), types.Day("2026-06-16"))
	}
}

func TestNextEaseFactorFloor(t *testing.T) {
	ctx := testCtx()

	t.Run("failure at floor stays at floor", func(t *testing.T) {
		state := note.MemoryState{RepetitionCount: 1, IntervalDays: 1, EaseFactor: 1.3}
		next := scheduler.Next(ctx, state, 0)
		gt.Equal(t, next.EaseFactor, 1.3)
		gt.Equal(t, next.IntervalDays, 1)
		gt.Equal(t, next.RepetitionCount, 0)
	})

	t.Run("low-quality success never drops below floor", func(t *testing.T) {
		state := note.MemoryState{RepetitionCount: 2, IntervalDays: 6, EaseFactor: 1.3}
		next := scheduler.Next(ctx, state, 3)
		gt.True(t, next.EaseFactor >= 1.3)
	})
}

func TestNextSuccess(t *testing.T) {
	ctx := testCtx()

	t.Run("worked example", func(t *testing.T) {
		state := note.MemoryState{RepetitionCount: 2, IntervalDays: 6, EaseFactor: 2.5}
		next := scheduler.Next(ctx, state, 4)
		gt.Equal(t, next.IntervalDays, 15) // round(6 × 2.5)
		gt.Equal(t, next.EaseFactor, 2.5)  // 0.1 − 1×0.10 = 0
		gt.Equal(t, next.RepetitionCount, 3)
		gt.Equal(t, types.DayOf(next.NextReviewDate), types.Day("2026-06-30"))
	})

	t.Run("first success gives one day", func(t *testing.T) {
		state := note.MemoryState{RepetitionCount: 0, IntervalDays: 0, EaseFactor: 2.5}
		next := scheduler.Next(ctx, state, 5)
		gt.Equal(t, next.IntervalDays, 1)
		gt.Equal(t, next.RepetitionCount, 1)
	})

	t.Run("second success gives six days", func(t *testing.T) {
		state := note.MemoryState{RepetitionCount: 1, IntervalDays: 1, EaseFactor: 2.5}
		next := scheduler.Next(ctx, state, 3)
		gt.Equal(t, next.IntervalDays, 6)
		gt.Equal(t, next.RepetitionCount, 2)
	})

	t.Run("perfect recall raises ease", func(t *testing.T) {
		state := note.MemoryState{RepetitionCount: 3, IntervalDays: 10, EaseFactor: 2.0}
		next := scheduler.Next(ctx, state, 5)
		gt.True(t, next.EaseFactor > 2.0)
	})
}

func dueOn(day string) *note.Note {
	d := types.Day(day)
	return &note.Note{
		ID:     types.NewNoteID(),
		Path:   day + ".md",
		Memory: note.MemoryState{EaseFactor: 2.5, NextReviewDate: d.Time(time.UTC)},
	}
}

func TestDueNotes(t *testing.T) {
	notes := []*note.Note{
		dueOn("2026-06-10"), // overdue
		dueOn("2026-06-14"), // due yesterday
		dueOn("2026-06-15"), // due today
		dueOn("2026-06-16"), // tomorrow
	}

	due := scheduler.DueNotes(notes, testNow)
	gt.Array(t, due).Length(3)

	overdue := scheduler.OverdueNotes(notes, testNow)
	gt.Array(t, overdue).Length(1)
	gt.Equal(t, overdue[0].Path, "2026-06-10.md")
}

func TestDueIgnoresTimeOfDay(t *testing.T) {
	lateTonight := &note.Note{Memory: note.MemoryState{
		EaseFactor:     2.5,
		NextReviewDate: time.Date(2026, 6, 15, 23, 59, 0, 0, time.UTC),
	}}
	gt.True(t, scheduler.IsDue(lateTonight, testNow))
}

func TestEstimateRetention(t *testing.T) {
	history := func(qs ...types.Quality) []note.ReviewRecord {
		records := make([]note.ReviewRecord, len(qs))
		for i, q := range qs {
			records[i] = note.ReviewRecord{Quality: q, Mode: types.ReviewModeFlashcard}
		}
		return records
	}

	cases := []struct {
		name     string
		note     *note.Note
		expected types.RetentionLevel
	}{
		{
			name:     "no history is novice",
			note:     &note.Note{Memory: note.MemoryState{EaseFactor: 2.5}},
			expected: types.RetentionNovice,
		},
		{
			name: "mastered",
			note: &note.Note{
				Memory:  note.MemoryState{RepetitionCount: 6, IntervalDays: 40, EaseFactor: 2.4},
				History: history(5, 4, 4, 5, 4),
			},
			expected: types.RetentionMastered,
		},
		{
			name: "advanced",
			note: &note.Note{
				Memory:  note.MemoryState{RepetitionCount: 4, IntervalDays: 15, EaseFactor: 2.1},
				History: history(4, 4, 3, 4, 3),
			},
			expected: types.RetentionAdvanced,
		},
		{
			name: "intermediate",
			note: &note.Note{
				Memory:  note.MemoryState{RepetitionCount: 2, IntervalDays: 6, EaseFactor: 1.9},
				History: history(3, 3, 3),
			},
			expected: types.RetentionIntermediate,
		},
		{
			name: "single rep is learning",
			note: &note.Note{
				Memory:  note.MemoryState{RepetitionCount: 1, IntervalDays: 1, EaseFactor: 1.5},
				History: history(2),
			},
			expected: types.RetentionLearning,
		},
		{
			name: "failed twice is still learning",
			note: &note.Note{
				Memory:  note.MemoryState{RepetitionCount: 0, IntervalDays: 1, EaseFactor: 2.1},
				History: history(1, 2),
			},
			expected: types.RetentionLearning,
		},
		{
			name: "one failure is novice",
			note: &note.Note{
				Memory:  note.MemoryState{RepetitionCount: 0, IntervalDays: 1, EaseFactor: 2.3},
				History: history(2),
			},
			expected: types.RetentionNovice,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			gt.Equal(t, scheduler.EstimateRetention(tc.note), tc.expected)
		})
	}
}

func TestOptimizeOrder(t *testing.T) {
	ctx := testCtx()

	overdue := dueOn("2026-06-01")
	hard := dueOn("2026-06-15")
	hard.Memory.EaseFactor = 1.4
	hard.Memory.RepetitionCount = 1
	hard.History = []note.ReviewRecord{{Quality: 2}}
	easy := dueOn("2026-06-15")
	easy.Memory.EaseFactor = 2.5
	easy.Memory.RepetitionCount = 1
	easy.History = []note.ReviewRecord{{Quality: 4}}

	ordered := scheduler.OptimizeOrder(ctx, []*note.Note{easy, hard, overdue})
	gt.Array(t, ordered).Length(3)

	// Every overdue note precedes every non-overdue note.
	gt.Equal(t, ordered[0].ID, overdue.ID)
	// Same retention level: lower ease factor first.
	gt.Equal(t, ordered[1].ID, hard.ID)
	gt.Equal(t, ordered[2].ID, easy.ID)

	// Input slice is untouched.
	gt.Equal(t, []*note.Note{easy, hard, overdue}[0].ID, easy.ID)
}
