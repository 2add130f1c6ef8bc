// Package scheduler implements the SM-2 style forgetting-curve scheduler.
// Everything here is a pure function over note state; the session manager
// and CLI decide when to apply the transitions.
package scheduler

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/notelab/recall/pkg/domain/model/note"
	"github.com/notelab/recall/pkg/domain/types"
	"github.com/notelab/recall/pkg/utils/clock"
)

const minEaseFactor = 1.3

// Next computes the memory state after a review with the given quality.
// The returned state replaces the previous one wholesale. Failure (quality
// below 3) resets the repetition streak to a one-day interval; success grows
// the interval 1 → 6 → round(interval × ease).
func Next(ctx context.Context, current note.MemoryState, quality types.Quality) note.MemoryState {
	now := clock.Now(ctx)

	if !quality.IsSuccess() {
		ease := math.Max(minEaseFactor, current.EaseFactor-0.2)
		return note.MemoryState{
			RepetitionCount: 0,
			IntervalDays:    1,
			EaseFactor:      ease,
			NextReviewDate:  now.AddDate(0, 0, 1),
		}
	}

	var interval int
	switch current.RepetitionCount {
	case 0:
		interval = 1
	case 1:
		interval = 6
	default:
		interval = int(math.Round(float64(current.IntervalDays) * current.EaseFactor))
	}

	q := float64(quality)
	ease := current.EaseFactor + (0.1 - (5-q)*(0.08+(5-q)*0.02))
	ease = math.Max(minEaseFactor, ease)

	return note.MemoryState{
		RepetitionCount: current.RepetitionCount + 1,
		IntervalDays:    interval,
		EaseFactor:      ease,
		NextReviewDate:  now.AddDate(0, 0, interval),
	}
}

// IsDue reports whether the note's next review day falls on or before the
// reference day. Time-of-day is ignored on both sides.
func IsDue(n *note.Note, ref time.Time) bool {
	return !types.DayOf(n.Memory.NextReviewDate).After(types.DayOf(ref))
}

// IsOverdue reports whether the note's review day is before yesterday
// relative to the reference day.
func IsOverdue(n *note.Note, ref time.Time) bool {
	return types.DayOf(n.Memory.NextReviewDate).Before(types.DayOf(ref).AddDays(-1))
}

// DueNotes filters notes due on or before the reference time, preserving
// input order.
func DueNotes(notes []*note.Note, ref time.Time) []*note.Note {
	due := make([]*note.Note, 0, len(notes))
	for _, n := range notes {
		if IsDue(n, ref) {
			due = append(due, n)
		}
	}
	return due
}

// OverdueNotes filters notes whose review day has slipped past yesterday.
func OverdueNotes(notes []*note.Note, ref time.Time) []*note.Note {
	overdue := make([]*note.Note, 0, len(notes))
	for _, n := range notes {
		if IsOverdue(n, ref) {
			overdue = append(overdue, n)
		}
	}
	return overdue
}

// EstimateRetention derives the coarse mastery bucket from repetition
// stats and the average quality of the last five reviews. The first
// matching rule wins.
func EstimateRetention(n *note.Note) types.RetentionLevel {
	if len(n.History) == 0 {
		return types.RetentionNovice
	}

	avg := n.RecentQualityAverage(5)
	mem := n.Memory

	switch {
	case mem.RepetitionCount >= 5 && mem.EaseFactor >= 2.3 && mem.IntervalDays >= 30 && avg >= 4:
		return types.RetentionMastered
	case mem.RepetitionCount >= 4 && mem.EaseFactor >= 2.0 && mem.IntervalDays >= 14 && avg >= 3.5:
		return types.RetentionAdvanced
	case mem.RepetitionCount >= 2 && mem.EaseFactor >= 1.8 && avg >= 3:
		return types.RetentionIntermediate
	case mem.RepetitionCount >= 1 || len(n.History) >= 2:
		return types.RetentionLearning
	default:
		return types.RetentionNovice
	}
}

// OptimizeOrder sorts notes for presentation: overdue before not-overdue,
// then weaker retention first, then lower ease factor first so the hardest
// material leads. The sort is stable, so equal notes keep input order.
func OptimizeOrder(ctx context.Context, notes []*note.Note) []*note.Note {
	now := clock.Now(ctx)
	ordered := append([]*note.Note(nil), notes...)

	sort.SliceStable(ordered, func(i, j int) bool {
		oi, oj := IsOverdue(ordered[i], now), IsOverdue(ordered[j], now)
		if oi != oj {
			return oi
		}
		ri, rj := EstimateRetention(ordered[i]).Rank(), EstimateRetention(ordered[j]).Rank()
		if ri != rj {
			return ri < rj
		}
		return ordered[i].Memory.EaseFactor < ordered[j].Memory.EaseFactor
	})

	return ordered
}
