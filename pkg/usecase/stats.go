package usecase

import (
	"context"
	"fmt"

	"github.com/notelab/recall/pkg/domain/model/note"
	"github.com/notelab/recall/pkg/domain/types"
	"github.com/notelab/recall/pkg/service/scheduler"
	"github.com/notelab/recall/pkg/utils/clock"
)

// Stats is a snapshot of the collection and today's progress.
type Stats struct {
	TotalNotes      int                          `json:"total_notes"`
	Introduced      int                          `json:"introduced"`
	DueToday        int                          `json:"due_today"`
	Overdue         int                          `json:"overdue"`
	ReviewedToday   int                          `json:"reviewed_today"`
	NewToday        int                          `json:"new_today"`
	DailyLimit      int                          `json:"daily_limit"`
	NewPerDay       int                          `json:"new_per_day"`
	Retention       map[types.RetentionLevel]int `json:"retention"`
	ActiveSession   string                       `json:"active_session,omitempty"`
	SessionProgress string                       `json:"session_progress,omitempty"`
}

func (u *UseCases) GetStats(ctx context.Context) (*Stats, error) {
	st, err := u.LoadState(ctx)
	if err != nil {
		return nil, err
	}

	all, err := u.repo.GetAllNotes(ctx)
	if err != nil {
		return nil, err
	}

	now := clock.Now(ctx)
	stats := &Stats{
		TotalNotes:    len(all),
		ReviewedToday: len(st.ReviewedToday),
		NewToday:      len(st.NewIntroducedToday),
		DailyLimit:    u.dailyLimit,
		NewPerDay:     u.newPerDay,
		Retention:     map[types.RetentionLevel]int{},
	}

	introduced := make([]*note.Note, 0, len(all))
	for _, n := range all {
		if !n.Memory.Introduced(ctx) {
			continue
		}
		introduced = append(introduced, n)
		stats.Retention[scheduler.EstimateRetention(n)]++
	}
	stats.Introduced = len(introduced)
	stats.DueToday = len(scheduler.DueNotes(introduced, now))
	stats.Overdue = len(scheduler.OverdueNotes(introduced, now))

	if sess := st.CurrentSession; sess != nil {
		stats.ActiveSession = sess.ClusterLabel
		done := len(sess.NoteIDs) - len(sess.RemainingNoteIDs)
		stats.SessionProgress = fmt.Sprintf("%d/%d", done, len(sess.NoteIDs))
	}

	return stats, nil
}
