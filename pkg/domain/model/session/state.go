package session

import (
	"context"

	"github.com/notelab/recall/pkg/domain/types"
	"github.com/notelab/recall/pkg/utils/clock"
)

// State is the sole unit of cross-restart review state. It is loaded at
// startup, mutated in memory, and written back by the caller after every
// meaningful change. Daily sets are stored as insertion-ordered slices with
// set semantics.
type State struct {
	CurrentSession      *FocusSession                 `firestore:"current_session" json:"current_session"`
	LastActiveDate      types.Day                     `firestore:"last_active_date" json:"last_active_date"`
	ReviewedToday       []types.NoteID                `firestore:"reviewed_today" json:"reviewed_today"`
	NewIntroducedToday  []types.NoteID                `firestore:"new_introduced_today" json:"new_introduced_today"`
	ClusterLastReviewed map[types.ClusterID]types.Day `firestore:"cluster_last_reviewed" json:"cluster_last_reviewed"`
}

func NewState(ctx context.Context) *State {
	return &State{
		LastActiveDate:      clock.Today(ctx),
		ClusterLastReviewed: map[types.ClusterID]types.Day{},
	}
}

// Rollover resets the daily counters when the calendar day has changed
// since the state was last active. The current session and the cluster
// review history survive the boundary: a focus session may legitimately
// span midnight. Reports whether anything changed.
func (st *State) Rollover(ctx context.Context) bool {
	today := clock.Today(ctx)
	if st.LastActiveDate == today {
		return false
	}
	st.LastActiveDate = today
	st.ReviewedToday = nil
	st.NewIntroducedToday = nil
	if st.ClusterLastReviewed == nil {
		st.ClusterLastReviewed = map[types.ClusterID]types.Day{}
	}
	return true
}

func (st *State) HasReviewed(id types.NoteID) bool {
	return containsID(st.ReviewedToday, id)
}

func (st *State) HasIntroduced(id types.NoteID) bool {
	return containsID(st.NewIntroducedToday, id)
}

// RemainingReviewSlots returns how many reviews fit under the daily limit.
func (st *State) RemainingReviewSlots(dailyLimit int) int {
	slots := dailyLimit - len(st.ReviewedToday)
	if slots < 0 {
		return 0
	}
	return slots
}

// RemainingNewSlots returns how many new notes fit under the daily budget.
func (st *State) RemainingNewSlots(newPerDay int) int {
	slots := newPerDay - len(st.NewIntroducedToday)
	if slots < 0 {
		return 0
	}
	return slots
}

// ActiveSession returns the current session only while it is active.
// Paused sessions are invisible to automatic selection.
func (st *State) ActiveSession() *FocusSession {
	if st.CurrentSession.Active() {
		return st.CurrentSession
	}
	return nil
}

// StartSession installs a session as the single current one, replacing
// whatever was there before.
func (st *State) StartSession(sess *FocusSession) {
	st.CurrentSession = sess
}

// CompleteSession marks the current session's cluster as reviewed today and
// discards the session. No-op without a current session.
func (st *State) CompleteSession(ctx context.Context) {
	if st.CurrentSession == nil {
		return
	}
	st.CurrentSession.Status = types.SessionStatusCompleted
	if st.ClusterLastReviewed == nil {
		st.ClusterLastReviewed = map[types.ClusterID]types.Day{}
	}
	st.ClusterLastReviewed[st.CurrentSession.ClusterID] = clock.Today(ctx)
	st.CurrentSession = nil
}

// LastReviewedDay returns when a cluster was last the subject of a
// completed session, or EmptyDay for never.
func (st *State) LastReviewedDay(clusterID types.ClusterID) types.Day {
	if st.ClusterLastReviewed == nil {
		return types.EmptyDay
	}
	return st.ClusterLastReviewed[clusterID]
}

// MarkIntroduced records a note entering the rotation today. Reports whether
// the note consumed a new-card slot; already counted notes and a full budget
// both report false.
func (st *State) MarkIntroduced(id types.NoteID, newPerDay int) bool {
	if st.HasIntroduced(id) || len(st.NewIntroducedToday) >= newPerDay {
		return false
	}
	st.NewIntroducedToday = append(st.NewIntroducedToday, id)
	return true
}

// MarkReviewed records a completed review. The insertion is idempotent and
// refuses to grow either daily set past its budget, so the size invariants
// hold after every call. Session bookkeeping happens regardless, including
// auto-completion once the session queue empties.
func (st *State) MarkReviewed(ctx context.Context, id types.NoteID, isNew bool, dailyLimit, newPerDay int) {
	if !st.HasReviewed(id) && len(st.ReviewedToday) < dailyLimit {
		st.ReviewedToday = append(st.ReviewedToday, id)
	}
	if isNew && !st.HasIntroduced(id) && len(st.NewIntroducedToday) < newPerDay {
		st.NewIntroducedToday = append(st.NewIntroducedToday, id)
	}

	if st.CurrentSession != nil {
		st.CurrentSession.MarkReviewed(ctx, id)
		if st.CurrentSession.Exhausted() {
			st.CompleteSession(ctx)
		}
	}
}
