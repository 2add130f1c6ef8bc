package session

import (
	"context"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/notelab/recall/pkg/domain/model/errs"
	"github.com/notelab/recall/pkg/domain/types"
	"github.com/notelab/recall/pkg/utils/clock"
)

// FocusSession is an in-progress review pass restricted to one similarity
// cluster. RemainingNoteIDs is always a subset of NoteIDs. Status moves
// active→completed when the remaining list empties, active→paused and
// paused→active by manual control. Completed sessions are discarded.
type FocusSession struct {
	ID               types.FocusSessionID `firestore:"id" json:"id"`
	ClusterID        types.ClusterID      `firestore:"cluster_id" json:"cluster_id"`
	ClusterLabel     string               `firestore:"cluster_label" json:"cluster_label"`
	NoteIDs          []types.NoteID       `firestore:"note_ids" json:"note_ids"`
	RemainingNoteIDs []types.NoteID       `firestore:"remaining_note_ids" json:"remaining_note_ids"`
	ReviewedTodayIDs []types.NoteID       `firestore:"reviewed_today_ids" json:"reviewed_today_ids"`
	StartedAt        time.Time            `firestore:"started_at" json:"started_at"`
	LastActiveAt     time.Time            `firestore:"last_active_at" json:"last_active_at"`
	Status           types.SessionStatus  `firestore:"status" json:"status"`
}

// NewFocusSession builds a session over a cluster. The remaining queue is
// the due subset of the cluster's members, in member order.
func NewFocusSession(ctx context.Context, clusterID types.ClusterID, label string, memberIDs, dueIDs []types.NoteID) *FocusSession {
	now := clock.Now(ctx)

	due := make(map[types.NoteID]bool, len(dueIDs))
	for _, id := range dueIDs {
		due[id] = true
	}
	remaining := make([]types.NoteID, 0, len(memberIDs))
	for _, id := range memberIDs {
		if due[id] {
			remaining = append(remaining, id)
		}
	}

	return &FocusSession{
		ID:               types.NewFocusSessionID(),
		ClusterID:        clusterID,
		ClusterLabel:     label,
		NoteIDs:          append([]types.NoteID(nil), memberIDs...),
		RemainingNoteIDs: remaining,
		StartedAt:        now,
		LastActiveAt:     now,
		Status:           types.SessionStatusActive,
	}
}

func (s *FocusSession) Validate() error {
	if err := s.ID.Validate(); err != nil {
		return goerr.Wrap(err, "invalid session ID")
	}
	if err := s.ClusterID.Validate(); err != nil {
		return goerr.Wrap(err, "invalid cluster ID")
	}
	if err := s.Status.Validate(); err != nil {
		return goerr.Wrap(err, "invalid status")
	}
	members := make(map[types.NoteID]bool, len(s.NoteIDs))
	for _, id := range s.NoteIDs {
		members[id] = true
	}
	for _, id := range s.RemainingNoteIDs {
		if !members[id] {
			return goerr.New("remaining note is not a session member",
				goerr.V("note_id", id), goerr.V("session_id", s.ID))
		}
	}
	return nil
}

func (s *FocusSession) Active() bool {
	return s != nil && s.Status == types.SessionStatusActive
}

func (s *FocusSession) Contains(id types.NoteID) bool {
	if s == nil {
		return false
	}
	for _, member := range s.NoteIDs {
		if member == id {
			return true
		}
	}
	return false
}

// Exhausted reports whether every queued note has been reviewed.
func (s *FocusSession) Exhausted() bool {
	return s != nil && len(s.RemainingNoteIDs) == 0
}

// MarkReviewed drops the note from the remaining queue and records it in
// today's reviewed list. Calling it twice with the same ID is harmless.
func (s *FocusSession) MarkReviewed(ctx context.Context, id types.NoteID) {
	for i, remaining := range s.RemainingNoteIDs {
		if remaining == id {
			s.RemainingNoteIDs = append(s.RemainingNoteIDs[:i], s.RemainingNoteIDs[i+1:]...)
			break
		}
	}
	if !containsID(s.ReviewedTodayIDs, id) {
		s.ReviewedTodayIDs = append(s.ReviewedTodayIDs, id)
	}
	s.LastActiveAt = clock.Now(ctx)
}

func (s *FocusSession) Pause(ctx context.Context) error {
	if s.Status != types.SessionStatusActive {
		return goerr.New("only an active session can be paused",
			goerr.T(errs.TagValidation), goerr.V("status", s.Status))
	}
	s.Status = types.SessionStatusPaused
	s.LastActiveAt = clock.Now(ctx)
	return nil
}

func (s *FocusSession) Resume(ctx context.Context) error {
	if s.Status != types.SessionStatusPaused {
		return goerr.New("only a paused session can be resumed",
			goerr.T(errs.TagValidation), goerr.V("status", s.Status))
	}
	s.Status = types.SessionStatusActive
	s.LastActiveAt = clock.Now(ctx)
	return nil
}

func containsID(ids []types.NoteID, id types.NoteID) bool {
	for _, x := range ids {
		if x == id {
			return true
		}
	}
	return false
}
