// Package memory provides an in-memory Repository implementation. It backs
// unit tests and the ephemeral `--repository memory` mode; nothing survives
// a process restart.
package memory

import (
	"context"
	"sync"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/notelab/recall/pkg/domain/interfaces"
	"github.com/notelab/recall/pkg/domain/model/errs"
	"github.com/notelab/recall/pkg/domain/model/note"
	"github.com/notelab/recall/pkg/domain/model/session"
	"github.com/notelab/recall/pkg/domain/types"
	"github.com/notelab/recall/pkg/utils/clock"
)

type Memory struct {
	mu sync.RWMutex

	notes map[types.NoteID]*note.Note
	state *session.State

	eb *goerr.Builder
}

var _ interfaces.Repository = &Memory{}

func New() *Memory {
	return &Memory{
		notes: make(map[types.NoteID]*note.Note),
		eb:    goerr.NewBuilder(goerr.TV(errs.RepositoryKey, "memory")),
	}
}

func (r *Memory) PutNote(ctx context.Context, n note.Note) error {
	if err := n.Validate(); err != nil {
		return r.eb.Wrap(err, "invalid note", goerr.T(errs.TagValidation))
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// Store a copy to prevent external modification
	copied := copyNote(&n)
	r.notes[n.ID] = copied
	return nil
}

func (r *Memory) GetNote(ctx context.Context, id types.NoteID) (*note.Note, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n, ok := r.notes[id]
	if !ok {
		return nil, r.eb.New("note not found", goerr.T(errs.TagNotFound), goerr.V("id", id))
	}
	return copyNote(n), nil
}

func (r *Memory) GetNoteByPath(ctx context.Context, path string) (*note.Note, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, n := range r.notes {
		if n.Path == path {
			return copyNote(n), nil
		}
	}
	return nil, nil
}

func (r *Memory) GetAllNotes(ctx context.Context) ([]*note.Note, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	notes := make([]*note.Note, 0, len(r.notes))
	for _, n := range r.notes {
		notes = append(notes, copyNote(n))
	}
	return notes, nil
}

func (r *Memory) GetUnintroducedNotes(ctx context.Context) ([]*note.Note, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var notes []*note.Note
	for _, n := range r.notes {
		if !n.Memory.Introduced(ctx) {
			notes = append(notes, copyNote(n))
		}
	}
	return notes, nil
}

func (r *Memory) IntroduceNote(ctx context.Context, id types.NoteID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	n, ok := r.notes[id]
	if !ok {
		return false, nil
	}
	if n.Memory.Introduced(ctx) {
		return false, nil
	}

	now := clock.Now(ctx)
	n.Memory.NextReviewDate = now
	n.UpdatedAt = now
	return true, nil
}

func (r *Memory) GetSessionState(ctx context.Context) (*session.State, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.state == nil {
		return nil, nil
	}
	return copyState(r.state), nil
}

func (r *Memory) PutSessionState(ctx context.Context, st *session.State) error {
	if st == nil {
		return r.eb.New("nil session state", goerr.T(errs.TagValidation))
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.state = copyState(st)
	return nil
}

func (r *Memory) Close() error {
	return nil
}

func copyNote(n *note.Note) *note.Note {
	copied := *n
	copied.History = append([]note.ReviewRecord(nil), n.History...)
	copied.Tags = append([]string(nil), n.Tags...)
	copied.Embedding = append(firestore.Vector32(nil), n.Embedding...)
	return &copied
}

func copyState(st *session.State) *session.State {
	copied := *st
	copied.ReviewedToday = append([]types.NoteID(nil), st.ReviewedToday...)
	copied.NewIntroducedToday = append([]types.NoteID(nil), st.NewIntroducedToday...)
	copied.ClusterLastReviewed = make(map[types.ClusterID]types.Day, len(st.ClusterLastReviewed))
	for k, v := range st.ClusterLastReviewed {
		copied.ClusterLastReviewed[k] = v
	}
	if st.CurrentSession != nil {
		sess := *st.CurrentSession
		sess.NoteIDs = append([]types.NoteID(nil), st.CurrentSession.NoteIDs...)
		sess.RemainingNoteIDs = append([]types.NoteID(nil), st.CurrentSession.RemainingNoteIDs...)
		sess.ReviewedTodayIDs = append([]types.NoteID(nil), st.CurrentSession.ReviewedTodayIDs...)
		copied.CurrentSession = &sess
	}
	return &copied
}
