package interfaces

import (
	"context"

	"github.com/notelab/recall/pkg/domain/model/note"
	"github.com/notelab/recall/pkg/domain/model/session"
	"github.com/notelab/recall/pkg/domain/types"
)

// Repository stores notes and the persisted session state. Implementations
// live in pkg/repository (memory, sqlite, firestore).
type Repository interface {
	PutNote(ctx context.Context, n note.Note) error
	GetNote(ctx context.Context, id types.NoteID) (*note.Note, error)

	// GetNoteByPath returns the note at a vault path, or nil when the
	// path is unknown. Unlike GetNote this is not an error condition:
	// the scanner probes paths to distinguish new from known files.
	GetNoteByPath(ctx context.Context, path string) (*note.Note, error)
	GetAllNotes(ctx context.Context) ([]*note.Note, error)

	// GetUnintroducedNotes returns notes that have never entered the
	// review rotation (no repetitions, review date parked far out).
	GetUnintroducedNotes(ctx context.Context) ([]*note.Note, error)

	// IntroduceNote pulls a note's next review date back to now so it
	// becomes due immediately. Reports whether the note was found and
	// actually unintroduced.
	IntroduceNote(ctx context.Context, id types.NoteID) (bool, error)

	// GetSessionState returns the persisted session state, or nil when
	// none has been saved yet.
	GetSessionState(ctx context.Context) (*session.State, error)
	PutSessionState(ctx context.Context, st *session.State) error

	Close() error
}
