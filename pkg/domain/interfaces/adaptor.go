package interfaces

import (
	"context"

	"cloud.google.com/go/firestore"
	"github.com/notelab/recall/pkg/domain/types"
)

// EmbeddingSource supplies embedding vectors for notes. Absence of a source
// is a first-class state: callers fall back to ungrouped scheduling when
// Available reports false.
type EmbeddingSource interface {
	Available() bool
	Vectors(ctx context.Context) (map[types.NoteID]firestore.Vector32, error)
	VectorsBatch(ctx context.Context, ids []types.NoteID) (map[types.NoteID]firestore.Vector32, error)
}
