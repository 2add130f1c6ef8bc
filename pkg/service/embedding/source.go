// Package embedding backs note clustering with vectors generated through an
// LLM client and persisted alongside the notes.
package embedding

import (
	"context"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gollem"
	"github.com/notelab/recall/pkg/domain/interfaces"
	"github.com/notelab/recall/pkg/domain/model/errs"
	"github.com/notelab/recall/pkg/domain/types"
	"github.com/notelab/recall/pkg/utils/clock"
	"github.com/notelab/recall/pkg/utils/embedding"
	"github.com/notelab/recall/pkg/utils/logging"
)

// Source serves note vectors from the repository and fills gaps through the
// configured LLM client. A nil client is a valid configuration: Available
// reports false and clustering degrades to flat scheduling.
type Source struct {
	repo interfaces.Repository
	llm  gollem.LLMClient
	eb   *goerr.Builder
}

var _ interfaces.EmbeddingSource = &Source{}

func New(repo interfaces.Repository, llm gollem.LLMClient) *Source {
	return &Source{
		repo: repo,
		llm:  llm,
		eb:   goerr.NewBuilder(goerr.T(errs.TagExternal)),
	}
}

func (x *Source) Available() bool {
	return x.llm != nil
}

// Vectors returns the stored embedding of every note that has one.
func (x *Source) Vectors(ctx context.Context) (map[types.NoteID]firestore.Vector32, error) {
	notes, err := x.repo.GetAllNotes(ctx)
	if err != nil {
		return nil, err
	}

	vectors := make(map[types.NoteID]firestore.Vector32, len(notes))
	for _, n := range notes {
		if len(n.Embedding) == 0 || embedding.IsZero(n.Embedding) {
			continue
		}
		vectors[n.ID] = n.Embedding
	}
	return vectors, nil
}

// VectorsBatch returns stored embeddings for the given IDs. Notes without a
// vector, or IDs that no longer resolve, are silently omitted.
func (x *Source) VectorsBatch(ctx context.Context, ids []types.NoteID) (map[types.NoteID]firestore.Vector32, error) {
	vectors := make(map[types.NoteID]firestore.Vector32, len(ids))
	for _, id := range ids {
		n, err := x.repo.GetNote(ctx, id)
		if err != nil {
			if goerr.HasTag(err, errs.TagNotFound) {
				continue
			}
			return nil, err
		}
		if len(n.Embedding) == 0 || embedding.IsZero(n.Embedding) {
			continue
		}
		vectors[n.ID] = n.Embedding
	}
	return vectors, nil
}

// Sync generates embeddings for notes that are missing one, using the note
// bodies supplied by the vault scan. It returns the number of vectors
// generated. Notes absent from texts are skipped, as are already embedded
// notes; the vault scan clears the stored vector when a body changes, which
// is what schedules regeneration here.
func (x *Source) Sync(ctx context.Context, texts map[types.NoteID]string) (int, error) {
	if x.llm == nil {
		return 0, x.eb.New("no embedding client configured")
	}

	notes, err := x.repo.GetAllNotes(ctx)
	if err != nil {
		return 0, err
	}

	logger := logging.From(ctx)
	generated := 0
	for _, n := range notes {
		if len(n.Embedding) > 0 && !embedding.IsZero(n.Embedding) {
			continue
		}
		text, ok := texts[n.ID]
		if !ok || text == "" {
			continue
		}

		vector, err := embedding.Generate(ctx, x.llm, text)
		if err != nil {
			return generated, x.eb.Wrap(err, "failed to embed note",
				goerr.V("id", n.ID), goerr.V("path", n.Path))
		}
		if embedding.IsZero(vector) {
			logger.Warn("skipping zero embedding", "id", n.ID, "path", n.Path)
			continue
		}

		n.Embedding = vector
		n.UpdatedAt = clock.Now(ctx)
		if err := x.repo.PutNote(ctx, *n); err != nil {
			return generated, err
		}
		generated++
	}

	return generated, nil
}
