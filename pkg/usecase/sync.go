package usecase

import (
	"context"

	"github.com/notelab/recall/pkg/domain/types"
	"github.com/notelab/recall/pkg/service/vault"
	"github.com/notelab/recall/pkg/utils/logging"
)

// EmbeddingSyncer is the optional write side of an embedding source.
// Sources that can generate vectors implement it; read-only sources do not.
type EmbeddingSyncer interface {
	Sync(ctx context.Context, texts map[types.NoteID]string) (int, error)
}

// SyncReport summarizes one vault synchronization.
type SyncReport struct {
	Added     int `json:"added"`
	Updated   int `json:"updated"`
	Unchanged int `json:"unchanged"`
	Embedded  int `json:"embedded"`
}

// SyncVault reconciles the vault with the repository and then fills in
// missing embeddings when the source supports generation. Embedding trouble
// is logged, not fatal: the scan result stands on its own.
func (u *UseCases) SyncVault(ctx context.Context, scanner *vault.Service) (*SyncReport, error) {
	result, err := scanner.Sync(ctx, u.repo)
	if err != nil {
		return nil, err
	}

	report := &SyncReport{
		Added:     result.Added,
		Updated:   result.Updated,
		Unchanged: result.Unchanged,
	}

	if syncer, ok := u.embeddings.(EmbeddingSyncer); ok && u.embeddings.Available() {
		generated, err := syncer.Sync(ctx, result.Texts)
		report.Embedded = generated
		if err != nil {
			logging.From(ctx).Warn("embedding sync incomplete", "generated", generated, "error", err)
		}
	}

	return report, nil
}
