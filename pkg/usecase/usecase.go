// Package usecase wires the scheduler, the clustering engine, and the session
// state machine on top of the repository. Every CLI command and HTTP handler
// goes through here.
package usecase

import (
	"context"

	"cloud.google.com/go/firestore"
	"github.com/notelab/recall/pkg/domain/interfaces"
	"github.com/notelab/recall/pkg/domain/types"
	"github.com/notelab/recall/pkg/repository/memory"
	"github.com/notelab/recall/pkg/service/clustering"
)

const (
	DefaultDailyLimit          = 20
	DefaultNewPerDay           = 5
	DefaultSimilarityThreshold = 0.75
	DefaultMaxGroupSize        = 8
)

type UseCases struct {
	repo       interfaces.Repository
	embeddings interfaces.EmbeddingSource
	clustering clustering.Service

	dailyLimit          int
	newPerDay           int
	similarityThreshold float64
	clusterMinSize      int
	maxGroupSize        int
}

type Option func(*UseCases)

func WithRepository(repo interfaces.Repository) Option {
	return func(u *UseCases) {
		u.repo = repo
	}
}

func WithEmbeddingSource(src interfaces.EmbeddingSource) Option {
	return func(u *UseCases) {
		u.embeddings = src
	}
}

func WithClusteringService(svc clustering.Service) Option {
	return func(u *UseCases) {
		u.clustering = svc
	}
}

func WithDailyLimit(n int) Option {
	return func(u *UseCases) {
		u.dailyLimit = n
	}
}

func WithNewPerDay(n int) Option {
	return func(u *UseCases) {
		u.newPerDay = n
	}
}

func WithSimilarityThreshold(v float64) Option {
	return func(u *UseCases) {
		u.similarityThreshold = v
	}
}

func WithClusterMinSize(n int) Option {
	return func(u *UseCases) {
		u.clusterMinSize = n
	}
}

func WithMaxGroupSize(n int) Option {
	return func(u *UseCases) {
		u.maxGroupSize = n
	}
}

// noEmbeddings is the default embedding source: never available, so planning
// degrades to flat scheduling without clusters.
type noEmbeddings struct{}

func (noEmbeddings) Available() bool { return false }

func (noEmbeddings) Vectors(ctx context.Context) (map[types.NoteID]firestore.Vector32, error) {
	return map[types.NoteID]firestore.Vector32{}, nil
}

func (noEmbeddings) VectorsBatch(ctx context.Context, ids []types.NoteID) (map[types.NoteID]firestore.Vector32, error) {
	return map[types.NoteID]firestore.Vector32{}, nil
}

func New(opts ...Option) *UseCases {
	u := &UseCases{
		repo:                memory.New(),
		embeddings:          noEmbeddings{},
		clustering:          clustering.NewService(),
		dailyLimit:          DefaultDailyLimit,
		newPerDay:           DefaultNewPerDay,
		similarityThreshold: DefaultSimilarityThreshold,
		clusterMinSize:      clustering.DefaultMinGroupSize,
		maxGroupSize:        DefaultMaxGroupSize,
	}

	for _, opt := range opts {
		opt(u)
	}

	return u
}

func (u *UseCases) Repository() interfaces.Repository {
	return u.repo
}
