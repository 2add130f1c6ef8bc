package memory_test

import (
	"context"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/notelab/recall/pkg/domain/model/note"
	"github.com/notelab/recall/pkg/domain/model/session"
	"github.com/notelab/recall/pkg/domain/types"
	"github.com/notelab/recall/pkg/repository/memory"
	"github.com/notelab/recall/pkg/utils/clock"
)

func TestNoteRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := memory.New()

	n := note.New(ctx, "go/channels.md", "Channels")
	n.Tags = []string{"go", "concurrency"}
	gt.NoError(t, repo.PutNote(ctx, *n))

	got := gt.R1(repo.GetNote(ctx, n.ID)).NoError(t)
	gt.Equal(t, got.Path, "go/channels.md")
	gt.Equal(t, got.Tags, []string{"go", "concurrency"})

	// Mutating the returned copy must not affect the stored note.
	got.Title = "changed"
	again := gt.R1(repo.GetNote(ctx, n.ID)).NoError(t)
	gt.Equal(t, again.Title, "Channels")
}

func TestGetNoteNotFound(t *testing.T) {
	ctx := context.Background()
	repo := memory.New()
	_, err := repo.GetNote(ctx, types.NewNoteID())
	gt.Error(t, err)
}

func TestGetNoteByPath(t *testing.T) {
	ctx := context.Background()
	repo := memory.New()

	n := note.New(ctx, "db/indexes.md", "Indexes")
	gt.NoError(t, repo.PutNote(ctx, *n))

	found := gt.R1(repo.GetNoteByPath(ctx, "db/indexes.md")).NoError(t)
	gt.NotNil(t, found)
	gt.Equal(t, found.ID, n.ID)

	missing := gt.R1(repo.GetNoteByPath(ctx, "nope.md")).NoError(t)
	gt.Nil(t, missing)
}

func TestIntroduceNote(t *testing.T) {
	fixed := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	ctx := clock.With(context.Background(), func() time.Time { return fixed })
	repo := memory.New()

	n := note.New(ctx, "a.md", "A")
	gt.NoError(t, repo.PutNote(ctx, *n))

	unintroduced := gt.R1(repo.GetUnintroducedNotes(ctx)).NoError(t)
	gt.Array(t, unintroduced).Length(1)

	introduced := gt.R1(repo.IntroduceNote(ctx, n.ID)).NoError(t)
	gt.True(t, introduced)

	got := gt.R1(repo.GetNote(ctx, n.ID)).NoError(t)
	gt.Equal(t, got.Memory.NextReviewDate, fixed)

	// Second introduction is a no-op.
	again := gt.R1(repo.IntroduceNote(ctx, n.ID)).NoError(t)
	gt.False(t, again)

	// Unknown note is not an error.
	missing := gt.R1(repo.IntroduceNote(ctx, types.NewNoteID())).NoError(t)
	gt.False(t, missing)
}

func TestSessionStateRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := memory.New()

	// Nothing saved yet.
	empty := gt.R1(repo.GetSessionState(ctx)).NoError(t)
	gt.Nil(t, empty)

	st := session.NewState(ctx)
	st.MarkReviewed(ctx, "n1", false, 20, 5)
	st.ClusterLastReviewed["c1"] = "2026-04-30"
	gt.NoError(t, repo.PutSessionState(ctx, st))

	got := gt.R1(repo.GetSessionState(ctx)).NoError(t)
	gt.NotNil(t, got)
	gt.Equal(t, got.ReviewedToday, []types.NoteID{"n1"})
	gt.Equal(t, got.ClusterLastReviewed["c1"], types.Day("2026-04-30"))

	// Stored state is isolated from later mutations of the argument.
	st.MarkReviewed(ctx, "n2", false, 20, 5)
	isolated := gt.R1(repo.GetSessionState(ctx)).NoError(t)
	gt.Array(t, isolated.ReviewedToday).Length(1)
}
