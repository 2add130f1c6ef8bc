package usecase_test

import (
	"context"
	"testing"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/gt"
	"github.com/notelab/recall/pkg/domain/interfaces"
	"github.com/notelab/recall/pkg/domain/model/note"
	"github.com/notelab/recall/pkg/domain/model/session"
	"github.com/notelab/recall/pkg/domain/types"
	"github.com/notelab/recall/pkg/repository/memory"
	"github.com/notelab/recall/pkg/usecase"
	"github.com/notelab/recall/pkg/utils/clock"
)

// repoEmbeddings reads vectors straight off the stored notes. It stands in
// for a configured embedding source in tests.
type repoEmbeddings struct {
	repo interfaces.Repository
}

func (x *repoEmbeddings) Available() bool { return true }

func (x *repoEmbeddings) Vectors(ctx context.Context) (map[types.NoteID]firestore.Vector32, error) {
	notes, err := x.repo.GetAllNotes(ctx)
	if err != nil {
		return nil, err
	}
	vectors := map[types.NoteID]firestore.Vector32{}
	for _, n := range notes {
		if len(n.Embedding) > 0 {
			vectors[n.ID] = n.Embedding
		}
	}
	return vectors, nil
}

func (x *repoEmbeddings) VectorsBatch(ctx context.Context, ids []types.NoteID) (map[types.NoteID]firestore.Vector32, error) {
	return x.Vectors(ctx)
}

func dueNote(ctx context.Context, t *testing.T, repo interfaces.Repository, path string, vec firestore.Vector32) *note.Note {
	t.Helper()
	n := note.New(ctx, path, path)
	n.Memory.RepetitionCount = 1
	n.Memory.IntervalDays = 1
	n.Memory.NextReviewDate = clock.Now(ctx).AddDate(0, 0, -1)
	n.Embedding = vec
	gt.NoError(t, repo.PutNote(ctx, *n))
	return n
}

func fixedCtx(day string) context.Context {
	ts, _ := time.Parse(time.RFC3339, day)
	return clock.With(context.Background(), func() time.Time { return ts })
}

func TestPlanTodayEmptyVault(t *testing.T) {
	ctx := fixedCtx("2026-03-01T09:00:00Z")
	uc := usecase.New()

	plan := gt.R1(uc.PlanToday(ctx)).NoError(t)
	gt.Array(t, plan.Reviews).Length(0)
	gt.Array(t, plan.NewNotes).Length(0)
	gt.NotNil(t, plan.State)
	gt.Equal(t, plan.State.LastActiveDate, types.Day("2026-03-01"))
}

func TestPlanTodayStartsClusterSession(t *testing.T) {
	ctx := fixedCtx("2026-03-01T09:00:00Z")
	repo := memory.New()

	// Three near-identical vectors form one cluster; the outlier stays out.
	a := dueNote(ctx, t, repo, "go/goroutines.md", firestore.Vector32{1, 0, 0})
	b := dueNote(ctx, t, repo, "go/channels.md", firestore.Vector32{0.99, 0.1, 0})
	c := dueNote(ctx, t, repo, "go/select.md", firestore.Vector32{0.98, 0.15, 0})
	outlier := dueNote(ctx, t, repo, "cooking/bread.md", firestore.Vector32{0, 0, 1})

	uc := usecase.New(
		usecase.WithRepository(repo),
		usecase.WithEmbeddingSource(&repoEmbeddings{repo: repo}),
		usecase.WithSimilarityThreshold(0.8),
	)

	plan := gt.R1(uc.PlanToday(ctx)).NoError(t)

	gt.Array(t, plan.Clusters).Length(1)
	gt.Equal(t, plan.Clusters[0].DueCount, 3)

	sess := plan.State.CurrentSession
	gt.NotNil(t, sess)
	gt.True(t, sess.Active())
	gt.Array(t, plan.Reviews).Length(3)
	gt.True(t, sess.Contains(a.ID))
	gt.True(t, sess.Contains(b.ID))
	gt.True(t, sess.Contains(c.ID))
	gt.False(t, sess.Contains(outlier.ID))
	for _, n := range plan.Reviews {
		gt.True(t, sess.Contains(n.ID))
	}
}

func TestPlanTodayFallsBackWithoutEmbeddings(t *testing.T) {
	ctx := fixedCtx("2026-03-01T09:00:00Z")
	repo := memory.New()
	dueNote(ctx, t, repo, "a.md", nil)
	dueNote(ctx, t, repo, "b.md", nil)

	uc := usecase.New(usecase.WithRepository(repo))

	plan := gt.R1(uc.PlanToday(ctx)).NoError(t)
	gt.Array(t, plan.Clusters).Length(0)
	gt.Array(t, plan.Reviews).Length(2)
	gt.Nil(t, plan.State.CurrentSession)
}

func TestSelectReturnsEmptyAtDailyLimit(t *testing.T) {
	ctx := fixedCtx("2026-03-01T09:00:00Z")
	repo := memory.New()
	for i := 0; i < 5; i++ {
		dueNote(ctx, t, repo, string(rune('a'+i))+".md", nil)
	}

	uc := usecase.New(usecase.WithRepository(repo), usecase.WithDailyLimit(2))

	plan := gt.R1(uc.PlanToday(ctx)).NoError(t)
	gt.Array(t, plan.Reviews).Length(2)

	for _, n := range plan.Reviews {
		gt.R1(uc.RecordReview(ctx, n.ID, 4, types.ReviewModeFlashcard, nil)).NoError(t)
	}

	plan = gt.R1(uc.PlanToday(ctx)).NoError(t)
	gt.Array(t, plan.Reviews).Length(0)
	gt.Equal(t, len(plan.State.ReviewedToday), 2)
}

func TestClusterSkippedWhenMembersAlreadyReviewed(t *testing.T) {
	ctx := fixedCtx("2026-03-01T09:00:00Z")
	repo := memory.New()

	a := dueNote(ctx, t, repo, "go/a.md", firestore.Vector32{1, 0, 0})
	b := dueNote(ctx, t, repo, "go/b.md", firestore.Vector32{0.99, 0.1, 0})
	c := dueNote(ctx, t, repo, "go/c.md", firestore.Vector32{0.98, 0.15, 0})
	solo := dueNote(ctx, t, repo, "misc/solo.md", firestore.Vector32{0, 0, 1})

	// All cluster members were already rated today, outside any session.
	st := session.NewState(ctx)
	st.ReviewedToday = []types.NoteID{a.ID, b.ID, c.ID}
	gt.NoError(t, repo.PutSessionState(ctx, st))

	uc := usecase.New(
		usecase.WithRepository(repo),
		usecase.WithEmbeddingSource(&repoEmbeddings{repo: repo}),
		usecase.WithSimilarityThreshold(0.8),
	)

	// The spent cluster must not hijack selection with an empty session;
	// the remaining due note is offered instead.
	plan := gt.R1(uc.PlanToday(ctx)).NoError(t)
	gt.Nil(t, plan.State.CurrentSession)
	gt.Array(t, plan.Reviews).Length(1)
	gt.Equal(t, plan.Reviews[0].ID, solo.ID)
}

func TestRecordReviewUpdatesSchedule(t *testing.T) {
	ctx := fixedCtx("2026-03-01T09:00:00Z")
	repo := memory.New()
	n := dueNote(ctx, t, repo, "tcp.md", nil)

	uc := usecase.New(usecase.WithRepository(repo))

	updated := gt.R1(uc.RecordReview(ctx, n.ID, 5, types.ReviewModeFlashcard, nil)).NoError(t)
	gt.Equal(t, updated.Memory.RepetitionCount, 2)
	gt.Equal(t, updated.Memory.IntervalDays, 6)
	gt.Array(t, updated.History).Length(1)

	// Same day, already reviewed: the note must not be offered again.
	plan := gt.R1(uc.PlanToday(ctx)).NoError(t)
	gt.Array(t, plan.Reviews).Length(0)
}

func TestRecordReviewRejectsBadQuality(t *testing.T) {
	ctx := fixedCtx("2026-03-01T09:00:00Z")
	repo := memory.New()
	n := dueNote(ctx, t, repo, "x.md", nil)

	uc := usecase.New(usecase.WithRepository(repo))
	_, err := uc.RecordReview(ctx, n.ID, 9, types.ReviewModeFlashcard, nil)
	gt.Error(t, err)
}

func TestIntroduceRespectsBudget(t *testing.T) {
	ctx := fixedCtx("2026-03-01T09:00:00Z")
	repo := memory.New()

	var ids []types.NoteID
	for i := 0; i < 4; i++ {
		n := note.New(ctx, string(rune('a'+i))+".md", "fresh")
		gt.NoError(t, repo.PutNote(ctx, *n))
		ids = append(ids, n.ID)
	}

	uc := usecase.New(usecase.WithRepository(repo), usecase.WithNewPerDay(2))

	introduced := gt.R1(uc.Introduce(ctx, ids)).NoError(t)
	gt.Array(t, introduced).Length(2)

	// Budget exhausted: nothing further today.
	introduced = gt.R1(uc.Introduce(ctx, ids)).NoError(t)
	gt.Array(t, introduced).Length(0)

	unintroduced := gt.R1(repo.GetUnintroducedNotes(ctx)).NoError(t)
	gt.Array(t, unintroduced).Length(2)
}

func TestDayRolloverResetsBudgets(t *testing.T) {
	repo := memory.New()
	day1 := fixedCtx("2026-03-01T22:00:00Z")
	n := dueNote(day1, t, repo, "x.md", nil)

	uc := usecase.New(usecase.WithRepository(repo), usecase.WithDailyLimit(1))

	gt.R1(uc.RecordReview(day1, n.ID, 2, types.ReviewModeFlashcard, nil)).NoError(t)
	plan := gt.R1(uc.PlanToday(day1)).NoError(t)
	gt.Array(t, plan.Reviews).Length(0)

	// Quality 2 is a failure, so the note is due again tomorrow and the
	// daily sets reset at the boundary.
	day2 := fixedCtx("2026-03-02T08:00:00Z")
	plan = gt.R1(uc.PlanToday(day2)).NoError(t)
	gt.Array(t, plan.Reviews).Length(1)
	gt.Equal(t, plan.State.LastActiveDate, types.Day("2026-03-02"))
	gt.Equal(t, len(plan.State.ReviewedToday), 0)
}

func TestSelectNewNotesPrefersSessionCluster(t *testing.T) {
	ctx := fixedCtx("2026-03-01T09:00:00Z")
	repo := memory.New()

	a := dueNote(ctx, t, repo, "go/a.md", firestore.Vector32{1, 0, 0})
	b := dueNote(ctx, t, repo, "go/b.md", firestore.Vector32{0.99, 0.1, 0})
	c := dueNote(ctx, t, repo, "go/c.md", firestore.Vector32{0.98, 0.15, 0})

	// Unintroduced notes: one belongs to nothing, clusters only hold
	// introduced members, so preference is observable via session members.
	fresh := note.New(ctx, "fresh.md", "fresh")
	gt.NoError(t, repo.PutNote(ctx, *fresh))

	uc := usecase.New(
		usecase.WithRepository(repo),
		usecase.WithEmbeddingSource(&repoEmbeddings{repo: repo}),
		usecase.WithSimilarityThreshold(0.8),
	)

	plan := gt.R1(uc.PlanToday(ctx)).NoError(t)
	sess := plan.State.CurrentSession
	gt.NotNil(t, sess)
	gt.True(t, sess.Contains(a.ID) && sess.Contains(b.ID) && sess.Contains(c.ID))
	gt.Array(t, plan.NewNotes).Length(1)
	gt.Equal(t, plan.NewNotes[0].ID, fresh.ID)
}
