package usecase

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/notelab/recall/pkg/domain/model/errs"
	"github.com/notelab/recall/pkg/domain/model/note"
	"github.com/notelab/recall/pkg/domain/model/session"
	"github.com/notelab/recall/pkg/domain/types"
	"github.com/notelab/recall/pkg/service/clustering"
	"github.com/notelab/recall/pkg/service/scheduler"
	"github.com/notelab/recall/pkg/utils/clock"
)

// Plan is one day's worth of review work: what to review, in what order,
// what to introduce, and the cluster landscape behind the choice.
type Plan struct {
	Reviews  []*note.Note            `json:"reviews"`
	NewNotes []*note.Note            `json:"new_notes"`
	Clusters []*clustering.Annotated `json:"clusters"`
	State    *session.State          `json:"state"`
}

// LoadState fetches the persisted session state, applying the day rollover.
// A missing state is created fresh. Any mutation is written back before
// returning, so callers always observe persisted state.
func (u *UseCases) LoadState(ctx context.Context) (*session.State, error) {
	st, err := u.repo.GetSessionState(ctx)
	if err != nil {
		return nil, err
	}

	if st == nil {
		st = session.NewState(ctx)
		if err := u.repo.PutSessionState(ctx, st); err != nil {
			return nil, err
		}
		return st, nil
	}

	if st.Rollover(ctx) {
		if err := u.repo.PutSessionState(ctx, st); err != nil {
			return nil, err
		}
	}
	return st, nil
}

// BuildClusters groups the given notes by embedding similarity. When no
// embedding source is configured the result is empty rather than an error;
// planning then falls back to flat scheduling.
func (u *UseCases) BuildClusters(ctx context.Context, notes []*note.Note) (*clustering.Result, error) {
	if !u.embeddings.Available() {
		return &clustering.Result{}, nil
	}

	vectors, err := u.embeddings.Vectors(ctx)
	if err != nil {
		return nil, err
	}

	// Clustering reads vectors off the notes, so overlay the source's view
	// onto copies. Notes the source does not cover stay ungrouped.
	embedded := make([]*note.Note, 0, len(notes))
	for _, n := range notes {
		copied := *n
		copied.Embedding = vectors[n.ID]
		embedded = append(embedded, &copied)
	}

	return u.clustering.Cluster(ctx, embedded, clustering.Params{
		Threshold:    u.similarityThreshold,
		MaxGroupSize: u.maxGroupSize,
	})
}

// PlanToday assembles the full daily plan and persists the session state it
// mutates along the way (rollover, session completion, session start).
func (u *UseCases) PlanToday(ctx context.Context) (*Plan, error) {
	st, err := u.LoadState(ctx)
	if err != nil {
		return nil, err
	}

	all, err := u.repo.GetAllNotes(ctx)
	if err != nil {
		return nil, err
	}

	introduced := make([]*note.Note, 0, len(all))
	for _, n := range all {
		if n.Memory.Introduced(ctx) {
			introduced = append(introduced, n)
		}
	}

	due := scheduler.DueNotes(introduced, clock.Now(ctx))
	dueIDs := noteIDs(due)

	result, err := u.BuildClusters(ctx, introduced)
	if err != nil {
		return nil, err
	}
	annotated := clustering.Annotate(result.Groups, dueIDs, u.clusterMinSize)

	reviews := u.SelectTodayReviews(ctx, st, introduced, annotated)

	unintroduced, err := u.repo.GetUnintroducedNotes(ctx)
	if err != nil {
		return nil, err
	}
	newNotes := u.SelectNewNotes(st, unintroduced)

	if err := u.repo.PutSessionState(ctx, st); err != nil {
		return nil, err
	}

	return &Plan{
		Reviews:  reviews,
		NewNotes: newNotes,
		Clusters: clustering.Rank(annotated),
		State:    st,
	}, nil
}

// SelectTodayReviews picks the notes to present next, preferring an active
// focus session, then the stalest due cluster, then plain difficulty order.
// It mutates st (session completion and start) but does not persist it.
func (u *UseCases) SelectTodayReviews(ctx context.Context, st *session.State, notes []*note.Note, clusters []*clustering.Annotated) []*note.Note {
	now := clock.Now(ctx)

	candidates := make([]*note.Note, 0, len(notes))
	for _, n := range notes {
		if st.HasReviewed(n.ID) {
			continue
		}
		if scheduler.IsDue(n, now) {
			candidates = append(candidates, n)
		}
	}

	slots := st.RemainingReviewSlots(u.dailyLimit)
	if slots <= 0 || len(candidates) == 0 {
		return nil
	}

	byID := make(map[types.NoteID]*note.Note, len(candidates))
	for _, n := range candidates {
		byID[n.ID] = n
	}

	if sess := st.ActiveSession(); sess != nil {
		remaining := make(map[types.NoteID]bool, len(sess.RemainingNoteIDs))
		for _, id := range sess.RemainingNoteIDs {
			remaining[id] = true
		}
		var picked []*note.Note
		for _, n := range candidates {
			if remaining[n.ID] {
				picked = append(picked, n)
			}
		}
		if len(picked) > 0 {
			return truncate(picked, slots)
		}
		// Nothing left in the session is due; retire it and fall through.
		st.CompleteSession(ctx)
	}

	if st.CurrentSession == nil {
		if target := u.pickCluster(st, clusters, byID); target != nil {
			sess := session.NewFocusSession(ctx, target.ID, target.Label, target.NoteIDs, noteIDs(candidates))
			st.StartSession(sess)

			picked := make([]*note.Note, 0, len(sess.RemainingNoteIDs))
			for _, id := range sess.RemainingNoteIDs {
				if n, ok := byID[id]; ok {
					picked = append(picked, n)
				}
			}
			return truncate(picked, slots)
		}
	}

	return truncate(scheduler.OptimizeOrder(ctx, candidates), slots)
}

// pickCluster chooses the cluster with pending work that has gone unreviewed
// the longest; never-reviewed clusters come first, ties go to more pending
// members. Pending is counted against the candidate set, not the raw due
// set: a cluster whose due members were all reviewed today would otherwise
// start a session with nothing left in it.
func (u *UseCases) pickCluster(st *session.State, clusters []*clustering.Annotated, candidates map[types.NoteID]*note.Note) *clustering.Annotated {
	var best *clustering.Annotated
	var bestDay types.Day
	var bestPending int
	for _, c := range clusters {
		pending := 0
		for _, id := range c.NoteIDs {
			if _, ok := candidates[id]; ok {
				pending++
			}
		}
		if pending == 0 {
			continue
		}
		day := st.LastReviewedDay(c.ID)
		switch {
		case best == nil:
			best, bestDay, bestPending = c, day, pending
		case olderDay(day, bestDay):
			best, bestDay, bestPending = c, day, pending
		case day == bestDay && pending > bestPending:
			best, bestPending = c, pending
		}
	}
	return best
}

// olderDay orders cluster review days with "never" (empty) first.
func olderDay(a, b types.Day) bool {
	if a == types.EmptyDay {
		return b != types.EmptyDay
	}
	if b == types.EmptyDay {
		return false
	}
	return a < b
}

// SelectNewNotes picks unintroduced notes for today within the new-card
// budget. With a current session its cluster-mates go first; otherwise input
// order is kept.
func (u *UseCases) SelectNewNotes(st *session.State, candidates []*note.Note) []*note.Note {
	slots := st.RemainingNewSlots(u.newPerDay)
	if slots <= 0 {
		return nil
	}

	fresh := make([]*note.Note, 0, len(candidates))
	for _, n := range candidates {
		if !st.HasIntroduced(n.ID) {
			fresh = append(fresh, n)
		}
	}

	if sess := st.CurrentSession; sess != nil {
		var inCluster, others []*note.Note
		for _, n := range fresh {
			if sess.Contains(n.ID) {
				inCluster = append(inCluster, n)
			} else {
				others = append(others, n)
			}
		}
		fresh = append(inCluster, others...)
	}

	return truncate(fresh, slots)
}

// Introduce moves unintroduced notes into the rotation, making them due
// today. The new-card budget is enforced here: notes beyond today's
// remaining slots are left untouched. Returns the IDs actually introduced.
func (u *UseCases) Introduce(ctx context.Context, ids []types.NoteID) ([]types.NoteID, error) {
	st, err := u.LoadState(ctx)
	if err != nil {
		return nil, err
	}

	var introduced []types.NoteID
	for _, id := range ids {
		if st.RemainingNewSlots(u.newPerDay) <= 0 {
			break
		}
		changed, err := u.repo.IntroduceNote(ctx, id)
		if err != nil {
			return introduced, err
		}
		if !changed {
			continue
		}
		st.MarkIntroduced(id, u.newPerDay)
		introduced = append(introduced, id)
	}

	if err := u.repo.PutSessionState(ctx, st); err != nil {
		return introduced, err
	}
	return introduced, nil
}

// RecordReview applies one review result end to end: scheduler transition,
// history entry, retention estimate, budget bookkeeping, persistence.
func (u *UseCases) RecordReview(ctx context.Context, id types.NoteID, quality types.Quality, mode types.ReviewMode, score *float64) (*note.Note, error) {
	if err := quality.Validate(); err != nil {
		return nil, goerr.Wrap(err, "invalid quality", goerr.T(errs.TagValidation))
	}
	if err := mode.Validate(); err != nil {
		return nil, goerr.Wrap(err, "invalid review mode", goerr.T(errs.TagValidation))
	}

	n, err := u.repo.GetNote(ctx, id)
	if err != nil {
		return nil, err
	}

	isNew := len(n.History) == 0

	n.Memory = scheduler.Next(ctx, n.Memory, quality)
	n.RecordReview(ctx, quality, mode, score)
	n.Retention = scheduler.EstimateRetention(n)

	if err := u.repo.PutNote(ctx, *n); err != nil {
		return nil, err
	}

	st, err := u.LoadState(ctx)
	if err != nil {
		return nil, err
	}
	st.MarkReviewed(ctx, id, isNew, u.dailyLimit, u.newPerDay)
	if err := u.repo.PutSessionState(ctx, st); err != nil {
		return nil, err
	}

	return n, nil
}

// ListClusters computes the current cluster landscape without touching the
// session state. Clusters are annotated against today's due set and ranked.
func (u *UseCases) ListClusters(ctx context.Context) ([]*clustering.Annotated, error) {
	all, err := u.repo.GetAllNotes(ctx)
	if err != nil {
		return nil, err
	}

	introduced := make([]*note.Note, 0, len(all))
	for _, n := range all {
		if n.Memory.Introduced(ctx) {
			introduced = append(introduced, n)
		}
	}

	result, err := u.BuildClusters(ctx, introduced)
	if err != nil {
		return nil, err
	}

	due := scheduler.DueNotes(introduced, clock.Now(ctx))
	return clustering.Rank(clustering.Annotate(result.Groups, noteIDs(due), u.clusterMinSize)), nil
}

// GetNote exposes single-note lookup to the outer surfaces.
func (u *UseCases) GetNote(ctx context.Context, id types.NoteID) (*note.Note, error) {
	if err := id.Validate(); err != nil {
		return nil, goerr.Wrap(err, "invalid note ID", goerr.T(errs.TagValidation))
	}
	return u.repo.GetNote(ctx, id)
}

func noteIDs(notes []*note.Note) []types.NoteID {
	ids := make([]types.NoteID, 0, len(notes))
	for _, n := range notes {
		ids = append(ids, n.ID)
	}
	return ids
}

func truncate(notes []*note.Note, n int) []*note.Note {
	if len(notes) <= n {
		return notes
	}
	return notes[:n]
}
