package usecase

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/notelab/recall/pkg/domain/model/errs"
	"github.com/notelab/recall/pkg/domain/model/note"
	"github.com/notelab/recall/pkg/domain/model/session"
	"github.com/notelab/recall/pkg/domain/types"
	"github.com/notelab/recall/pkg/service/scheduler"
	"github.com/notelab/recall/pkg/utils/clock"
)

// StartClusterSession explicitly installs a focus session for the given
// cluster, replacing whatever session was current. The cluster must exist in
// the current clustering of introduced notes.
func (u *UseCases) StartClusterSession(ctx context.Context, clusterID types.ClusterID) (*session.FocusSession, error) {
	if err := clusterID.Validate(); err != nil {
		return nil, goerr.Wrap(err, "invalid cluster ID", goerr.T(errs.TagValidation))
	}

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

	result, err := u.BuildClusters(ctx, introduced)
	if err != nil {
		return nil, err
	}

	for _, g := range result.Groups {
		if g.ID != clusterID {
			continue
		}
		due := scheduler.DueNotes(introduced, clock.Now(ctx))
		sess := session.NewFocusSession(ctx, g.ID, g.Label, g.NoteIDs, noteIDs(due))
		st.StartSession(sess)
		if err := u.repo.PutSessionState(ctx, st); err != nil {
			return nil, err
		}
		return sess, nil
	}

	return nil, goerr.New("cluster not found", goerr.T(errs.TagNotFound), goerr.V("cluster_id", clusterID))
}

// PauseSession pauses the current session without discarding it.
func (u *UseCases) PauseSession(ctx context.Context) (*session.FocusSession, error) {
	st, err := u.LoadState(ctx)
	if err != nil {
		return nil, err
	}
	if st.CurrentSession == nil {
		return nil, goerr.New("no current session", goerr.T(errs.TagNotFound))
	}

	if err := st.CurrentSession.Pause(ctx); err != nil {
		return nil, err
	}
	if err := u.repo.PutSessionState(ctx, st); err != nil {
		return nil, err
	}
	return st.CurrentSession, nil
}

// ResumeSession reactivates a paused session.
func (u *UseCases) ResumeSession(ctx context.Context) (*session.FocusSession, error) {
	st, err := u.LoadState(ctx)
	if err != nil {
		return nil, err
	}
	if st.CurrentSession == nil {
		return nil, goerr.New("no current session", goerr.T(errs.TagNotFound))
	}

	if err := st.CurrentSession.Resume(ctx); err != nil {
		return nil, err
	}
	if err := u.repo.PutSessionState(ctx, st); err != nil {
		return nil, err
	}
	return st.CurrentSession, nil
}

// CurrentSession returns the persisted session regardless of status, or nil.
func (u *UseCases) CurrentSession(ctx context.Context) (*session.FocusSession, error) {
	st, err := u.LoadState(ctx)
	if err != nil {
		return nil, err
	}
	return st.CurrentSession, nil
}
