// Package firestore provides the Cloud Firestore Repository backend for
// deployments that sync review state across machines.
package firestore

import (
	"context"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/notelab/recall/pkg/domain/interfaces"
	"github.com/notelab/recall/pkg/domain/model/errs"
	"github.com/notelab/recall/pkg/domain/model/note"
	"github.com/notelab/recall/pkg/domain/model/session"
	"github.com/notelab/recall/pkg/domain/types"
	"github.com/notelab/recall/pkg/utils/clock"
	"github.com/notelab/recall/pkg/utils/embedding"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	collectionNotes   = "notes"
	collectionSession = "session"
	sessionDocID      = "current"
)

const introducedCutoffYears = 1

type Client struct {
	db *firestore.Client
	eb *goerr.Builder
}

var _ interfaces.Repository = &Client{}

func New(ctx context.Context, projectID, databaseID string) (*Client, error) {
	db, err := firestore.NewClientWithDatabase(ctx, projectID, databaseID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create firestore client",
			goerr.V("project_id", projectID), goerr.V("database_id", databaseID))
	}

	return &Client{
		db: db,
		eb: goerr.NewBuilder(goerr.TV(errs.RepositoryKey, "firestore")),
	}, nil
}

func (c *Client) Close() error {
	return c.db.Close()
}

func (c *Client) PutNote(ctx context.Context, n note.Note) error {
	if err := n.Validate(); err != nil {
		return c.eb.Wrap(err, "invalid note", goerr.T(errs.TagValidation))
	}

	// Zero vectors break Firestore vector fields; store none instead.
	if len(n.Embedding) > 0 && embedding.IsZero(n.Embedding) {
		n.Embedding = nil
	}

	doc := c.db.Collection(collectionNotes).Doc(n.ID.String())
	if _, err := doc.Set(ctx, n); err != nil {
		return c.eb.Wrap(err, "failed to put note", goerr.T(errs.TagDatabase), goerr.V("id", n.ID))
	}
	return nil
}

func (c *Client) GetNote(ctx context.Context, id types.NoteID) (*note.Note, error) {
	doc, err := c.db.Collection(collectionNotes).Doc(id.String()).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, c.eb.New("note not found", goerr.T(errs.TagNotFound), goerr.V("id", id))
		}
		return nil, c.eb.Wrap(err, "failed to get note", goerr.T(errs.TagDatabase), goerr.V("id", id))
	}

	var n note.Note
	if err := doc.DataTo(&n); err != nil {
		return nil, c.eb.Wrap(err, "failed to decode note", goerr.V("id", id))
	}
	return &n, nil
}

func (c *Client) GetNoteByPath(ctx context.Context, path string) (*note.Note, error) {
	iter := c.db.Collection(collectionNotes).Where("path", "==", path).Limit(1).Documents(ctx)
	defer iter.Stop()

	doc, err := iter.Next()
	if err == iterator.Done {
		return nil, nil
	}
	if err != nil {
		return nil, c.eb.Wrap(err, "failed to query note by path", goerr.T(errs.TagDatabase), goerr.V("path", path))
	}

	var n note.Note
	if err := doc.DataTo(&n); err != nil {
		return nil, c.eb.Wrap(err, "failed to decode note", goerr.V("path", path))
	}
	return &n, nil
}

func (c *Client) GetAllNotes(ctx context.Context) ([]*note.Note, error) {
	iter := c.db.Collection(collectionNotes).Documents(ctx)
	defer iter.Stop()

	var notes []*note.Note
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, c.eb.Wrap(err, "failed to iterate notes", goerr.T(errs.TagDatabase))
		}

		var n note.Note
		if err := doc.DataTo(&n); err != nil {
			return nil, c.eb.Wrap(err, "failed to decode note", goerr.V("doc", doc.Ref.ID))
		}
		notes = append(notes, &n)
	}
	return notes, nil
}

func (c *Client) GetUnintroducedNotes(ctx context.Context) ([]*note.Note, error) {
	cutoff := clock.Now(ctx).AddDate(introducedCutoffYears, 0, 0)

	iter := c.db.Collection(collectionNotes).
		Where("memory.repetition_count", "==", 0).
		Where("memory.next_review_date", ">", cutoff).
		Documents(ctx)
	defer iter.Stop()

	var notes []*note.Note
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, c.eb.Wrap(err, "failed to query unintroduced notes", goerr.T(errs.TagDatabase))
		}

		var n note.Note
		if err := doc.DataTo(&n); err != nil {
			return nil, c.eb.Wrap(err, "failed to decode note", goerr.V("doc", doc.Ref.ID))
		}
		notes = append(notes, &n)
	}
	return notes, nil
}

func (c *Client) IntroduceNote(ctx context.Context, id types.NoteID) (bool, error) {
	n, err := c.GetNote(ctx, id)
	if err != nil {
		if goerr.HasTag(err, errs.TagNotFound) {
			return false, nil
		}
		return false, err
	}
	if n.Memory.Introduced(ctx) {
		return false, nil
	}

	now := clock.Now(ctx)
	doc := c.db.Collection(collectionNotes).Doc(id.String())
	_, err = doc.Update(ctx, []firestore.Update{
		{Path: "memory.next_review_date", Value: now},
		{Path: "updated_at", Value: now},
	})
	if err != nil {
		return false, c.eb.Wrap(err, "failed to introduce note", goerr.T(errs.TagDatabase), goerr.V("id", id))
	}
	return true, nil
}

func (c *Client) GetSessionState(ctx context.Context) (*session.State, error) {
	doc, err := c.db.Collection(collectionSession).Doc(sessionDocID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, nil
		}
		return nil, c.eb.Wrap(err, "failed to get session state", goerr.T(errs.TagDatabase))
	}

	var st session.State
	if err := doc.DataTo(&st); err != nil {
		return nil, c.eb.Wrap(err, "failed to decode session state")
	}
	return &st, nil
}

func (c *Client) PutSessionState(ctx context.Context, st *session.State) error {
	if st == nil {
		return c.eb.New("nil session state", goerr.T(errs.TagValidation))
	}

	doc := c.db.Collection(collectionSession).Doc(sessionDocID)
	if _, err := doc.Set(ctx, st); err != nil {
		return c.eb.Wrap(err, "failed to put session state", goerr.T(errs.TagDatabase))
	}
	return nil
}
