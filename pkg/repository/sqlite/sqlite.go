// Package sqlite provides the local-first Repository backend. A single
// database file holds notes, their review history, and the persisted
// session state, so the whole review lifecycle works offline.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/notelab/recall/pkg/domain/interfaces"
	"github.com/notelab/recall/pkg/domain/model/errs"
	"github.com/notelab/recall/pkg/domain/model/note"
	"github.com/notelab/recall/pkg/domain/model/session"
	"github.com/notelab/recall/pkg/domain/types"
	"github.com/notelab/recall/pkg/utils/clock"
	_ "modernc.org/sqlite"
)

const sessionStateKey = "current"

// Unintroduced notes are parked about a century out; anything scheduled
// more than a year ahead cannot have been introduced.
const introducedCutoffYears = 1

type Client struct {
	db *sql.DB
	eb *goerr.Builder
}

var _ interfaces.Repository = &Client{}

// New opens (or creates) the database file and applies the schema. The
// parent directory is created if needed.
func New(ctx context.Context, path string) (*Client, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, goerr.Wrap(err, "failed to create database directory", goerr.V("path", path))
	}

	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to open database", goerr.V("path", path))
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, goerr.Wrap(err, "failed to ping database", goerr.V("path", path))
	}

	c := &Client{
		db: db,
		eb: goerr.NewBuilder(goerr.TV(errs.RepositoryKey, "sqlite")),
	}
	if err := c.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return c, nil
}

func (c *Client) migrate(ctx context.Context) error {
	schema := []string{
		`CREATE TABLE IF NOT EXISTS notes (
			id               TEXT PRIMARY KEY,
			path             TEXT NOT NULL UNIQUE,
			title            TEXT NOT NULL,
			repetition_count INTEGER NOT NULL DEFAULT 0,
			interval_days    INTEGER NOT NULL DEFAULT 0,
			ease_factor      REAL NOT NULL DEFAULT 2.5,
			next_review_date TIMESTAMP NOT NULL,
			retention        TEXT NOT NULL DEFAULT 'novice',
			tags             TEXT NOT NULL DEFAULT '[]',
			content_hash     TEXT NOT NULL DEFAULT '',
			embedding        TEXT NOT NULL DEFAULT '',
			created_at       TIMESTAMP NOT NULL,
			updated_at       TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS review_history (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			note_id     TEXT NOT NULL REFERENCES notes(id) ON DELETE CASCADE,
			reviewed_at TIMESTAMP NOT NULL,
			quality     INTEGER NOT NULL,
			mode        TEXT NOT NULL,
			score       REAL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_history_note ON review_history(note_id, reviewed_at)`,
		`CREATE INDEX IF NOT EXISTS idx_notes_next_review ON notes(next_review_date)`,
		`CREATE TABLE IF NOT EXISTS session_state (
			key        TEXT PRIMARY KEY,
			data       TEXT NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`,
	}
	for _, stmt := range schema {
		if _, err := c.db.ExecContext(ctx, stmt); err != nil {
			return c.eb.Wrap(err, "failed to apply schema", goerr.T(errs.TagDatabase))
		}
	}
	return nil
}

func (c *Client) Close() error {
	return c.db.Close()
}

func (c *Client) PutNote(ctx context.Context, n note.Note) error {
	if err := n.Validate(); err != nil {
		return c.eb.Wrap(err, "invalid note", goerr.T(errs.TagValidation))
	}

	tags, err := json.Marshal(n.Tags)
	if err != nil {
		return c.eb.Wrap(err, "failed to encode tags")
	}
	var emb []byte
	if len(n.Embedding) > 0 {
		if emb, err = json.Marshal(n.Embedding); err != nil {
			return c.eb.Wrap(err, "failed to encode embedding")
		}
	}

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return c.eb.Wrap(err, "failed to begin tx", goerr.T(errs.TagDatabase))
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO notes (id, path, title, repetition_count, interval_days, ease_factor,
			next_review_date, retention, tags, content_hash, embedding, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			path = excluded.path,
			title = excluded.title,
			repetition_count = excluded.repetition_count,
			interval_days = excluded.interval_days,
			ease_factor = excluded.ease_factor,
			next_review_date = excluded.next_review_date,
			retention = excluded.retention,
			tags = excluded.tags,
			content_hash = excluded.content_hash,
			embedding = excluded.embedding,
			updated_at = excluded.updated_at
	`, n.ID.String(), n.Path, n.Title,
		n.Memory.RepetitionCount, n.Memory.IntervalDays, n.Memory.EaseFactor, n.Memory.NextReviewDate,
		n.Retention.String(), string(tags), n.ContentHash, string(emb), n.CreatedAt, n.UpdatedAt)
	if err != nil {
		return c.eb.Wrap(err, "failed to upsert note", goerr.T(errs.TagDatabase), goerr.V("id", n.ID))
	}

	// History rows are append-only in normal operation, but a wholesale
	// rewrite keeps the upsert idempotent for re-synced notes.
	if _, err := tx.ExecContext(ctx, `DELETE FROM review_history WHERE note_id = ?`, n.ID.String()); err != nil {
		return c.eb.Wrap(err, "failed to clear history", goerr.T(errs.TagDatabase), goerr.V("id", n.ID))
	}
	for _, rec := range n.History {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO review_history (note_id, reviewed_at, quality, mode, score)
			VALUES (?, ?, ?, ?, ?)
		`, n.ID.String(), rec.Timestamp, int(rec.Quality), rec.Mode.String(), rec.Score); err != nil {
			return c.eb.Wrap(err, "failed to insert history", goerr.T(errs.TagDatabase), goerr.V("id", n.ID))
		}
	}

	if err := tx.Commit(); err != nil {
		return c.eb.Wrap(err, "failed to commit note", goerr.T(errs.TagDatabase), goerr.V("id", n.ID))
	}
	return nil
}

func (c *Client) GetNote(ctx context.Context, id types.NoteID) (*note.Note, error) {
	row := c.db.QueryRowContext(ctx, noteSelect+` WHERE id = ?`, id.String())
	n, err := c.scanNote(row)
	if err == sql.ErrNoRows {
		return nil, c.eb.New("note not found", goerr.T(errs.TagNotFound), goerr.V("id", id))
	}
	if err != nil {
		return nil, err
	}
	return c.attachHistory(ctx, n)
}

func (c *Client) GetNoteByPath(ctx context.Context, path string) (*note.Note, error) {
	row := c.db.QueryRowContext(ctx, noteSelect+` WHERE path = ?`, path)
	n, err := c.scanNote(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return c.attachHistory(ctx, n)
}

func (c *Client) GetAllNotes(ctx context.Context) ([]*note.Note, error) {
	return c.queryNotes(ctx, noteSelect+` ORDER BY path`)
}

func (c *Client) GetUnintroducedNotes(ctx context.Context) ([]*note.Note, error) {
	cutoff := clock.Now(ctx).AddDate(introducedCutoffYears, 0, 0)
	return c.queryNotes(ctx,
		noteSelect+` WHERE repetition_count = 0 AND next_review_date > ? ORDER BY created_at`, cutoff)
}

func (c *Client) IntroduceNote(ctx context.Context, id types.NoteID) (bool, error) {
	now := clock.Now(ctx)
	cutoff := now.AddDate(introducedCutoffYears, 0, 0)
	res, err := c.db.ExecContext(ctx, `
		UPDATE notes SET next_review_date = ?, updated_at = ?
		WHERE id = ? AND repetition_count = 0 AND next_review_date > ?
	`, now, now, id.String(), cutoff)
	if err != nil {
		return false, c.eb.Wrap(err, "failed to introduce note", goerr.T(errs.TagDatabase), goerr.V("id", id))
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, c.eb.Wrap(err, "failed to read result", goerr.T(errs.TagDatabase))
	}
	return affected > 0, nil
}

func (c *Client) GetSessionState(ctx context.Context) (*session.State, error) {
	var data string
	err := c.db.QueryRowContext(ctx,
		`SELECT data FROM session_state WHERE key = ?`, sessionStateKey).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, c.eb.Wrap(err, "failed to load session state", goerr.T(errs.TagDatabase))
	}

	var st session.State
	if err := json.Unmarshal([]byte(data), &st); err != nil {
		return nil, c.eb.Wrap(err, "failed to decode session state")
	}
	return &st, nil
}

func (c *Client) PutSessionState(ctx context.Context, st *session.State) error {
	if st == nil {
		return c.eb.New("nil session state", goerr.T(errs.TagValidation))
	}
	data, err := json.Marshal(st)
	if err != nil {
		return c.eb.Wrap(err, "failed to encode session state")
	}

	_, err = c.db.ExecContext(ctx, `
		INSERT INTO session_state (key, data, updated_at) VALUES (?, ?, ?)
		ON CONFLICT (key) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at
	`, sessionStateKey, string(data), clock.Now(ctx))
	if err != nil {
		return c.eb.Wrap(err, "failed to save session state", goerr.T(errs.TagDatabase))
	}
	return nil
}

const noteSelect = `
	SELECT id, path, title, repetition_count, interval_days, ease_factor,
		next_review_date, retention, tags, content_hash, embedding, created_at, updated_at
	FROM notes`

type rowScanner interface {
	Scan(dest ...any) error
}

func (c *Client) scanNote(row rowScanner) (*note.Note, error) {
	var n note.Note
	var id, retention, tags, embedding string
	err := row.Scan(&id, &n.Path, &n.Title,
		&n.Memory.RepetitionCount, &n.Memory.IntervalDays, &n.Memory.EaseFactor,
		&n.Memory.NextReviewDate, &retention, &tags, &n.ContentHash, &embedding,
		&n.CreatedAt, &n.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, c.eb.Wrap(err, "failed to scan note", goerr.T(errs.TagDatabase))
	}

	n.ID = types.NoteID(id)
	n.Retention = types.RetentionLevel(retention)
	if err := json.Unmarshal([]byte(tags), &n.Tags); err != nil {
		return nil, c.eb.Wrap(err, "failed to decode tags", goerr.V("id", id))
	}
	if embedding != "" {
		var vec firestore.Vector32
		if err := json.Unmarshal([]byte(embedding), &vec); err != nil {
			return nil, c.eb.Wrap(err, "failed to decode embedding", goerr.V("id", id))
		}
		n.Embedding = vec
	}
	return &n, nil
}

func (c *Client) queryNotes(ctx context.Context, query string, args ...any) ([]*note.Note, error) {
	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, c.eb.Wrap(err, "failed to query notes", goerr.T(errs.TagDatabase))
	}
	defer func() { _ = rows.Close() }()

	var notes []*note.Note
	for rows.Next() {
		n, err := c.scanNote(rows)
		if err != nil {
			return nil, err
		}
		notes = append(notes, n)
	}
	if err := rows.Err(); err != nil {
		return nil, c.eb.Wrap(err, "failed to iterate notes", goerr.T(errs.TagDatabase))
	}

	for _, n := range notes {
		if _, err := c.attachHistory(ctx, n); err != nil {
			return nil, err
		}
	}
	return notes, nil
}

func (c *Client) attachHistory(ctx context.Context, n *note.Note) (*note.Note, error) {
	rows, err := c.db.QueryContext(ctx, `
		SELECT reviewed_at, quality, mode, score FROM review_history
		WHERE note_id = ? ORDER BY reviewed_at, id
	`, n.ID.String())
	if err != nil {
		return nil, c.eb.Wrap(err, "failed to query history", goerr.T(errs.TagDatabase), goerr.V("id", n.ID))
	}
	defer func() { _ = rows.Close() }()

	n.History = nil
	for rows.Next() {
		var rec note.ReviewRecord
		var quality int
		var mode string
		var score sql.NullFloat64
		if err := rows.Scan(&rec.Timestamp, &quality, &mode, &score); err != nil {
			return nil, c.eb.Wrap(err, "failed to scan history", goerr.T(errs.TagDatabase), goerr.V("id", n.ID))
		}
		rec.Quality = types.Quality(quality)
		rec.Mode = types.ReviewMode(mode)
		if score.Valid {
			v := score.Float64
			rec.Score = &v
		}
		n.History = append(n.History, rec)
	}
	return n, rows.Err()
}
