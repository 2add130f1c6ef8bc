package note

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/notelab/recall/pkg/domain/types"
	"github.com/notelab/recall/pkg/utils/clock"
)

const (
	initialEaseFactor = 2.5

	// Unintroduced notes are parked a century out so they never show up in
	// due queries until IntroduceNote pulls the date back to today.
	unintroducedHorizonYears = 100
)

// MemoryState is the per-note scheduling state. It is replaced wholesale by
// the scheduler on every review; nothing else mutates it.
type MemoryState struct {
	RepetitionCount int       `firestore:"repetition_count" json:"repetition_count"`
	IntervalDays    int       `firestore:"interval_days" json:"interval_days"`
	EaseFactor      float64   `firestore:"ease_factor" json:"ease_factor"`
	NextReviewDate  time.Time `firestore:"next_review_date" json:"next_review_date"`
}

func (s MemoryState) Validate() error {
	if s.RepetitionCount < 0 {
		return goerr.New("negative repetition count", goerr.V("count", s.RepetitionCount))
	}
	if s.IntervalDays < 0 {
		return goerr.New("negative interval", goerr.V("interval_days", s.IntervalDays))
	}
	if s.EaseFactor < 1.3 {
		return goerr.New("ease factor below floor", goerr.V("ease_factor", s.EaseFactor))
	}
	return nil
}

// Introduced reports whether the note has entered the review rotation.
func (s MemoryState) Introduced(ctx context.Context) bool {
	if s.RepetitionCount > 0 {
		return true
	}
	return s.NextReviewDate.Before(clock.Now(ctx).AddDate(1, 0, 0))
}

// NewMemoryState returns the state of a freshly scanned, unintroduced note.
func NewMemoryState(ctx context.Context) MemoryState {
	return MemoryState{
		RepetitionCount: 0,
		IntervalDays:    0,
		EaseFactor:      initialEaseFactor,
		NextReviewDate:  clock.Now(ctx).AddDate(unintroducedHorizonYears, 0, 0),
	}
}

// ReviewRecord is one entry of a note's review history, newest last.
type ReviewRecord struct {
	Timestamp time.Time        `firestore:"timestamp" json:"timestamp"`
	Quality   types.Quality    `firestore:"quality" json:"quality"`
	Mode      types.ReviewMode `firestore:"mode" json:"mode"`
	Score     *float64         `firestore:"score,omitempty" json:"score,omitempty"`
}

// Note is a vault note under spaced-repetition management. The repository
// owns the canonical record; core services read it and return updated copies.
type Note struct {
	ID        types.NoteID         `firestore:"id" json:"id"`
	Path      string               `firestore:"path" json:"path"`
	Title     string               `firestore:"title" json:"title"`
	Memory    MemoryState          `firestore:"memory" json:"memory"`
	Retention types.RetentionLevel `firestore:"retention" json:"retention"`
	History   []ReviewRecord       `firestore:"history" json:"history"`
	Tags      []string             `firestore:"tags" json:"tags"`

	// ContentHash tracks the embedded content so embeddings are only
	// regenerated when the note body actually changes.
	ContentHash string             `firestore:"content_hash" json:"content_hash"`
	Embedding   firestore.Vector32 `firestore:"embedding" json:"-"`

	CreatedAt time.Time `firestore:"created_at" json:"created_at"`
	UpdatedAt time.Time `firestore:"updated_at" json:"updated_at"`
}

func New(ctx context.Context, path, title string) *Note {
	now := clock.Now(ctx)
	return &Note{
		ID:        types.NewNoteID(),
		Path:      path,
		Title:     title,
		Memory:    NewMemoryState(ctx),
		Retention: types.RetentionNovice,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (x *Note) Validate() error {
	if err := x.ID.Validate(); err != nil {
		return goerr.Wrap(err, "invalid note ID")
	}
	if x.Path == "" {
		return goerr.New("note path is required", goerr.V("id", x.ID))
	}
	if err := x.Memory.Validate(); err != nil {
		return goerr.Wrap(err, "invalid memory state", goerr.V("id", x.ID))
	}
	if x.Retention != "" {
		if err := x.Retention.Validate(); err != nil {
			return goerr.Wrap(err, "invalid retention level", goerr.V("id", x.ID))
		}
	}
	return nil
}

// RecordReview appends a history entry and stamps the update time. The
// memory state transition itself is the scheduler's job.
func (x *Note) RecordReview(ctx context.Context, q types.Quality, mode types.ReviewMode, score *float64) {
	now := clock.Now(ctx)
	x.History = append(x.History, ReviewRecord{
		Timestamp: now,
		Quality:   q,
		Mode:      mode,
		Score:     score,
	})
	x.UpdatedAt = now
}

// RecentQualityAverage returns the mean quality of the last n history
// entries, or 0 when the history is empty.
func (x *Note) RecentQualityAverage(n int) float64 {
	if len(x.History) == 0 || n <= 0 {
		return 0
	}
	start := len(x.History) - n
	if start < 0 {
		start = 0
	}
	recent := x.History[start:]
	var sum int
	for _, r := range recent {
		sum += int(r.Quality)
	}
	return float64(sum) / float64(len(recent))
}
