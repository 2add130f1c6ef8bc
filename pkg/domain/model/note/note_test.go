package note_test

import (
	"context"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/notelab/recall/pkg/domain/model/note"
	"github.com/notelab/recall/pkg/domain/types"
	"github.com/notelab/recall/pkg/utils/clock"
)

func TestNewNote(t *testing.T) {
	fixed := time.Date(2026, 5, 10, 9, 0, 0, 0, time.UTC)
	ctx := clock.With(context.Background(), func() time.Time { return fixed })

	n := note.New(ctx, "topics/go/interfaces.md", "Interfaces")
	gt.NoError(t, n.Validate())
	gt.Equal(t, n.Memory.RepetitionCount, 0)
	gt.Equal(t, n.Memory.EaseFactor, 2.5)
	gt.False(t, n.Memory.Introduced(ctx))
	gt.Equal(t, n.Retention, types.RetentionNovice)
}

func TestMemoryStateValidate(t *testing.T) {
	ctx := context.Background()
	valid := note.NewMemoryState(ctx)
	gt.NoError(t, valid.Validate())

	low := valid
	low.EaseFactor = 1.2
	gt.Error(t, low.Validate())

	neg := valid
	neg.RepetitionCount = -1
	gt.Error(t, neg.Validate())
}

func TestRecordReview(t *testing.T) {
	fixed := time.Date(2026, 5, 10, 9, 0, 0, 0, time.UTC)
	ctx := clock.With(context.Background(), func() time.Time { return fixed })

	n := note.New(ctx, "a.md", "A")
	n.RecordReview(ctx, 4, types.ReviewModeFlashcard, nil)
	gt.Array(t, n.History).Length(1)
	gt.Equal(t, n.History[0].Quality, types.Quality(4))
	gt.Equal(t, n.UpdatedAt, fixed)
}

func TestRecentQualityAverage(t *testing.T) {
	ctx := context.Background()
	n := note.New(ctx, "a.md", "A")
	gt.Equal(t, n.RecentQualityAverage(5), 0.0)

	for _, q := range []types.Quality{5, 5, 3, 3, 4, 4} {
		n.RecordReview(ctx, q, types.ReviewModeFlashcard, nil)
	}
	// Last five: 5, 3, 3, 4, 4
	gt.Equal(t, n.RecentQualityAverage(5), 3.8)
	// Window larger than history uses everything
	gt.Equal(t, n.RecentQualityAverage(10), 4.0)
}
