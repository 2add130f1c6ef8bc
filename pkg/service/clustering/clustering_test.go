package clustering_test

import (
	"context"
	"math"
	"testing"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/gt"
	"github.com/notelab/recall/pkg/domain/model/note"
	"github.com/notelab/recall/pkg/domain/types"
	"github.com/notelab/recall/pkg/service/clustering"
)

func embeddedNote(id string, vec firestore.Vector32) *note.Note {
	return &note.Note{ID: types.NoteID(id), Path: id + ".md", Embedding: vec}
}

func TestCosineSimilarity(t *testing.T) {
	t.Run("identical nonzero vector is 1", func(t *testing.T) {
		v := firestore.Vector32{0.3, 0.4, 0.5}
		sim := gt.R1(clustering.CosineSimilarity(v, v)).NoError(t)
		gt.True(t, math.Abs(sim-1.0) < 1e-6)
	})

	t.Run("symmetric", func(t *testing.T) {
		a := firestore.Vector32{1, 0, 0.5}
		b := firestore.Vector32{0.2, 1, 0}
		ab := gt.R1(clustering.CosineSimilarity(a, b)).NoError(t)
		ba := gt.R1(clustering.CosineSimilarity(b, a)).NoError(t)
		gt.Equal(t, ab, ba)
	})

	t.Run("zero vector gives 0", func(t *testing.T) {
		sim := gt.R1(clustering.CosineSimilarity(firestore.Vector32{0, 0}, firestore.Vector32{1, 1})).NoError(t)
		gt.Equal(t, sim, 0.0)
	})

	t.Run("dimension mismatch fails", func(t *testing.T) {
		_, err := clustering.CosineSimilarity(firestore.Vector32{1, 0}, firestore.Vector32{1, 0, 0})
		gt.Error(t, err)
	})
}

func TestCluster(t *testing.T) {
	ctx := context.Background()
	svc := clustering.NewService()

	t.Run("fewer than two notes", func(t *testing.T) {
		result := gt.R1(svc.Cluster(ctx, []*note.Note{
			embeddedNote("only", firestore.Vector32{1, 0, 0}),
		}, clustering.Params{Threshold: 0.3, MaxGroupSize: 10})).NoError(t)
		gt.Array(t, result.Groups).Length(0)
		gt.Equal(t, result.UngroupedNoteIDs, []types.NoteID{"only"})
	})

	t.Run("notes without embeddings are ungrouped", func(t *testing.T) {
		result := gt.R1(svc.Cluster(ctx, []*note.Note{
			{ID: "bare1"}, {ID: "bare2"},
		}, clustering.Params{Threshold: 0.3, MaxGroupSize: 10})).NoError(t)
		gt.Array(t, result.Groups).Length(0)
		gt.Array(t, result.UngroupedNoteIDs).Length(2)
	})

	t.Run("identical vectors form one cohesive group", func(t *testing.T) {
		v := firestore.Vector32{0.5, 0.5, 0}
		result := gt.R1(svc.Cluster(ctx, []*note.Note{
			embeddedNote("a", v), embeddedNote("b", v), embeddedNote("c", v),
		}, clustering.Params{Threshold: 0.3, MaxGroupSize: 10})).NoError(t)

		gt.Array(t, result.Groups).Length(1)
		g := result.Groups[0]
		gt.Equal(t, g.Size, 3)
		gt.True(t, math.Abs(g.Cohesion-1.0) < 1e-6)
		gt.Array(t, g.NoteIDs).Length(3)
		gt.Equal(t, g.Centroid, v)
	})

	t.Run("distant vectors stay apart", func(t *testing.T) {
		result := gt.R1(svc.Cluster(ctx, []*note.Note{
			embeddedNote("x", firestore.Vector32{1, 0, 0}),
			embeddedNote("y", firestore.Vector32{0, 1, 0}),
		}, clustering.Params{Threshold: 0.5, MaxGroupSize: 10})).NoError(t)
		gt.Array(t, result.Groups).Length(0)
		gt.Array(t, result.UngroupedNoteIDs).Length(2)
	})

	t.Run("no group exceeds max size", func(t *testing.T) {
		v := firestore.Vector32{1, 0}
		notes := make([]*note.Note, 7)
		for i := range notes {
			notes[i] = embeddedNote(string(rune('a'+i)), v)
		}
		result := gt.R1(svc.Cluster(ctx, notes, clustering.Params{Threshold: 0.3, MaxGroupSize: 3})).NoError(t)
		for _, g := range result.Groups {
			gt.True(t, g.Size <= 3)
		}
	})

	t.Run("two distinct groups", func(t *testing.T) {
		result := gt.R1(svc.Cluster(ctx, []*note.Note{
			embeddedNote("go1", firestore.Vector32{1, 0, 0}),
			embeddedNote("go2", firestore.Vector32{0.99, 0.01, 0}),
			embeddedNote("db1", firestore.Vector32{0, 1, 0}),
			embeddedNote("db2", firestore.Vector32{0.01, 0.99, 0}),
		}, clustering.Params{Threshold: 0.8, MaxGroupSize: 10})).NoError(t)
		gt.Array(t, result.Groups).Length(2)
		gt.Array(t, result.UngroupedNoteIDs).Length(0)
	})

	t.Run("stable group identity across runs", func(t *testing.T) {
		notes := func() []*note.Note {
			return []*note.Note{
				embeddedNote("p", firestore.Vector32{1, 0}),
				embeddedNote("q", firestore.Vector32{0.9, 0.1}),
			}
		}
		params := clustering.Params{Threshold: 0.5, MaxGroupSize: 10}
		first := gt.R1(svc.Cluster(ctx, notes(), params)).NoError(t)
		second := gt.R1(svc.Cluster(ctx, notes(), params)).NoError(t)
		gt.Array(t, first.Groups).Length(1)
		gt.Array(t, second.Groups).Length(1)
		gt.Equal(t, first.Groups[0].ID, second.Groups[0].ID)
		gt.Equal(t, first.Groups[0].Label, second.Groups[0].Label)
	})

	t.Run("tie-break keeps first encountered pair", func(t *testing.T) {
		// a-b and c-d have identical link similarity; with MaxGroupSize 2
		// both merges happen, and the first-encountered pair (a,b) merges
		// first on every run.
		run := func() *clustering.Result {
			return gt.R1(svc.Cluster(ctx, []*note.Note{
				embeddedNote("a", firestore.Vector32{1, 0}),
				embeddedNote("b", firestore.Vector32{1, 0}),
				embeddedNote("c", firestore.Vector32{0, 1}),
				embeddedNote("d", firestore.Vector32{0, 1}),
			}, clustering.Params{Threshold: 0.9, MaxGroupSize: 2})).NoError(t)
		}
		first := run()
		gt.Array(t, first.Groups).Length(2)
		for i := 0; i < 5; i++ {
			again := run()
			gt.Equal(t, again.Groups[0].ID, first.Groups[0].ID)
			gt.Equal(t, again.Groups[1].ID, first.Groups[1].ID)
		}
	})
}

func TestFindMostSimilar(t *testing.T) {
	svc := clustering.NewService()
	target := firestore.Vector32{1, 0, 0}
	candidates := []*note.Note{
		embeddedNote("far", firestore.Vector32{0, 1, 0}),
		embeddedNote("close", firestore.Vector32{0.9, 0.1, 0}),
		embeddedNote("exact", firestore.Vector32{1, 0, 0}),
		{ID: "bare"},
	}

	t.Run("ranked by similarity", func(t *testing.T) {
		matches := gt.R1(svc.FindMostSimilar(target, candidates, 2)).NoError(t)
		gt.Array(t, matches).Length(2)
		gt.Equal(t, matches[0].NoteID, types.NoteID("exact"))
		gt.Equal(t, matches[1].NoteID, types.NoteID("close"))
	})

	t.Run("topK beyond candidate count returns all", func(t *testing.T) {
		matches := gt.R1(svc.FindMostSimilar(target, candidates, 100)).NoError(t)
		gt.Array(t, matches).Length(3)
	})
}
