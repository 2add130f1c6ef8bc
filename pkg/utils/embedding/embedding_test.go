package embedding_test

import (
	"testing"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/gt"
	"github.com/notelab/recall/pkg/utils/embedding"
)

func TestAverage(t *testing.T) {
	t.Run("empty input", func(t *testing.T) {
		gt.Array(t, embedding.Average(nil)).Length(0)
	})

	t.Run("single vector", func(t *testing.T) {
		v := firestore.Vector32{1.0, 2.0, 3.0}
		gt.Equal(t, embedding.Average([]firestore.Vector32{v}), v)
	})

	t.Run("mean of two vectors", func(t *testing.T) {
		avg := embedding.Average([]firestore.Vector32{
			{1.0, 0.0, 2.0},
			{3.0, 4.0, 0.0},
		})
		gt.Equal(t, avg, firestore.Vector32{2.0, 2.0, 1.0})
	})
}

func TestIsZero(t *testing.T) {
	gt.True(t, embedding.IsZero(firestore.Vector32{0, 0, 0}))
	gt.True(t, embedding.IsZero(nil))
	gt.False(t, embedding.IsZero(firestore.Vector32{0, 0.001, 0}))
}
