package embedding

import (
	"context"
	"encoding/json"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gollem"
)

const (
	// Dimension is the embedding size requested from the model. All vectors
	// stored alongside notes share this dimension.
	Dimension = 256
)

// Generate embeds arbitrary data via the LLM client. Non-string data is
// JSON-encoded first.
func Generate(ctx context.Context, client gollem.LLMClient, data any) (firestore.Vector32, error) {
	value, ok := data.(string)
	if !ok {
		raw, err := json.Marshal(data)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to marshal data")
		}
		value = string(raw)
	}

	embedding, err := client.GenerateEmbedding(ctx, Dimension, []string{value})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to generate embedding")
	}

	vector32 := make(firestore.Vector32, len(embedding[0]))
	for i, v := range embedding[0] {
		vector32[i] = float32(v)
	}
	return vector32, nil
}

// Average returns the arithmetic mean of the given vectors. An empty input
// yields an empty vector.
func Average(embeddings []firestore.Vector32) firestore.Vector32 {
	if len(embeddings) == 0 {
		return firestore.Vector32{}
	}

	dim := len(embeddings[0])
	sum := make([]float32, dim)

	for _, embedding := range embeddings {
		for i := 0; i < dim && i < len(embedding); i++ {
			sum[i] += embedding[i]
		}
	}

	avg := make(firestore.Vector32, dim)
	n := float32(len(embeddings))
	for i := range avg {
		avg[i] = sum[i] / n
	}

	return avg
}

// IsZero reports whether every component of the vector is zero. Zero vectors
// are rejected by Firestore vector fields and carry no similarity signal.
func IsZero(v firestore.Vector32) bool {
	for _, x := range v {
		if x != 0 {
			return false
		}
	}
	return true
}
