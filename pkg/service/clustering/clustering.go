package clustering

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"math"
	"sort"
	"strings"

	"cloud.google.com/go/firestore"
	goerr "github.com/m-mizutani/goerr/v2"
	"github.com/notelab/recall/pkg/domain/model/errs"
	"github.com/notelab/recall/pkg/domain/model/note"
	"github.com/notelab/recall/pkg/domain/types"
	"github.com/notelab/recall/pkg/utils/embedding"
)

// Params controls the agglomerative merge.
type Params struct {
	// Threshold is the minimum single-link cosine similarity for a merge.
	Threshold float64
	// MaxGroupSize caps the member count of a merged group. Zero or
	// negative means unlimited.
	MaxGroupSize int
}

// Group is one similarity cluster of notes.
type Group struct {
	ID       types.ClusterID
	Label    string
	NoteIDs  []types.NoteID
	Centroid firestore.Vector32
	Cohesion float64
	Size     int
}

// Result is the outcome of one clustering pass. Groups hold two or more
// notes; everything else lands in UngroupedNoteIDs.
type Result struct {
	Groups           []*Group
	UngroupedNoteIDs []types.NoteID
	Params           Params
}

// Match is a similarity search hit.
type Match struct {
	NoteID     types.NoteID
	Similarity float64
}

// Service groups notes by embedding similarity.
type Service interface {
	// Cluster partitions the notes via single-linkage agglomerative
	// clustering over their embedding vectors. Notes without embeddings
	// are reported as ungrouped.
	Cluster(ctx context.Context, notes []*note.Note, params Params) (*Result, error)

	// FindMostSimilar returns up to topK candidates ranked by cosine
	// similarity to the target vector.
	FindMostSimilar(target firestore.Vector32, candidates []*note.Note, topK int) ([]Match, error)
}

func NewService() Service {
	return &service{}
}

type service struct{}

// CosineSimilarity computes dot(a,b)/(‖a‖‖b‖). Mismatched dimensions are a
// caller bug and fail fast; a zero-norm vector carries no signal and yields
// similarity 0.
func CosineSimilarity(a, b firestore.Vector32) (float64, error) {
	if len(a) != len(b) {
		return 0, goerr.New("embedding dimensions do not match",
			goerr.T(errs.TagValidation),
			goerr.V("len_a", len(a)), goerr.V("len_b", len(b)))
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0, nil
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB)), nil
}

func (s *service) Cluster(ctx context.Context, notes []*note.Note, params Params) (*Result, error) {
	result := &Result{Params: params}

	embedded := make([]*note.Note, 0, len(notes))
	for _, n := range notes {
		if len(n.Embedding) > 0 {
			embedded = append(embedded, n)
		} else {
			result.UngroupedNoteIDs = append(result.UngroupedNoteIDs, n.ID)
		}
	}

	if len(embedded) < 2 {
		for _, n := range embedded {
			result.UngroupedNoteIDs = append(result.UngroupedNoteIDs, n.ID)
		}
		return result, nil
	}

	sims, err := similarityMatrix(embedded)
	if err != nil {
		return nil, err
	}

	clusters := agglomerate(sims, params)

	for _, members := range clusters {
		if len(members) < 2 {
			result.UngroupedNoteIDs = append(result.UngroupedNoteIDs, embedded[members[0]].ID)
			continue
		}

		ids := make([]types.NoteID, len(members))
		vectors := make([]firestore.Vector32, len(members))
		for i, idx := range members {
			ids[i] = embedded[idx].ID
			vectors[i] = embedded[idx].Embedding
		}

		id := groupID(ids)
		result.Groups = append(result.Groups, &Group{
			ID:       id,
			Label:    groupLabel(id),
			NoteIDs:  ids,
			Centroid: embedding.Average(vectors),
			Cohesion: meanPairwise(sims, members),
			Size:     len(members),
		})
	}

	// Largest groups first; stable so equal sizes keep merge order.
	sort.SliceStable(result.Groups, func(i, j int) bool {
		return result.Groups[i].Size > result.Groups[j].Size
	})

	return result, nil
}

func (s *service) FindMostSimilar(target firestore.Vector32, candidates []*note.Note, topK int) ([]Match, error) {
	matches := make([]Match, 0, len(candidates))
	for _, n := range candidates {
		if len(n.Embedding) == 0 {
			continue
		}
		sim, err := CosineSimilarity(target, n.Embedding)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to compare candidate", goerr.V("note_id", n.ID))
		}
		matches = append(matches, Match{NoteID: n.ID, Similarity: sim})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Similarity > matches[j].Similarity
	})

	if topK >= 0 && topK < len(matches) {
		matches = matches[:topK]
	}
	return matches, nil
}

func similarityMatrix(notes []*note.Note) ([][]float64, error) {
	n := len(notes)
	sims := make([][]float64, n)
	for i := range sims {
		sims[i] = make([]float64, n)
		sims[i][i] = 1
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			sim, err := CosineSimilarity(notes[i].Embedding, notes[j].Embedding)
			if err != nil {
				return nil, goerr.Wrap(err, "failed to build similarity matrix",
					goerr.V("note_a", notes[i].ID), goerr.V("note_b", notes[j].ID))
			}
			sims[i][j] = sim
			sims[j][i] = sim
		}
	}
	return sims, nil
}

// agglomerate runs the single-linkage merge loop. Each round scans the
// active clusters in index order and merges the best-linked eligible pair.
// Ties keep the first pair encountered; selection uses a strict greater-than
// so the scan order is the tie-break.
func agglomerate(sims [][]float64, params Params) [][]int {
	clusters := make([][]int, len(sims))
	for i := range clusters {
		clusters[i] = []int{i}
	}

	for {
		bestSim := math.Inf(-1)
		bestI, bestJ := -1, -1

		for i := 0; i < len(clusters); i++ {
			for j := i + 1; j < len(clusters); j++ {
				if params.MaxGroupSize > 0 && len(clusters[i])+len(clusters[j]) > params.MaxGroupSize {
					continue
				}
				if sim := singleLink(sims, clusters[i], clusters[j]); sim > bestSim {
					bestSim = sim
					bestI, bestJ = i, j
				}
			}
		}

		if bestI < 0 || bestSim < params.Threshold {
			return clusters
		}

		clusters[bestI] = append(clusters[bestI], clusters[bestJ]...)
		clusters = append(clusters[:bestJ], clusters[bestJ+1:]...)
	}
}

// singleLink is the maximum pairwise similarity across two clusters.
func singleLink(sims [][]float64, a, b []int) float64 {
	best := math.Inf(-1)
	for _, i := range a {
		for _, j := range b {
			if sims[i][j] > best {
				best = sims[i][j]
			}
		}
	}
	return best
}

// meanPairwise is the cohesion of a cluster: the mean similarity over all
// member pairs.
func meanPairwise(sims [][]float64, members []int) float64 {
	if len(members) < 2 {
		return 0
	}
	var sum float64
	var count int
	for i := 0; i < len(members); i++ {
		for j := i + 1; j < len(members); j++ {
			sum += sims[members[i]][members[j]]
			count++
		}
	}
	return sum / float64(count)
}

// groupID derives a stable cluster identity from the sorted member IDs, so
// recomputing clusters over unchanged notes yields the same IDs and the
// per-cluster review history stays attached.
func groupID(memberIDs []types.NoteID) types.ClusterID {
	ids := make([]string, len(memberIDs))
	for i, id := range memberIDs {
		ids[i] = id.String()
	}
	sort.Strings(ids)
	sum := sha256.Sum256([]byte(strings.Join(ids, "\n")))
	return types.ClusterID(hex.EncodeToString(sum[:8]))
}

var labelAdjectives = []string{
	"swift", "brave", "bright", "clever", "gentle", "fierce", "quiet", "bold",
	"calm", "quick", "strong", "wise", "alert", "sharp", "agile", "keen",
	"vital", "smart", "fast", "noble", "proud", "steady", "fresh", "clear",
	"warm", "cool", "light", "deep", "soft", "hard", "wide", "tall",
}

var labelNouns = []string{
	"eagle", "tiger", "wolf", "bear", "fox", "hawk", "lion", "deer",
	"whale", "shark", "horse", "bird", "fish", "cat", "dog", "owl",
	"ram", "elk", "bee", "ant", "frog", "duck", "goat", "pig",
	"cow", "hen", "rat", "bat", "fly", "bug", "oak", "pine",
}

// groupLabel maps a cluster ID to a human-readable adjective-noun pair.
func groupLabel(id types.ClusterID) string {
	raw, err := hex.DecodeString(id.String())
	if err != nil || len(raw) < 8 {
		return "unknown-cluster"
	}
	v := binary.BigEndian.Uint64(raw[:8])
	adj := labelAdjectives[v%uint64(len(labelAdjectives))]
	noun := labelNouns[(v/uint64(len(labelAdjectives)))%uint64(len(labelNouns))]
	return adj + "-" + noun
}
