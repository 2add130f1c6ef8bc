package clustering

import (
	"sort"

	"github.com/notelab/recall/pkg/domain/types"
)

// DefaultMinGroupSize filters out clusters too small to make a coherent
// review session.
const DefaultMinGroupSize = 3

// Annotated is a similarity group decorated with due counts against the
// caller's current due set.
type Annotated struct {
	*Group
	DueCount   int
	TotalCount int
}

// Annotate marks each group with how many of its members are currently due
// and drops groups below minSize members. minSize of zero or less falls
// back to DefaultMinGroupSize. The transform is pure: input groups are not
// modified.
func Annotate(groups []*Group, dueIDs []types.NoteID, minSize int) []*Annotated {
	if minSize <= 0 {
		minSize = DefaultMinGroupSize
	}

	due := make(map[types.NoteID]bool, len(dueIDs))
	for _, id := range dueIDs {
		due[id] = true
	}

	annotated := make([]*Annotated, 0, len(groups))
	for _, g := range groups {
		if len(g.NoteIDs) < minSize {
			continue
		}
		dueCount := 0
		for _, id := range g.NoteIDs {
			if due[id] {
				dueCount++
			}
		}
		annotated = append(annotated, &Annotated{
			Group:      g,
			DueCount:   dueCount,
			TotalCount: len(g.NoteIDs),
		})
	}
	return annotated
}

// Rank orders clusters for presentation: most due members first, larger
// clusters breaking ties. Returns a sorted copy.
func Rank(clusters []*Annotated) []*Annotated {
	ranked := append([]*Annotated(nil), clusters...)
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].DueCount != ranked[j].DueCount {
			return ranked[i].DueCount > ranked[j].DueCount
		}
		return ranked[i].TotalCount > ranked[j].TotalCount
	})
	return ranked
}
