package types

import "github.com/m-mizutani/goerr/v2"

// RetentionLevel is a coarse mastery bucket derived from review history.
type RetentionLevel string

const (
	RetentionNovice       RetentionLevel = "novice"
	RetentionLearning     RetentionLevel = "learning"
	RetentionIntermediate RetentionLevel = "intermediate"
	RetentionAdvanced     RetentionLevel = "advanced"
	RetentionMastered     RetentionLevel = "mastered"
)

var retentionRanks = map[RetentionLevel]int{
	RetentionNovice:       0,
	RetentionLearning:     1,
	RetentionIntermediate: 2,
	RetentionAdvanced:     3,
	RetentionMastered:     4,
}

var retentionLabels = map[RetentionLevel]string{
	RetentionNovice:       "🌱 Novice",
	RetentionLearning:     "📖 Learning",
	RetentionIntermediate: "🌿 Intermediate",
	RetentionAdvanced:     "🌳 Advanced",
	RetentionMastered:     "⭐ Mastered",
}

func (l RetentionLevel) String() string {
	return string(l)
}

func (l RetentionLevel) Label() string {
	return retentionLabels[l]
}

// Rank returns the ordering position of the level, novice first.
func (l RetentionLevel) Rank() int {
	return retentionRanks[l]
}

func (l RetentionLevel) Validate() error {
	if _, ok := retentionRanks[l]; !ok {
		return goerr.New("invalid retention level", goerr.V("level", l))
	}
	return nil
}
