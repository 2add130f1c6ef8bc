package config

import (
	"log/slog"

	"github.com/notelab/recall/pkg/usecase"
	"github.com/urfave/cli/v3"
)

// Review holds the daily budget and clustering knobs.
type Review struct {
	dailyLimit          int
	newPerDay           int
	similarityThreshold float64
	clusterMinSize      int
	maxGroupSize        int
}

func (x *Review) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{
			Name:        "daily-limit",
			Usage:       "Maximum reviews per day",
			Category:    "Review",
			Sources:     cli.EnvVars("RECALL_DAILY_LIMIT"),
			Value:       usecase.DefaultDailyLimit,
			Destination: &x.dailyLimit,
		},
		&cli.IntFlag{
			Name:        "new-per-day",
			Usage:       "Maximum new notes introduced per day",
			Category:    "Review",
			Sources:     cli.EnvVars("RECALL_NEW_PER_DAY"),
			Value:       usecase.DefaultNewPerDay,
			Destination: &x.newPerDay,
		},
		&cli.FloatFlag{
			Name:        "similarity-threshold",
			Usage:       "Minimum cosine similarity for cluster merges",
			Category:    "Clustering",
			Sources:     cli.EnvVars("RECALL_SIMILARITY_THRESHOLD"),
			Value:       usecase.DefaultSimilarityThreshold,
			Destination: &x.similarityThreshold,
		},
		&cli.IntFlag{
			Name:        "cluster-min-size",
			Usage:       "Minimum cluster size for focus sessions",
			Category:    "Clustering",
			Sources:     cli.EnvVars("RECALL_CLUSTER_MIN_SIZE"),
			Value:       3,
			Destination: &x.clusterMinSize,
		},
		&cli.IntFlag{
			Name:        "max-group-size",
			Usage:       "Maximum notes per cluster",
			Category:    "Clustering",
			Sources:     cli.EnvVars("RECALL_MAX_GROUP_SIZE"),
			Value:       usecase.DefaultMaxGroupSize,
			Destination: &x.maxGroupSize,
		},
	}
}

func (x Review) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("daily_limit", x.dailyLimit),
		slog.Int("new_per_day", x.newPerDay),
		slog.Float64("similarity_threshold", x.similarityThreshold),
		slog.Int("cluster_min_size", x.clusterMinSize),
		slog.Int("max_group_size", x.maxGroupSize),
	)
}

// Options translates the configuration into usecase options.
func (x *Review) Options() []usecase.Option {
	return []usecase.Option{
		usecase.WithDailyLimit(x.dailyLimit),
		usecase.WithNewPerDay(x.newPerDay),
		usecase.WithSimilarityThreshold(x.similarityThreshold),
		usecase.WithClusterMinSize(x.clusterMinSize),
		usecase.WithMaxGroupSize(x.maxGroupSize),
	}
}
