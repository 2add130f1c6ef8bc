package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/notelab/recall/pkg/cli/config"
	"github.com/notelab/recall/pkg/domain/types"
	"github.com/urfave/cli/v3"
)

func cmdStats() *cli.Command {
	var (
		repoCfg   config.Repository
		geminiCfg config.GeminiCfg
		reviewCfg config.Review
	)

	return &cli.Command{
		Name:  "stats",
		Usage: "Show collection statistics and today's progress",
		Flags: joinFlags(repoCfg.Flags(), geminiCfg.Flags(), reviewCfg.Flags()),
		Action: func(ctx context.Context, c *cli.Command) error {
			uc, closer, err := buildUseCases(ctx, &repoCfg, &geminiCfg, &reviewCfg)
			if err != nil {
				return err
			}
			defer closer()

			stats, err := uc.GetStats(ctx)
			if err != nil {
				return err
			}

			w := os.Stdout
			headerColor.Fprintln(w, "Collection")
			fmt.Fprintf(w, "  notes: %d (introduced %d)\n", stats.TotalNotes, stats.Introduced)
			fmt.Fprintf(w, "  due today: %d (overdue %d)\n", stats.DueToday, stats.Overdue)

			headerColor.Fprintln(w, "Today")
			fmt.Fprintf(w, "  reviewed: %d/%d\n", stats.ReviewedToday, stats.DailyLimit)
			fmt.Fprintf(w, "  new: %d/%d\n", stats.NewToday, stats.NewPerDay)
			if stats.ActiveSession != "" {
				fmt.Fprintf(w, "  session: %s (%s)\n", stats.ActiveSession, stats.SessionProgress)
			}

			headerColor.Fprintln(w, "Retention")
			for _, level := range []types.RetentionLevel{
				types.RetentionNovice,
				types.RetentionLearning,
				types.RetentionIntermediate,
				types.RetentionAdvanced,
				types.RetentionMastered,
			} {
				if count := stats.Retention[level]; count > 0 {
					fmt.Fprintf(w, "  %s: %d\n", level.Label(), count)
				}
			}
			return nil
		},
	}
}
