package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/notelab/recall/pkg/cli/config"
	"github.com/notelab/recall/pkg/domain/model/note"
	"github.com/urfave/cli/v3"
)

var (
	headerColor = color.New(color.FgCyan, color.Bold)
	labelColor  = color.New(color.FgYellow)
	dimColor    = color.New(color.FgHiBlack)
)

func cmdPlan() *cli.Command {
	var (
		repoCfg   config.Repository
		geminiCfg config.GeminiCfg
		reviewCfg config.Review
	)

	return &cli.Command{
		Name:  "plan",
		Usage: "Show today's review plan",
		Flags: joinFlags(repoCfg.Flags(), geminiCfg.Flags(), reviewCfg.Flags()),
		Action: func(ctx context.Context, c *cli.Command) error {
			uc, closer, err := buildUseCases(ctx, &repoCfg, &geminiCfg, &reviewCfg)
			if err != nil {
				return err
			}
			defer closer()

			plan, err := uc.PlanToday(ctx)
			if err != nil {
				return err
			}

			w := os.Stdout
			headerColor.Fprintf(w, "Reviews (%d)\n", len(plan.Reviews))
			if sess := plan.State.CurrentSession; sess != nil {
				labelColor.Fprintf(w, "  focus session: %s [%s]\n", sess.ClusterLabel, sess.Status.Label())
			}
			for _, n := range plan.Reviews {
				printNoteLine(n)
			}

			if len(plan.NewNotes) > 0 {
				headerColor.Fprintf(w, "\nNew notes (%d)\n", len(plan.NewNotes))
				for _, n := range plan.NewNotes {
					fmt.Fprintf(w, "  %s  %s\n", n.ID, n.Title)
				}
			}

			if len(plan.Clusters) > 0 {
				headerColor.Fprintf(w, "\nClusters (%d)\n", len(plan.Clusters))
				for _, cl := range plan.Clusters {
					fmt.Fprintf(w, "  %s  %s  due %d/%d  cohesion %.2f\n",
						cl.ID, cl.Label, cl.DueCount, cl.TotalCount, cl.Cohesion)
				}
			}

			return nil
		},
	}
}

func printNoteLine(n *note.Note) {
	w := os.Stdout
	fmt.Fprintf(w, "  %s  %s %s", n.ID, n.Retention.Label(), n.Title)
	dimColor.Fprintf(w, "  (due %s)\n", humanize.Time(n.Memory.NextReviewDate))
}
