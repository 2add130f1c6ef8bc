package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/notelab/recall/pkg/cli/config"
	"github.com/urfave/cli/v3"
)

func cmdClusters() *cli.Command {
	var (
		repoCfg   config.Repository
		geminiCfg config.GeminiCfg
		reviewCfg config.Review
	)

	return &cli.Command{
		Name:  "clusters",
		Usage: "Show similarity clusters of introduced notes",
		Flags: joinFlags(repoCfg.Flags(), geminiCfg.Flags(), reviewCfg.Flags()),
		Action: func(ctx context.Context, c *cli.Command) error {
			uc, closer, err := buildUseCases(ctx, &repoCfg, &geminiCfg, &reviewCfg)
			if err != nil {
				return err
			}
			defer closer()

			clusters, err := uc.ListClusters(ctx)
			if err != nil {
				return err
			}

			if len(clusters) == 0 {
				fmt.Fprintln(os.Stdout, "No clusters (not enough embedded notes, or embeddings disabled)")
				return nil
			}

			w := os.Stdout
			for _, cl := range clusters {
				headerColor.Fprintf(w, "%s  %s\n", cl.ID, cl.Label)
				fmt.Fprintf(w, "  members %d, due %d, cohesion %.2f\n", cl.TotalCount, cl.DueCount, cl.Cohesion)
				for _, id := range cl.NoteIDs {
					n, err := uc.GetNote(ctx, id)
					if err != nil {
						return err
					}
					fmt.Fprintf(w, "    %s %s\n", n.Retention.Label(), n.Title)
				}
			}
			return nil
		},
	}
}
