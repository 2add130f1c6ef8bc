package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/notelab/recall/pkg/cli/config"
	"github.com/notelab/recall/pkg/domain/types"
	"github.com/urfave/cli/v3"
)

func cmdIntroduce() *cli.Command {
	var (
		repoCfg   config.Repository
		geminiCfg config.GeminiCfg
		reviewCfg config.Review
	)

	return &cli.Command{
		Name:      "introduce",
		Usage:     "Introduce new notes into the review rotation",
		ArgsUsage: "[note-id...]",
		Flags:     joinFlags(repoCfg.Flags(), geminiCfg.Flags(), reviewCfg.Flags()),
		Action: func(ctx context.Context, c *cli.Command) error {
			uc, closer, err := buildUseCases(ctx, &repoCfg, &geminiCfg, &reviewCfg)
			if err != nil {
				return err
			}
			defer closer()

			var ids []types.NoteID
			for _, arg := range c.Args().Slice() {
				ids = append(ids, types.NoteID(arg))
			}

			// Without explicit IDs, introduce today's suggested new notes.
			if len(ids) == 0 {
				plan, err := uc.PlanToday(ctx)
				if err != nil {
					return err
				}
				for _, n := range plan.NewNotes {
					ids = append(ids, n.ID)
				}
			}

			introduced, err := uc.Introduce(ctx, ids)
			if err != nil {
				return err
			}

			if len(introduced) == 0 {
				fmt.Fprintln(os.Stdout, "No notes introduced (budget exhausted or nothing to introduce)")
				return nil
			}
			for _, id := range introduced {
				n, err := uc.GetNote(ctx, id)
				if err != nil {
					return err
				}
				fmt.Fprintf(os.Stdout, "Introduced: %s  %s\n", n.ID, n.Title)
			}
			return nil
		},
	}
}
