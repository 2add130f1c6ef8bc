package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/notelab/recall/pkg/cli/config"
	"github.com/notelab/recall/pkg/domain/types"
	"github.com/urfave/cli/v3"
)

func cmdRate() *cli.Command {
	var (
		repoCfg   config.Repository
		geminiCfg config.GeminiCfg
		reviewCfg config.Review

		noteID  string
		quality int
		mode    string
		score   float64
	)

	flags := joinFlags(
		[]cli.Flag{
			&cli.StringFlag{
				Name:        "note-id",
				Aliases:     []string{"n"},
				Usage:       "Note to rate",
				Required:    true,
				Destination: &noteID,
			},
			&cli.IntFlag{
				Name:        "quality",
				Aliases:     []string{"Q"},
				Usage:       "Recall quality 0 (blank) to 5 (perfect)",
				Required:    true,
				Destination: &quality,
			},
			&cli.StringFlag{
				Name:        "mode",
				Usage:       "Review mode [flashcard|quiz|self_check]",
				Value:       string(types.ReviewModeFlashcard),
				Destination: &mode,
			},
			&cli.FloatFlag{
				Name:        "score",
				Usage:       "Optional quiz score (0.0-1.0)",
				Value:       -1,
				Destination: &score,
			},
		},
		repoCfg.Flags(), geminiCfg.Flags(), reviewCfg.Flags(),
	)

	return &cli.Command{
		Name:  "rate",
		Usage: "Record a review result for a note",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			uc, closer, err := buildUseCases(ctx, &repoCfg, &geminiCfg, &reviewCfg)
			if err != nil {
				return err
			}
			defer closer()

			var scorePtr *float64
			if score >= 0 {
				scorePtr = &score
			}

			n, err := uc.RecordReview(ctx, types.NoteID(noteID), types.Quality(quality), types.ReviewMode(mode), scorePtr)
			if err != nil {
				return err
			}

			fmt.Fprintf(os.Stdout, "%s %s: next review %s (interval %dd, ease %.2f)\n",
				n.Retention.Label(), n.Title,
				humanize.Time(n.Memory.NextReviewDate),
				n.Memory.IntervalDays, n.Memory.EaseFactor)
			return nil
		},
	}
}
