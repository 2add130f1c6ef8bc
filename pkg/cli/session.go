package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/notelab/recall/pkg/cli/config"
	"github.com/notelab/recall/pkg/domain/model/session"
	"github.com/notelab/recall/pkg/domain/types"
	"github.com/urfave/cli/v3"
)

func cmdSession() *cli.Command {
	var (
		repoCfg   config.Repository
		geminiCfg config.GeminiCfg
		reviewCfg config.Review
	)

	flags := joinFlags(repoCfg.Flags(), geminiCfg.Flags(), reviewCfg.Flags())

	return &cli.Command{
		Name:  "session",
		Usage: "Inspect and control the focus session",
		Commands: []*cli.Command{
			{
				Name:  "show",
				Usage: "Show the current focus session",
				Flags: flags,
				Action: func(ctx context.Context, c *cli.Command) error {
					uc, closer, err := buildUseCases(ctx, &repoCfg, &geminiCfg, &reviewCfg)
					if err != nil {
						return err
					}
					defer closer()

					sess, err := uc.CurrentSession(ctx)
					if err != nil {
						return err
					}
					if sess == nil {
						fmt.Fprintln(os.Stdout, "No current session")
						return nil
					}
					printSession(sess)
					return nil
				},
			},
			{
				Name:      "start",
				Usage:     "Start a focus session for a cluster",
				ArgsUsage: "<cluster-id>",
				Flags:     flags,
				Action: func(ctx context.Context, c *cli.Command) error {
					uc, closer, err := buildUseCases(ctx, &repoCfg, &geminiCfg, &reviewCfg)
					if err != nil {
						return err
					}
					defer closer()

					sess, err := uc.StartClusterSession(ctx, types.ClusterID(c.Args().First()))
					if err != nil {
						return err
					}
					printSession(sess)
					return nil
				},
			},
			{
				Name:  "pause",
				Usage: "Pause the current session",
				Flags: flags,
				Action: func(ctx context.Context, c *cli.Command) error {
					uc, closer, err := buildUseCases(ctx, &repoCfg, &geminiCfg, &reviewCfg)
					if err != nil {
						return err
					}
					defer closer()

					sess, err := uc.PauseSession(ctx)
					if err != nil {
						return err
					}
					printSession(sess)
					return nil
				},
			},
			{
				Name:  "resume",
				Usage: "Resume a paused session",
				Flags: flags,
				Action: func(ctx context.Context, c *cli.Command) error {
					uc, closer, err := buildUseCases(ctx, &repoCfg, &geminiCfg, &reviewCfg)
					if err != nil {
						return err
					}
					defer closer()

					sess, err := uc.ResumeSession(ctx)
					if err != nil {
						return err
					}
					printSession(sess)
					return nil
				},
			},
		},
	}
}

func printSession(sess *session.FocusSession) {
	w := os.Stdout
	headerColor.Fprintf(w, "%s  %s\n", sess.ClusterLabel, sess.Status.Label())
	done := len(sess.NoteIDs) - len(sess.RemainingNoteIDs)
	fmt.Fprintf(w, "  progress %d/%d, started %s\n", done, len(sess.NoteIDs), humanize.Time(sess.StartedAt))
	for _, id := range sess.RemainingNoteIDs {
		fmt.Fprintf(w, "  remaining: %s\n", id)
	}
}
