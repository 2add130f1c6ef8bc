package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/notelab/recall/pkg/cli/config"
	"github.com/notelab/recall/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

func cmdSync() *cli.Command {
	var (
		vaultCfg  config.Vault
		repoCfg   config.Repository
		geminiCfg config.GeminiCfg
		reviewCfg config.Review
	)

	return &cli.Command{
		Name:  "sync",
		Usage: "Scan the vault and reconcile notes with the store",
		Flags: joinFlags(vaultCfg.Flags(), repoCfg.Flags(), geminiCfg.Flags(), reviewCfg.Flags()),
		Action: func(ctx context.Context, c *cli.Command) error {
			uc, closer, err := buildUseCases(ctx, &repoCfg, &geminiCfg, &reviewCfg)
			if err != nil {
				return err
			}
			defer closer()

			logging.From(ctx).Info("syncing vault", "vault", vaultCfg)

			report, err := uc.SyncVault(ctx, vaultCfg.Configure())
			if err != nil {
				return err
			}

			fmt.Fprintf(os.Stdout, "Added: %d, Updated: %d, Unchanged: %d, Embedded: %d\n",
				report.Added, report.Updated, report.Unchanged, report.Embedded)
			return nil
		},
	}
}
