package config

import (
	"log/slog"

	"github.com/notelab/recall/pkg/service/vault"
	"github.com/urfave/cli/v3"
)

type Vault struct {
	path string
}

func (x *Vault) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "vault",
			Usage:       "Path to the markdown vault",
			Category:    "Vault",
			Aliases:     []string{"v"},
			Required:    true,
			Sources:     cli.EnvVars("RECALL_VAULT"),
			Destination: &x.path,
		},
	}
}

func (x Vault) LogValue() slog.Value {
	return slog.GroupValue(slog.String("path", x.path))
}

func (x *Vault) Configure() *vault.Service {
	return vault.New(x.path)
}
