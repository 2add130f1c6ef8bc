package cli_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/notelab/recall/pkg/cli"
)

func TestSyncAndStatsOverSQLite(t *testing.T) {
	vaultDir := t.TempDir()
	dbPath := filepath.Join(t.TempDir(), "recall.db")

	gt.NoError(t, os.WriteFile(filepath.Join(vaultDir, "tcp.md"),
		[]byte("---\ntitle: TCP Handshake\n---\nSYN, SYN-ACK, ACK.\n"), 0o644))
	gt.NoError(t, os.WriteFile(filepath.Join(vaultDir, "udp.md"),
		[]byte("Fire and forget.\n"), 0o644))

	ctx := context.Background()
	gt.NoError(t, cli.Run(ctx, []string{"recall", "sync",
		"--log-quiet",
		"--vault", vaultDir,
		"--db", "sqlite",
		"--db-path", dbPath,
	}))

	// The same database must be visible to the next invocation.
	gt.NoError(t, cli.Run(ctx, []string{"recall", "stats",
		"--log-quiet",
		"--db", "sqlite",
		"--db-path", dbPath,
	}))

	gt.NoError(t, cli.Run(ctx, []string{"recall", "plan",
		"--log-quiet",
		"--db", "sqlite",
		"--db-path", dbPath,
	}))
}

func TestUnknownBackendFails(t *testing.T) {
	gt.Error(t, cli.Run(context.Background(), []string{"recall", "stats",
		"--log-quiet",
		"--db", "etcd",
	}))
}
