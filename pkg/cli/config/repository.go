package config

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/m-mizutani/goerr/v2"
	"github.com/notelab/recall/pkg/domain/interfaces"
	"github.com/notelab/recall/pkg/repository/firestore"
	"github.com/notelab/recall/pkg/repository/memory"
	"github.com/notelab/recall/pkg/repository/sqlite"
	"github.com/urfave/cli/v3"
)

// Repository selects the persistence backend. sqlite is the local-first
// default; firestore syncs state across machines; memory is for tests and
// throwaway runs.
type Repository struct {
	backend    string
	dbPath     string
	projectID  string
	databaseID string
}

func (x *Repository) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "db",
			Usage:       "Storage backend [sqlite|firestore|memory]",
			Category:    "Storage",
			Sources:     cli.EnvVars("RECALL_DB"),
			Value:       "sqlite",
			Destination: &x.backend,
		},
		&cli.StringFlag{
			Name:        "db-path",
			Usage:       "SQLite database file path",
			Category:    "Storage",
			Sources:     cli.EnvVars("RECALL_DB_PATH"),
			Destination: &x.dbPath,
		},
		&cli.StringFlag{
			Name:        "firestore-project-id",
			Usage:       "Firestore project ID",
			Category:    "Storage",
			Sources:     cli.EnvVars("RECALL_FIRESTORE_PROJECT_ID"),
			Destination: &x.projectID,
		},
		&cli.StringFlag{
			Name:        "firestore-database-id",
			Usage:       "Firestore database ID",
			Category:    "Storage",
			Sources:     cli.EnvVars("RECALL_FIRESTORE_DATABASE_ID"),
			Value:       "(default)",
			Destination: &x.databaseID,
		},
	}
}

func (x Repository) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("backend", x.backend),
		slog.String("db_path", x.dbPath),
		slog.String("project_id", x.projectID),
	)
}

func (x *Repository) Configure(ctx context.Context) (interfaces.Repository, error) {
	switch x.backend {
	case "sqlite":
		path := x.dbPath
		if path == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return nil, goerr.Wrap(err, "failed to resolve home directory for default db path")
			}
			dir := filepath.Join(home, ".recall")
			if err := os.MkdirAll(dir, 0o700); err != nil {
				return nil, goerr.Wrap(err, "failed to create data directory", goerr.V("dir", dir))
			}
			path = filepath.Join(dir, "recall.db")
		}
		return sqlite.New(ctx, path)

	case "firestore":
		if x.projectID == "" {
			return nil, goerr.New("firestore-project-id is required for the firestore backend")
		}
		return firestore.New(ctx, x.projectID, x.databaseID)

	case "memory":
		return memory.New(), nil

	default:
		return nil, goerr.New("unknown storage backend", goerr.V("backend", x.backend))
	}
}
