package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/urfave/cli/v3"

	"github.com/nurpe/haken-contracts/internal/config"
	"github.com/nurpe/haken-contracts/internal/db"
	"github.com/nurpe/haken-contracts/internal/importer"
	"github.com/nurpe/haken-contracts/internal/logger"
	"github.com/nurpe/haken-contracts/internal/repository"
)

func main() {
	args := os.Args
	if len(args) == 1 {
		args = append(args, "--help")
	}

	root := &cli.Command{
		Name:  "import-data",
		Usage: "Bulk import of master data from CSV",
		Commands: []*cli.Command{
			importCommand(),
			progressCommand(),
		},
	}
	if err := root.Run(context.Background(), args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func importCommand() *cli.Command {
	return &cli.Command{
		Name:      "import",
		Usage:     "Import a CSV file (UTF-8 or Shift_JIS)",
		ArgsUsage: "<path>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "kind", Required: true, Usage: "bank or staff"},
			&cli.StringFlag{Name: "tenant", Required: true, Usage: "tenant UUID"},
			&cli.StringFlag{Name: "task", Usage: "task ID for progress polling (generated when empty)"},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			path := c.Args().First()
			if path == "" {
				return fmt.Errorf("missing CSV path")
			}
			kind, err := importer.ParseKind(c.String("kind"))
			if err != nil {
				return err
			}
			tenantID, err := uuid.Parse(c.String("tenant"))
			if err != nil {
				return fmt.Errorf("invalid tenant: %w", err)
			}

			imp, log, cleanup, err := setup(ctx, true)
			if err != nil {
				return err
			}
			defer cleanup()

			file, err := os.Open(path)
			if err != nil {
				return err
			}
			defer file.Close()

			progress, err := imp.Import(ctx, kind, tenantID, file, c.String("task"))
			if progress != nil {
				log.Info().
					Str("task_id", progress.TaskID).
					Int("processed", progress.Processed).
					Int("imported", progress.Imported).
					Int("failed", progress.Failed).
					Msg("import finished")
				if printErr := printJSON(progress); printErr != nil {
					return printErr
				}
			}
			return err
		},
	}
}

func progressCommand() *cli.Command {
	return &cli.Command{
		Name:      "progress",
		Usage:     "Show the progress of an import task",
		ArgsUsage: "<task-id>",
		Action: func(ctx context.Context, c *cli.Command) error {
			taskID := c.Args().First()
			if taskID == "" {
				return fmt.Errorf("missing task ID")
			}
			imp, _, cleanup, err := setup(ctx, false)
			if err != nil {
				return err
			}
			defer cleanup()

			progress, err := imp.Progress(ctx, taskID)
			if err != nil {
				return err
			}
			return printJSON(progress)
		},
	}
}

// setup wires the importer. Progress lives in Redis when REDIS_ADDR is set,
// otherwise it is kept in process memory for the duration of the command.
func setup(ctx context.Context, withDB bool) (*importer.Importer, zerolog.Logger, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, zerolog.Nop(), nil, fmt.Errorf("load config: %w", err)
	}
	log := logger.New(cfg.Environment)

	var repo *repository.Repository
	if withDB {
		database, err := db.New(cfg, log)
		if err != nil {
			return nil, log, nil, err
		}
		repo = repository.New(database)
	}

	cleanup := func() {}
	var kv importer.KVStore = importer.NewMemoryKVStore()
	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, log, nil, fmt.Errorf("connect redis: %w", err)
		}
		kv = importer.NewRedisKVStore(client)
		cleanup = func() { _ = client.Close() }
	} else {
		log.Warn().Msg("REDIS_ADDR is not set; progress is not shared across processes")
	}

	return importer.New(repo, kv, cfg.Import.ProgressTTL, log), log, cleanup, nil
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
