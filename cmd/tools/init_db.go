package main

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lychee-technology/indexsync"
	"github.com/lychee-technology/indexsync/factory"
	"github.com/lychee-technology/indexsync/internal"
	"github.com/spf13/cobra"
)

type txBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

func newInitDBCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init-db",
		Short: "Create the catalog tables read by the detectors",
		RunE: func(cmd *cobra.Command, args []string) error {
			config, err := loadConfig()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			pool, err := factory.NewPoolFromConfig(ctx, config.Database)
			if err != nil {
				return err
			}
			defer pool.Close()

			if err := withTx(ctx, pool, func(tx pgx.Tx) error {
				return ensureTables(ctx, tx, config.Database.TableNames, config.Database.LinkField)
			}); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Database initialized successfully.")
			return nil
		},
	}
}

func ensureTables(ctx context.Context, tx execer, tables indexsync.TableNames, linkField string) error {
	for _, stmt := range internal.CatalogSchemaStatements(tables, linkField) {
		if _, err := tx.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure catalog tables: %w", err)
		}
	}
	return nil
}

func withTx(ctx context.Context, db txBeginner, fn func(pgx.Tx) error) error {
	tx, err := db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			return fmt.Errorf("%w; rollback failed: %v", err, rbErr)
		}
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func getenvDefault(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

func getenvDefaultInt(key string, def int) int {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
	}
	return def
}
