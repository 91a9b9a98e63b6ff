package e2e_harness

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"github.com/lychee-technology/indexsync"
	"github.com/lychee-technology/indexsync/internal"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// TestHarness runs a throwaway Postgres holding the catalog tables.
type TestHarness struct {
	PGContainer testcontainers.Container
	PGDSN       string
	PGDB        *sql.DB
}

// StartPostgres starts a postgres container and returns a DSN.
// It waits until Postgres is reachable. Caller is responsible for calling StopPostgres.
func (h *TestHarness) StartPostgres(ctx context.Context) (string, error) {
	req := testcontainers.ContainerRequest{
		Image:        "postgres:16",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_PASSWORD": "password",
			"POSTGRES_USER":     "postgres",
			"POSTGRES_DB":       "catalog",
		},
		WaitingFor: wait.ForListeningPort("5432/tcp").WithStartupTimeout(30 * time.Second),
	}
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return "", err
	}
	h.PGContainer = container

	host, err := container.Host(ctx)
	if err != nil {
		return "", err
	}
	mapped, err := container.MappedPort(ctx, "5432")
	if err != nil {
		return "", err
	}
	dsn := fmt.Sprintf("postgres://postgres:password@%s:%s/catalog?sslmode=disable", host, mapped.Port())
	h.PGDSN = dsn

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return "", err
	}
	// The port opens before the server accepts connections.
	deadline := time.Now().Add(20 * time.Second)
	for {
		if err := db.PingContext(ctx); err == nil {
			h.PGDB = db
			return dsn, nil
		}
		if time.Now().After(deadline) {
			db.Close()
			return "", fmt.Errorf("postgres did not become ready: %w", err)
		}
		time.Sleep(200 * time.Millisecond)
	}
}

// StopPostgres stops the Postgres container and closes DB handle.
func (h *TestHarness) StopPostgres(ctx context.Context) error {
	if h.PGDB != nil {
		h.PGDB.Close()
		h.PGDB = nil
	}
	if h.PGContainer != nil {
		if err := h.PGContainer.Terminate(ctx); err != nil {
			return err
		}
		h.PGContainer = nil
	}
	return nil
}

// ApplyCatalogSchema creates the catalog tables in one transaction.
func (h *TestHarness) ApplyCatalogSchema(ctx context.Context, tables indexsync.TableNames, linkField string) error {
	if h.PGDB == nil {
		return fmt.Errorf("postgres is not started")
	}
	tx, err := h.PGDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	for _, stmt := range internal.CatalogSchemaStatements(tables, linkField) {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("apply catalog schema: %w", err)
		}
	}
	return tx.Commit()
}
