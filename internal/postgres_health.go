package internal

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
)

// HealthPool is the subset of pgxpool.Pool the health check needs.
type HealthPool interface {
	Ping(ctx context.Context) error
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// PostgresHealthCheck pings the catalog database and runs a trivial query.
// timeout may be 0 to use a sensible default (5s).
func PostgresHealthCheck(ctx context.Context, pool HealthPool, timeout time.Duration) error {
	if pool == nil {
		return fmt.Errorf("no database pool")
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := pool.Ping(ctx); err != nil {
		return fmt.Errorf("postgres ping failed: %w", err)
	}

	// Best-effort simple query to validate basic SQL execution.
	if _, err := pool.Exec(ctx, "SELECT 1"); err != nil {
		return fmt.Errorf("postgres simple query failed: %w", err)
	}
	return nil
}
