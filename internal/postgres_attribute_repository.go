package internal

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/lychee-technology/indexsync"
)

// catalogPool is the subset of pgxpool.Pool the catalog repositories use.
type catalogPool interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const attributeColumns = "attribute_id, attribute_code, backend_type, is_watched, is_indexable, is_default, aspect_mapping"

// PostgresAttributeRepository reads attribute configuration rows.
type PostgresAttributeRepository struct {
	pool  catalogPool
	table string
}

func NewPostgresAttributeRepository(pool catalogPool, table string) *PostgresAttributeRepository {
	return &PostgresAttributeRepository{pool: pool, table: table}
}

// GetAttribute implements indexsync.AttributeRegistry.
func (r *PostgresAttributeRepository) GetAttribute(ctx context.Context, code string) (indexsync.AttributeDescriptor, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE attribute_code = $1`, attributeColumns, sanitizeIdentifier(r.table))

	attr, err := scanAttribute(r.pool.QueryRow(ctx, query, code))
	if errors.Is(err, pgx.ErrNoRows) {
		return indexsync.AttributeDescriptor{}, indexsync.NewAttributeNotFoundError(code)
	}
	if err != nil {
		return indexsync.AttributeDescriptor{}, fmt.Errorf("load attribute %q: %w", code, err)
	}
	return attr, nil
}

// WatchedAttributeCodes implements indexsync.WatchedAttributeProvider.
func (r *PostgresAttributeRepository) WatchedAttributeCodes(ctx context.Context) ([]string, error) {
	return r.codes(ctx, "is_watched")
}

// DefaultAttributeCodes implements indexsync.DefaultAttributeProvider.
func (r *PostgresAttributeRepository) DefaultAttributeCodes(ctx context.Context) ([]string, error) {
	return r.codes(ctx, "is_default")
}

func (r *PostgresAttributeRepository) codes(ctx context.Context, flagColumn string) ([]string, error) {
	query := fmt.Sprintf(
		`SELECT attribute_code FROM %s WHERE %s ORDER BY attribute_code`,
		sanitizeIdentifier(r.table),
		sanitizeIdentifier(flagColumn),
	)
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query attribute codes by %s: %w", flagColumn, err)
	}
	defer rows.Close()

	codes := make([]string, 0)
	for rows.Next() {
		var code string
		if err := rows.Scan(&code); err != nil {
			return nil, fmt.Errorf("scan attribute code: %w", err)
		}
		codes = append(codes, code)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate attribute codes: %w", err)
	}
	return codes, nil
}

func scanAttribute(row pgx.Row) (indexsync.AttributeDescriptor, error) {
	var (
		id        int64
		code      string
		backend   string
		watched   bool
		indexable bool
		isDefault bool
		mapping   *string
	)
	if err := row.Scan(&id, &code, &backend, &watched, &indexable, &isDefault, &mapping); err != nil {
		return indexsync.AttributeDescriptor{}, err
	}

	backendType, ok := indexsync.ParseBackendType(backend)
	if !ok {
		return indexsync.AttributeDescriptor{}, indexsync.NewUnsupportedBackendError(code, indexsync.BackendType(backend))
	}

	aspects := indexsync.NewAspectSet()
	if mapping != nil {
		aspects = indexsync.ParseAspectMapping(*mapping)
	}

	return indexsync.AttributeDescriptor{
		ID:            id,
		Code:          code,
		BackendType:   backendType,
		IsWatched:     watched,
		IsIndexable:   indexable,
		IsDefault:     isDefault,
		AspectMapping: aspects,
	}, nil
}
