package internal

import (
	"context"
	"fmt"

	"github.com/lychee-technology/indexsync"
)

// ScopedValueRow is one stored value of an attribute. Value is nil for a row
// holding SQL NULL.
type ScopedValueRow struct {
	StoreID int64
	Value   *string
}

// AttributeValueStore loads the default-scope row and the store-scope row of
// one attribute for one entity.
type AttributeValueStore interface {
	ScopedValues(ctx context.Context, attr indexsync.AttributeDescriptor, linkID, storeID int64) ([]ScopedValueRow, error)
}

// PostgresAttributeValueStore reads the "<prefix>_<backend>" value tables.
type PostgresAttributeValueStore struct {
	pool      catalogPool
	prefix    string
	linkField string
}

func NewPostgresAttributeValueStore(pool catalogPool, prefix, linkField string) *PostgresAttributeValueStore {
	return &PostgresAttributeValueStore{pool: pool, prefix: prefix, linkField: linkField}
}

func (s *PostgresAttributeValueStore) ScopedValues(ctx context.Context, attr indexsync.AttributeDescriptor, linkID, storeID int64) ([]ScopedValueRow, error) {
	if !attr.BackendType.HasValueTable() {
		return nil, indexsync.NewUnsupportedBackendError(attr.Code, attr.BackendType)
	}

	stores := []int64{indexsync.DefaultStoreID}
	if storeID != indexsync.DefaultStoreID {
		stores = append(stores, storeID)
	}

	query := fmt.Sprintf(
		`SELECT store_id, value::text FROM %s WHERE attribute_id = $1 AND %s = $2 AND store_id = ANY($3)`,
		sanitizeIdentifier(attr.BackendType.ValueTable(s.prefix)),
		sanitizeIdentifier(s.linkField),
	)

	rows, err := s.pool.Query(ctx, query, attr.ID, linkID, stores)
	if err != nil {
		return nil, fmt.Errorf("query %s values: %w", attr.Code, err)
	}
	defer rows.Close()

	out := make([]ScopedValueRow, 0, len(stores))
	for rows.Next() {
		var row ScopedValueRow
		if err := rows.Scan(&row.StoreID, &row.Value); err != nil {
			return nil, fmt.Errorf("scan %s value: %w", attr.Code, err)
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s values: %w", attr.Code, err)
	}
	return out, nil
}
