package internal

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
)

// CategoryStoreIDs implements indexsync.CategoryStoreResolver. A category is
// visible in every store whose store group is rooted at the category's tree
// root, the second element of its path.
func (r *PostgresCatalogRepository) CategoryStoreIDs(ctx context.Context, categoryID int64) ([]int64, error) {
	query := fmt.Sprintf(`SELECT path FROM %s WHERE entity_id = $1`, sanitizeIdentifier(r.tables.Category))

	var path string
	err := r.pool.QueryRow(ctx, query, categoryID).Scan(&path)
	if errors.Is(err, pgx.ErrNoRows) {
		return []int64{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query path of category %d: %w", categoryID, err)
	}

	rootID, ok := categoryRootID(path)
	if !ok {
		return []int64{}, nil
	}

	storeQuery := fmt.Sprintf(
		`SELECT s.store_id FROM %s s JOIN %s g ON g.group_id = s.group_id
			WHERE g.root_category_id = $1 AND s.store_id > 0
			ORDER BY s.store_id`,
		sanitizeIdentifier(r.tables.Store),
		sanitizeIdentifier(r.tables.StoreGroup),
	)
	rows, err := r.pool.Query(ctx, storeQuery, rootID)
	if err != nil {
		return nil, fmt.Errorf("query stores of root category %d: %w", rootID, err)
	}
	return collectIDs(rows)
}

// categoryRootID extracts the tree root from a path such as "1/2/17".
func categoryRootID(path string) (int64, bool) {
	parts := strings.Split(strings.Trim(path, "/ "), "/")
	if len(parts) < 2 {
		return 0, false
	}
	id, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
