package internal

import (
	"context"
	"fmt"
)

// InStockFlags implements indexsync.StockRepository.
func (r *PostgresCatalogRepository) InStockFlags(ctx context.Context, productIDs []int64) (map[int64]bool, error) {
	flags := make(map[int64]bool, len(productIDs))
	if len(productIDs) == 0 {
		return flags, nil
	}

	query := fmt.Sprintf(
		`SELECT product_id, is_in_stock FROM %s WHERE product_id = ANY($1)`,
		sanitizeIdentifier(r.tables.StockItem),
	)
	rows, err := r.pool.Query(ctx, query, productIDs)
	if err != nil {
		return nil, fmt.Errorf("query stock items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			productID int64
			inStock   bool
		)
		if err := rows.Scan(&productID, &inStock); err != nil {
			return nil, fmt.Errorf("scan stock item: %w", err)
		}
		flags[productID] = inStock
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate stock items: %w", err)
	}
	return flags, nil
}
