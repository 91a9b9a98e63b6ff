package e2e_harness

import (
	"context"
	"database/sql"
	"fmt"
)

// Fixture attribute ids.
const (
	AttrName       int64 = 73
	AttrPrice      int64 = 77
	AttrNewsFrom   int64 = 93
	AttrStatus     int64 = 97
	AttrVisibility int64 = 99
)

// Fixture catalog:
//
//	1        simple product, name overridden in store 1, nulled in store 2
//	10       configurable parent of 11 and 12
//	11, 12   variants; 11 disabled in store 1, 12 out of stock
//	17       category under root 2, which only store 1's group uses
//
// SeedCatalog expects the default table names and the entity_id link field.
func SeedCatalog(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`INSERT INTO catalog_product_attribute
			(attribute_id, attribute_code, backend_type, is_watched, is_indexable, is_default, aspect_mapping)
		VALUES
			(73, 'name', 'varchar', TRUE, TRUE, FALSE, 'ATTRIBUTES'),
			(77, 'price', 'decimal', TRUE, TRUE, TRUE, 'PRICE'),
			(93, 'news_from_date', 'datetime', FALSE, FALSE, FALSE, NULL),
			(97, 'status', 'int', TRUE, TRUE, TRUE, '5,6'),
			(99, 'visibility', 'int', TRUE, TRUE, TRUE, 'VISIBILITY')`,
		`INSERT INTO catalog_product_entity (row_id, entity_id, type_id) VALUES
			(1, 1, 'simple'),
			(10, 10, 'configurable'),
			(11, 11, 'simple'),
			(12, 12, 'simple')`,
		`INSERT INTO catalog_product_super_link (product_id, parent_id) VALUES (11, 10), (12, 10)`,
		`INSERT INTO cataloginventory_stock_item (product_id, is_in_stock) VALUES
			(1, TRUE), (10, TRUE), (11, TRUE), (12, FALSE)`,
		`INSERT INTO catalog_product_entity_int (attribute_id, store_id, entity_id, value) VALUES
			(97, 0, 1, 1), (97, 0, 10, 1), (97, 0, 11, 1), (97, 0, 12, 1),
			(97, 1, 11, 2),
			(99, 0, 10, 4)`,
		`INSERT INTO catalog_product_entity_varchar (attribute_id, store_id, entity_id, value) VALUES
			(73, 0, 1, 'Shirt'), (73, 1, 1, 'Hemd'), (73, 2, 1, NULL)`,
		`INSERT INTO catalog_product_entity_decimal (attribute_id, store_id, entity_id, value) VALUES
			(77, 0, 1, 19.99)`,
		`INSERT INTO catalog_product_entity_datetime (attribute_id, store_id, entity_id, value) VALUES
			(93, 0, 1, '2024-03-01 08:30:00')`,
		`INSERT INTO catalog_category_entity (entity_id, path) VALUES (1, '1'), (2, '1/2'), (17, '1/2/17')`,
		`INSERT INTO store_group (group_id, root_category_id) VALUES (0, 0), (1, 2), (2, 30)`,
		`INSERT INTO store (store_id, group_id) VALUES (0, 0), (1, 1), (2, 2)`,
	}
	for i, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("seed statement %d: %w", i, err)
		}
	}
	return nil
}
