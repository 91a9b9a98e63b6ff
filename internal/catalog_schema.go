package internal

import (
	"fmt"
	"strings"

	"github.com/lychee-technology/indexsync"
)

// valueColumnTypes maps each value-table backend to its column type.
var valueColumnTypes = []struct {
	backend indexsync.BackendType
	sqlType string
}{
	{indexsync.BackendVarchar, "VARCHAR(255)"},
	{indexsync.BackendInt, "INTEGER"},
	{indexsync.BackendDecimal, "NUMERIC(20,6)"},
	{indexsync.BackendText, "TEXT"},
	{indexsync.BackendDatetime, "TIMESTAMP"},
}

// CatalogSchemaStatements returns the DDL creating every catalog table the
// repositories read, in dependency order. All statements are idempotent.
func CatalogSchemaStatements(tables indexsync.TableNames, linkField string) []string {
	if linkField == "" {
		linkField = "entity_id"
	}

	stmts := []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		attribute_id   BIGINT PRIMARY KEY,
		attribute_code VARCHAR(255) NOT NULL UNIQUE,
		backend_type   VARCHAR(16) NOT NULL,
		is_watched     BOOLEAN NOT NULL DEFAULT FALSE,
		is_indexable   BOOLEAN NOT NULL DEFAULT FALSE,
		is_default     BOOLEAN NOT NULL DEFAULT FALSE,
		aspect_mapping TEXT
	)`, sanitizeIdentifier(tables.Attribute)),

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		row_id    BIGSERIAL PRIMARY KEY,
		entity_id BIGINT NOT NULL,
		type_id   VARCHAR(32) NOT NULL DEFAULT 'simple'
	)`, sanitizeIdentifier(tables.Entity)),

		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s ON %s (entity_id, row_id)`,
			sanitizeIdentifier(makeIndexName(tables.Entity, "entity_id")),
			sanitizeIdentifier(tables.Entity)),

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		product_id BIGINT NOT NULL,
		parent_id  BIGINT NOT NULL,
		PRIMARY KEY (product_id, parent_id)
	)`, sanitizeIdentifier(tables.SuperLink)),

		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s ON %s (parent_id)`,
			sanitizeIdentifier(makeIndexName(tables.SuperLink, "parent")),
			sanitizeIdentifier(tables.SuperLink)),

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		product_id  BIGINT PRIMARY KEY,
		is_in_stock BOOLEAN NOT NULL DEFAULT FALSE
	)`, sanitizeIdentifier(tables.StockItem)),

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		entity_id BIGINT PRIMARY KEY,
		path      VARCHAR(255) NOT NULL
	)`, sanitizeIdentifier(tables.Category)),

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		group_id         BIGINT PRIMARY KEY,
		root_category_id BIGINT NOT NULL
	)`, sanitizeIdentifier(tables.StoreGroup)),

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		store_id BIGINT PRIMARY KEY,
		group_id BIGINT NOT NULL
	)`, sanitizeIdentifier(tables.Store)),
	}

	for _, vt := range valueColumnTypes {
		table := vt.backend.ValueTable(tables.ValuePrefix)
		stmts = append(stmts,
			fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		attribute_id BIGINT NOT NULL,
		store_id     BIGINT NOT NULL DEFAULT 0,
		%s BIGINT NOT NULL,
		value        %s,
		PRIMARY KEY (attribute_id, store_id, %s)
	)`, sanitizeIdentifier(table), sanitizeIdentifier(linkField), vt.sqlType, sanitizeIdentifier(linkField)),
			fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s ON %s (%s, attribute_id)`,
				sanitizeIdentifier(makeIndexName(table, "link")),
				sanitizeIdentifier(table),
				sanitizeIdentifier(linkField)),
		)
	}

	return stmts
}

func makeIndexName(table string, suffix string) string {
	base := strings.ReplaceAll(table, ".", "_")
	base = strings.ReplaceAll(base, `"`, "")
	return fmt.Sprintf("%s_%s_idx", base, suffix)
}
