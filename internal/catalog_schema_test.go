package internal

import (
	"strings"
	"testing"

	"github.com/lychee-technology/indexsync"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalogSchemaStatements_DefaultTables(t *testing.T) {
	stmts := CatalogSchemaStatements(indexsync.DefaultTableNames(), "")

	// 7 catalog tables, 2 of their indexes, 5 value tables with one index each.
	require.Len(t, stmts, 19)
	for _, stmt := range stmts {
		assert.Contains(t, stmt, "IF NOT EXISTS")
	}

	joined := strings.Join(stmts, "\n")
	assert.Contains(t, joined, `CREATE TABLE IF NOT EXISTS "catalog_product_attribute"`)
	assert.Contains(t, joined, `CREATE TABLE IF NOT EXISTS "catalog_product_entity_decimal"`)
	assert.Contains(t, joined, `CREATE TABLE IF NOT EXISTS "store_group"`)
	assert.Contains(t, joined, `"entity_id" BIGINT NOT NULL`)
	assert.Contains(t, joined, "NUMERIC(20,6)")
}

func TestCatalogSchemaStatements_RowLinkAndQualifiedNames(t *testing.T) {
	tables := indexsync.DefaultTableNames()
	tables.ValuePrefix = "catalog.product"

	stmts := CatalogSchemaStatements(tables, "row_id")
	joined := strings.Join(stmts, "\n")

	assert.Contains(t, joined, `"catalog"."product_int"`)
	assert.Contains(t, joined, `"row_id" BIGINT NOT NULL`)
	assert.Contains(t, joined, `"catalog_product_int_link_idx"`)
}

func TestMakeIndexName(t *testing.T) {
	assert.Equal(t, "store_parent_idx", makeIndexName("store", "parent"))
	assert.Equal(t, "public_store_parent_idx", makeIndexName(`public."store"`, "parent"))
}
