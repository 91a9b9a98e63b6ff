package internal

import (
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
)

func TestSanitizeIdentifier(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "empty", input: "", expected: ""},
		{name: "plain table", input: "catalog_product_entity", expected: `"catalog_product_entity"`},
		{name: "trim quotes and spaces", input: `  "a" . "b" .. "c"  `, expected: pgx.Identifier{"a", "b", "c"}.Sanitize()},
		{name: "schema qualified", input: `catalog."Product Values"`, expected: pgx.Identifier{"catalog", "Product Values"}.Sanitize()},
		{name: "all empty parts fallback", input: "...", expected: pgx.Identifier{"..."}.Sanitize()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, sanitizeIdentifier(tt.input))
		})
	}
}

func TestStoreScope(t *testing.T) {
	assert.Equal(t, []int64{}, storeScope(0))
	assert.Equal(t, []int64{}, storeScope(-1))
	assert.Equal(t, []int64{3}, storeScope(3))
}
