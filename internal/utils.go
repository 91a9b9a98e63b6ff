package internal

import (
	"strings"

	"github.com/jackc/pgx/v5"
)

func sanitizeIdentifier(name string) string {
	if name == "" {
		return ""
	}
	parts := strings.Split(name, ".")
	clean := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.Trim(part, " \"")
		if trimmed == "" {
			continue
		}
		clean = append(clean, trimmed)
	}
	if len(clean) == 0 {
		clean = []string{name}
	}
	return pgx.Identifier(clean).Sanitize()
}

// storeScope turns a single store id into a record store list: the default
// store means all stores, which is the empty list.
func storeScope(storeID int64) []int64 {
	if storeID <= 0 {
		return []int64{}
	}
	return []int64{storeID}
}
