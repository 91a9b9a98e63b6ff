package internal

import (
	"slices"
	"strings"

	"github.com/lychee-technology/indexsync"
)

// StoreIntegration answers integration questions from the configured
// per-store API keys.
type StoreIntegration struct {
	keys map[int64]string
}

func NewStoreIntegration(keys map[int64]string) *StoreIntegration {
	clean := make(map[int64]string, len(keys))
	for storeID, key := range keys {
		if storeID <= indexsync.DefaultStoreID || strings.TrimSpace(key) == "" {
			continue
		}
		clean[storeID] = key
	}
	return &StoreIntegration{keys: clean}
}

// IsIntegrated reports whether storeID has an API key. The default store
// stands for all stores and counts as integrated when any store is.
func (s *StoreIntegration) IsIntegrated(storeID int64) bool {
	if storeID == indexsync.DefaultStoreID {
		return len(s.keys) > 0
	}
	_, ok := s.keys[storeID]
	return ok
}

// IntegratedStoreIDs returns the integrated stores in ascending order.
func (s *StoreIntegration) IntegratedStoreIDs() []int64 {
	ids := MapKeys(s.keys)
	slices.Sort(ids)
	return ids
}
