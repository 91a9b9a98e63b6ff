package internal

import (
	"github.com/lychee-technology/indexsync"
)

// ClassifyAspects returns the aspects that must be recomputed after an
// attribute's indexing configuration changed.
//
// When indexability toggles, the whole contribution of the attribute appears
// or disappears: the old mapping is returned when indexing was switched off and
// the new mapping when it was switched on. Otherwise only aspects added to or
// removed from the mapping are affected.
func ClassifyAspects(oldIsIndexable, newIsIndexable bool, oldMapping, newMapping indexsync.AspectSet) indexsync.AspectSet {
	if oldIsIndexable != newIsIndexable {
		if !newIsIndexable {
			return oldMapping.Clone()
		}
		return newMapping.Clone()
	}
	return oldMapping.SymmetricDifference(newMapping)
}

// ClassifyRawAspects parses stored mappings before classifying. Unknown tokens
// are dropped so a bad mapping never blocks the triggering save.
func ClassifyRawAspects(oldIsIndexable, newIsIndexable bool, oldMapping, newMapping string) indexsync.AspectSet {
	return ClassifyAspects(
		oldIsIndexable,
		newIsIndexable,
		indexsync.ParseAspectMapping(oldMapping),
		indexsync.ParseAspectMapping(newMapping),
	)
}
