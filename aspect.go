package indexsync

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Aspect is a category of derived index data that a source attribute can feed.
type Aspect string

const (
	AspectNone       Aspect = "NONE"
	AspectAll        Aspect = "ALL"
	AspectAttributes Aspect = "ATTRIBUTES"
	AspectRelations  Aspect = "RELATIONS"
	AspectPrice      Aspect = "PRICE"
	AspectStock      Aspect = "STOCK"
	AspectVisibility Aspect = "VISIBILITY"
)

// aspectOrder is the canonical enum order. The numeric codes used by stored
// mappings are the indexes into this slice.
var aspectOrder = []Aspect{
	AspectNone,
	AspectAll,
	AspectAttributes,
	AspectRelations,
	AspectPrice,
	AspectStock,
	AspectVisibility,
}

// Code returns the numeric code of the aspect, or -1 when unknown.
func (a Aspect) Code() int {
	for i, candidate := range aspectOrder {
		if candidate == a {
			return i
		}
	}
	return -1
}

// IsValid reports whether a is one of the declared aspects.
func (a Aspect) IsValid() bool {
	return a.Code() >= 0
}

// ParseAspect accepts either the aspect name (case-insensitive) or its numeric code.
func ParseAspect(token string) (Aspect, bool) {
	token = strings.TrimSpace(token)
	if token == "" {
		return "", false
	}
	if n, err := strconv.Atoi(token); err == nil {
		if n < 0 || n >= len(aspectOrder) {
			return "", false
		}
		return aspectOrder[n], true
	}
	candidate := Aspect(strings.ToUpper(token))
	if !candidate.IsValid() {
		return "", false
	}
	return candidate, true
}

// AspectSet is an unordered set of aspects. The zero value is an empty set
// ready for reads; use NewAspectSet before adding.
type AspectSet map[Aspect]struct{}

// NewAspectSet builds a set from the given aspects. NONE is never stored.
func NewAspectSet(aspects ...Aspect) AspectSet {
	set := make(AspectSet, len(aspects))
	for _, a := range aspects {
		set.Add(a)
	}
	return set
}

// ParseAspectMapping parses a comma separated mapping such as "PRICE,STOCK" or
// "4,5". Unknown tokens are dropped. An empty mapping and a mapping of only
// NONE both parse to the empty set.
func ParseAspectMapping(raw string) AspectSet {
	set := NewAspectSet()
	for _, token := range strings.Split(raw, ",") {
		aspect, ok := ParseAspect(token)
		if !ok {
			continue
		}
		set.Add(aspect)
	}
	return set
}

// Add inserts a. NONE is the empty state and is ignored.
func (s AspectSet) Add(a Aspect) {
	if a == AspectNone || !a.IsValid() {
		return
	}
	s[a] = struct{}{}
}

// Has reports literal membership.
func (s AspectSet) Has(a Aspect) bool {
	_, ok := s[a]
	return ok
}

// Covers reports whether a is affected by this set, honouring ALL.
func (s AspectSet) Covers(a Aspect) bool {
	return s.Has(AspectAll) || s.Has(a)
}

func (s AspectSet) IsEmpty() bool {
	return len(s) == 0
}

// Equal reports whether both sets hold the same aspects.
func (s AspectSet) Equal(other AspectSet) bool {
	if len(s) != len(other) {
		return false
	}
	for a := range s {
		if !other.Has(a) {
			return false
		}
	}
	return true
}

// Clone returns an independent copy.
func (s AspectSet) Clone() AspectSet {
	out := make(AspectSet, len(s))
	for a := range s {
		out[a] = struct{}{}
	}
	return out
}

// Canonical returns a copy in which ALL, when present, replaces every other
// aspect.
func (s AspectSet) Canonical() AspectSet {
	if s.Has(AspectAll) {
		return NewAspectSet(AspectAll)
	}
	return s.Clone()
}

// SymmetricDifference returns the aspects present in exactly one of the sets.
func (s AspectSet) SymmetricDifference(other AspectSet) AspectSet {
	out := NewAspectSet()
	for a := range s {
		if !other.Has(a) {
			out.Add(a)
		}
	}
	for a := range other {
		if !s.Has(a) {
			out.Add(a)
		}
	}
	return out
}

// Slice returns the aspects in canonical enum order.
func (s AspectSet) Slice() []Aspect {
	out := make([]Aspect, 0, len(s))
	for a := range s {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code() < out[j].Code() })
	return out
}

// String renders the set as its storage form ("PRICE,STOCK").
func (s AspectSet) String() string {
	parts := make([]string, 0, len(s))
	for _, a := range s.Slice() {
		parts = append(parts, string(a))
	}
	return strings.Join(parts, ",")
}

// MarshalJSON renders the set as a list of aspect names in enum order.
func (s AspectSet) MarshalJSON() ([]byte, error) {
	names := make([]string, 0, len(s))
	for _, a := range s.Slice() {
		names = append(names, string(a))
	}
	return json.Marshal(names)
}

// UnmarshalJSON accepts a list of names or codes, or the comma separated
// storage form. Unknown tokens are rejected.
func (s *AspectSet) UnmarshalJSON(data []byte) error {
	var tokens []string
	var items []any
	if err := json.Unmarshal(data, &items); err == nil {
		for _, item := range items {
			tokens = append(tokens, fmt.Sprint(item))
		}
	} else {
		var raw string
		if err := json.Unmarshal(data, &raw); err != nil {
			return fmt.Errorf("aspect set must be a list or a string: %w", err)
		}
		for _, part := range strings.Split(raw, ",") {
			if strings.TrimSpace(part) != "" {
				tokens = append(tokens, part)
			}
		}
	}

	set := NewAspectSet()
	for _, token := range tokens {
		aspect, ok := ParseAspect(token)
		if !ok {
			return fmt.Errorf("unknown aspect %q", token)
		}
		set.Add(aspect)
	}
	*s = set
	return nil
}
