package eav

import (
	"sort"
	"time"

	"github.com/mosaicnetworks/sourcechain/src/cas"
)

// EAVI is an entity-attribute-value triple with an index that orders triples
// in time.
type EAVI struct {
	Entity    cas.Address `json:"entity"`
	Attribute Attribute   `json:"attribute"`
	Value     cas.Address `json:"value"`
	Index     int64       `json:"index"`
}

// NewEAVI creates an EAVI indexed with the current time.
func NewEAVI(entity cas.Address, attribute Attribute, value cas.Address) EAVI {
	return EAVI{
		Entity:    entity,
		Attribute: attribute,
		Value:     value,
		Index:     time.Now().UnixNano(),
	}
}

// IndexKind selects how a query treats the index of matching triples.
type IndexKind int

const (
	// Range returns every match whose index lies in [Start, End].
	Range IndexKind = iota
	// LatestByAttribute returns, for every entity, attribute family and
	// value, only the most recent match.
	LatestByAttribute
)

// IndexFilter ...
type IndexFilter struct {
	Kind  IndexKind
	Start *int64
	End   *int64
}

// AttributeMatcher selects attributes.
type AttributeMatcher func(Attribute) bool

// Exactly matches a fixed set of attributes.
func Exactly(attributes ...Attribute) AttributeMatcher {
	return func(a Attribute) bool {
		for _, candidate := range attributes {
			if a == candidate {
				return true
			}
		}
		return false
	}
}

// Query filters the contents of a Store. Empty Entities or Values and a nil
// Attributes matcher match anything. When Tombstone is set, groups whose most
// recent triple matches it are dropped from a LatestByAttribute query.
type Query struct {
	Entities   []cas.Address
	Attributes AttributeMatcher
	Values     []cas.Address
	Index      IndexFilter
	Tombstone  AttributeMatcher
}

func containsAddress(set []cas.Address, a cas.Address) bool {
	if len(set) == 0 {
		return true
	}
	for _, s := range set {
		if s == a {
			return true
		}
	}
	return false
}

// Matches reports whether a single triple passes the entity, attribute,
// value and range constraints of the query.
func (q Query) Matches(e EAVI) bool {
	if !containsAddress(q.Entities, e.Entity) {
		return false
	}
	if q.Attributes != nil && !q.Attributes(e.Attribute) {
		return false
	}
	if !containsAddress(q.Values, e.Value) {
		return false
	}
	if q.Index.Kind == Range {
		if q.Index.Start != nil && e.Index < *q.Index.Start {
			return false
		}
		if q.Index.End != nil && e.Index > *q.Index.End {
			return false
		}
	}
	return true
}

// Run applies the query to a set of triples and returns the result sorted by
// index.
func (q Query) Run(all []EAVI) []EAVI {
	res := []EAVI{}
	for _, e := range all {
		if q.Matches(e) {
			res = append(res, e)
		}
	}
	sortByIndex(res)

	if q.Index.Kind != LatestByAttribute {
		return res
	}

	type groupKey struct {
		entity cas.Address
		family string
		value  cas.Address
	}

	latest := make(map[groupKey]EAVI)
	for _, e := range res {
		latest[groupKey{e.Entity, e.Attribute.family(), e.Value}] = e
	}

	filtered := []EAVI{}
	for _, e := range latest {
		if q.Tombstone != nil && q.Tombstone(e.Attribute) {
			continue
		}
		filtered = append(filtered, e)
	}
	sortByIndex(filtered)

	return filtered
}

func sortByIndex(s []EAVI) {
	sort.SliceStable(s, func(i, j int) bool {
		return s[i].Index < s[j].Index
	})
}
