package eav

import (
	"fmt"
	"strings"
)

// Attribute names a relationship between an entity and a value.
type Attribute string

const (
	// CrudStatus holds the live/modified/deleted status of an entry.
	CrudStatus Attribute = "crud-status"
	// CrudLink points from an updated or deleted entry to its replacement.
	CrudLink Attribute = "crud-link"
	// EntryHeader points from an entry to one of its headers.
	EntryHeader Attribute = "entry-header"
	// Link points from a base to a link-add entry.
	Link Attribute = "link"
	// LinkRemove points from a base to a link-remove entry.
	LinkRemove Attribute = "link_remove"
	// PendingEntry marks an entry whose validation is pending.
	PendingEntry Attribute = "pending-entry"

	linkTagPrefix     = "link__"
	removedLinkPrefix = "removed_link__"
	tagSeparator      = "__"
)

// LinkTag is the attribute of a live link of the given type and tag, from a
// base to a target.
func LinkTag(linkType, tag string) Attribute {
	return Attribute(linkTagPrefix + linkType + tagSeparator + tag)
}

// RemovedLink is the tombstone of a LinkTag with the same type and tag.
func RemovedLink(linkType, tag string) Attribute {
	return Attribute(removedLinkPrefix + linkType + tagSeparator + tag)
}

// ParseLinkTag extracts the link type and tag from a LinkTag or RemovedLink
// attribute. removed is true for tombstones.
func ParseLinkTag(a Attribute) (linkType, tag string, removed bool, err error) {
	s := string(a)
	switch {
	case strings.HasPrefix(s, removedLinkPrefix):
		s = strings.TrimPrefix(s, removedLinkPrefix)
		removed = true
	case strings.HasPrefix(s, linkTagPrefix):
		s = strings.TrimPrefix(s, linkTagPrefix)
	default:
		return "", "", false, fmt.Errorf("%q is not a link attribute", a)
	}
	parts := strings.SplitN(s, tagSeparator, 2)
	if len(parts) != 2 {
		return "", "", false, fmt.Errorf("%q is missing a tag", a)
	}
	return parts[0], parts[1], removed, nil
}

// family groups attributes that supersede each other under
// LatestByAttribute: a link tag and its tombstone share a family.
func (a Attribute) family() string {
	if linkType, tag, _, err := ParseLinkTag(a); err == nil {
		return linkTagPrefix + linkType + tagSeparator + tag
	}
	return string(a)
}
