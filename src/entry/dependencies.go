package entry

import "github.com/mosaicnetworks/sourcechain/src/cas"

// Dependencies lists the entries that must be validated before e can be.
func Dependencies(e *Entry, h ChainHeader) []cas.Address {
	switch e.Type {
	case LinkAddType:
		return []cas.Address{e.LinkAdd.Base, e.LinkAdd.Target}
	case LinkRemoveType:
		return []cas.Address{e.LinkRemove.Link.Base, e.LinkRemove.Link.Target}
	case ChainHeaderType:
		if e.ChainHeader.Link.IsEmpty() {
			return nil
		}
		return []cas.Address{e.ChainHeader.Link}
	case DeletionType:
		return []cas.Address{e.Deletion.Deleted}
	case AgentIDType, DnaType, ChainMigrateType:
		return nil
	}
	if h.LinkUpdateDelete.IsEmpty() {
		return nil
	}
	return []cas.Address{h.LinkUpdateDelete}
}
