package entry

import "strings"

// EntryType names the kind of an entry. System types start with '%';
// everything else is an application type declared in the DNA.
type EntryType string

const (
	AgentIDType      EntryType = "%agent_id"
	DeletionType     EntryType = "%deletion"
	LinkAddType      EntryType = "%link_add"
	LinkRemoveType   EntryType = "%link_remove"
	ChainHeaderType  EntryType = "%chain_header"
	DnaType          EntryType = "%dna"
	ChainMigrateType EntryType = "%chain_migrate"
)

// IsSys reports whether the type is a system type.
func (t EntryType) IsSys() bool {
	return strings.HasPrefix(string(t), "%")
}

// IsApp reports whether the type is an application type.
func (t EntryType) IsApp() bool {
	return t != "" && !t.IsSys()
}

func (t EntryType) String() string {
	return string(t)
}
