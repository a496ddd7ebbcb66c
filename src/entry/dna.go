package entry

import (
	"fmt"
	"os"

	"github.com/ugorji/go/codec"
)

// PackageKind selects what a validation package must contain.
type PackageKind string

const (
	// PackageEntry carries the header only.
	PackageEntry PackageKind = "Entry"
	// PackageChainEntries carries the entries before the header.
	PackageChainEntries PackageKind = "ChainEntries"
	// PackageChainHeaders carries the headers before the header.
	PackageChainHeaders PackageKind = "ChainHeaders"
	// PackageChainFull carries both.
	PackageChainFull PackageKind = "ChainFull"
	// PackageCustom carries an opaque string.
	PackageCustom PackageKind = "Custom"
)

// ValidationPackageDefinition is declared per entry type.
type ValidationPackageDefinition struct {
	Kind   PackageKind `json:"kind"`
	Custom string      `json:"custom,omitempty"`
}

// Sharing decides whether entries of a type leave their author's chain.
type Sharing string

const (
	Public  Sharing = "public"
	Private Sharing = "private"
)

// EntryTypeDef is the definition of an application entry type.
type EntryTypeDef struct {
	Sharing Sharing                     `json:"sharing"`
	Package ValidationPackageDefinition `json:"validation_package"`
}

// DNA holds the definitions of an application's entry types.
type DNA struct {
	Name       string                     `json:"name"`
	EntryTypes map[EntryType]EntryTypeDef `json:"entry_types"`
}

// NewDNA ...
func NewDNA(name string) *DNA {
	return &DNA{
		Name:       name,
		EntryTypes: make(map[EntryType]EntryTypeDef),
	}
}

// CanPublish reports whether entries of the type are published to the DHT.
// The DNA is never published; other system types always are.
func (d *DNA) CanPublish(t EntryType) bool {
	if t == DnaType {
		return false
	}
	if t.IsSys() {
		return true
	}
	def, ok := d.EntryTypes[t]
	return ok && def.Sharing != Private
}

// PackageDefinition returns the validation package definition of an entry
// type. System types need no context.
func (d *DNA) PackageDefinition(t EntryType) ValidationPackageDefinition {
	if def, ok := d.EntryTypes[t]; ok && t.IsApp() && def.Package.Kind != "" {
		return def.Package
	}
	return ValidationPackageDefinition{Kind: PackageEntry}
}

// LoadDNA reads a DNA from a JSON file.
func LoadDNA(path string) (*DNA, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	dna := NewDNA("")
	dec := codec.NewDecoder(f, new(codec.JsonHandle))
	if err := dec.Decode(dna); err != nil {
		return nil, fmt.Errorf("reading %s: %v", path, err)
	}

	for t := range dna.EntryTypes {
		if t.IsSys() {
			return nil, fmt.Errorf("%s: %q is a reserved entry type", path, t)
		}
	}

	return dna, nil
}
