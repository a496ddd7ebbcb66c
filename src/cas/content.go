package cas

import (
	"bytes"

	"github.com/mosaicnetworks/sourcechain/src/common"
	"github.com/mosaicnetworks/sourcechain/src/crypto"
	"github.com/ugorji/go/codec"
)

// Address is the content hash used as the key of every content-addressed
// lookup. The empty Address means "none".
type Address string

// String ...
func (a Address) String() string {
	return string(a)
}

// IsEmpty reports whether the address is unset.
func (a Address) IsEmpty() bool {
	return a == ""
}

// Content is the canonical serialization of a value.
type Content []byte

// Address hashes the content.
func (c Content) Address() Address {
	return Address(common.EncodeToString(crypto.SHA256(c)))
}

// Addressable is implemented by values that can be stored in a CAS. Most
// values are addressed by the hash of their Content, but a value may define
// its own address as long as it is a pure function of the content.
type Addressable interface {
	Address() Address
	Content() (Content, error)
}

func canonicalHandle() *codec.JsonHandle {
	jh := new(codec.JsonHandle)
	jh.Canonical = true
	return jh
}

// Marshal encodes v as canonical JSON: map keys are sorted so identical
// values always produce identical bytes.
func Marshal(v interface{}) (Content, error) {
	b := new(bytes.Buffer)
	enc := codec.NewEncoder(b, canonicalHandle())
	if err := enc.Encode(v); err != nil {
		return nil, common.WrapCoreErr(common.SerializationError, "", err)
	}
	return Content(b.Bytes()), nil
}

// Unmarshal decodes content produced by Marshal into v.
func Unmarshal(c Content, v interface{}) error {
	dec := codec.NewDecoderBytes(c, canonicalHandle())
	if err := dec.Decode(v); err != nil {
		return common.WrapCoreErr(common.SerializationError, string(c.Address()), err)
	}
	return nil
}

// AddressOf returns the address of v's canonical encoding.
func AddressOf(v interface{}) (Address, error) {
	c, err := Marshal(v)
	if err != nil {
		return "", err
	}
	return c.Address(), nil
}
