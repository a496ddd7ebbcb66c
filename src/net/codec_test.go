package net

import (
	"bytes"
	"testing"

	"github.com/mosaicnetworks/sourcechain/src/cas"
	"github.com/mosaicnetworks/sourcechain/src/entry"
	"github.com/ugorji/go/codec"
)

func TestLinkRemoveAspectsSurviveMsgpack(t *testing.T) {
	link := entry.LinkData{Base: "0XBA5E", Target: "0X7A26E7", LinkType: "comment", Tag: "t"}

	cases := map[string][]cas.Address{
		"nil":   nil,
		"empty": {},
		"one":   {"0X01"},
	}

	for name, removed := range cases {
		e := entry.NewLinkRemoveEntry(link, removed)
		h := entry.ChainHeader{EntryType: entry.LinkRemoveType, EntryAddress: e.Address()}

		for _, aspect := range entry.PublishAspects(e, h) {
			var buf bytes.Buffer
			if err := codec.NewEncoder(&buf, msgpackHandle()).Encode(&aspect); err != nil {
				t.Fatalf("%s: encode %s: %v", name, aspect.Kind, err)
			}

			var out entry.EntryAspect
			if err := codec.NewDecoder(&buf, msgpackHandle()).Decode(&out); err != nil {
				t.Fatalf("%s: decode %s: %v", name, aspect.Kind, err)
			}

			got, _, err := out.ChainPair()
			if err != nil {
				t.Fatalf("%s: %s aspect lost its pairing: %v", name, aspect.Kind, err)
			}
			if got.Address() != e.Address() {
				t.Fatalf("%s: %s aspect address should be %s, not %s", name, aspect.Kind, e.Address(), got.Address())
			}
			if out.Address() != aspect.Address() {
				t.Fatalf("%s: %s aspect changed address in transit", name, aspect.Kind)
			}
		}
	}
}
