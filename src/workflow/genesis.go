package workflow

import (
	"github.com/mosaicnetworks/sourcechain/src/crypto/keys"
	"github.com/mosaicnetworks/sourcechain/src/entry"
)

// Committed is an entry and the header it was committed with.
type Committed struct {
	Entry  *entry.Entry
	Header entry.ChainHeader
}

// Genesis starts an empty chain with the DNA entry followed by the agent's
// identity entry. Both are validated and committed but not published; the
// caller publishes them with PublishEntry once the network is up. A chain
// that already has a head is left alone and Genesis returns nothing.
func Genesis(wc *Context, nick string) ([]Committed, error) {
	if wc.Chain.Length() > 0 {
		return nil, nil
	}

	entries := []*entry.Entry{
		entry.NewDnaEntry(*wc.DNA),
		entry.NewAgentIDEntry(nick, keys.PublicKeyHex(&wc.Key.PublicKey)),
	}

	res := make([]Committed, 0, len(entries))
	for _, e := range entries {
		header, err := commitEntry(wc, e, "")
		if err != nil {
			authorEntryTotal.WithLabelValues(resultError).Inc()
			return res, err
		}
		authorEntryTotal.WithLabelValues(resultOk).Inc()
		res = append(res, Committed{Entry: e, Header: header})
	}

	wc.logger().WithField("chain_length", wc.Chain.Length()).Debug("Genesis")

	return res, nil
}
