package node

import (
	"crypto/ecdsa"

	"github.com/mosaicnetworks/sourcechain/src/crypto/keys"
)

//Agent holds the identity of the agent operating a node
type Agent struct {
	Key     *ecdsa.PrivateKey
	Moniker string

	pubHex string
}

//NewAgent is a factory method for an Agent
func NewAgent(key *ecdsa.PrivateKey, moniker string) *Agent {
	return &Agent{
		Key:     key,
		Moniker: moniker,
	}
}

//ID returns the agent's public key as a hex string. It is the identity found
//in the provenances of the agent's headers.
func (a *Agent) ID() string {
	if len(a.pubHex) == 0 {
		a.pubHex = keys.PublicKeyHex(&a.Key.PublicKey)
	}
	return a.pubHex
}
