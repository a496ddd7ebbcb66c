// Package sourcechain puts together the components of a sourcechain node.
//
// An Engine reads a config.Config and builds, in order: the agent key (read
// from the data dir or generated), the chain and DHT stores (in memory, or
// badger databases under the db directory), the TCP transport, the
// validation proxy (the sample validator, or an external engine reached over
// a socket), the peer set from peers.json, the DNA from dna.json, the node,
// and the HTTP service.
package sourcechain
