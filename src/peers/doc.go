// Package peers defines the other nodes a sourcechain node talks to.
//
// A peer is identified by the public key of the agent operating it, which is
// also the identity found in the provenances of that agent's headers, and is
// reached at a network address. Nodes publish aspects to all their peers and
// fetch missing entries from them.
//
// Upon starting up, a node looks for a peers.json file in its data
// directory. A missing file means the node runs alone.
package peers
