// Package config defines the configuration for a sourcechain node.
//
// Regardless of how the node is started, directly from Go code or as a
// standalone process from the command line, it uses the Config object defined
// in this package. On top of these options, the node relies on a data
// directory, defined by Config.DataDir, where it expects to find a few
// additional files:
//
//  priv_key   // the agent's private key (cf. sourcechain keygen).
//  peers.json // (optional) the peers to publish to and fetch from.
//  dna.json   // (optional) the application entry type definitions.
package config
