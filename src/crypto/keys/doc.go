// Package keys implements the public key cryptography used by agents.
//
// Every agent owns a secp256k1 key-pair. The public key, in its uncompressed
// hex form, is the agent's identity; the private key signs the provenance of
// every header the agent appends to its source chain, so that any DHT holder
// can check who authored an entry.
package keys
