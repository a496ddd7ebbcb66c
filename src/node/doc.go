// Package node implements the reactive component of a sourcechain node.
//
// A node owns an agent's source chain and its share of the DHT. It answers
// two RPC commands from the other nodes, defined in the net package:
//
// FetchRequest asks for the entry stored at an address. The node answers from
// the entries it holds for the DHT, or from its own chain when the entry type
// is public. Private entries never leave the chain.
//
// PublishRequest pushes the aspects of a freshly committed entry. The node
// acknowledges them at once and queues them for the hold workers, which run
// the hold workflow of the workflow package: build a validation package by
// fetching the author's chain one hop at a time, validate it against the
// application, and reduce the aspect into the DHT store.
//
// Fetches race the transport against the hop timeout. Each request carries a
// RequestID; the first of the response and the timeout to arrive resolves the
// request and the other is dropped.
//
// Aspects whose dependencies are not held yet are parked as pending
// validations. A ControlTimer paces the scheduler that retries them, so that
// a round of retries never overlaps the next one.
package node
