// Package proxy defines and implements AppProxy: the interface between the
// chain and the application rules that validate entries.
//
// AppProxy has two implementations:
//
// - SocketAppProxyClient: connects to a validation engine via TCP sockets
// and JSON-RPC. It enables the rules to run in a separate process or machine,
// and to be written in any programming language. SocketAppProxyServer is the
// engine side, for engines written in Go.
//
// - InmemProxy: uses a native ValidationHandler to integrate the rules as a
// regular Go dependency.
package proxy
