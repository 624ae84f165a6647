// Package rpc declares unary gRPC services and clients that exchange JSON
// messages. The manager API and every sidecar protocol are built on it: a
// Service is a list of typed handlers registered with Handle, and Invoke
// calls a method by name with the json content-subtype.
package rpc
