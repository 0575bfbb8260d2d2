// Package service wires MCP transports to the rollcheck tool handlers.
//
// It is the transport adapter layer: the package knows how to run MCP over stdio
// or streamable HTTP and delegates meaning to the handlers in the domain package.
package service
