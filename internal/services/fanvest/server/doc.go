// Package server assembles the fanvest runtime: journal store, protocol, HTTP
// API, MCP tools and the gRPC health endpoint.
package server
