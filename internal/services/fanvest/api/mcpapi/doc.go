// Package mcpapi exposes read-only fanvest queries as MCP tools served over
// streamable HTTP.
package mcpapi
