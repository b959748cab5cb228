// Package telemetry holds the tracing helpers shared by the fanvest
// protocol and its transports.
//
// Operational metrics live in telemetry/metrics and are scraped from
// /metrics. The event journal is not telemetry: it is the durable record of
// accepted operations and lives with the storage packages.
package telemetry
