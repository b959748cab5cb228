// Package timeouts defines the timeout constants shared by the fanvest
// servers and clients.
package timeouts

import "time"

// GRPCDial caps the wait time when dialing the gRPC health endpoint.
const GRPCDial = 2 * time.Second

// ReadHeader limits how long an HTTP server waits for request headers.
const ReadHeader = 5 * time.Second

// Request caps the time a single HTTP API request may run.
const Request = 15 * time.Second

// Idle closes keep-alive connections that stay quiet this long.
const Idle = 60 * time.Second

// Venue caps one round trip to the liquidity venue.
const Venue = 10 * time.Second

// Shutdown limits how long servers wait for in-flight requests during
// graceful shutdown.
const Shutdown = 5 * time.Second
