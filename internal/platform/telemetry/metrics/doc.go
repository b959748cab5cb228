// Package metrics registers the Prometheus collectors for fanvest.
//
// Collectors are process globals registered through promauto and exposed by
// promhttp at /metrics:
//
//   - fanvest_operations_total and fanvest_operation_duration_seconds count
//     protocol operations by name and outcome.
//   - fanvest_rejections_total counts rejections by error code.
//   - fanvest_http_* cover the HTTP API by chi route pattern.
//   - fanvest_raise_* and fanvest_vesting_* gauge the protocol balances.
package metrics
