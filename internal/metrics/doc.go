// Package metrics defines the Prometheus collectors updated by playlist
// downloads and an optional /metrics listener.
package metrics
