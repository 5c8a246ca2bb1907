// Package monitoring provides Prometheus metrics and the gin middleware
// that feeds them.
package monitoring
