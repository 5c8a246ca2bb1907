// Package resilience provides a circuit breaker for calls to external
// dependencies. The chat relay dialer is the primary consumer: once the
// relay is unreachable, chat transitions fail fast until the cooldown
// elapses.
package resilience
