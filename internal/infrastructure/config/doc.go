// Package config loads application configuration from defaults, an
// optional TOML file, and environment variables, in that order.
package config
