// Package config loads, validates, and normalizes the TOML configuration that
// drives the scribeq daemon and CLI.
package config
