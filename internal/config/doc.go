// Package config loads, normalizes, and validates Veracity's TOML
// configuration.
package config
