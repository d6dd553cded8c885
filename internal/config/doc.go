// Package config loads, normalizes, and validates fieldcap's TOML
// configuration.
package config
