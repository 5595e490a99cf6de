// Package config loads, normalizes, and validates clipreel configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// CLIPREEL_SOURCE_DIR. The Config type centralizes every knob the CLI needs so
// the SD card source, backup tree, compilation output and encoder settings are
// discovered in one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized absolute paths and clear validation errors.
package config
