// Package config loads, normalizes, and validates Verdandi configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and derives a stable worker identity when none
// is configured. The Config type centralizes every knob the pipeline runner,
// discovery worker, and CLI need, so data directories, retry policy, and
// external service endpoints are discovered in one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
