// Package config loads, normalizes, and validates tsutils configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// TSUTILS_FFMPEG. The Config type centralizes the external tool names and the
// probe, extraction, splitting, and logging knobs so every command sees the
// same sanitized values.
package config
