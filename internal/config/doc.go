// Package config loads, normalizes, and validates murmur configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// OPENAI_API_KEY. The Config type centralizes every knob the transcription
// pipeline and CLI need so model, work, and output directories plus engine
// credentials are discovered in one pass.
//
// Always obtain settings through this package so downstream code receives
// expanded paths, canonical log formats, and clear validation errors.
package config
