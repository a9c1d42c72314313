// Package config loads, normalizes, and validates mediacorral configuration
// data for both the coordinator and the drive-controller daemons.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// TMDB_API_KEY and OPENSUBTITLES_API_KEY. CoordinatorConfig and
// DriveControllerConfig centralize every knob their respective daemon needs,
// so downstream code always receives sanitized paths, canonical log formats,
// and clear validation errors.
package config
