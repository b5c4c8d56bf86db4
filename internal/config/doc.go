// Package config loads, normalizes, and validates marquee's TOML
// configuration. Defaults live in defaults.go; Load layers a config file and
// environment overrides on top of them and expands all paths to absolute
// form so the rest of the program never deals with ~ or relative paths.
package config
