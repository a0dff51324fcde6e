// Package config loads the set grouper's settings from an optional YAML
// file and SETGROUPER_* environment variables, then validates them.
package config
