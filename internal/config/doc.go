// ABOUTME: Package documentation for the config package
// ABOUTME: Describes YAML configuration loading behavior

// Package config loads floreria configuration from YAML files with
// ${VAR} environment expansion, duration parsing, defaulting, and
// validation.
package config
