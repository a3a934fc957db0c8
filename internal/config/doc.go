// Package config loads the stockwatch YAML configuration.
//
// ${VAR} references are expanded from the environment before parsing.
// Every field has a default, so an empty file (or no file) is valid.
package config
