// Package config loads swapcheck.yaml.
//
// Precedence, highest first: command-line flags (applied by the cli
// package), SWAPCHECK_* environment variables, the YAML file, defaults.
package config
