// Package config provides configuration helpers for go-museum commands.
package config

import (
	"os"
)

// Defaults used when neither a config file nor the environment says otherwise.
const (
	DefaultAddr     = ":8080"
	DefaultLogLevel = "info"
)

// Addr returns the listen address from MUSEUM_ADDR env var.
// Falls back to DefaultAddr if not set.
func Addr() string {
	if addr := os.Getenv("MUSEUM_ADDR"); addr != "" {
		return addr
	}
	return DefaultAddr
}

// LogLevel returns the log level from LOG_LEVEL env var or default.
func LogLevel() string {
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		return level
	}
	return DefaultLogLevel
}
