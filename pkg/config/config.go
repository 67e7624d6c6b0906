// Package config reads service settings from the environment.
package config

import (
	"log"
	"os"
	"strconv"
	"time"
)

// String returns the value of key, or fallback when the variable is unset.
func String(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return fallback
}

// Int parses key as an integer. Unset or malformed values yield fallback;
// malformed ones are logged so a typo in deployment config is visible.
func Int(key string, fallback int) int {
	v, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("config: %s=%q is not an integer, using %d", key, v, fallback)
		return fallback
	}
	return n
}

// Minutes reads an integer minute count as a time.Duration.
func Minutes(key string, fallback int) time.Duration {
	return time.Duration(Int(key, fallback)) * time.Minute
}

// Seconds reads an integer second count as a time.Duration.
func Seconds(key string, fallback int) time.Duration {
	return time.Duration(Int(key, fallback)) * time.Second
}
