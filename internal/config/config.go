// Package config resolves the process-wide configuration once at startup.
// It is read-only afterwards; nothing else in the service holds global state.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// DefaultTimeout bounds an engine invocation when SPACENET_TIMEOUT is unset.
const DefaultTimeout = 10 * time.Second

// Config holds the engine location and invocation budget for the service.
type Config struct {
	// EnginePath is the SpaceNet headless jar (SPACENET_PATH).
	EnginePath string
	// JavaPath is the java binary used to launch the jar (SPACENET_JAVA).
	JavaPath string
	// Timeout is the wall-clock budget per engine invocation
	// (SPACENET_TIMEOUT, seconds).
	Timeout time.Duration
}

// Load reads a .env file when present, then resolves configuration from the
// environment. It fails fast when the engine artifact cannot be located.
func Load() (Config, error) {
	// Missing .env is fine; explicit environment always wins because
	// godotenv never overrides existing variables.
	_ = godotenv.Load()

	enginePath := os.Getenv("SPACENET_PATH")
	if enginePath == "" {
		return Config{}, fmt.Errorf("SPACENET_PATH is not set")
	}
	if _, err := os.Stat(enginePath); err != nil {
		return Config{}, fmt.Errorf("SpaceNet jar not found at %s: %w", enginePath, err)
	}

	javaPath := os.Getenv("SPACENET_JAVA")
	if javaPath == "" {
		javaPath = "java"
	}

	timeout := DefaultTimeout
	if raw := os.Getenv("SPACENET_TIMEOUT"); raw != "" {
		seconds, err := strconv.ParseFloat(raw, 64)
		if err != nil || seconds <= 0 {
			return Config{}, fmt.Errorf("SPACENET_TIMEOUT must be a positive number of seconds, got %q", raw)
		}
		timeout = time.Duration(seconds * float64(time.Second))
	}

	return Config{
		EnginePath: enginePath,
		JavaPath:   javaPath,
		Timeout:    timeout,
	}, nil
}
