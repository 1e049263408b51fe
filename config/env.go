package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// LoadDotenv loads a .env file into the process environment if one is
// present. A missing file is not an error.
func LoadDotenv(paths ...string) {
	var err error
	if len(paths) > 0 {
		err = godotenv.Load(paths...)
	} else {
		err = godotenv.Load()
	}
	if err != nil {
		slog.Debug("no .env file loaded", slog.Any("error", err))
	}
}

// EnvString returns the value of an environment variable and whether it
// was set to a non-empty value.
func EnvString(name string) (string, bool) {
	value := os.Getenv(name)
	return value, value != ""
}

// EnvInt parses an integer environment variable.
func EnvInt(name string) (int, bool, error) {
	raw, ok := EnvString(name)
	if !ok {
		return 0, false, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false, fmt.Errorf("parse %s: %w", name, err)
	}
	return value, true, nil
}

// EnvBool parses a boolean environment variable.
func EnvBool(name string) (bool, bool, error) {
	raw, ok := EnvString(name)
	if !ok {
		return false, false, nil
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		return false, false, fmt.Errorf("parse %s: %w", name, err)
	}
	return value, true, nil
}
