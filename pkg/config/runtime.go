package config

import (
	"os"
	"strconv"

	"github.com/nodewee/image-to-jp2/pkg/types"
)

// Environment variables recognised by LoadConfigWithEnvOverrides
const (
	EnvKakaduPath     = "KAKADU_PATH"
	EnvOpenJPEGPath   = "OPENJPEG_PATH"
	EnvJpylyzerPath   = "JPYLYZER_PATH"
	EnvBinaryPath     = "IMAGE_TO_JP2_BINARY_PATH"
	EnvEncoder        = "IMAGE_TO_JP2_ENCODER"
	EnvWorkers        = "IMAGE_TO_JP2_WORKERS"
	EnvTimeoutMinutes = "IMAGE_TO_JP2_TIMEOUT_MINUTES"
	EnvLogLevel       = "IMAGE_TO_JP2_LOG_LEVEL"
	EnvVerbose        = "IMAGE_TO_JP2_VERBOSE"
)

// LoadConfigWithEnvOverrides loads config from file and applies environment variable overrides
func LoadConfigWithEnvOverrides() *Config {
	config := DefaultConfig()
	ApplyEnvOverrides(config, os.Getenv)
	return config
}

// ApplyEnvOverrides overlays environment values read through getenv onto config
func ApplyEnvOverrides(config *Config, getenv func(string) string) {
	// Tool paths
	if value := getenv(EnvKakaduPath); value != "" {
		config.KakaduPath = value
	}
	if value := getenv(EnvOpenJPEGPath); value != "" {
		config.OpenJPEGPath = value
	}
	if value := getenv(EnvJpylyzerPath); value != "" {
		config.JpylyzerPath = value
	}

	// Runtime settings
	if value := getenv(EnvBinaryPath); value != "" {
		config.BinaryPath = value
	}
	if value := getenv(EnvEncoder); value != "" {
		config.Encoder = types.EncoderKind(value)
	}
	if value := getenv(EnvWorkers); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil && intVal > 0 {
			config.Workers = intVal
		}
	}
	if value := getenv(EnvTimeoutMinutes); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil && intVal > 0 {
			config.TimeoutMinutes = intVal
		}
	}
	if value := getenv(EnvLogLevel); value != "" {
		config.LogLevel = value
	}
	if value := getenv(EnvVerbose); value != "" {
		config.EnableVerbose = value == "true" || value == "1" || value == "yes"
	}
}
