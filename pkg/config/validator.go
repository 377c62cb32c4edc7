package config

import (
	"fmt"
	"strings"

	"github.com/nodewee/image-to-jp2/pkg/constants"
	"github.com/nodewee/image-to-jp2/pkg/types"
	"github.com/nodewee/image-to-jp2/pkg/utils"
)

// ConfigValidator checks a Config and reports every problem at once
type ConfigValidator struct{}

// NewConfigValidator creates a configuration validator
func NewConfigValidator() *ConfigValidator {
	return &ConfigValidator{}
}

// Validate validates the configuration
func (v *ConfigValidator) Validate(c *Config) error {
	var errors []string

	if err := v.validateDirectories(c); err != nil {
		errors = append(errors, err.Error())
	}

	if err := v.validateEncoder(c.Encoder); err != nil {
		errors = append(errors, err.Error())
	}

	if err := v.validateNumericValues(c); err != nil {
		errors = append(errors, err.Error())
	}

	if err := v.validateLogLevel(c.LogLevel); err != nil {
		errors = append(errors, err.Error())
	}

	if len(errors) > 0 {
		return utils.NewValidationError("configuration validation failed",
			fmt.Errorf("validation errors: %s", strings.Join(errors, "; ")))
	}

	return nil
}

func (v *ConfigValidator) validateDirectories(c *Config) error {
	if strings.TrimSpace(c.InputDir) == "" {
		return fmt.Errorf("input directory is required")
	}
	if strings.TrimSpace(c.OutputDir) == "" {
		return fmt.Errorf("output directory is required")
	}
	return nil
}

func (v *ConfigValidator) validateEncoder(kind types.EncoderKind) error {
	switch kind {
	case types.EncoderKakadu, types.EncoderOpenJPEG:
		return nil
	}
	return fmt.Errorf("invalid encoder: %s", kind)
}

func (v *ConfigValidator) validateNumericValues(c *Config) error {
	if c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1")
	}
	if c.Workers > constants.MaxWorkers {
		return fmt.Errorf("workers should not exceed %d", constants.MaxWorkers)
	}
	if c.TimeoutMinutes < 1 {
		return fmt.Errorf("timeout must be at least 1 minute")
	}
	return nil
}

func (v *ConfigValidator) validateLogLevel(level string) error {
	validLevels := []string{"debug", "info", "warn", "error"}

	for _, valid := range validLevels {
		if strings.ToLower(level) == valid {
			return nil
		}
	}

	return fmt.Errorf("invalid log level: %s", level)
}
