package config

import (
	"fmt"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/nodewee/image-to-jp2/pkg/constants"
	"github.com/nodewee/image-to-jp2/pkg/types"
	"github.com/nodewee/image-to-jp2/pkg/utils"
)

// Default values and constants
const (
	DefaultLogLevel       = "info"
	DefaultTimeoutMinutes = 30
	DefaultWorkers        = constants.DefaultWorkers
	DefaultSkipExisting   = false
	DefaultEnableVerbose  = false
	DefaultEncoder        = types.EncoderKakadu
	DefaultBinaryPath     = constants.DefaultBinaryPath
)

// Config holds application configuration
type Config struct {
	// External tool paths (persisted). Empty means "<BinaryPath>/<tool>".
	KakaduPath   string `json:"kakadu_path"`
	OpenJPEGPath string `json:"openjpeg_path"`
	JpylyzerPath string `json:"jpylyzer_path"`

	// Runtime settings (not persisted to file)
	InputDir       string            `json:"-"`
	OutputDir      string            `json:"-"`
	Encoder        types.EncoderKind `json:"-"`
	BinaryPath     string            `json:"-"`
	ValidateJP2    bool              `json:"-"`
	ReportDir      string            `json:"-"`
	TempDir        string            `json:"-"`
	SkipExisting   bool              `json:"-"`
	Workers        int               `json:"-"`
	TimeoutMinutes int               `json:"-"`
	LogLevel       string            `json:"-"`
	EnableVerbose  bool              `json:"-"`
}

// NewConfig returns a configuration populated with defaults only
func NewConfig() *Config {
	return &Config{
		Encoder:        DefaultEncoder,
		BinaryPath:     DefaultBinaryPath,
		SkipExisting:   DefaultSkipExisting,
		Workers:        DefaultWorkers,
		TimeoutMinutes: DefaultTimeoutMinutes,
		LogLevel:       DefaultLogLevel,
		EnableVerbose:  DefaultEnableVerbose,
	}
}

// DefaultConfig returns the configuration by loading from file or falling back to defaults
func DefaultConfig() *Config {
	config, err := LoadConfig()
	if err != nil {
		fmt.Printf("Warning: Failed to load config file, using basic defaults: %v\n", err)
		return NewConfig()
	}
	return config
}

// ResolveEncoder applies the encoder flag precedence: Kakadu unless only OpenJPEG was requested
func ResolveEncoder(withOpenJPEG, withKakadu bool) types.EncoderKind {
	if withOpenJPEG && !withKakadu {
		return types.EncoderOpenJPEG
	}
	return types.EncoderKakadu
}

// Validate validates the configuration
func (c *Config) Validate() error {
	validator := NewConfigValidator()
	return validator.Validate(c)
}

// EncodeTimeout returns the per-invocation timeout for external encoders
func (c *Config) EncodeTimeout() time.Duration {
	if c.TimeoutMinutes <= 0 {
		return constants.DefaultEncodeTimeout
	}
	return time.Duration(c.TimeoutMinutes) * time.Minute
}

// ValidateTimeout returns the per-invocation timeout for the conformance checker
func (c *Config) ValidateTimeout() time.Duration {
	if t := c.EncodeTimeout(); t < constants.DefaultValidateTimeout {
		return t
	}
	return constants.DefaultValidateTimeout
}

// ToolPath returns the executable for an external tool. A configured path
// wins while it points at an executable; otherwise the binary is looked up
// under BinaryPath.
func (c *Config) ToolPath(binary string) string {
	var configured string
	switch binary {
	case constants.KakaduBinary:
		configured = c.KakaduPath
	case constants.OpenJPEGBinary:
		configured = c.OpenJPEGPath
	case constants.JpylyzerBinary:
		configured = c.JpylyzerPath
	}
	if configured != "" && utils.IsExecutable(configured) {
		return configured
	}

	base := c.BinaryPath
	if base == "" {
		base = DefaultBinaryPath
	}
	return filepath.Join(base, utils.GetExecutableName(binary))
}

// EncoderPath returns the executable of the selected encoder
func (c *Config) EncoderPath() string {
	if c.Encoder == types.EncoderOpenJPEG {
		return c.ToolPath(constants.OpenJPEGBinary)
	}
	return c.ToolPath(constants.KakaduBinary)
}

// ValidatorPath returns the conformance checker executable. Unlike the
// encoders, jpylyzer is usually pip-installed, so PATH is tried when it is
// missing from BinaryPath.
func (c *Config) ValidatorPath() string {
	path := c.ToolPath(constants.JpylyzerBinary)
	if utils.IsExecutable(path) {
		return path
	}
	if found, err := exec.LookPath(utils.GetExecutableName(constants.JpylyzerBinary)); err == nil {
		return found
	}
	return path
}

// OutputPathFor returns the JP2 destination for an input file base name
func (c *Config) OutputPathFor(base string) string {
	return filepath.Join(c.OutputDir, base+constants.OutputExtension)
}

// String returns a string representation of the configuration
func (c *Config) String() string {
	return fmt.Sprintf("Config{Encoder: %s, BinaryPath: %s, Validate: %v, Workers: %d, LogLevel: %s, Verbose: %v}",
		c.Encoder, c.BinaryPath, c.ValidateJP2, c.Workers, c.LogLevel, c.EnableVerbose)
}
