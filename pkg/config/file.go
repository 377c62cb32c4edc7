package config

import (
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/nodewee/image-to-jp2/pkg/constants"
	"github.com/nodewee/image-to-jp2/pkg/utils"
)

const (
	ConfigFileName = "config.json"
	AppDirName     = "." + constants.AppName
)

// Config file keys
const (
	KeyKakaduPath   = "kakadu_path"
	KeyOpenJPEGPath = "openjpeg_path"
	KeyJpylyzerPath = "jpylyzer_path"
)

// ConfigFile represents the JSON configuration file structure
type ConfigFile struct {
	// External tool paths only
	KakaduPath   string `json:"kakadu_path"`
	OpenJPEGPath string `json:"openjpeg_path"`
	JpylyzerPath string `json:"jpylyzer_path"`
}

// GetConfigDir returns the user configuration directory (~/.image-to-jp2)
func GetConfigDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", utils.WrapError(err, utils.ErrorTypeIO, "failed to get user home directory")
	}

	return filepath.Join(homeDir, AppDirName), nil
}

// GetConfigFilePath returns the full path to the configuration file
func GetConfigFilePath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}

	return filepath.Join(configDir, ConfigFileName), nil
}

// LoadConfig reads the configuration file. A missing file yields defaults
// and is not created; only the config subcommands write it.
func LoadConfig() (*Config, error) {
	configPath, err := GetConfigFilePath()
	if err != nil {
		return nil, utils.WrapError(err, utils.ErrorTypeIO, "failed to get config file path")
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return NewConfig(), nil
	}

	return loadConfigFromFile(configPath)
}

// loadConfigFromFile loads configuration from an existing file
func loadConfigFromFile(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, utils.NewIOError("failed to read config file", err)
	}

	var configFile ConfigFile
	if err := json.Unmarshal(data, &configFile); err != nil {
		return nil, utils.WrapError(err, utils.ErrorTypeValidation, "failed to parse config file")
	}

	return configFileToConfig(&configFile), nil
}

// SaveConfig saves the persisted part of the configuration
func SaveConfig(config *Config) error {
	configPath, err := GetConfigFilePath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(configPath), constants.DefaultDirPermission); err != nil {
		return utils.WrapError(err, utils.ErrorTypeIO, "failed to create config directory")
	}

	return saveConfigFile(configPath, configToConfigFile(config))
}

func saveConfigFile(configPath string, configFile *ConfigFile) error {
	data, err := json.MarshalIndent(configFile, "", "  ")
	if err != nil {
		return utils.WrapError(err, utils.ErrorTypeSystem, "failed to marshal config")
	}

	if err := os.WriteFile(configPath, data, constants.DefaultFilePermission); err != nil {
		return utils.NewIOError("failed to write config file", err).WithContext("path", configPath)
	}

	return nil
}

// DetectToolPaths fills unset tool paths with binaries found on this machine
// and saves the result. Paths already configured are kept.
func DetectToolPaths() (*Config, error) {
	config, err := LoadConfig()
	if err != nil {
		return nil, err
	}

	platformConfig := constants.GetPlatformConfig()
	if config.KakaduPath == "" {
		config.KakaduPath = detectTool(platformConfig.KakaduPaths)
	}
	if config.OpenJPEGPath == "" {
		config.OpenJPEGPath = detectTool(platformConfig.OpenJPEGPaths)
	}
	if config.JpylyzerPath == "" {
		config.JpylyzerPath = detectTool(platformConfig.JpylyzerPaths)
	}

	if err := SaveConfig(config); err != nil {
		return nil, err
	}
	return config, nil
}

// detectTool returns the first candidate that resolves to an executable
func detectTool(candidates []string) string {
	for _, pathOrName := range candidates {
		if filepath.IsAbs(pathOrName) {
			if utils.IsExecutable(pathOrName) {
				return utils.NormalizePath(pathOrName)
			}
			continue
		}
		if found, err := exec.LookPath(pathOrName); err == nil && utils.IsExecutable(found) {
			return utils.NormalizePath(found)
		}
	}
	return ""
}

func configFileToConfig(cf *ConfigFile) *Config {
	config := NewConfig()
	config.KakaduPath = cf.KakaduPath
	config.OpenJPEGPath = cf.OpenJPEGPath
	config.JpylyzerPath = cf.JpylyzerPath
	return config
}

func configToConfigFile(c *Config) *ConfigFile {
	return &ConfigFile{
		KakaduPath:   c.KakaduPath,
		OpenJPEGPath: c.OpenJPEGPath,
		JpylyzerPath: c.JpylyzerPath,
	}
}

// GetConfigValue gets a specific configuration value by key
func GetConfigValue(key string) (string, error) {
	config, err := LoadConfig()
	if err != nil {
		return "", err
	}
	return ValueOf(config, key)
}

// ValueOf returns the persisted setting named key
func ValueOf(config *Config, key string) (string, error) {
	switch key {
	case KeyKakaduPath:
		return config.KakaduPath, nil
	case KeyOpenJPEGPath:
		return config.OpenJPEGPath, nil
	case KeyJpylyzerPath:
		return config.JpylyzerPath, nil
	default:
		return "", utils.NewValidationError(fmt.Sprintf("unknown config key: %s", key), nil)
	}
}

// SetConfigValue sets a specific configuration value by key
func SetConfigValue(key, value string) error {
	config, err := LoadConfig()
	if err != nil {
		return err
	}

	switch key {
	case KeyKakaduPath:
		config.KakaduPath = value
	case KeyOpenJPEGPath:
		config.OpenJPEGPath = value
	case KeyJpylyzerPath:
		config.JpylyzerPath = value
	default:
		return utils.NewValidationError(fmt.Sprintf("unknown config key: %s", key), nil)
	}

	return SaveConfig(config)
}

// ListConfigKeys returns all available configuration keys
func ListConfigKeys() []string {
	return []string{
		KeyKakaduPath,
		KeyOpenJPEGPath,
		KeyJpylyzerPath,
	}
}
