package constants

import (
	"runtime"
)

// Platform-specific constants
var (
	// Platform-specific executable extensions
	ExecutableExt = getExecutableExtension()
)

// PlatformConfig lists the places where external tools are commonly installed
type PlatformConfig struct {
	KakaduPaths   []string
	OpenJPEGPaths []string
	JpylyzerPaths []string
}

// GetPlatformConfig returns platform-specific configuration
func GetPlatformConfig() *PlatformConfig {
	switch runtime.GOOS {
	case "windows":
		return &PlatformConfig{
			KakaduPaths: []string{
				"kdu_compress.exe",
				"C:\\Program Files (x86)\\Kakadu\\kdu_compress.exe",
				"C:\\Program Files\\Kakadu\\kdu_compress.exe",
			},
			OpenJPEGPaths: []string{
				"opj_compress.exe",
				"C:\\Program Files\\OpenJPEG\\bin\\opj_compress.exe",
			},
			JpylyzerPaths: []string{
				"jpylyzer.exe",
			},
		}
	case "darwin":
		return &PlatformConfig{
			KakaduPaths: []string{
				"kdu_compress",
				"/usr/local/bin/kdu_compress",
				"/opt/homebrew/bin/kdu_compress",
			},
			OpenJPEGPaths: []string{
				"opj_compress",
				"/usr/local/bin/opj_compress",
				"/opt/homebrew/bin/opj_compress",
			},
			JpylyzerPaths: []string{
				"jpylyzer",
				"/usr/local/bin/jpylyzer",
				"/opt/homebrew/bin/jpylyzer",
			},
		}
	default: // Linux and other Unix-like systems
		return &PlatformConfig{
			KakaduPaths: []string{
				"kdu_compress",
				"/usr/local/bin/kdu_compress",
				"/usr/bin/kdu_compress",
				"/opt/kakadu/bin/kdu_compress",
			},
			OpenJPEGPaths: []string{
				"opj_compress",
				"/usr/bin/opj_compress",
				"/usr/local/bin/opj_compress",
			},
			JpylyzerPaths: []string{
				"jpylyzer",
				"/usr/local/bin/jpylyzer",
				"/usr/bin/jpylyzer",
			},
		}
	}
}

// getExecutableExtension returns the executable file extension for the current platform
func getExecutableExtension() string {
	if runtime.GOOS == "windows" {
		return ".exe"
	}
	return ""
}

// IsWindows returns true if running on Windows
func IsWindows() bool {
	return runtime.GOOS == "windows"
}
