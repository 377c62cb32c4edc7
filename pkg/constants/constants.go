package constants

import "time"

// Application constants
const (
	AppName = "image-to-jp2"
	// Note: the application version is injected via ldflags in main.go
)

// File processing constants
const (
	// Default file permissions
	DefaultFilePermission = 0644
	DefaultDirPermission  = 0755

	// Output naming
	OutputExtension = ".jp2"

	// Reserved system file that is never converted
	ReservedFileName = "Thumbs.db"

	// Staging intermediates
	StagedFilePrefix     = "image-processing_"
	StagedColorExtension = ".ppm"
	StagedGrayExtension  = ".pgm"

	// External tool timeouts
	DefaultEncodeTimeout   = 30 * time.Minute
	DefaultValidateTimeout = 5 * time.Minute

	// Concurrency limits
	DefaultWorkers = 1
	MaxWorkers     = 32

	// Directory listing batch size used by the scanner
	ScanBatchSize = 64
)

// SupportedExtensions lists the accepted input extensions (lower-case, no dot)
var SupportedExtensions = map[string]bool{
	"jpg":  true,
	"jpeg": true,
	"tif":  true,
	"tiff": true,
	"png":  true,
}

// StagedExtensions lists input extensions that must be staged before encoding
var StagedExtensions = map[string]bool{
	"jpg":  true,
	"jpeg": true,
}

// External tool binary names
const (
	KakaduBinary   = "kdu_compress"
	OpenJPEGBinary = "opj_compress"
	JpylyzerBinary = "jpylyzer"

	DefaultBinaryPath = "/usr/local/bin"
)
