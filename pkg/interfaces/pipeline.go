package interfaces

import (
	"context"

	"github.com/nodewee/image-to-jp2/pkg/types"
)

// Encoder converts a raster image into a JP2 file using an external tool
type Encoder interface {
	// Name returns the encoder name
	Name() string

	// Encode writes outputPath from inputPath. It runs the external tool once, without retry.
	Encode(ctx context.Context, inputPath, outputPath string) error

	// IsAvailable reports whether the external binary can be found
	IsAvailable() bool
}

// Stager converts an input the encoder cannot read into an intermediate file
type Stager interface {
	// NeedsStaging reports whether files with the given extension must be staged
	NeedsStaging(extension string) bool

	// Stage writes an intermediate file allocated through temp and returns its
	// path. The file is registered with temp before any data is written, so
	// temp.Cleanup removes it on every exit path.
	Stage(ctx context.Context, inputPath string, temp TempFileManager) (string, error)
}

// Validator checks a JP2 file against the JP2 format rules
type Validator interface {
	// Name returns the validator name
	Name() string

	// Validate returns a verdict. A negative verdict is not an error.
	Validate(ctx context.Context, jp2Path string) (*types.ValidationVerdict, error)
}
