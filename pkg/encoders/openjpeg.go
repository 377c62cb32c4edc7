package encoders

import (
	"context"

	"github.com/nodewee/image-to-jp2/pkg/config"
	"github.com/nodewee/image-to-jp2/pkg/constants"
	"github.com/nodewee/image-to-jp2/pkg/interfaces"
	"github.com/nodewee/image-to-jp2/pkg/logger"
	"github.com/nodewee/image-to-jp2/pkg/types"
)

// OpenJPEGEncoder runs opj_compress
type OpenJPEGEncoder struct {
	cmd     toolCommand
	options types.EncoderOptions
}

// Ensure OpenJPEGEncoder implements Encoder interface
var _ interfaces.Encoder = (*OpenJPEGEncoder)(nil)

// NewOpenJPEGEncoder creates an OpenJPEG encoder using the lossless profile
func NewOpenJPEGEncoder(cfg *config.Config, log *logger.Logger) *OpenJPEGEncoder {
	return &OpenJPEGEncoder{
		cmd:     newToolCommand("opj_compress", cfg.ToolPath(constants.OpenJPEGBinary), cfg.EncodeTimeout(), log),
		options: OpenJPEGLosslessOptions(),
	}
}

// Name returns the encoder name
func (e *OpenJPEGEncoder) Name() string {
	return string(types.EncoderOpenJPEG)
}

// IsAvailable reports whether opj_compress is executable
func (e *OpenJPEGEncoder) IsAvailable() bool {
	return e.cmd.available()
}

// Encode writes outputPath from inputPath
func (e *OpenJPEGEncoder) Encode(ctx context.Context, inputPath, outputPath string) error {
	return e.cmd.run(ctx, inputPath, outputPath, e.args(inputPath, outputPath))
}

func (e *OpenJPEGEncoder) args(inputPath, outputPath string) []string {
	return append([]string{"-i", inputPath, "-o", outputPath}, renderOpenJPEG(e.options)...)
}
