package encoders

import (
	"context"

	"github.com/nodewee/image-to-jp2/pkg/config"
	"github.com/nodewee/image-to-jp2/pkg/constants"
	"github.com/nodewee/image-to-jp2/pkg/interfaces"
	"github.com/nodewee/image-to-jp2/pkg/logger"
	"github.com/nodewee/image-to-jp2/pkg/types"
)

// KakaduEncoder runs kdu_compress
type KakaduEncoder struct {
	cmd     toolCommand
	options types.EncoderOptions
}

// Ensure KakaduEncoder implements Encoder interface
var _ interfaces.Encoder = (*KakaduEncoder)(nil)

// NewKakaduEncoder creates a Kakadu encoder using the lossless profile
func NewKakaduEncoder(cfg *config.Config, log *logger.Logger) *KakaduEncoder {
	return &KakaduEncoder{
		cmd:     newToolCommand("kdu_compress", cfg.ToolPath(constants.KakaduBinary), cfg.EncodeTimeout(), log),
		options: KakaduLosslessOptions(),
	}
}

// Name returns the encoder name
func (e *KakaduEncoder) Name() string {
	return string(types.EncoderKakadu)
}

// IsAvailable reports whether kdu_compress is executable
func (e *KakaduEncoder) IsAvailable() bool {
	return e.cmd.available()
}

// Encode writes outputPath from inputPath
func (e *KakaduEncoder) Encode(ctx context.Context, inputPath, outputPath string) error {
	return e.cmd.run(ctx, inputPath, outputPath, e.args(inputPath, outputPath))
}

func (e *KakaduEncoder) args(inputPath, outputPath string) []string {
	return append([]string{"-i", inputPath, "-o", outputPath}, renderKakadu(e.options)...)
}
