package encoders

import (
	"fmt"

	"github.com/nodewee/image-to-jp2/pkg/config"
	"github.com/nodewee/image-to-jp2/pkg/interfaces"
	"github.com/nodewee/image-to-jp2/pkg/logger"
	"github.com/nodewee/image-to-jp2/pkg/types"
	"github.com/nodewee/image-to-jp2/pkg/utils"
)

// NewEncoder returns the encoder binding for kind
func NewEncoder(kind types.EncoderKind, cfg *config.Config, log *logger.Logger) (interfaces.Encoder, error) {
	if log == nil {
		log = logger.Discard()
	}

	switch kind {
	case types.EncoderKakadu:
		return NewKakaduEncoder(cfg, log), nil
	case types.EncoderOpenJPEG:
		return NewOpenJPEGEncoder(cfg, log), nil
	default:
		return nil, utils.NewValidationError(fmt.Sprintf("unknown encoder: %s", kind), nil)
	}
}
