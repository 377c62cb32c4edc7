package core

import (
	"github.com/nodewee/image-to-jp2/pkg/config"
	"github.com/nodewee/image-to-jp2/pkg/encoders"
	"github.com/nodewee/image-to-jp2/pkg/interfaces"
	"github.com/nodewee/image-to-jp2/pkg/logger"
	"github.com/nodewee/image-to-jp2/pkg/staging"
	"github.com/nodewee/image-to-jp2/pkg/validation"
)

// NewConverterFromConfig wires the encoder, stager and optional validator
// selected by cfg.
func NewConverterFromConfig(cfg *config.Config, log *logger.Logger) (*Converter, error) {
	if log == nil {
		log = logger.Discard()
	}

	encoder, err := encoders.NewEncoder(cfg.Encoder, cfg, log)
	if err != nil {
		return nil, err
	}

	var validator interfaces.Validator
	if cfg.ValidateJP2 {
		jpylyzer := validation.NewJpylyzerValidator(cfg, log)
		if !jpylyzer.IsAvailable() {
			log.Warn("jpylyzer not found, every output will be reported as invalid")
		}
		validator = jpylyzer
	}

	log.Debug("Converter configured: %s", cfg)
	return NewConverter(cfg, log, encoder, staging.NewPNMStager(log), validator), nil
}
