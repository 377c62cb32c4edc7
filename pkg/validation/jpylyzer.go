// Package validation checks generated JP2 files with jpylyzer.
package validation

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/nodewee/image-to-jp2/pkg/config"
	"github.com/nodewee/image-to-jp2/pkg/constants"
	"github.com/nodewee/image-to-jp2/pkg/interfaces"
	"github.com/nodewee/image-to-jp2/pkg/logger"
	"github.com/nodewee/image-to-jp2/pkg/types"
	"github.com/nodewee/image-to-jp2/pkg/utils"
)

// JpylyzerValidator runs jpylyzer once per file and parses its XML report
type JpylyzerValidator struct {
	binary    string
	timeout   time.Duration
	reportDir string
	logger    *logger.Logger
}

// Ensure JpylyzerValidator implements Validator interface
var _ interfaces.Validator = (*JpylyzerValidator)(nil)

// NewJpylyzerValidator creates a validator from configuration
func NewJpylyzerValidator(cfg *config.Config, log *logger.Logger) *JpylyzerValidator {
	if log == nil {
		log = logger.Discard()
	}
	return &JpylyzerValidator{
		binary:    cfg.ValidatorPath(),
		timeout:   cfg.ValidateTimeout(),
		reportDir: cfg.ReportDir,
		logger:    log,
	}
}

// Name returns the validator name
func (v *JpylyzerValidator) Name() string {
	return constants.JpylyzerBinary
}

// IsAvailable reports whether the jpylyzer executable exists
func (v *JpylyzerValidator) IsAvailable() bool {
	return utils.IsExecutable(v.binary)
}

// Validate checks jp2Path. A negative verdict is returned without error.
func (v *JpylyzerValidator) Validate(ctx context.Context, jp2Path string) (*types.ValidationVerdict, error) {
	if !v.IsAvailable() {
		return nil, utils.NewValidatorError("jpylyzer is not available",
			utils.NewNotFoundError(v.binary, exec.ErrNotFound)).WithContext("binary", v.binary)
	}

	runCtx, cancel := context.WithTimeout(ctx, v.timeout)
	defer cancel()

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(runCtx, v.binary, jp2Path)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = 5 * time.Second

	err := cmd.Run()
	if ctxErr := runCtx.Err(); ctxErr != nil {
		msg := "jpylyzer cancelled"
		if errors.Is(ctxErr, context.DeadlineExceeded) {
			msg = fmt.Sprintf("jpylyzer timed out after %s", v.timeout)
		}
		return nil, utils.NewValidatorError(msg, ctxErr).WithContext("file", jp2Path)
	}
	if err != nil && stdout.Len() == 0 {
		return nil, utils.NewValidatorError(fmt.Sprintf("jpylyzer exited with code %d", utils.ExitCode(err)), err).
			WithContext("file", jp2Path).
			WithContext("stderr", utils.TailLines(stderr.String(), 5))
	}

	verdict, err := ParseReport(stdout.Bytes())
	if err != nil {
		var appErr *utils.AppError
		if errors.As(err, &appErr) {
			appErr.WithContext("file", jp2Path)
		}
		return nil, err
	}
	verdict.Path = jp2Path

	if v.reportDir != "" {
		if err := v.saveReport(jp2Path, verdict.Raw); err != nil {
			v.logger.Warn("Failed to save jpylyzer report for %s: %v", jp2Path, err)
		}
	}

	return verdict, nil
}

// saveReport writes the pretty-printed report to <reportDir>/<base>.xml
func (v *JpylyzerValidator) saveReport(jp2Path string, raw []byte) error {
	pretty, err := PrettyReport(raw)
	if err != nil {
		return err
	}
	if err := utils.EnsureDir(v.reportDir); err != nil {
		return err
	}
	name := utils.ReplaceExtension(filepath.Base(jp2Path), ".xml")
	return os.WriteFile(filepath.Join(v.reportDir, name), pretty, constants.DefaultFilePermission)
}
