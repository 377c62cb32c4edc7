// Package encoders drives the external JP2 encoders.
package encoders

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/nodewee/image-to-jp2/pkg/logger"
	"github.com/nodewee/image-to-jp2/pkg/utils"
)

// waitDelay bounds how long Wait blocks on output pipes after the process is killed
var waitDelay = 5 * time.Second

const stderrTailLines = 5

// toolCommand is one external binary invocation shared by both encoders
type toolCommand struct {
	name    string
	binary  string
	timeout time.Duration
	logger  *logger.Logger
}

func newToolCommand(name, binary string, timeout time.Duration, log *logger.Logger) toolCommand {
	if log == nil {
		log = logger.Discard()
	}
	return toolCommand{name: name, binary: binary, timeout: timeout, logger: log}
}

func (c *toolCommand) available() bool {
	return utils.IsExecutable(c.binary)
}

// run executes the binary once under the configured timeout
func (c *toolCommand) run(ctx context.Context, inputPath, outputPath string, args []string) error {
	if !c.available() {
		return utils.NewEncodingError(
			fmt.Sprintf("%s binary is not available", c.name),
			utils.NewNotFoundError(c.binary, exec.ErrNotFound),
		).WithContext("binary", c.binary)
	}

	runCtx := ctx
	if c.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	c.logger.Debug("Running %s %v", c.binary, args)
	start := time.Now()

	cmd := exec.CommandContext(runCtx, c.binary, args...)
	cmd.WaitDelay = waitDelay
	output, err := cmd.CombinedOutput()
	if err == nil {
		c.logger.Debug("%s finished %s in %s", c.name, filepath.Base(inputPath), time.Since(start).Round(time.Millisecond))
		return nil
	}

	if ctxErr := runCtx.Err(); ctxErr != nil {
		msg := fmt.Sprintf("%s cancelled", c.name)
		if errors.Is(ctxErr, context.DeadlineExceeded) {
			msg = fmt.Sprintf("%s timed out after %s", c.name, c.timeout)
		}
		return utils.NewEncodingError(msg, ctxErr).
			WithContext("input", inputPath).
			WithContext("output", outputPath)
	}

	tail := utils.TailLines(string(output), stderrTailLines)
	return utils.NewEncodingError(fmt.Sprintf("%s exited with code %d", c.name, utils.ExitCode(err)), err).
		WithContext("input", inputPath).
		WithContext("output", outputPath).
		WithContext("exit_code", utils.ExitCode(err)).
		WithContext("stderr", tail)
}
