// Package core runs the conversion of a directory of images into JP2 files.
package core

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/nodewee/image-to-jp2/pkg/config"
	"github.com/nodewee/image-to-jp2/pkg/interfaces"
	"github.com/nodewee/image-to-jp2/pkg/logger"
	"github.com/nodewee/image-to-jp2/pkg/scanner"
	"github.com/nodewee/image-to-jp2/pkg/types"
	"github.com/nodewee/image-to-jp2/pkg/utils"
)

// errNotDispatched marks files left unprocessed after cancellation
var errNotDispatched = errors.New("not processed: run was cancelled")

// Converter drives every selected file through staging, encoding and
// validation. It is the only component holding cross-file state.
type Converter struct {
	config    *config.Config
	logger    *logger.Logger
	encoder   interfaces.Encoder
	stager    interfaces.Stager
	validator interfaces.Validator // nil when validation is disabled

	newTempManager func() interfaces.TempFileManager
}

// NewConverter creates a converter from explicit collaborators. Pass a nil
// validator to disable validation.
func NewConverter(cfg *config.Config, log *logger.Logger, encoder interfaces.Encoder, stager interfaces.Stager, validator interfaces.Validator) *Converter {
	if log == nil {
		log = logger.Discard()
	}
	c := &Converter{
		config:    cfg,
		logger:    log,
		encoder:   encoder,
		stager:    stager,
		validator: validator,
	}
	c.newTempManager = func() interfaces.TempFileManager {
		return utils.NewSimpleTempManager(cfg.TempDir, log)
	}
	return c
}

// Convert processes the input directory. Only setup failures are returned
// as errors; per-file failures are recorded in the result.
func (c *Converter) Convert(ctx context.Context) (*RunResult, error) {
	startTime := time.Now()

	if err := c.prepareDirectories(); err != nil {
		return nil, err
	}

	files, err := scanner.Select(c.config.InputDir)
	if err != nil {
		return nil, utils.NewSetupError("failed to read input directory", err).
			WithContext("dir", c.config.InputDir)
	}

	c.logger.Info("Found %d candidate images in %s", len(files), c.config.InputDir)
	if !c.encoder.IsAvailable() {
		c.logger.Warn("Encoder %s not found, every file will fail to encode", c.encoder.Name())
	}

	result := newRunResult(len(files))
	pending := c.claimOutputs(files, result)
	c.runWorkers(ctx, files, pending, result)
	result.finalize(c.validator != nil, func(o FileOutcome) FileOutcome {
		return FileOutcome{Input: o.Input, Output: o.Output, Err: errNotDispatched}
	})

	c.logger.Info("Processed %d files in %s", result.Total, time.Since(startTime).Round(time.Millisecond))
	return result, nil
}

// prepareDirectories checks the input directory and creates the output directory
func (c *Converter) prepareDirectories() error {
	if err := utils.RequireDir(c.config.InputDir); err != nil {
		return utils.NewSetupError("input directory is not readable", err).
			WithContext("dir", c.config.InputDir)
	}
	if err := utils.EnsureDir(c.config.OutputDir); err != nil {
		return utils.NewSetupError("failed to create output directory", err).
			WithContext("dir", c.config.OutputDir)
	}
	return nil
}

// claimOutputs assigns each file its output path and returns the indices
// to convert. A file whose output was already claimed by an earlier file
// with the same base name fails instead of overwriting it.
func (c *Converter) claimOutputs(files []types.InputFile, result *RunResult) []int {
	claimed := make(map[string]string, len(files))
	pending := make([]int, 0, len(files))

	for i, f := range files {
		output := c.config.OutputPathFor(f.Base)
		result.outcomes[i] = FileOutcome{Input: f.Path, Output: output}

		if first, ok := claimed[output]; ok {
			err := utils.NewError(utils.ErrorTypeConflict,
				fmt.Sprintf("%s would overwrite the output of %s", f.Name, first), nil).
				WithContext("output", output)
			c.logger.Warn("Not converting %s: %s is already produced from %s", f.Name, filepath.Base(output), first)
			result.record(i, FileOutcome{Input: f.Path, Output: output, Err: err})
			continue
		}
		claimed[output] = f.Name
		pending = append(pending, i)
	}
	return pending
}

// runWorkers fans the pending files out to a bounded pool. Cancellation
// stops dispatch; files already handed to a worker run to completion,
// cleanup included.
func (c *Converter) runWorkers(ctx context.Context, files []types.InputFile, pending []int, result *RunResult) {
	workers := c.config.Workers
	if workers < 1 {
		workers = 1
	}
	if workers > len(pending) {
		workers = len(pending)
	}

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				result.record(i, c.processFile(ctx, files[i]))
			}
		}()
	}

dispatch:
	for n, i := range pending {
		select {
		case <-ctx.Done():
			c.logger.Warn("Cancelled, %d files left unprocessed", len(pending)-n)
			break dispatch
		case jobs <- i:
		}
	}
	close(jobs)
	wg.Wait()
}

// processFile runs one file through its steps. The per-task temp manager
// removes any staged intermediate on every exit path, panics included.
func (c *Converter) processFile(ctx context.Context, file types.InputFile) (outcome FileOutcome) {
	outcome = FileOutcome{Input: file.Path, Output: c.config.OutputPathFor(file.Base)}

	if c.config.SkipExisting && fileExists(outcome.Output) {
		c.logger.Progress("⏭️", "Skipping %s, %s already exists", file.Name, filepath.Base(outcome.Output))
		outcome.Skipped = true
		return outcome
	}

	c.logger.Progress("🔄", "Converting %s", file.Name)

	defer func() {
		if r := recover(); r != nil {
			outcome.Err = utils.NewError(utils.ErrorTypeSystem, fmt.Sprintf("panic while converting %s: %v", file.Name, r), nil)
		}
		if outcome.Err != nil {
			c.logger.Warn("Failed to convert %s: %v", file.Name, outcome.Err)
		}
	}()

	temp := c.newTempManager()
	outcome.Err = temp.WithCleanup(func() error {
		return c.convert(ctx, file, &outcome, temp)
	})
	return outcome
}

func (c *Converter) convert(ctx context.Context, file types.InputFile, outcome *FileOutcome, temp interfaces.TempFileManager) error {
	task := types.ConversionTask{InputPath: file.Path, OutputPath: outcome.Output}

	if c.stager.NeedsStaging(file.Extension) {
		staged, err := c.stager.Stage(ctx, file.Path, temp)
		if err != nil {
			return err
		}
		task.StagedPath = staged
		outcome.Staged = true
	}

	if err := c.encoder.Encode(ctx, task.EffectiveInput(), task.OutputPath); err != nil {
		return err
	}
	outcome.Encoded = true

	if c.validator == nil {
		c.logger.Progress("✅", "%s -> %s", file.Name, filepath.Base(task.OutputPath))
		return nil
	}

	verdict, err := c.validator.Validate(ctx, task.OutputPath)
	if err != nil {
		return err
	}
	outcome.Validated = true
	outcome.Valid = verdict.Valid
	if verdict.Valid {
		c.logger.Progress("✅", "%s -> %s (valid JP2)", file.Name, filepath.Base(task.OutputPath))
	} else {
		c.logger.Warn("%s is not a valid JP2", task.OutputPath)
	}
	return nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
