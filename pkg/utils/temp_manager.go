package utils

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	"github.com/nodewee/image-to-jp2/pkg/interfaces"
	"github.com/nodewee/image-to-jp2/pkg/logger"
)

// SimpleTempManager tracks the transient files of a single conversion task.
// Every file it creates is removed by Cleanup, which is idempotent.
type SimpleTempManager struct {
	baseDir   string
	tempFiles []string
	mu        sync.Mutex
	logger    *logger.Logger
}

// Ensure SimpleTempManager implements TempFileManager interface
var _ interfaces.TempFileManager = (*SimpleTempManager)(nil)

// NewSimpleTempManager creates a temp manager rooted at baseDir (system temp dir when empty)
func NewSimpleTempManager(baseDir string, log *logger.Logger) *SimpleTempManager {
	if baseDir == "" {
		baseDir = os.TempDir()
	}
	if log == nil {
		log = logger.Discard()
	}

	return &SimpleTempManager{
		baseDir: NormalizePath(baseDir),
		logger:  log,
	}
}

// GetBasePath returns the directory temp files are created in
func (tm *SimpleTempManager) GetBasePath() string {
	return tm.baseDir
}

// CreateTempFile creates an empty file named <prefix><uuid><suffix> and tracks it for cleanup
func (tm *SimpleTempManager) CreateTempFile(prefix, suffix string) (string, error) {
	tm.mu.Lock()
	defer tm.mu.Unlock()

	if err := EnsureDir(tm.baseDir); err != nil {
		return "", fmt.Errorf("failed to ensure temp directory: %w", err)
	}

	name := filepath.Join(tm.baseDir, prefix+uuid.NewString()+suffix)
	file, err := os.OpenFile(name, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0600)
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	file.Close()

	tm.tempFiles = append(tm.tempFiles, name)
	tm.logger.Debug("Created temp file: %s", name)
	return name, nil
}

// Release removes path from the tracked set and deletes it immediately
func (tm *SimpleTempManager) Release(path string) error {
	tm.mu.Lock()
	defer tm.mu.Unlock()

	for i, f := range tm.tempFiles {
		if f == path {
			tm.tempFiles = append(tm.tempFiles[:i], tm.tempFiles[i+1:]...)
			if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
				return fmt.Errorf("failed to remove temp file %s: %w", path, err)
			}
			return nil
		}
	}
	return nil
}

// WithCleanup executes fn and always runs Cleanup afterwards, even if fn panics
func (tm *SimpleTempManager) WithCleanup(fn func() error) error {
	defer func() {
		if err := tm.Cleanup(); err != nil {
			tm.logger.Error("Temporary file cleanup failed: %v", err)
		}
	}()
	return fn()
}

// Cleanup removes every tracked file. Calling it again is a no-op.
func (tm *SimpleTempManager) Cleanup() error {
	tm.mu.Lock()
	defer tm.mu.Unlock()

	var errs []error

	for _, file := range tm.tempFiles {
		if err := os.Remove(file); err != nil && !os.IsNotExist(err) {
			errs = append(errs, fmt.Errorf("failed to remove temp file %s: %w", file, err))
			tm.logger.Warn("Failed to remove temporary file: %s, error: %v", file, err)
		} else {
			tm.logger.Debug("Removed temporary file: %s", file)
		}
	}

	tm.tempFiles = nil

	return errors.Join(errs...)
}
