package interfaces

// TempFileManager manages temporary files that are cleaned up after processing.
// These files are only used during the conversion of a single input.
type TempFileManager interface {
	// GetBasePath returns the directory temp files are created in
	GetBasePath() string

	// CreateTempFile creates a uniquely named temporary file
	CreateTempFile(prefix, suffix string) (string, error)

	// Release deletes a tracked file ahead of Cleanup
	Release(path string) error

	// WithCleanup executes a function with automatic cleanup
	WithCleanup(fn func() error) error

	// Cleanup removes every tracked file
	Cleanup() error
}
