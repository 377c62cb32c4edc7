package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"maps"
	"os"
	"os/signal"
	"path/filepath"
	"slices"
	"strings"
	"syscall"

	"github.com/nodewee/image-to-jp2/pkg/config"
	"github.com/nodewee/image-to-jp2/pkg/core"
	"github.com/nodewee/image-to-jp2/pkg/logger"
	"github.com/nodewee/image-to-jp2/pkg/types"
	"github.com/nodewee/image-to-jp2/pkg/utils"

	"github.com/spf13/cobra"
)

var (
	inputDir       string
	outputDir      string
	withOpenJPEG   bool
	withKakadu     bool
	binaryPath     string
	validateJP2    bool
	workers        int
	timeoutMinutes int
	skipExisting   bool
	reportDir      string
	logLevel       string
	verbose        bool
)

// AppHandler encapsulates application main processing logic
type AppHandler struct {
	config *config.Config
	logger *logger.Logger
	out    io.Writer
}

// NewAppHandler creates an application handler writing its summary to out
func NewAppHandler(out io.Writer) *AppHandler {
	return &AppHandler{out: out}
}

// Run converts the input directory and prints the report. Only setup and
// configuration problems are returned; per-file failures end up in the report.
func (h *AppHandler) Run(ctx context.Context, cmd *cobra.Command) error {
	if err := h.initialize(cmd); err != nil {
		return err
	}

	h.printSummary()

	converter, err := core.NewConverterFromConfig(h.config, h.logger)
	if err != nil {
		return err
	}

	result, err := converter.Convert(ctx)
	if err != nil {
		return err
	}

	h.displayFailures(result)
	return core.WriteReport(h.out, result)
}

// initialize loads configuration and creates the logger
func (h *AppHandler) initialize(cmd *cobra.Command) error {
	// File, then environment, then flags
	h.config = config.LoadConfigWithEnvOverrides()
	if err := h.applyCommandLineOverrides(cmd); err != nil {
		return err
	}

	if err := h.config.Validate(); err != nil {
		return err
	}

	h.logger = logger.NewLogger(h.config.LogLevel, h.config.EnableVerbose)
	h.logger.SetOutput(h.out)
	return nil
}

// applyCommandLineOverrides applies flags the user actually set
func (h *AppHandler) applyCommandLineOverrides(cmd *cobra.Command) error {
	flags := cmd.Flags()

	for _, dir := range []struct {
		value  string
		target *string
	}{
		{inputDir, &h.config.InputDir},
		{outputDir, &h.config.OutputDir},
		{reportDir, &h.config.ReportDir},
	} {
		if dir.value == "" {
			continue
		}
		abs, err := filepath.Abs(dir.value)
		if err != nil {
			return utils.WrapError(err, utils.ErrorTypeValidation, "error resolving directory path")
		}
		*dir.target = abs
	}

	if flags.Changed("with-openjpeg") || flags.Changed("with-kakadu") {
		h.config.Encoder = config.ResolveEncoder(withOpenJPEG, withKakadu)
	}
	if flags.Changed("binary-path") {
		// An explicit base path replaces encoder paths from the config file
		h.config.BinaryPath = binaryPath
		h.config.KakaduPath = ""
		h.config.OpenJPEGPath = ""
	}
	if flags.Changed("workers") {
		h.config.Workers = workers
	}
	if flags.Changed("timeout") {
		h.config.TimeoutMinutes = timeoutMinutes
	}
	if flags.Changed("log-level") {
		h.config.LogLevel = logLevel
	}
	if validateJP2 {
		h.config.ValidateJP2 = true
	}
	if skipExisting {
		h.config.SkipExisting = true
	}
	if verbose {
		h.config.EnableVerbose = true
	}
	return nil
}

// printSummary echoes the run settings before any file is touched
func (h *AppHandler) printSummary() {
	fmt.Fprintf(h.out, "# Input directory:\t %s\n", h.config.InputDir)
	fmt.Fprintf(h.out, "# Output directory:\t %s\n", h.config.OutputDir)
	encoderDir := filepath.Dir(h.config.EncoderPath())
	if h.config.Encoder == types.EncoderKakadu {
		fmt.Fprintf(h.out, "# %s encoder will be used (default), from %s\n", h.config.Encoder.Description(), encoderDir)
	} else {
		fmt.Fprintf(h.out, "# %s encoder will be used, from %s\n", h.config.Encoder.Description(), encoderDir)
	}
	if h.config.ValidateJP2 {
		fmt.Fprintln(h.out, "# All JP2 files will be validated with Jpylyzer")
	}
	if h.config.Workers > 1 {
		fmt.Fprintf(h.out, "# Using %d workers\n", h.config.Workers)
	}
}

// displayFailures logs the error detail of every failed file, and the steps
// each file went through at debug level
func (h *AppHandler) displayFailures(result *core.RunResult) {
	for _, o := range result.Outcomes() {
		h.logger.Debug("%s: staged=%v encoded=%v validated=%v valid=%v skipped=%v",
			filepath.Base(o.Input), o.Staged, o.Encoded, o.Validated, o.Valid, o.Skipped)
	}
	byType := make(map[utils.ErrorType]int)
	for _, o := range result.Failures {
		h.logger.Error("%s: %v", filepath.Base(o.Input), o.Err)
		byType[utils.GetErrorType(o.Err)]++
	}
	if len(byType) > 0 {
		var parts []string
		for _, t := range slices.Sorted(maps.Keys(byType)) {
			parts = append(parts, fmt.Sprintf("%s: %d", t, byType[t]))
		}
		h.logger.Warn("%d images failed (%s)", len(result.Failures), strings.Join(parts, ", "))
	}
	if result.Skipped > 0 {
		h.logger.ProgressAlways("⏭️", "%d images skipped, output already present", result.Skipped)
	}
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "image-to-jp2 -i <input_dir> -o <output_dir>",
	Short: "Convert a folder of TIFF, JPEG and PNG images to JP2",
	Long: `Batch-convert the images of a directory to JPEG 2000 (JP2) files using an external encoder.

Features:
- Lossless encoding with Kakadu (kdu_compress, default) or OpenJPEG (opj_compress)
- JPEG inputs are staged to a temporary PPM/PGM before encoding
- Optional validation of every output with jpylyzer
- Hidden files, names starting with '_', Thumbs.db and unsupported types are ignored

Supported inputs: .jpg .jpeg .tif .tiff .png (any case)

Examples:
  image-to-jp2 -i ./scans -o ./jp2                           # Encode with Kakadu from /usr/local/bin
  image-to-jp2 -i ./scans -o ./jp2 --with-openjpeg            # Encode with OpenJPEG
  image-to-jp2 -i ./scans -o ./jp2 -b /opt/kakadu/bin         # Use encoders from another directory
  image-to-jp2 -i ./scans -o ./jp2 --validate-jp2             # Validate outputs with jpylyzer
  image-to-jp2 -i ./scans -o ./jp2 --validate-jp2 --report-dir ./reports  # Keep jpylyzer reports
  image-to-jp2 -i ./scans -o ./jp2 --workers 4 -v              # Four parallel conversions, verbose`,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		return NewAppHandler(cmd.OutOrStdout()).Run(ctx, cmd)
	},
}

// Execute runs the root command and exits non-zero on setup or configuration errors
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, formatError(err))
		os.Exit(1)
	}
}

// formatError renders an error for the terminal
func formatError(err error) string {
	var appErr *utils.AppError
	if errors.As(err, &appErr) {
		if appErr.Cause != nil {
			return fmt.Sprintf("Error (%s): %s: %v", appErr.Type, appErr.Message, appErr.Cause)
		}
		return fmt.Sprintf("Error (%s): %s", appErr.Type, appErr.Message)
	}
	return fmt.Sprintf("Error: %v", err)
}

func init() {
	rootCmd.Flags().StringVarP(&inputDir, "input_dir", "i", "",
		"Directory containing the images to convert")
	rootCmd.Flags().StringVarP(&outputDir, "output_dir", "o", "",
		"Directory receiving the JP2 files (created if missing)")
	rootCmd.Flags().BoolVar(&withOpenJPEG, "with-openjpeg", false,
		"Select OpenJPEG encoder")
	rootCmd.Flags().BoolVar(&withKakadu, "with-kakadu", false,
		"Select Kakadu encoder (default, wins over --with-openjpeg)")
	rootCmd.Flags().StringVarP(&binaryPath, "binary-path", "b", config.DefaultBinaryPath,
		"Base path to openjpeg or kakadu executables")
	rootCmd.Flags().BoolVar(&validateJP2, "validate-jp2", false,
		"Validate generated JP2 files with jpylyzer")
	rootCmd.Flags().IntVar(&workers, "workers", config.DefaultWorkers,
		"Number of images converted in parallel")
	rootCmd.Flags().IntVar(&timeoutMinutes, "timeout", config.DefaultTimeoutMinutes,
		"Per-image encoder timeout in minutes")
	rootCmd.Flags().BoolVar(&skipExisting, "skip-existing", false,
		"Do not re-encode images whose JP2 output already exists")
	rootCmd.Flags().StringVar(&reportDir, "report-dir", "",
		"Save each pretty-printed jpylyzer report to this directory")
	rootCmd.Flags().StringVar(&logLevel, "log-level", config.DefaultLogLevel,
		"Log level (debug, info, warn, error)")
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false,
		"Enable verbose output to show per-image progress")
	// Declared here so cobra uses -V for its version flag; -v is verbose
	rootCmd.Flags().BoolP("version", "V", false, "Show version information")
	rootCmd.SetVersionTemplate("image-to-jp2 {{.Version}}\n")
	rootCmd.Version = version

	_ = rootCmd.MarkFlagRequired("input_dir")
	_ = rootCmd.MarkFlagRequired("output_dir")
}
