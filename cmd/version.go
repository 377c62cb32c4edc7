package cmd

import (
	"fmt"
	"io"
	"runtime"
	"strings"

	"github.com/spf13/cobra"
)

// Version information variables - set by main.go
var (
	version   = "dev"
	gitCommit = "none"
	buildTime = "unknown"
	buildBy   = "unknown"
)

// SetVersionInfo sets the version information from main.go
func SetVersionInfo(v, commit, buildTimeParam, buildByParam string) {
	version = v
	gitCommit = commit
	buildTime = buildTimeParam
	buildBy = buildByParam
	rootCmd.Version = v
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Long:  "Show the build and runtime details of image-to-jp2.",
	Run: func(cmd *cobra.Command, args []string) {
		showVersionInfo(cmd.OutOrStdout())
	},
}

func showVersionInfo(w io.Writer) {
	fmt.Fprintf(w, "🖼️  Image to JP2 Converter\n")
	fmt.Fprintf(w, "==========================\n\n")

	fmt.Fprintf(w, "🔖 Version Information:\n")
	fmt.Fprintf(w, "  Version:     %s\n", version)
	fmt.Fprintf(w, "  Git Commit:  %s\n", gitCommit)
	fmt.Fprintf(w, "  Build Time:  %s\n", buildTime)
	fmt.Fprintf(w, "  Built By:    %s\n", buildBy)
	fmt.Fprintf(w, "\n")

	fmt.Fprintf(w, "⚙️ Runtime Information:\n")
	fmt.Fprintf(w, "  Go Version:  %s\n", runtime.Version())
	fmt.Fprintf(w, "  OS/Arch:     %s/%s\n", runtime.GOOS, runtime.GOARCH)
	fmt.Fprintf(w, "\n")

	if isReleaseVersion(version) {
		fmt.Fprintf(w, "🚀 This is a release build\n")
	} else {
		fmt.Fprintf(w, "🔧 This is a development build\n")
	}
}

func isReleaseVersion(v string) bool {
	return !strings.Contains(v, "dev") && !strings.Contains(v, "+")
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
