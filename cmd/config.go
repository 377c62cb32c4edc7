package cmd

import (
	"fmt"
	"io"

	"github.com/nodewee/image-to-jp2/pkg/config"

	"github.com/spf13/cobra"
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage encoder and validator path configuration",
	Long: `Manage external tool paths.

Configuration is stored in ~/.image-to-jp2/config.json. Conversion runs only
read it. A path set here wins over --binary-path for that tool while it points
at an executable.

Examples:
  image-to-jp2 config list                                   # List all tool paths
  image-to-jp2 config get kakadu_path                        # Get the kdu_compress path
  image-to-jp2 config set openjpeg_path /opt/openjpeg/bin/opj_compress
  image-to-jp2 config set jpylyzer_path ""                   # Fall back to PATH lookup
  image-to-jp2 config detect                                 # Save tools found on this machine`,
}

func listConfig(w io.Writer) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}

	configPath, _ := config.GetConfigFilePath()
	fmt.Fprintf(w, "📁 Config file: %s\n\n", configPath)

	fmt.Fprintln(w, "🛠️  Tool Paths:")
	for _, key := range config.ListConfigKeys() {
		value, err := config.ValueOf(cfg, key)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "  %-15s = %s\n", key, getDisplayValue(value))
	}
	return nil
}

// getDisplayValue returns a display-friendly value for empty strings
func getDisplayValue(value string) string {
	if value == "" {
		return "(not set)"
	}
	return value
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all tool path settings",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return listConfig(cmd.OutOrStdout())
	},
}

var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Get a specific tool path value",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		value, err := config.GetConfigValue(args[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s = %s\n", args[0], getDisplayValue(value))
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a specific tool path value",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.SetConfigValue(args[0], args[1]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✅ Successfully set %s = %s\n", args[0], getDisplayValue(args[1]))
		return nil
	},
}

var configDetectCmd = &cobra.Command{
	Use:   "detect",
	Short: "Detect installed tools and save their paths",
	Long:  "Look for kdu_compress, opj_compress and jpylyzer on PATH and in common install locations, and save the ones found for keys that are not set yet.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := config.DetectToolPaths(); err != nil {
			return err
		}
		return listConfig(cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(configCmd)

	configCmd.AddCommand(configListCmd)
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configDetectCmd)
}
