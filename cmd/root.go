package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/hnakai/screenflow/internal/output"
	"github.com/hnakai/screenflow/internal/version"
)

var rootCmd = &cobra.Command{
	Use:   "screenflow",
	Short: "Replay image-driven action sequences against the desktop",
	Long:  "A tool that automates GUI applications without an API: it locates template images on the live screen, clicks them, pastes stored text, waits for UI changes, and logs interaction transcripts.",
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.Version = fmt.Sprintf("%s (commit: %s, built: %s)", version.Version, version.Commit, version.BuildDate)
	rootCmd.PersistentFlags().String("format", "yaml", "Output format: yaml, json")
	rootCmd.PersistentFlags().Bool("pretty", false, "Pretty-print JSON output")
	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		format, _ := rootCmd.PersistentFlags().GetString("format")
		switch format {
		case "yaml":
			output.OutputFormat = output.FormatYAML
		case "json":
			output.OutputFormat = output.FormatJSON
		default:
			return fmt.Errorf("unsupported format: %s (use yaml or json)", format)
		}
		pretty, _ := rootCmd.PersistentFlags().GetBool("pretty")
		output.PrettyOutput = pretty
		return nil
	}
}
