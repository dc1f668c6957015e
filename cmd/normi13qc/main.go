// normi13qc runs Normi13 X-ray quality control on a DICOM series.
//
// Usage:
//
//	normi13qc run -c <config> -d <studydir> -r <results.json> [--db <results.sqlite>] [--out <dir>]
//	normi13qc room -c <config> -a <action>
//	normi13qc config init <path>
//	normi13qc version
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"normi13qc/internal/logging"
	"normi13qc/pkg/analysis"
)

// version is set at build time via -ldflags.
var version = "dev"

var rootFlags struct {
	logLevel  string
	logFormat string
}

var rootCmd = &cobra.Command{
	Use:   "normi13qc",
	Short: "Normi13 phantom QC for digital radiography",
	Long:  "normi13qc resolves room definitions from a module configuration\nand runs the configured Normi13 QC actions on a DICOM series.",
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		level, err := logging.ParseLevel(rootFlags.logLevel)
		if err != nil {
			return err
		}
		logging.Init(level, rootFlags.logFormat, cmd.ErrOrStderr())
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the program and analysis versions",
	Run: func(cmd *cobra.Command, _ []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "normi13qc %s (analysis %s)\n", version, analysis.Version)
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&rootFlags.logLevel, "log-level", "info", "Log level: debug, info, warn, error")
	pf.StringVar(&rootFlags.logFormat, "log-format", "text", "Log format: text or json")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(roomCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.Version = version
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
