// Printscout finds network printers and reports, per print plugin, how many
// of them the plugin could serve.
//
// It browses the printer DNS-SD services on the local network, feeds every
// device to one plugin per vendor in the catalogue, and prints or serves
// the live counts.
//
// Usage:
//
//	printscout [command] [flags]
//
// See 'printscout --help' for available commands.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/muurk/printscout/internal/config"
	"github.com/muurk/printscout/internal/logging"
	"github.com/muurk/printscout/internal/version"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// Global flags
var (
	configPath   string
	logLevel     string
	outputFormat string
)

var rootCmd = &cobra.Command{
	Use:   "printscout",
	Short: "Printer discovery for print plugins",
	Long: `Discover printers on the local network and count, per print plugin,
the printers that plugin can serve.

Printers are found through mDNS/DNS-SD (IPP, IPPS, Privet, PDL and LPD
services). Each vendor in the catalogue gets a plugin that classifies the
printers it recognises; the plugins with the most printers are the ones
worth installing.

The vendor catalogue is read from the config directory; run
'printscout config init' to write the built-in catalogue there for editing.`,
	Version:       version.Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := logging.Initialize(logLevel); err != nil {
			return err
		}
		if configPath != "" {
			config.SetConfigPath(configPath)
		}
		switch outputFormat {
		case formatText, formatJSON:
			return nil
		default:
			return fmt.Errorf("unknown output format %q (use text or json)", outputFormat)
		}
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logging.Sync()
	},
}

func init() {
	// Disable automatic completion command generation
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to the vendor catalogue (default: <config dir>/printscout/vendors.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error); empty reads "+logging.LogLevelEnvVar)
	rootCmd.PersistentFlags().StringVar(&outputFormat, "format", formatText, "Output format (text, json)")

	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		info := version.Get()
		fmt.Fprintf(cmd.OutOrStdout(), "printscout %s (commit: %s, %s %s)\n",
			info.Version, info.Commit, info.GoVersion, info.Platform)
	},
}
