// Sds011ctl is a command line utility for SDS011 particulate matter
// sensors.
//
// It talks the sensor's serial protocol directly: querying measurements,
// streaming readings, and configuring reporting mode, work mode, working
// period, and device id.
//
// Usage:
//
//	sds011ctl [command] --device /dev/ttyUSB0 [flags]
//
// See 'sds011ctl --help' for available commands.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/finehaze/sds011/internal/logging"
	"github.com/finehaze/sds011/internal/version"
)

func main() {
	if err := logging.InitializeFromEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer logging.Sync()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "sds011ctl",
	Short: "SDS011 particulate sensor utility",
	Long: `A command line utility for SDS011 particulate matter sensors.

Reads measurements and configures the sensor over its serial protocol.
All commands need --device pointing at the sensor's serial port.`,
	Version:       version.Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	// Disable automatic completion command generation
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("sds011ctl %s\n", version.Full())
	},
}
