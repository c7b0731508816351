// Command controlplane is the endpoint collector control plane binary:
// it serves the agent and operator HTTP surfaces (serve) and applies
// the DuckDB schema ahead of time (migrate).
package main

import (
	"fmt"
	"os"

	"github.com/jzelinskie/cobrautil/v2"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Version is set via -ldflags at build time.
var Version = "dev"

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "controlplane",
	Short:   "Control plane for the endpoint collector fleet",
	Version: Version,
	PersistentPreRunE: cobrautil.SyncViperPreRunE("sysmonctl"),
}

func init() {
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "console", "log output format (console, json)")
	rootCmd.PersistentFlags().String("datafile", ":memory:", "DuckDB data file path")
	cobra.CheckErr(viper.BindPFlags(rootCmd.PersistentFlags()))

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
}
