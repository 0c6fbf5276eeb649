// Command museum serves the virtual museum and offers tools for curators.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/teslashibe/go-museum/internal/config"
	"github.com/teslashibe/go-museum/internal/log"
)

var (
	cfgFile  string
	logLevel string

	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "museum",
	Short: "Virtual museum navigation server",
	Long: `museum runs the navigation core of the virtual museum: each visitor's
browser connects over a websocket and gets its own session with free
exploration, a guided tour and the welcome screen.

Configuration is read from --config (YAML or JSON), ./museum.yaml, and
MUSEUM_* environment variables such as MUSEUM_STOPS_URL.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(cfgFile)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("log-level") {
			loaded.Log.Level = logLevel
		}
		log.Init(loaded.Log.Level)
		cfg = loaded
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ./museum.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", config.LogLevel(), "log level: debug, info, warn, error")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(boundsCmd)
	rootCmd.AddCommand(stopsCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
