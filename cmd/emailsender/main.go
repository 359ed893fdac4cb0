// Package main is the entry point for the form submission email relay.
package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/antqd/emailsender/internal/config"
)

var (
	cfgFile string
	envFile string
)

var rootCmd = &cobra.Command{
	Use:   "emailsender",
	Short: "Relay website form submissions as email",
	Long: `emailsender accepts JSON form submissions over HTTP and delivers them
as HTML email to the Energy Planner staff and, for some forms, a copy to
the person who filled the form in.

Example:
  emailsender serve                      # listen on $PORT (default 3001)
  emailsender serve --config relay.yaml  # with module overrides
  emailsender modules                    # print the effective module table`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "path to YAML configuration file (optional)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before reading the environment")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(modulesCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig loads the env file, then configuration from the specified path
// (YAML + env override) or from environment variables only if no path is given.
func loadConfig() (*config.Config, error) {
	if err := config.LoadEnvFile(envFile); err != nil {
		return nil, err
	}

	if cfgFile != "" {
		return config.LoadFromFile(cfgFile)
	}
	return config.Load()
}
