// Package commands implements the CLI commands for doccrawl.
package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jmylchreest/doccrawl/internal/config"
	"github.com/jmylchreest/doccrawl/internal/logger"
)

var rootCmd = &cobra.Command{
	Use:   "doccrawl",
	Short: "Crawl documentation sites into a single Markdown file",
	Long: `doccrawl crawls a documentation site best-first, strips navigation
chrome from every page and consolidates the pages into one Markdown file.

Examples:
  # Crawl a site one level deep into storage/docs.example.com.md
  doccrawl crawl https://docs.example.com/

  # Go deeper, prefer API pages and keep navigation links
  doccrawl crawl https://docs.example.com/ -d 3 -k api -k reference \
      --remove-links=false -o api.md

  # Render a single-page app in Chrome before converting
  doccrawl crawl https://app.example.com/docs --wait-for-js-render`,
	SilenceErrors: true,
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().String("config", "", "config file (default $HOME/.doccrawl.yaml)")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolP("quiet", "q", false, "only log errors")
	rootCmd.PersistentFlags().Bool("log-json", false, "log as JSON")

	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
	_ = viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	_ = viper.BindPFlag("quiet", rootCmd.PersistentFlags().Lookup("quiet"))
	_ = viper.BindPFlag("log_json", rootCmd.PersistentFlags().Lookup("log-json"))
}

func initConfig() {
	if cfgFile := viper.GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(home)
		}
		viper.AddConfigPath(".")
		viper.SetConfigName(".doccrawl")
		viper.SetConfigType("yaml")
	}

	config.SetDefaults(viper.GetViper())

	// Environment variables
	viper.SetEnvPrefix("DOCCRAWL")
	viper.AutomaticEnv()

	// Hugging Face tokens are usually exported under their own names
	_ = viper.BindEnv(config.KeyToken, "DOCCRAWL_HF_TOKEN", "HF_TOKEN", "HF_API_KEY")

	// Read config file (ignore error if not found)
	if err := viper.ReadInConfig(); err == nil {
		logger.Debug("loaded config file", "path", viper.ConfigFileUsed())
	}
}

// initLogger configures logging from the global flags. verbose raises the
// default warn level to info.
func initLogger(verbose bool) error {
	level := "warn"
	switch {
	case viper.GetBool("quiet"):
		level = "error"
	case viper.GetBool("debug"):
		level = "debug"
	case verbose:
		level = "info"
	}
	return logger.Init(logger.Options{
		Level: level,
		JSON:  viper.GetBool("log_json"),
	})
}

// Execute runs the root command.
func Execute() error {
	if err := rootCmd.Execute(); err != nil {
		logError("%v", err)
		return err
	}
	return nil
}

// logError prints an error message to stderr.
func logError(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
}

// logInfo prints an info message to stderr (unless quiet mode).
func logInfo(format string, args ...any) {
	if !viper.GetBool("quiet") {
		fmt.Fprintf(os.Stderr, format+"\n", args...)
	}
}
