// cmd/tools/prismctl/main.go
package main

import (
	"fmt"
	"os"

	"prism-workers/internal/common/config"
	"prism-workers/internal/common/logger"

	"github.com/spf13/cobra"
)

var (
	configPath   string
	registryPath string
	verbose      bool
)

var rootCmd = &cobra.Command{
	Use:   "prismctl",
	Short: "Operator tooling for the course-assistant workers",
	Long: `prismctl inspects the evidence index, manages the course catalog
and maintains the activity registry used by the worker manager.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config.yaml (defaults to ./configs/config.yaml lookup)")
	rootCmd.PersistentFlags().StringVar(&registryPath, "registry", "configs/activity-registry.json", "path to the activity registry")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	storeCmd.AddCommand(storeInspectCmd)
	coursesCmd.AddCommand(coursesListCmd, coursesAddCmd)
	registryCmd.AddCommand(registryValidateCmd, registryListCmd, registryUpdateCmd)
	rootCmd.AddCommand(storeCmd, coursesCmd, registryCmd)
}

func loadConfig() (*config.Config, error) {
	if configPath != "" {
		return config.LoadFromFile(configPath)
	}
	return config.Load()
}

func newLogger() logger.Logger {
	level := "warn"
	if verbose {
		level = "debug"
	}
	return logger.NewStructured(level, "console")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
