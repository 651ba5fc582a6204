package main

import (
	"os"

	"github.com/spf13/cobra"

	"casefile/internal/config"
)

var configPath = config.DefaultFileName

func main() {
	root := &cobra.Command{
		Use:           "casefile",
		Short:         "Terminal investigation game interpreter",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.Version = version
	root.SetVersionTemplate("{{.Version}}\n")
	root.PersistentFlags().StringVar(&configPath, "config", config.DefaultFileName, "Path to the project config")
	root.AddCommand(playCmd())
	root.AddCommand(runCmd())
	root.AddCommand(validateCmd())
	root.AddCommand(savesCmd())
	root.AddCommand(serveCmd())
	root.AddCommand(initCmd())
	root.AddCommand(versionCmd())
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
