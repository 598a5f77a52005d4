package main

import (
	"foosball/internal/config"

	"github.com/spf13/cobra"
)

var configWriteCmd = &cobra.Command{
	Use:   "config:write",
	Short: "Write the current configuration to the --config file or the user config dir",
	RunE: func(cmd *cobra.Command, args []string) error {
		return writeConfig(conf, configPath)
	},
}

func writeConfig(conf *config.Config, path string) error {
	if path == "" {
		return conf.Write()
	}

	return conf.WriteFile(path)
}
