package main

import (
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		b, err := openBack(conf)
		if err != nil {
			return err
		}
		defer b.Close()

		log.Info("database schema is up to date")
		return nil
	},
}

var rerankCmd = &cobra.Command{
	Use:   "rerank",
	Short: "Recompute every rating by replaying all results",
	RunE: func(cmd *cobra.Command, args []string) error {
		b, err := openBack(conf)
		if err != nil {
			return err
		}
		defer b.Close()

		return b.Rerank(cmd.Context())
	},
}
