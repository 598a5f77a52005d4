package main

import (
	"context"
	"errors"

	"foosball/internal/back"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

var fixturesCmd = &cobra.Command{
	Use:   "dev:fixtures",
	Short: "Create default data for quick testing during development",
	RunE: func(cmd *cobra.Command, args []string) error {
		b, err := openBack(conf)
		if err != nil {
			return err
		}
		defer b.Close()

		return loadFixtures(cmd.Context(), b)
	},
}

func loadFixtures(ctx context.Context, b *back.Back) error {
	count, err := b.CountPlayers(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		return errors.New("refusing to load fixtures in a non-empty database")
	}

	if err := b.LoadFixtures(ctx); err != nil {
		return err
	}

	log.Info("fixtures loaded")
	return nil
}
