package main

import (
	"fmt"
	"os"
	"strings"

	"foosball/internal/back"
	"foosball/internal/config"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

// Version holds the build-time version string.
var Version = "unknown" // nolint:gochecknoglobals

var (
	configPath string
	conf       *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "foosball",
	Short: "Foosball ladder with TrueSkill ratings",
	Long: `Foosball is a tool to manage a foosball ladder: players, teams and
results, rated per role (offense and defense) using TrueSkill.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		conf, err = config.NewFromFile(configPath)
		if err != nil {
			return fmt.Errorf("unable to load configuration: %w", err)
		}

		return setupLogger(conf)
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Display the current version",
	// No configuration needed.
	PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "Foosball %s\n", Version)
	},
}

func init() { // nolint:gochecknoinits
	rootCmd.PersistentFlags().StringVar(
		&configPath, "config", "",
		"path to a JSON or YAML configuration file, defaults to the user config dir",
	)

	rootCmd.AddCommand(
		versionCmd,
		serveCmd,
		migrateCmd,
		rerankCmd,
		rankingCmd,
		fixturesCmd,
		configWriteCmd,
	)
}

func setupLogger(conf *config.Config) error {
	if conf.LogLevel != "" {
		level, err := log.ParseLevel(strings.ToLower(conf.LogLevel))
		if err != nil {
			return err
		}
		log.SetLevel(level)
	}

	if conf.LogFormat == "json" {
		log.SetFormatter(log.JSONFormatter)
	}
	log.SetReportTimestamp(true)

	return nil
}

// openBack connects to the configured database and brings its schema up to
// date.
func openBack(conf *config.Config, options ...back.Option) (*back.Back, error) {
	options = append([]back.Option{back.WithTrueSkill(conf.TrueSkillEnv())}, options...)
	b, err := back.New(conf.DBDriver, conf.DBDSN, options...)
	if err != nil {
		return nil, err
	}

	fs, err := migrations()
	if err != nil {
		b.Close()
		return nil, err
	}

	if err := b.Migrate(fs); err != nil {
		b.Close()
		return nil, err
	}

	return b, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
