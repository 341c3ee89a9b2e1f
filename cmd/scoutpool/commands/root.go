package commands

import (
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/scoutpool/scoutpool/internal/api"
	"github.com/scoutpool/scoutpool/internal/config"
)

var (
	cfg    *config.Config
	logger zerolog.Logger
	client *api.Client

	verbose bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "scoutpool",
	Short: "Scoutpool - carpool coordination for scout troops",
	Long: `Scoutpool is the terminal client for the scout carpool service:
parents register children and vehicles, leaders publish activities, and
parents create or join carpools with an in-app chat per carpool.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg = config.Load()

		level := zerolog.WarnLevel
		if verbose {
			level = zerolog.DebugLevel
		}
		if cfg.IsDevelopment() {
			logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
				Level(level).
				With().
				Timestamp().
				Logger()
		} else {
			logger = zerolog.New(os.Stderr).
				Level(level).
				With().
				Timestamp().
				Logger()
		}

		client = api.NewClient(cfg.APIURL, cfg.ConfigDir, logger)
		if err := client.LoadSession(); err != nil {
			logger.Warn().Err(err).Msg("could not restore saved session")
		}
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
}
