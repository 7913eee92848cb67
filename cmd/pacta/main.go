// pacta is a command line front end for the contract algebra: it reads
// contract documents, applies an operator, and writes the result back as
// a document.
package main

import (
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/pacta-dev/pacta/logger"
	"github.com/pacta-dev/pacta/polyhedral"
)

var rootCmd = &cobra.Command{
	Use:          "pacta [subcommand]",
	Short:        "pacta manipulates polyhedral assume-guarantee contracts",
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if !flagVerbose {
			zerolog.SetGlobalLevel(zerolog.WarnLevel)
		}
		polyhedral.SetLimits(polyhedral.Limits{
			MaxTerms: flagMaxTerms,
			Timeout:  flagTimeout,
		})
	},
}

var (
	flagVerbose  bool
	flagMaxTerms int
	flagTimeout  time.Duration
)

func init() {
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().IntVar(&flagMaxTerms, "max-terms", 0, "abort eliminations exceeding this many intermediate terms (0 = default)")
	rootCmd.PersistentFlags().DurationVar(&flagTimeout, "timeout", 0, "abort eliminations exceeding this duration (0 = none)")

	rootCmd.AddCommand(composeCmd)
	rootCmd.AddCommand(quotientCmd)
	rootCmd.AddCommand(mergeCmd)
	rootCmd.AddCommand(refinesCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log := logger.Logger()
		log.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}
