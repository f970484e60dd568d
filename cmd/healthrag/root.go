package main

import (
	"os"

	"github.com/spf13/cobra"

	"health-rag/internal/di"
	"health-rag/internal/infra/config"
	"health-rag/internal/infra/logger"
)

var (
	envFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "healthrag",
	Short: "Ask health questions answered from MedlinePlus",
	Long: `healthrag runs the health assistant pipeline from the command line.

Example usage:
  healthrag ask "What is asthma?"
  healthrag ask "what else could it be?" --history-file chat.json
  healthrag search "diabetes" --max 5`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", "dotenv file to load (default: $ENV_FILE or .env when present)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log pipeline progress to stderr")
}

// buildComponents loads configuration and wires the pipeline. Logs go to stderr so stdout
// carries only the answer.
func buildComponents() (*di.ApplicationComponents, error) {
	var cfg *config.Config
	if envFile != "" {
		loaded, err := config.LoadFile(envFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	} else {
		cfg = config.Load()
	}

	level := "warn"
	if verbose {
		level = "debug"
	}
	log := logger.New(logger.Options{Level: level, Output: os.Stderr, ServiceName: cfg.OTel.ServiceName})

	return di.NewApplicationComponents(cfg, log)
}
