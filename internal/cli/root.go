package cli

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	debugMode bool
	envFile   string
)

var rootCmd = &cobra.Command{
	Use:   "bullpost",
	Short: "Command line client for BullPost announcements",
	Long: `bullpost logs in to a BullPost backend with a one-time code, manages the
Discord, Telegram and Twitter accounts announcements are sent to, and drafts,
regenerates, schedules and publishes posts.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		initLogging()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Environment file to load before reading configuration")
}

func initLogging() {
	if err := godotenv.Load(envFile); err != nil {
		logrus.Debugf("No %s file loaded: %v", envFile, err)
	}

	logrus.SetOutput(os.Stderr)
	logrus.SetFormatter(&logrus.TextFormatter{
		DisableTimestamp: true,
	})
	logrus.SetLevel(logrus.WarnLevel)
	if debugMode {
		logrus.SetLevel(logrus.DebugLevel)
		os.Setenv("DEBUG", "true")
	}
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}
