package main

import (
	"os"

	"github.com/spf13/cobra"

	"pullconf/internal/agent"
	"pullconf/pkg/logging"
)

// version can be set during build with -ldflags.
var version = "dev"

var (
	debug   bool
	summary bool
)

func initLogging(config *agent.Config) {
	level := logging.LevelInfo
	if debug {
		level = logging.LevelDebug
	}
	logging.Init("pullconf", version, config.LogFormat, level, os.Stderr)
}

var rootCmd = &cobra.Command{
	Use:   "pullconf",
	Short: "Apply this host's resource catalog",
	Long: `pullconf fetches the resource catalog pullconfd compiled for this host
and converges local system state to it: files, directories, symlinks,
accounts, packages, cron jobs and resolver configuration, each applied
after its dependencies.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		config, err := agent.ConfigFromEnvironment()
		if err != nil {
			return err
		}
		initLogging(config)
		return agent.Run(config, agent.NewSystem(), summary)
	},
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Print the catalog without applying it",
	RunE: func(cmd *cobra.Command, args []string) error {
		config, err := agent.ConfigFromEnvironment()
		if err != nil {
			return err
		}
		initLogging(config)
		return agent.List(config)
	},
}

func main() {
	rootCmd.Version = version
	rootCmd.SetVersionTemplate(`{{printf "pullconf version %s\n" .Version}}`)
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
	rootCmd.Flags().BoolVar(&summary, "summary", false, "print a table of applied resources")
	rootCmd.AddCommand(listCmd)

	if err := rootCmd.Execute(); err != nil {
		logging.Error("main", err, "pullconf failed")
		os.Exit(1)
	}
}
