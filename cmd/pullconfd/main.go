package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"pullconf/internal/server"
	"pullconf/pkg/logging"
)

// version can be set during build with -ldflags.
var version = "dev"

var debug bool

var rootCmd = &cobra.Command{
	Use:   "pullconfd",
	Short: "Serve resource catalogs to pullconf clients",
	Long: `pullconfd compiles TOML host and group declarations into per-client
resource catalogs and serves them over authenticated HTTPS. Declarations
reload on SIGHUP and whenever the resource directory changes.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		config, err := server.ConfigFromEnvironment()
		if err != nil {
			return err
		}

		level := logging.LevelInfo
		if debug {
			level = logging.LevelDebug
		}
		logging.Init("pullconfd", version, config.LogFormat, level, os.Stderr)

		return server.NewApp(config).Run(context.Background())
	},
}

func main() {
	rootCmd.Version = version
	rootCmd.SetVersionTemplate(`{{printf "pullconfd version %s\n" .Version}}`)
	rootCmd.Flags().BoolVar(&debug, "debug", false, "enable debug logging")

	if err := rootCmd.Execute(); err != nil {
		logging.Error("main", err, "pullconfd failed to start")
		os.Exit(1)
	}
}
