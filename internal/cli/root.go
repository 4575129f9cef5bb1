package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/klass-lk/miniblog/internal/app"
	"github.com/klass-lk/miniblog/internal/config"
	"github.com/klass-lk/miniblog/internal/logger"
)

var (
	cfgFile string
	cfg     *config.Config
	flags   config.Flags
	version = "dev"
)

var rootCmd = &cobra.Command{
	Use:   "miniblog",
	Short: "Minimal blogging REST API",
	Long: `miniblog serves a small blogging API: accounts, posts with unique
slugs, paginated public listings and RSS/sitemap feeds.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "help" || cmd.Name() == "version" {
			return nil
		}

		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		cfg.Apply(&flags)
		return cfg.Validate()
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "miniblog %s\n", version)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path (default miniblog.yaml)")
	rootCmd.PersistentFlags().StringVar(&flags.DatabaseURL, "database-url", "", "database connection URL")
	rootCmd.PersistentFlags().IntVarP(&flags.Port, "port", "p", 0, "HTTP port")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(initdbCmd)
	rootCmd.AddCommand(versionCmd)
}

func SetVersion(v string) {
	version = v
}

func Execute() error {
	return rootCmd.Execute()
}

func Root() *cobra.Command {
	return rootCmd
}

// newApp builds the logger and application for a command.
func newApp(ctx context.Context) (*app.App, error) {
	log, err := logger.New(cfg.Log.Mode)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	a, err := app.New(ctx, cfg, log)
	if err != nil {
		log.Sync()
		return nil, err
	}
	return a, nil
}
