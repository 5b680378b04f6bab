package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xaenox/deskbot/internal/app"
	"github.com/xaenox/deskbot/internal/logger"
	"github.com/xaenox/deskbot/internal/storage"
	"github.com/xaenox/deskbot/pkg/config"
)

// cli carries state shared by all subcommands of one invocation.
type cli struct {
	configPath string
	userID     int64

	cfg   *config.Config
	log   *zap.Logger
	store storage.Storage
}

func newRootCmd() *cobra.Command {
	c := &cli{}

	rootCmd := &cobra.Command{
		Use:   "deskctl",
		Short: "Talk to the deskbot assistant from a terminal",
		Long: `deskctl runs the deskbot intent classifier and conversation engine locally
and manages reminders in the configured store.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(c.configPath)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			log, err := logger.New(cfg.Log.Level, "console")
			if err != nil {
				return fmt.Errorf("failed to build logger: %w", err)
			}
			c.cfg, c.log = cfg, log
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if c.store != nil {
				return c.store.Close()
			}
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&c.configPath, "config", "config.yaml", "path to the YAML config file")
	rootCmd.PersistentFlags().Int64Var(&c.userID, "user", 0, "owner ID for reminders (the Telegram chat ID when shared with the bot)")

	rootCmd.AddCommand(newClassifyCmd(c))
	rootCmd.AddCommand(newChatCmd(c))
	rootCmd.AddCommand(newRemindersCmd(c))
	return rootCmd
}

func (c *cli) services(ctx context.Context) (*app.Services, error) {
	if c.store == nil {
		store, err := app.OpenStorage(ctx, c.cfg, c.log)
		if err != nil {
			return nil, fmt.Errorf("failed to open storage: %w", err)
		}
		c.store = store
	}
	return app.NewServices(c.cfg, c.store, c.log)
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
