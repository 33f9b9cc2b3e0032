package cli

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/lewisedginton/ai_assistant_api/internal/server"
	"github.com/lewisedginton/ai_assistant_api/pkg/logger"
	"github.com/lewisedginton/ai_assistant_api/pkg/utils"
)

// ServerCommand returns a command for server operations
func ServerCommand() *cli.Command {
	return &cli.Command{
		Name:    "server",
		Aliases: []string{"s"},
		Usage:   "Server operations",
		Subcommands: []*cli.Command{
			{
				Name:   "start",
				Usage:  "Start the API server",
				Action: serverStartAction,
			},
		},
	}
}

func serverStartAction(ctx *cli.Context) error {
	log := getLogger(ctx)

	cfg, err := loadConfig(ctx, log)
	if err != nil {
		return err
	}
	cfg.LogConfig(log)

	s, err := server.New(ctx.Context, cfg, log)
	if err != nil {
		log.Error("Failed to create server", logger.ErrorField(err))
		return fmt.Errorf("failed to create server: %w", err)
	}

	errChans, closer, gracefulCloser := s.Listen()
	log.Info("HTTP service started successfully")

	sigCtx, stop := signal.NotifyContext(ctx.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := utils.WaitForError(sigCtx, utils.MergeErrorChans(errChans...)); err != nil {
		log.Error("Fatal server error occurred", logger.ErrorField(err))
		closer()
		return fmt.Errorf("server error: %w", err)
	}

	log.Info("Received shutdown signal")
	gracefulCloser()
	log.Info("Server exited gracefully")
	return nil
}
