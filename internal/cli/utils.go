package cli

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/lewisedginton/ai_assistant_api/internal/config"
	"github.com/lewisedginton/ai_assistant_api/pkg/logger"
)

const serviceName = "ai-assistant-api"

// getLogger retrieves the logger from the CLI context metadata
func getLogger(ctx *cli.Context) logger.Logger {
	if ctx.App.Metadata != nil {
		if log, ok := ctx.App.Metadata["logger"].(logger.Logger); ok {
			return log
		}
	}

	return logger.NewLogger(logger.Config{
		Level:   logger.InfoLevel,
		Format:  "json",
		Service: serviceName,
	})
}

// loadConfig is the startup gate: configuration is read from the optional
// --config-file and the environment, and every violation is reported.
func loadConfig(ctx *cli.Context, log logger.Logger) (*config.AppConfig, error) {
	cfg, err := config.Load(ctx.String("config-file"))
	if err != nil {
		log.Error("Failed to load config", logger.ErrorField(err))
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}
