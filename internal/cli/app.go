// Package cli holds the commands of the assistant binary.
package cli

import (
	"github.com/urfave/cli/v2"

	pkgconfig "github.com/lewisedginton/ai_assistant_api/pkg/config"
	"github.com/lewisedginton/ai_assistant_api/pkg/logger"
)

// NewApp builds the command line application.
func NewApp(version string) *cli.App {
	return &cli.App{
		Name:    serviceName,
		Usage:   "Answer support questions with a browser-driving AI agent",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Value:   "info",
				Usage:   "Log level (debug, info, warn, error)",
				EnvVars: []string{"LOG_LEVEL"},
			},
			&cli.StringFlag{
				Name:    "log-format",
				Value:   "json",
				Usage:   "Log format (json, text)",
				EnvVars: []string{"LOG_FORMAT"},
			},
			&cli.StringFlag{
				Name:    "config-file",
				Value:   "",
				Usage:   "Path to configuration file",
				EnvVars: []string{"CONFIG_FILE"},
			},
			&cli.StringFlag{
				Name:    "env-file",
				Value:   ".env",
				Usage:   "Path to a dotenv file loaded before configuration",
				EnvVars: []string{"ENV_FILE"},
			},
		},
		Before: func(ctx *cli.Context) error {
			loaded, err := pkgconfig.LoadDotEnv(ctx.String("env-file"))
			if err != nil {
				return err
			}

			log := logger.NewLogger(logger.Config{
				Level:   logger.ParseLevel(ctx.String("log-level")),
				Format:  ctx.String("log-format"),
				Service: serviceName,
				Output:  ctx.App.ErrWriter,
			})
			if len(loaded) > 0 {
				log.Debug("Loaded dotenv file", logger.Field("files", loaded))
			}

			ctx.App.Metadata = map[string]interface{}{
				"logger": log,
			}
			return nil
		},
		Commands: []*cli.Command{
			ConfigCommand(),
			ServerCommand(),
			BrowserCommand(),
			AskCommand(),
		},
	}
}
