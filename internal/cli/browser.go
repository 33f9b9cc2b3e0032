package cli

import (
	"github.com/urfave/cli/v2"

	"github.com/lewisedginton/ai_assistant_api/internal/browser"
	"github.com/lewisedginton/ai_assistant_api/pkg/logger"
)

// BrowserCommand returns a command for browser driver operations
func BrowserCommand() *cli.Command {
	return &cli.Command{
		Name:  "browser",
		Usage: "Browser driver operations",
		Subcommands: []*cli.Command{
			{
				Name:   "install",
				Usage:  "Install the playwright driver and Chromium",
				Action: browserInstallAction,
			},
		},
	}
}

func browserInstallAction(ctx *cli.Context) error {
	log := getLogger(ctx)
	log.Info("Installing browser driver")

	if err := browser.Install(); err != nil {
		log.Error("Browser install failed", logger.ErrorField(err))
		return err
	}

	log.Info("Browser driver installed")
	return nil
}
