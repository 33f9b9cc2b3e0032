package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/lewisedginton/ai_assistant_api/internal/assistant"
	"github.com/lewisedginton/ai_assistant_api/internal/server"
	"github.com/lewisedginton/ai_assistant_api/pkg/logger"
)

var errNoTask = errors.New("a task is required: ask <task>")

// AskCommand returns a command that answers one question without the HTTP server
func AskCommand() *cli.Command {
	return &cli.Command{
		Name:      "ask",
		Usage:     "Run one task through the agent and print the answer",
		ArgsUsage: "<task>",
		Action:    askAction,
	}
}

func askAction(ctx *cli.Context) error {
	log := getLogger(ctx)

	task := strings.Join(ctx.Args().Slice(), " ")
	if strings.TrimSpace(task) == "" {
		return errNoTask
	}

	cfg, err := loadConfig(ctx, log)
	if err != nil {
		return err
	}

	p, err := server.NewPipeline(ctx.Context, cfg, log, nil)
	if err != nil {
		log.Error("Failed to create assistant", logger.ErrorField(err))
		return fmt.Errorf("failed to create assistant: %w", err)
	}
	defer func() {
		if err := p.Launcher.Stop(); err != nil {
			log.Error("Failed to stop browser driver", logger.ErrorField(err))
		}
	}()

	answer, err := p.Service.Ask(ctx.Context, task)
	if err != nil {
		return reportError(ctx.App.Writer, log, assistant.AsError(err))
	}
	return writeJSON(ctx.App.Writer, answer)
}

// reportError prints the error body and returns e so the command exits
// non-zero with its kind.
func reportError(w io.Writer, log logger.Logger, e *assistant.Error) error {
	if err := writeJSON(w, e.Response()); err != nil {
		log.Error("Failed to write error response", logger.ErrorField(err))
	}
	return e
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
