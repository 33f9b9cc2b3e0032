package server

import (
	"context"
	"fmt"

	"github.com/lewisedginton/ai_assistant_api/internal/agent"
	"github.com/lewisedginton/ai_assistant_api/internal/assistant"
	"github.com/lewisedginton/ai_assistant_api/internal/browser"
	"github.com/lewisedginton/ai_assistant_api/internal/config"
	"github.com/lewisedginton/ai_assistant_api/internal/models"
	"github.com/lewisedginton/ai_assistant_api/pkg/logger"
	"github.com/lewisedginton/ai_assistant_api/pkg/metrics"
)

// Pipeline is the question path shared by the HTTP server and the ask command.
type Pipeline struct {
	Service  *assistant.Service
	Launcher *browser.Launcher
}

// NewPipeline creates the model client, starts the browser driver and
// builds the service. The caller stops Launcher when done.
func NewPipeline(ctx context.Context, cfg *config.AppConfig, log logger.Logger, m *metrics.Metrics) (*Pipeline, error) {
	llm, err := models.New(ctx, cfg.LLM, log)
	if err != nil {
		return nil, fmt.Errorf("failed to create LLM model: %w", err)
	}

	prompt, err := agent.NewPrompt(cfg.Agent.RulesFile, log)
	if err != nil {
		return nil, err
	}

	launcher := browser.NewLauncher(cfg.Browser, log)
	if err := launcher.Start(); err != nil {
		return nil, err
	}

	svc := assistant.NewService(
		assistant.LauncherSessions(launcher),
		agent.New(llm, prompt, cfg.Agent, log),
		assistant.WithTimeout(cfg.Agent.Timeout),
		assistant.WithMetrics(m),
		assistant.WithLogger(log),
	)

	log.Info("Assistant pipeline initialized",
		logger.StringField("model", llm.Name()),
		logger.DurationField("timeout", cfg.Agent.Timeout))

	return &Pipeline{Service: svc, Launcher: launcher}, nil
}
