// Package config defines the application configuration schema and its
// startup validation.
package config

import (
	"fmt"

	"github.com/hashicorp/go-multierror"
	pkgconfig "github.com/lewisedginton/ai_assistant_api/pkg/config"
	"github.com/lewisedginton/ai_assistant_api/pkg/logger"
)

// AppConfig holds all application configuration
type AppConfig struct {
	pkgconfig.CommonConfig `yaml:",inline"`

	HTTP     pkgconfig.HTTPServerConfig `yaml:"http"`
	Metrics  pkgconfig.MetricsConfig    `yaml:"metrics"`
	LLM      LLMConfig                  `yaml:"llm"`
	Browser  BrowserConfig              `yaml:"browser"`
	Agent    AgentConfig                `yaml:"agent"`
	Security SecurityConfig             `yaml:"security"`
	Health   HealthConfig               `yaml:"health"`
}

// Load reads AppConfig from file (optional) and the environment, then validates it.
func Load(file string) (*AppConfig, error) {
	cfg := &AppConfig{}
	if err := pkgconfig.GetConfig(cfg, file, false); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate validates the configuration and returns every violation found
func (c *AppConfig) Validate() error {
	var result error

	for _, v := range []pkgconfig.Validator{c.CommonConfig, c.HTTP, c.Metrics, c.LLM, c.Browser, c.Agent} {
		if err := v.Validate(); err != nil {
			result = multierror.Append(result, err)
		}
	}

	// The write deadline must outlive the agent run
	if c.Agent.Timeout > 0 && c.HTTP.WriteTimeout() <= c.Agent.Timeout {
		result = multierror.Append(result, fmt.Errorf("http write timeout (%s) must be greater than agent timeout (%s)",
			c.HTTP.WriteTimeout(), c.Agent.Timeout))
	}

	if c.Security.MaxRequestSize <= 0 {
		result = multierror.Append(result, fmt.Errorf("max_request_size must be greater than 0"))
	}

	if c.Health.Enabled && c.Health.FailureThreshold <= 0 {
		result = multierror.Append(result, fmt.Errorf("health failure threshold must be greater than 0"))
	}

	return result
}

// GetLogLevel returns the parsed logger level
func (c *AppConfig) GetLogLevel() logger.Level {
	return logger.ParseLevel(c.LogLevel)
}

// LogConfig logs the current configuration (without sensitive data)
func (c *AppConfig) LogConfig(log logger.Logger) {
	log.Info("Application configuration loaded",
		logger.StringField("addr", c.HTTP.Addr()),
		logger.StringField("llm_provider", c.LLM.Provider),
		logger.StringField("llm_model", c.LLM.ModelName()),
		logger.BoolField("vertex_ai", c.LLM.Provider == ProviderGemini && c.LLM.Gemini.UseVertex()),
		logger.BoolField("browser_headless", c.Browser.Headless),
		logger.BoolField("browser_disable_security", c.Browser.DisableSecurity),
		logger.BoolField("browser_container_mode", c.Browser.ContainerMode),
		logger.DurationField("agent_timeout", c.Agent.Timeout),
		logger.IntField("agent_max_steps", c.Agent.MaxSteps),
		logger.StringField("agent_rules_file", c.Agent.RulesFile),
		logger.Field("cors_allowed_origins", c.Security.CORSAllowedOrigins),
		logger.BoolField("metrics_exposed", c.Metrics.ExposeMetrics),
		logger.BoolField("health_enabled", c.Health.Enabled),
		logger.StringField("log_level", c.LogLevel),
		logger.StringField("log_format", c.LogFormat),
	)
}
