package config

import (
	"time"

	"github.com/spf13/viper"
)

// GeminiModels defines which Gemini models to use for different tasks
type GeminiModels struct {
	// Coach scores a single question/answer pair (runs once per answer, fan-out)
	Coach string `mapstructure:"coach" json:"coach"`

	// Summary synthesizes strengths/clarifications for a whole session
	Summary string `mapstructure:"summary" json:"summary"`
}

// ModelPrice is the USD price per one million tokens for one model.
type ModelPrice struct {
	Model            string  `mapstructure:"model" json:"model"`
	InputPerMillion  float64 `mapstructure:"input-per-million" json:"inputPerMillion"`
	OutputPerMillion float64 `mapstructure:"output-per-million" json:"outputPerMillion"`
}

// AIConfig holds all AI-related configuration
type AIConfig struct {
	APIKey         string        `mapstructure:"api-key" json:"-"` // Never serialize
	Models         GeminiModels  `mapstructure:"models" json:"models"`
	Pricing        []ModelPrice  `mapstructure:"pricing" json:"pricing"`
	Timeout        time.Duration `mapstructure:"timeout" json:"timeout"`
	MaxConcurrency int           `mapstructure:"max-concurrency" json:"maxConcurrency"`
	MaxLogLength   int           `mapstructure:"max-log-length" json:"maxLogLength"`
}

func setAIDefaults(v *viper.Viper) {
	v.SetDefault("ai.api-key", "")
	v.SetDefault("ai.models.coach", "gemini-2.5-flash")
	v.SetDefault("ai.models.summary", "gemini-2.5-flash")
	v.SetDefault("ai.timeout", 30*time.Second)
	v.SetDefault("ai.max-concurrency", 3)
	v.SetDefault("ai.max-log-length", 200)
	v.SetDefault("ai.pricing", []map[string]any{
		{"model": "gemini-2.5-flash", "input-per-million": 0.30, "output-per-million": 2.50},
		{"model": "gemini-2.5-pro", "input-per-million": 1.25, "output-per-million": 10.0},
	})
}

// IsEnabled returns true if the AI API is configured
func (c *AIConfig) IsEnabled() bool {
	return c.APIKey != ""
}

// EstimateCost prices a call from its token usage. Unknown models cost nothing.
func (c *AIConfig) EstimateCost(model string, promptTokens, outputTokens int64) float64 {
	for _, price := range c.Pricing {
		if price.Model == model {
			return (float64(promptTokens)*price.InputPerMillion + float64(outputTokens)*price.OutputPerMillion) / 1_000_000
		}
	}
	return 0
}
