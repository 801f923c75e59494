package config

import (
	"time"

	"github.com/caarlos0/env/v10"
)

// Config centraliza la configuración del servicio.
type Config struct {
	HTTPPort string `env:"HTTP_PORT" envDefault:"8080"`

	LLMProvider        string  `env:"LLM_PROVIDER" envDefault:"gemini"`
	LLMAPIKey          string  `env:"LLM_API_KEY"`
	LLMBaseURL         string  `env:"LLM_BASE_URL" envDefault:"https://api.openai.com/v1"`
	LLMModel           string  `env:"LLM_MODEL"`
	LLMTemperature     float32 `env:"LLM_TEMPERATURE" envDefault:"0.9"`
	LLMTopP            float32 `env:"LLM_TOP_P" envDefault:"1"`
	LLMTopK            float32 `env:"LLM_TOP_K" envDefault:"32"`
	LLMMaxOutputTokens int32   `env:"LLM_MAX_OUTPUT_TOKENS" envDefault:"4096"`
	LLMTimeoutSeconds  int     `env:"LLM_TIMEOUT_SECONDS" envDefault:"60"`

	TMDBAPIToken          string  `env:"TMDB_API_TOKEN"`
	TMDBBaseURL           string  `env:"TMDB_BASE_URL" envDefault:"https://api.themoviedb.org/3"`
	TMDBLanguage          string  `env:"TMDB_LANGUAGE" envDefault:"en-US"`
	TMDBRequestsPerSecond float64 `env:"TMDB_REQUESTS_PER_SECOND" envDefault:"20"`
	TMDBTimeoutSeconds    int     `env:"TMDB_TIMEOUT_SECONDS" envDefault:"10"`

	SessionTokenSecret string `env:"SESSION_TOKEN_SECRET"`
	SessionTTLMinutes  int    `env:"SESSION_TTL_MINUTES" envDefault:"30"`
	WizardStartsPerMin int    `env:"WIZARD_STARTS_PER_MINUTE" envDefault:"10"`

	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`
}

// LoadConfig carga la configuración desde variables de entorno.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) LLMTimeout() time.Duration {
	if c.LLMTimeoutSeconds <= 0 {
		return 60 * time.Second
	}
	return time.Duration(c.LLMTimeoutSeconds) * time.Second
}

func (c *Config) TMDBTimeout() time.Duration {
	if c.TMDBTimeoutSeconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(c.TMDBTimeoutSeconds) * time.Second
}

func (c *Config) SessionTTL() time.Duration {
	if c.SessionTTLMinutes <= 0 {
		return 30 * time.Minute
	}
	return time.Duration(c.SessionTTLMinutes) * time.Minute
}
