package llm

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"svomo/internal/config"
)

const defaultOpenAIModel = "gpt-4o-mini"

// NewFromConfig elige el proveedor configurado. Devuelve nil (sin error) cuando no hay
// modelo disponible: los servicios caen a sus datos de fallback.
func NewFromConfig(ctx context.Context, cfg *config.Config, logger *zap.Logger) (LLMClient, error) {
	params := GenerationParams{
		Temperature:     cfg.LLMTemperature,
		TopP:            cfg.LLMTopP,
		TopK:            cfg.LLMTopK,
		MaxOutputTokens: cfg.LLMMaxOutputTokens,
	}

	provider := strings.ToLower(strings.TrimSpace(cfg.LLMProvider))
	if provider == "" || provider == "none" {
		logger.Warn("llm disabled, using built-in fallbacks")
		return nil, nil
	}
	if strings.TrimSpace(cfg.LLMAPIKey) == "" {
		logger.Warn("llm api key not configured, using built-in fallbacks", zap.String("provider", provider))
		return nil, nil
	}

	switch provider {
	case "gemini":
		client, err := NewGeminiClient(ctx, cfg.LLMAPIKey, cfg.LLMModel, params, cfg.LLMTimeout(), logger)
		if err != nil {
			return nil, err
		}
		return client, nil
	case "openai":
		model := cfg.LLMModel
		if model == "" {
			model = defaultOpenAIModel
		}
		return NewHTTPClient(cfg.LLMBaseURL, cfg.LLMAPIKey, model, params, cfg.LLMTimeout(), logger), nil
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.LLMProvider)
	}
}
