package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"
)

const defaultGeminiModel = "gemini-2.0-flash"

type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// GeminiClient implementa LLMClient sobre la API de Gemini.
type GeminiClient struct {
	models  contentGenerator
	model   string
	params  GenerationParams
	timeout time.Duration
	logger  *zap.Logger
}

func NewGeminiClient(ctx context.Context, apiKey, model string, params GenerationParams, timeout time.Duration, logger *zap.Logger) (*GeminiClient, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return newGeminiClient(client.Models, model, params, timeout, logger), nil
}

func newGeminiClient(models contentGenerator, model string, params GenerationParams, timeout time.Duration, logger *zap.Logger) *GeminiClient {
	if model == "" {
		model = defaultGeminiModel
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GeminiClient{
		models:  models,
		model:   model,
		params:  params,
		timeout: timeout,
		logger:  logger,
	}
}

func (c *GeminiClient) Generate(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	cfg := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(c.params.Temperature),
		TopP:            genai.Ptr(c.params.TopP),
		TopK:            genai.Ptr(c.params.TopK),
		MaxOutputTokens: c.params.MaxOutputTokens,
	}

	resp, err := c.models.GenerateContent(ctx, c.model, genai.Text(prompt), cfg)
	if err != nil {
		c.logger.Warn("gemini generate failed", zap.String("model", c.model), zap.Error(err))
		return "", fmt.Errorf("gemini generate: %w", err)
	}
	if resp == nil {
		return "", ErrEmptyResponse
	}
	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}
