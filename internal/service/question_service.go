package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"svomo/internal/domain"
	"svomo/internal/llm"
	"svomo/internal/metrics"
)

const (
	personaQuestionCount = 4
	moodQuestionCount    = 5
)

var (
	errQuestionsMissing = errors.New("questions key missing or empty")
	errQuestionInvalid  = errors.New("question entry invalid")
)

var personaFallbackQuestions = []domain.Question{
	{
		ID:      "content_type",
		Text:    "Do you prefer watching anime or movies?",
		Options: []string{"Anime", "Movies", "Both equally"},
	},
	{
		ID:      "preferred_genres",
		Text:    "Which genres do you usually enjoy watching?",
		Options: []string{"Action/Adventure", "Drama/Romance", "Comedy", "Sci-Fi/Fantasy"},
	},
	{
		ID:      "language_preference",
		Text:    "Which language content do you prefer?",
		Options: []string{"English", "Japanese", "Korean", "Bollywood/Hindi", "Multiple languages"},
	},
	{
		ID:      "viewing_frequency",
		Text:    "How often do you watch movies or shows?",
		Options: []string{"Daily", "Few times a week", "Weekends only", "Occasionally"},
	},
}

var moodFallbackQuestions = []domain.Question{
	{
		ID:      "social_context",
		Text:    "Who are you watching with?",
		Options: []string{"Alone", "With friend(s)", "With family", "With partner"},
	},
	{
		ID:      "current_mood",
		Text:    "What's your current mood?",
		Options: []string{"Happy/Excited", "Relaxed/Chill", "Sad/Emotional", "Thoughtful/Introspective"},
	},
	{
		ID:      "available_time",
		Text:    "How much time do you have available?",
		Options: []string{"Under 2 hours", "2-3 hours", "Multiple sessions", "Binge-watch a series"},
	},
	{
		ID:      "content_theme",
		Text:    "What theme are you interested in right now?",
		Options: []string{"Love/Romance", "Action/Excitement", "Mystery/Suspense", "Escapism/Fantasy"},
	},
	{
		ID:      "content_recency",
		Text:    "Do you prefer new releases or classics?",
		Options: []string{"New releases (last 2 years)", "Recent (last 5 years)", "Timeless classics", "Don't care"},
	},
}

// QuestionService genera las preguntas de persona y mood. Nunca falla: si el LLM
// no esta o responde algo invalido, devuelve el set fijo.
type QuestionService struct {
	llmClient llm.LLMClient
	prompts   PromptBuilder
	logger    *zap.Logger
}

func NewQuestionService(llmClient llm.LLMClient, logger *zap.Logger) *QuestionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &QuestionService{
		llmClient: llmClient,
		prompts:   DefaultPromptBuilder,
		logger:    logger,
	}
}

// FallbackQuestions devuelve una copia del set fijo de la etapa.
func FallbackQuestions(stage domain.Stage) []domain.Question {
	switch stage {
	case domain.StageMood:
		return domain.CloneQuestions(moodFallbackQuestions)
	default:
		return domain.CloneQuestions(personaFallbackQuestions)
	}
}

// GenerateQuestions devuelve la lista ordenada de preguntas para stage.
// answers son las respuestas previas (persona para la etapa mood).
func (s *QuestionService) GenerateQuestions(ctx context.Context, stage domain.Stage, answers domain.AnswerSet) []domain.Question {
	result := FallbackQuestions(stage)

	purpose := "persona_questions"
	prompt := s.prompts.PersonaQuestions(personaQuestionCount)
	if stage == domain.StageMood {
		purpose = "mood_questions"
		prompt = s.prompts.MoodQuestions(answers, moodQuestionCount)
	}

	if s.llmClient == nil {
		metrics.LLMGenerations.WithLabelValues(purpose, metrics.OutcomeUnavailable).Inc()
		return result
	}

	raw, err := s.llmClient.Generate(ctx, prompt)
	if err != nil || strings.TrimSpace(raw) == "" {
		metrics.LLMGenerations.WithLabelValues(purpose, metrics.OutcomeUnavailable).Inc()
		s.logger.Warn("question generation unavailable, using fallback", zap.String("stage", string(stage)), zap.Error(err))
		return result
	}

	generated, err := parseQuestions(raw)
	if err != nil {
		metrics.LLMGenerations.WithLabelValues(purpose, metrics.OutcomeInvalid).Inc()
		s.logger.Warn("generated questions rejected, using fallback", zap.String("stage", string(stage)), zap.Error(err))
		return result
	}

	metrics.LLMGenerations.WithLabelValues(purpose, metrics.OutcomeOK).Inc()
	return generated
}

type questionsEnvelope struct {
	Questions []generatedQuestion `json:"questions"`
}

type generatedQuestion struct {
	ID      string   `json:"id"`
	Text    string   `json:"text"`
	Options []string `json:"options"`
}

// parseQuestions extrae y valida la lista; cualquier entrada invalida invalida todo.
func parseQuestions(raw string) ([]domain.Question, error) {
	var env questionsEnvelope
	if err := decodeJSONObject(raw, &env); err != nil {
		return nil, err
	}
	if len(env.Questions) == 0 {
		return nil, errQuestionsMissing
	}

	seen := make(map[string]struct{}, len(env.Questions))
	out := make([]domain.Question, 0, len(env.Questions))
	for i, q := range env.Questions {
		id := strings.TrimSpace(q.ID)
		text := strings.TrimSpace(q.Text)
		if id == "" || text == "" {
			return nil, fmt.Errorf("%w: entry %d missing id or text", errQuestionInvalid, i)
		}
		if _, dup := seen[id]; dup {
			return nil, fmt.Errorf("%w: duplicated id %q", errQuestionInvalid, id)
		}
		seen[id] = struct{}{}

		options := make([]string, 0, len(q.Options))
		for _, o := range q.Options {
			if o = strings.TrimSpace(o); o != "" {
				options = append(options, o)
			}
		}
		if len(options) < 2 {
			return nil, fmt.Errorf("%w: question %q needs at least 2 options", errQuestionInvalid, id)
		}
		out = append(out, domain.Question{ID: id, Text: text, Options: options})
	}
	return out, nil
}
