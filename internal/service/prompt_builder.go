package service

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"svomo/internal/domain"
)

// PromptBuilder arma los prompts que se envian al LLM.
type PromptBuilder struct{}

var DefaultPromptBuilder = PromptBuilder{}

func (PromptBuilder) PersonaQuestions(count int) string {
	return fmt.Sprintf(personaQuestionsPrompt, count)
}

func (PromptBuilder) MoodQuestions(persona domain.AnswerSet, count int) string {
	return fmt.Sprintf(moodQuestionsPrompt, answersJSON(persona), count)
}

// Recommendations embebe ambos answer sets tal cual mas pistas derivadas.
func (PromptBuilder) Recommendations(persona, mood domain.AnswerSet) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Based on this user persona: %s\n", answersJSON(persona)))
	sb.WriteString(fmt.Sprintf("And their current mood/context: %s\n\n", answersJSON(mood)))

	hints := recommendationHints(persona, mood)
	if len(hints) > 0 {
		sb.WriteString("Key signals:\n")
		for _, h := range hints {
			sb.WriteString("- ")
			sb.WriteString(h)
			sb.WriteString("\n")
		}
		sb.WriteString("\n")
	}

	sb.WriteString("Recommend exactly 3 movies or shows (respect their preference for anime vs movies).\n\n")
	sb.WriteString("For each recommendation, provide:\n")
	sb.WriteString("1. Title (exact spelling is important)\n")
	sb.WriteString("2. Year of release (if known)\n")
	sb.WriteString("3. Type (movie, show, or anime)\n")
	sb.WriteString("4. A brief explanation of why this would appeal to the user\n\n")
	sb.WriteString(recommendationSchemaBlock)
	return sb.String()
}

func recommendationHints(persona, mood domain.AnswerSet) []string {
	var hints []string
	if v, ok := contentTypeAnswer(persona); ok {
		hints = append(hints, "Content type preference: "+v)
	}
	if v, ok := answerMatching(persona, "preferred_genres", "genre"); ok {
		hints = append(hints, "Genre preference: "+v)
	}
	if v, ok := answerMatching(mood, "current_mood", "mood"); ok {
		hints = append(hints, "Current mood: "+v)
	}
	return hints
}

// answerMatching busca la clave exacta y si no la primera clave (en orden) que contenga alguno de los fragmentos.
func answerMatching(answers domain.AnswerSet, exact string, fragments ...string) (string, bool) {
	if v, ok := answers.Lookup(exact); ok && strings.TrimSpace(v) != "" {
		return v, true
	}
	for _, k := range sortedKeys(answers) {
		lk := strings.ToLower(k)
		for _, f := range fragments {
			if strings.Contains(lk, f) && strings.TrimSpace(answers[k]) != "" {
				return answers[k], true
			}
		}
	}
	return "", false
}

// contentTypeAnswer resuelve la respuesta anime/peliculas aunque las preguntas vengan del modelo con otros ids.
func contentTypeAnswer(persona domain.AnswerSet) (string, bool) {
	if v, ok := answerMatching(persona, "content_type", "content", "type", "format"); ok {
		return v, true
	}
	for _, k := range sortedKeys(persona) {
		if strings.Contains(strings.ToLower(persona[k]), "anime") {
			return persona[k], true
		}
	}
	return "", false
}

func answersJSON(answers domain.AnswerSet) string {
	if answers == nil {
		answers = domain.AnswerSet{}
	}
	// json.Marshal ordena las claves del map, el prompt queda estable
	b, err := json.Marshal(answers)
	if err != nil {
		return "{}"
	}
	return string(b)
}

func sortedKeys(answers domain.AnswerSet) []string {
	keys := make([]string, 0, len(answers))
	for k := range answers {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
