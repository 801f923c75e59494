package domain

import "strings"

// Stage es una fase del wizard.
type Stage string

const (
	StagePersona   Stage = "persona"
	StageMood      Stage = "mood"
	StageSearching Stage = "searching"
	StageResults   Stage = "results"
)

// Question es una pregunta de opcion multiple; el orden de Options es el orden de display.
type Question struct {
	ID      string   `json:"id"`
	Text    string   `json:"text"`
	Options []string `json:"options"`
}

// HasOption indica si option es una de las opciones de la pregunta.
func (q Question) HasOption(option string) bool {
	for _, o := range q.Options {
		if o == option {
			return true
		}
	}
	return false
}

// CloneQuestions copia la lista (incluidas las opciones) para que nadie mute el original.
func CloneQuestions(qs []Question) []Question {
	if qs == nil {
		return nil
	}
	out := make([]Question, len(qs))
	for i, q := range qs {
		out[i] = Question{
			ID:      q.ID,
			Text:    q.Text,
			Options: append([]string(nil), q.Options...),
		}
	}
	return out
}

// AnswerSet mapea id de pregunta -> opcion elegida.
type AnswerSet map[string]string

func (a AnswerSet) Clone() AnswerSet {
	out := make(AnswerSet, len(a))
	for k, v := range a {
		out[k] = v
	}
	return out
}

// Lookup devuelve la respuesta para key ignorando mayusculas y espacios.
func (a AnswerSet) Lookup(key string) (string, bool) {
	if v, ok := a[key]; ok {
		return v, true
	}
	key = strings.ToLower(strings.TrimSpace(key))
	for k, v := range a {
		if strings.ToLower(strings.TrimSpace(k)) == key {
			return v, true
		}
	}
	return "", false
}
