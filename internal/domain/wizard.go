package domain

import "time"

// WizardSession es el estado de una sesion del wizard. Pertenece a una sola sesion de usuario.
type WizardSession struct {
	ID               string           `json:"id"`
	Stage            Stage            `json:"stage"`
	Cursor           int              `json:"cursor"`
	PersonaQuestions []Question       `json:"persona_questions"`
	MoodQuestions    []Question       `json:"mood_questions"`
	PersonaAnswers   AnswerSet        `json:"persona_answers"`
	MoodAnswers      AnswerSet        `json:"mood_answers"`
	Recommendations  []Recommendation `json:"recommendations"`
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`
}

// NewWizardSession crea una sesion en persona con cursor 0.
func NewWizardSession(id string, now time.Time) *WizardSession {
	return &WizardSession{
		ID:              id,
		Stage:           StagePersona,
		PersonaAnswers:  AnswerSet{},
		MoodAnswers:     AnswerSet{},
		Recommendations: []Recommendation{},
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

// Questions devuelve la lista de preguntas de la etapa actual (nil fuera de persona/mood).
func (s *WizardSession) Questions() []Question {
	switch s.Stage {
	case StagePersona:
		return s.PersonaQuestions
	case StageMood:
		return s.MoodQuestions
	default:
		return nil
	}
}

// Answers devuelve el answer set de la etapa actual, creandolo si hace falta.
func (s *WizardSession) Answers() AnswerSet {
	switch s.Stage {
	case StagePersona:
		if s.PersonaAnswers == nil {
			s.PersonaAnswers = AnswerSet{}
		}
		return s.PersonaAnswers
	case StageMood:
		if s.MoodAnswers == nil {
			s.MoodAnswers = AnswerSet{}
		}
		return s.MoodAnswers
	default:
		return nil
	}
}

// CurrentQuestion devuelve la pregunta bajo el cursor, si existe.
func (s *WizardSession) CurrentQuestion() (Question, bool) {
	qs := s.Questions()
	if s.Cursor < 0 || s.Cursor >= len(qs) {
		return Question{}, false
	}
	return qs[s.Cursor], true
}

// Progress es la posicion del usuario dentro del wizard.
type Progress struct {
	Index int `json:"index"`
	Total int `json:"total"`
	Step  int `json:"step"`
	Steps int `json:"steps"`
}

// WizardView es lo que recibe la capa de presentacion.
type WizardView struct {
	SessionID         string           `json:"session_id"`
	Stage             Stage            `json:"stage"`
	Question          *Question        `json:"question,omitempty"`
	Selected          string           `json:"selected,omitempty"`
	Progress          Progress         `json:"progress"`
	Recommendations   []Recommendation `json:"recommendations,omitempty"`
	NoRecommendations bool             `json:"no_recommendations,omitempty"`
}

// Clone copia la sesion completa; los stores la usan para no compartir estado mutable.
func (s *WizardSession) Clone() *WizardSession {
	out := *s
	out.PersonaQuestions = CloneQuestions(s.PersonaQuestions)
	out.MoodQuestions = CloneQuestions(s.MoodQuestions)
	if s.PersonaAnswers != nil {
		out.PersonaAnswers = s.PersonaAnswers.Clone()
	}
	if s.MoodAnswers != nil {
		out.MoodAnswers = s.MoodAnswers.Clone()
	}
	if s.Recommendations != nil {
		out.Recommendations = make([]Recommendation, len(s.Recommendations))
		for i, r := range s.Recommendations {
			r.Genres = append([]string(nil), r.Genres...)
			out.Recommendations[i] = r
		}
	}
	return &out
}
