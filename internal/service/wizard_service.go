package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"svomo/internal/domain"
	"svomo/internal/metrics"
)

var (
	ErrWizardInvalidOption  = errors.New("option is not offered by the current question")
	ErrWizardAnswerRequired = errors.New("current question has no answer")
	ErrWizardAtStart        = errors.New("already at the first question")
	ErrWizardInvalidStage   = errors.New("operation not allowed in the current stage")
)

// QuestionGenerator produce las preguntas de una etapa. Nunca falla.
type QuestionGenerator interface {
	GenerateQuestions(ctx context.Context, stage domain.Stage, answers domain.AnswerSet) []domain.Question
}

// Recommender corre el ciclo completo de recomendacion. Nunca falla.
type Recommender interface {
	Recommend(ctx context.Context, persona, mood domain.AnswerSet) []domain.Recommendation
}

// WizardService es la maquina de estados persona -> mood -> searching -> results.
// Una sesion no es segura para uso concurrente: el llamador serializa por sesion.
type WizardService struct {
	questions   QuestionGenerator
	recommender Recommender
	logger      *zap.Logger
	now         func() time.Time
}

func NewWizardService(questions QuestionGenerator, recommender Recommender, logger *zap.Logger) *WizardService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WizardService{
		questions:   questions,
		recommender: recommender,
		logger:      logger,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// Start crea una sesion nueva en persona con sus preguntas ya generadas.
func (s *WizardService) Start(ctx context.Context) *domain.WizardSession {
	session := domain.NewWizardSession(uuid.NewString(), s.now())
	session.PersonaQuestions = s.questions.GenerateQuestions(ctx, domain.StagePersona, nil)
	s.logger.Info("wizard session started",
		zap.String("session_id", session.ID),
		zap.Int("persona_questions", len(session.PersonaQuestions)),
	)
	return session
}

// SubmitAnswer guarda option como respuesta de la pregunta actual.
func (s *WizardService) SubmitAnswer(session *domain.WizardSession, option string) error {
	if session.Stage != domain.StagePersona && session.Stage != domain.StageMood {
		return ErrWizardInvalidStage
	}
	q, ok := session.CurrentQuestion()
	if !ok {
		return ErrWizardInvalidStage
	}
	if !q.HasOption(option) {
		return ErrWizardInvalidOption
	}
	session.Answers()[q.ID] = option
	session.UpdatedAt = s.now()
	return nil
}

// Advance pasa a la siguiente pregunta o etapa. Salir de la ultima pregunta de mood
// corre la busqueda una sola vez y deja la sesion en results.
func (s *WizardService) Advance(ctx context.Context, session *domain.WizardSession) error {
	if session.Stage != domain.StagePersona && session.Stage != domain.StageMood {
		return ErrWizardInvalidStage
	}
	q, ok := session.CurrentQuestion()
	if !ok {
		return ErrWizardInvalidStage
	}
	if _, answered := session.Answers()[q.ID]; !answered {
		return ErrWizardAnswerRequired
	}

	session.UpdatedAt = s.now()
	if session.Cursor+1 < len(session.Questions()) {
		session.Cursor++
		return nil
	}

	if session.Stage == domain.StagePersona {
		if len(session.MoodQuestions) == 0 {
			session.MoodQuestions = s.questions.GenerateQuestions(ctx, domain.StageMood, session.PersonaAnswers.Clone())
		}
		s.transition(session, domain.StageMood)
		session.Cursor = 0
		return nil
	}

	s.transition(session, domain.StageSearching)
	session.Cursor = 0
	s.search(ctx, session)
	return nil
}

func (s *WizardService) search(ctx context.Context, session *domain.WizardSession) {
	started := s.now()
	recs := s.recommender.Recommend(ctx, session.PersonaAnswers.Clone(), session.MoodAnswers.Clone())
	if recs == nil {
		recs = []domain.Recommendation{}
	}
	session.Recommendations = recs
	s.logger.Info("recommendations ready",
		zap.String("session_id", session.ID),
		zap.Int("count", len(recs)),
		zap.Duration("elapsed", s.now().Sub(started)),
	)
	s.transition(session, domain.StageResults)
}

// Retreat vuelve una pregunta atras sin borrar respuestas.
func (s *WizardService) Retreat(session *domain.WizardSession) error {
	switch session.Stage {
	case domain.StagePersona:
		if session.Cursor == 0 {
			return ErrWizardAtStart
		}
		session.Cursor--
	case domain.StageMood:
		if session.Cursor > 0 {
			session.Cursor--
			break
		}
		s.transition(session, domain.StagePersona)
		session.Cursor = lastIndex(session.PersonaQuestions)
	default:
		return ErrWizardInvalidStage
	}
	session.UpdatedAt = s.now()
	return nil
}

// Restart limpia todo lo acumulado y vuelve a persona con preguntas nuevas.
func (s *WizardService) Restart(ctx context.Context, session *domain.WizardSession) {
	from := session.Stage
	session.Stage = domain.StagePersona
	session.Cursor = 0
	session.PersonaAnswers = domain.AnswerSet{}
	session.MoodAnswers = domain.AnswerSet{}
	session.Recommendations = []domain.Recommendation{}
	session.MoodQuestions = nil
	session.PersonaQuestions = s.questions.GenerateQuestions(ctx, domain.StagePersona, nil)
	session.UpdatedAt = s.now()
	metrics.WizardTransitions.WithLabelValues(string(from), string(domain.StagePersona)).Inc()
	s.logger.Info("wizard session restarted", zap.String("session_id", session.ID), zap.String("from", string(from)))
}

// View arma lo que necesita la capa de presentacion.
func (s *WizardService) View(session *domain.WizardSession) domain.WizardView {
	view := domain.WizardView{
		SessionID: session.ID,
		Stage:     session.Stage,
		Progress:  progressOf(session),
	}
	if q, ok := session.CurrentQuestion(); ok {
		qc := domain.CloneQuestions([]domain.Question{q})[0]
		view.Question = &qc
		view.Selected = session.Answers()[q.ID]
	}
	if session.Stage == domain.StageResults {
		view.Recommendations = append([]domain.Recommendation{}, session.Recommendations...)
		view.NoRecommendations = len(session.Recommendations) == 0
	}
	return view
}

func progressOf(session *domain.WizardSession) domain.Progress {
	persona := len(session.PersonaQuestions)
	mood := len(session.MoodQuestions)
	if mood == 0 {
		mood = moodQuestionCount
	}
	p := domain.Progress{Steps: persona + mood}

	switch session.Stage {
	case domain.StagePersona:
		p.Index = session.Cursor + 1
		p.Total = persona
		p.Step = session.Cursor + 1
	case domain.StageMood:
		p.Index = session.Cursor + 1
		p.Total = mood
		p.Step = persona + session.Cursor + 1
	default:
		p.Step = p.Steps
	}
	return p
}

func (s *WizardService) transition(session *domain.WizardSession, to domain.Stage) {
	metrics.WizardTransitions.WithLabelValues(string(session.Stage), string(to)).Inc()
	s.logger.Debug("wizard transition",
		zap.String("session_id", session.ID),
		zap.String("from", string(session.Stage)),
		zap.String("to", string(to)),
	)
	session.Stage = to
}

func lastIndex(qs []domain.Question) int {
	if len(qs) == 0 {
		return 0
	}
	return len(qs) - 1
}
