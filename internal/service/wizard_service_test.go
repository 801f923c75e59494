package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"svomo/internal/domain"
)

type stubQuestions struct {
	calls   map[domain.Stage]int
	answers []domain.AnswerSet
}

func (s *stubQuestions) GenerateQuestions(ctx context.Context, stage domain.Stage, answers domain.AnswerSet) []domain.Question {
	if s.calls == nil {
		s.calls = map[domain.Stage]int{}
	}
	s.calls[stage]++
	s.answers = append(s.answers, answers)
	return FallbackQuestions(stage)
}

type stubRecommender struct {
	calls   int
	persona domain.AnswerSet
	mood    domain.AnswerSet
	recs    []domain.Recommendation
}

func (s *stubRecommender) Recommend(ctx context.Context, persona, mood domain.AnswerSet) []domain.Recommendation {
	s.calls++
	s.persona = persona
	s.mood = mood
	return s.recs
}

func newTestWizard(recs []domain.Recommendation) (*WizardService, *stubQuestions, *stubRecommender) {
	q := &stubQuestions{}
	r := &stubRecommender{recs: recs}
	svc := NewWizardService(q, r, nil)
	fixed := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return fixed }
	return svc, q, r
}

// answerAll responde y avanza todas las preguntas de la etapa actual con la primera opcion.
func answerAll(t *testing.T, svc *WizardService, session *domain.WizardSession) {
	t.Helper()
	stage := session.Stage
	for session.Stage == stage {
		q, ok := session.CurrentQuestion()
		if !ok {
			t.Fatalf("no current question in %s", session.Stage)
		}
		if err := svc.SubmitAnswer(session, q.Options[0]); err != nil {
			t.Fatalf("submit %s: %v", q.ID, err)
		}
		if err := svc.Advance(context.Background(), session); err != nil {
			t.Fatalf("advance %s: %v", q.ID, err)
		}
	}
}

func TestWizard_StartsInPersona(t *testing.T) {
	svc, q, _ := newTestWizard(nil)
	session := svc.Start(context.Background())

	if session.ID == "" || session.Stage != domain.StagePersona || session.Cursor != 0 {
		t.Fatalf("unexpected initial session: %+v", session)
	}
	if len(session.PersonaQuestions) != 4 || q.calls[domain.StagePersona] != 1 {
		t.Fatalf("expected persona questions generated once")
	}
	view := svc.View(session)
	if view.Question == nil || view.Question.ID != "content_type" {
		t.Fatalf("expected first question in view, got %+v", view.Question)
	}
	if view.Progress.Index != 1 || view.Progress.Total != 4 || view.Progress.Steps != 9 {
		t.Fatalf("unexpected progress %+v", view.Progress)
	}
}

func TestWizard_SubmitAnswerValidation(t *testing.T) {
	svc, _, _ := newTestWizard(nil)
	session := svc.Start(context.Background())

	if err := svc.SubmitAnswer(session, "Cartoons"); !errors.Is(err, ErrWizardInvalidOption) {
		t.Fatalf("expected ErrWizardInvalidOption, got %v", err)
	}
	if err := svc.Advance(context.Background(), session); !errors.Is(err, ErrWizardAnswerRequired) {
		t.Fatalf("expected ErrWizardAnswerRequired, got %v", err)
	}
	if err := svc.SubmitAnswer(session, "Anime"); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if err := svc.SubmitAnswer(session, "Movies"); err != nil {
		t.Fatalf("resubmit: %v", err)
	}
	if session.PersonaAnswers["content_type"] != "Movies" {
		t.Fatalf("expected last answer to win, got %q", session.PersonaAnswers["content_type"])
	}
	if got := svc.View(session).Selected; got != "Movies" {
		t.Fatalf("expected selected Movies, got %q", got)
	}
}

func TestWizard_FullCycleRunsEngineOnce(t *testing.T) {
	recs := []domain.Recommendation{{Title: "Your Name"}}
	svc, q, r := newTestWizard(recs)
	session := svc.Start(context.Background())

	answerAll(t, svc, session)
	if session.Stage != domain.StageMood || session.Cursor != 0 {
		t.Fatalf("expected mood at cursor 0, got %s/%d", session.Stage, session.Cursor)
	}
	if q.calls[domain.StageMood] != 1 || q.answers[1]["content_type"] != "Anime" {
		t.Fatalf("expected mood questions conditioned on persona answers, got %+v", q.answers)
	}

	answerAll(t, svc, session)
	if session.Stage != domain.StageResults {
		t.Fatalf("expected results, got %s", session.Stage)
	}
	if r.calls != 1 {
		t.Fatalf("expected engine invoked once, got %d", r.calls)
	}
	if len(r.persona) != 4 || len(r.mood) != 5 {
		t.Fatalf("unexpected answer sets passed to engine: %v %v", r.persona, r.mood)
	}

	view := svc.View(session)
	if view.Question != nil || view.NoRecommendations || len(view.Recommendations) != 1 {
		t.Fatalf("unexpected results view %+v", view)
	}
	if view.Progress.Step != view.Progress.Steps {
		t.Fatalf("expected complete progress, got %+v", view.Progress)
	}

	for name, err := range map[string]error{
		"advance": svc.Advance(context.Background(), session),
		"retreat": svc.Retreat(session),
		"submit":  svc.SubmitAnswer(session, "x"),
	} {
		if !errors.Is(err, ErrWizardInvalidStage) {
			t.Fatalf("%s in results: expected ErrWizardInvalidStage, got %v", name, err)
		}
	}
	if r.calls != 1 {
		t.Fatalf("engine must not run again, got %d calls", r.calls)
	}
}

func TestWizard_EmptyResultsFlag(t *testing.T) {
	svc, _, _ := newTestWizard(nil)
	session := svc.Start(context.Background())
	answerAll(t, svc, session)
	answerAll(t, svc, session)

	view := svc.View(session)
	if !view.NoRecommendations || len(view.Recommendations) != 0 {
		t.Fatalf("expected explicit no-recommendations signal, got %+v", view)
	}
}

func TestWizard_RetreatPreservesAnswers(t *testing.T) {
	svc, q, _ := newTestWizard(nil)
	session := svc.Start(context.Background())

	if err := svc.Retreat(session); !errors.Is(err, ErrWizardAtStart) {
		t.Fatalf("expected ErrWizardAtStart, got %v", err)
	}

	answerAll(t, svc, session)
	before := session.PersonaAnswers.Clone()

	if err := svc.SubmitAnswer(session, "Alone"); err != nil {
		t.Fatalf("submit mood: %v", err)
	}
	if err := svc.Advance(context.Background(), session); err != nil {
		t.Fatalf("advance mood: %v", err)
	}
	if err := svc.Retreat(session); err != nil || session.Cursor != 0 || session.Stage != domain.StageMood {
		t.Fatalf("expected mood cursor 0, got %s/%d (%v)", session.Stage, session.Cursor, err)
	}
	if err := svc.Retreat(session); err != nil {
		t.Fatalf("retreat to persona: %v", err)
	}
	if session.Stage != domain.StagePersona || session.Cursor != 3 {
		t.Fatalf("expected persona at last index, got %s/%d", session.Stage, session.Cursor)
	}
	for k, v := range before {
		if session.PersonaAnswers[k] != v {
			t.Fatalf("persona answer %s changed: %q -> %q", k, v, session.PersonaAnswers[k])
		}
	}
	if session.MoodAnswers["social_context"] != "Alone" {
		t.Fatalf("mood answers must survive retreat, got %v", session.MoodAnswers)
	}

	if err := svc.Advance(context.Background(), session); err != nil {
		t.Fatalf("advance back to mood: %v", err)
	}
	if q.calls[domain.StageMood] != 1 {
		t.Fatalf("mood questions should be reused, generated %d times", q.calls[domain.StageMood])
	}
	if got := svc.View(session).Selected; got != "Alone" {
		t.Fatalf("expected previous mood answer selected, got %q", got)
	}
}

func TestWizard_Restart(t *testing.T) {
	svc, q, _ := newTestWizard([]domain.Recommendation{{Title: "Inception"}})
	session := svc.Start(context.Background())
	answerAll(t, svc, session)
	answerAll(t, svc, session)

	svc.Restart(context.Background(), session)

	if session.Stage != domain.StagePersona || session.Cursor != 0 {
		t.Fatalf("expected persona/0, got %s/%d", session.Stage, session.Cursor)
	}
	if len(session.PersonaAnswers) != 0 || len(session.MoodAnswers) != 0 || len(session.Recommendations) != 0 {
		t.Fatalf("expected cleared state, got %+v", session)
	}
	if session.MoodQuestions != nil {
		t.Fatalf("expected mood questions cleared")
	}
	if q.calls[domain.StagePersona] != 2 {
		t.Fatalf("expected persona questions regenerated, got %d calls", q.calls[domain.StagePersona])
	}

	answerAll(t, svc, session)
	if q.calls[domain.StageMood] != 2 {
		t.Fatalf("expected mood questions regenerated after restart, got %d", q.calls[domain.StageMood])
	}
}

func TestWizard_AnimeScenarioWithoutLLM(t *testing.T) {
	svc := NewWizardService(NewQuestionService(nil, nil), NewRecommendationService(nil, nil, nil), nil)
	session := svc.Start(context.Background())

	persona := []string{"Anime", "Action/Adventure", "Japanese", "Daily"}
	mood := []string{"Alone", "Happy/Excited", "Binge-watch a series", "Action/Excitement", "Don't care"}
	for _, opts := range [][]string{persona, mood} {
		for _, o := range opts {
			if err := svc.SubmitAnswer(session, o); err != nil {
				t.Fatalf("submit %q: %v", o, err)
			}
			if err := svc.Advance(context.Background(), session); err != nil {
				t.Fatalf("advance after %q: %v", o, err)
			}
		}
	}

	view := svc.View(session)
	if view.Stage != domain.StageResults || len(view.Recommendations) != 3 {
		t.Fatalf("expected 3 results, got %+v", view)
	}
	want := []string{"My Hero Academia", "Your Name", "Attack on Titan"}
	for i, r := range view.Recommendations {
		if r.Title != want[i] || r.PosterURL != PlaceholderPosterURL {
			t.Fatalf("rec %d: unexpected %+v", i, r)
		}
	}
}
