package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"svomo/internal/domain"
)

// Scenario es un caso de punta a punta: respuestas fijas y lo que se espera del resultado.
type Scenario struct {
	Name    string           `yaml:"name"`
	Persona domain.AnswerSet `yaml:"persona"`
	Mood    domain.AnswerSet `yaml:"mood"`
	Expect  Expectation      `yaml:"expect"`
}

type Expectation struct {
	MinResults     int  `yaml:"min_results"`
	Anime          bool `yaml:"anime"`
	RequirePosters bool `yaml:"require_posters"`
	RequireCatalog bool `yaml:"require_catalog"`
}

type scenarioFile struct {
	Scenarios []Scenario `yaml:"scenarios"`
}

func defaultScenarios() []Scenario {
	return []Scenario{
		{
			Name: "Anime binge",
			Persona: domain.AnswerSet{
				"content_type":        "Anime",
				"preferred_genres":    "Action/Adventure",
				"language_preference": "Japanese",
				"viewing_frequency":   "Daily",
			},
			Mood: domain.AnswerSet{
				"social_context": "Alone",
				"current_mood":   "Happy/Excited",
				"available_time": "Binge-watch a series",
				"content_theme":  "Action/Excitement",
			},
			Expect: Expectation{MinResults: 3, Anime: true},
		},
		{
			Name: "Family movie night",
			Persona: domain.AnswerSet{
				"content_type":     "Movies",
				"preferred_genres": "Comedy",
			},
			Mood: domain.AnswerSet{
				"social_context": "With family",
				"current_mood":   "Relaxed/Chill",
				"available_time": "Under 2 hours",
			},
			Expect: Expectation{MinResults: 3},
		},
	}
}

// loadScenarios lee el archivo YAML; sin path usa los escenarios incluidos.
func loadScenarios(path string) ([]Scenario, error) {
	if path == "" {
		return defaultScenarios(), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenarios: %w", err)
	}
	var f scenarioFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse scenarios: %w", err)
	}
	if len(f.Scenarios) == 0 {
		return nil, fmt.Errorf("parse scenarios: no scenarios in %s", path)
	}
	for i := range f.Scenarios {
		if f.Scenarios[i].Name == "" {
			f.Scenarios[i].Name = fmt.Sprintf("scenario %d", i+1)
		}
	}
	return f.Scenarios, nil
}
