package llm

import (
	"context"
	"sync"
)

// MockClient permite tests sin llamar a un LLM real.
// Si Responses no esta vacio, se consume en orden antes de usar Response.
type MockClient struct {
	Response  string
	Responses []string
	Err       error

	mu      sync.Mutex
	Prompts []string
}

func (m *MockClient) Generate(ctx context.Context, prompt string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Prompts = append(m.Prompts, prompt)
	if m.Err != nil {
		return "", m.Err
	}
	if len(m.Responses) > 0 {
		resp := m.Responses[0]
		m.Responses = m.Responses[1:]
		return resp, nil
	}
	return m.Response, nil
}

// Calls devuelve cuantas veces se llamo a Generate.
func (m *MockClient) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Prompts)
}
