package provider

import (
	"context"
	"fmt"
	"sync"
)

// MockProvider is a deterministic AI provider for tests and dry runs.
// Known texts come from Translations; anything else is bracketed.
type MockProvider struct {
	Translations map[string]string // Map of source text to translation

	mu          sync.Mutex
	callCount   int
	lastRequest *TranslateRequest
}

// NewMockProvider creates a new mock provider with a few French to
// English catalog translations.
func NewMockProvider() *MockProvider {
	return &MockProvider{
		Translations: map[string]string{
			"Puissant":      "Powerful",
			"et silencieux": "and quiet",
			"Climatiseur":   "Air conditioner",
			"Bonjour":       "Hello",
		},
	}
}

// Translate returns mock translations. Empty texts stay empty.
func (m *MockProvider) Translate(ctx context.Context, req TranslateRequest) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.callCount++
	m.lastRequest = &req
	m.mu.Unlock()

	results := make([]string, len(req.Texts))
	for i, text := range req.Texts {
		switch translation, ok := m.Translations[text]; {
		case text == "":
		case ok:
			results[i] = translation
		default:
			results[i] = fmt.Sprintf("[%s]", text)
		}
	}

	return results, nil
}

// CallCount returns the number of Translate calls.
func (m *MockProvider) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.callCount
}

// LastRequest returns the last request received, or nil.
func (m *MockProvider) LastRequest() *TranslateRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastRequest
}

// Reset resets the call count and last request.
func (m *MockProvider) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callCount = 0
	m.lastRequest = nil
}

var _ AIProvider = (*MockProvider)(nil)
