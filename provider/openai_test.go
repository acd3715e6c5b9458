package provider

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ZaguanLabs/tlguard"
)

func TestBuildSystemPrompt(t *testing.T) {
	prompt := buildSystemPrompt(TranslateRequest{
		TargetLang:    "en_GB",
		SourceLang:    "fr",
		Context:       "Home appliances shop",
		ExcludedTerms: []string{"Inverter", "SKU"},
		Style:         tlguard.StyleMarketing,
	})

	assert.Contains(t, prompt, "from French to English (United Kingdom)")
	assert.Contains(t, prompt, "Home appliances shop")
	assert.Contains(t, prompt, "- Inverter\n- SKU")
	assert.Contains(t, prompt, "persuasive")
	assert.Contains(t, prompt, "__GLS0__")
	assert.Contains(t, prompt, tlguard.DefaultNBSPMarker)
}

func TestBuildSystemPrompt_Defaults(t *testing.T) {
	prompt := buildSystemPrompt(TranslateRequest{TargetLang: "de"})

	assert.Contains(t, prompt, "from the source language to German")
	assert.Contains(t, prompt, "product catalog")
	assert.Contains(t, prompt, tlguard.GetStyleDescription(tlguard.StyleNeutral))
	assert.NotContains(t, prompt, "# Exclusions")
}

func TestBuildUserMessage(t *testing.T) {
	msg, err := buildUserMessage([]string{"<b>", "d'été"})
	require.NoError(t, err)
	assert.Equal(t, `["<b>","d'été"]`, msg)
}

func TestParseResponse(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    []string
	}{
		{"translations key", `{"translations": ["Hello", "World"]}`, []string{"Hello", "World"}},
		{"other key", `{"results": ["Hello", "World"]}`, []string{"Hello", "World"}},
		{"direct array", `["Hello", "World"]`, []string{"Hello", "World"}},
		{"non-string values", `{"translations": ["Hello", 42]}`, []string{"Hello", "42"}},
		{"surrounding whitespace", "\n {\"translations\": [\"Hello\", \"World\"]}\n", []string{"Hello", "World"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseResponse(tt.content, 2)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseResponse_Errors(t *testing.T) {
	_, err := parseResponse(`{"translations": ["Hello"]}`, 2)
	var mismatch *tlguard.CountMismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, 2, mismatch.Expected)
	assert.Equal(t, 1, mismatch.Got)

	_, err = parseResponse("not json", 1)
	var perr *tlguard.ProviderError
	require.ErrorAs(t, err, &perr)
	assert.False(t, perr.Retryable)
}

// chatServer answers every chat completion with content, or with status
// and an OpenAI style error body when status is not 200.
func chatServer(t *testing.T, status int, content string, seen *[]string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var body struct {
			Messages []struct {
				Content string `json:"content"`
			} `json:"messages"`
		}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		if seen != nil && len(body.Messages) == 2 {
			*seen = append(*seen, body.Messages[1].Content)
		}

		w.Header().Set("Content-Type", "application/json")
		if status != http.StatusOK {
			w.WriteHeader(status)
			_, _ = w.Write([]byte(`{"error":{"message":"slow down","type":"rate_limit_exceeded"}}`))
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":     "chatcmpl-1",
			"object": "chat.completion",
			"model":  DefaultOpenAIModel,
			"choices": []map[string]any{{
				"index":         0,
				"message":       map[string]string{"role": "assistant", "content": content},
				"finish_reason": "stop",
			}},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestOpenAIProvider_Translate(t *testing.T) {
	var seen []string
	srv := chatServer(t, http.StatusOK, `{"translations": ["Powerful", " and quiet"]}`, &seen)
	p := NewOpenAIProvider(OpenAIConfig{APIKey: "test-key", BaseURL: srv.URL + "/v1"})

	got, err := p.Translate(context.Background(), TranslateRequest{
		Texts:      []string{"Puissant", " et silencieux"},
		SourceLang: "fr",
		TargetLang: "en",
	})

	require.NoError(t, err)
	assert.Equal(t, []string{"Powerful", " and quiet"}, got)
	assert.Equal(t, []string{`["Puissant"," et silencieux"]`}, seen)
}

func TestOpenAIProvider_EmptyBatch(t *testing.T) {
	p := NewOpenAIProvider(OpenAIConfig{APIKey: "test-key", BaseURL: "http://127.0.0.1:1"})

	got, err := p.Translate(context.Background(), TranslateRequest{})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestOpenAIProvider_RateLimitIsRetryable(t *testing.T) {
	srv := chatServer(t, http.StatusTooManyRequests, "", nil)
	p := NewOpenAIProvider(OpenAIConfig{APIKey: "test-key", BaseURL: srv.URL + "/v1"})

	_, err := p.Translate(context.Background(), TranslateRequest{Texts: []string{"Bonjour"}, TargetLang: "en"})

	var perr *tlguard.ProviderError
	require.ErrorAs(t, err, &perr)
	assert.True(t, perr.Retryable)
	assert.True(t, tlguard.IsRetryable(err))
}

func TestOpenAIProvider_CountMismatch(t *testing.T) {
	srv := chatServer(t, http.StatusOK, `{"translations": ["Hello"]}`, nil)
	p := NewOpenAIProvider(OpenAIConfig{APIKey: "test-key", BaseURL: srv.URL + "/v1"})

	_, err := p.Translate(context.Background(), TranslateRequest{Texts: []string{"a", "b"}, TargetLang: "en"})

	var mismatch *tlguard.CountMismatchError
	assert.ErrorAs(t, err, &mismatch)
}

func TestNewOpenAIProvider_Defaults(t *testing.T) {
	p := NewOpenAIProvider(OpenAIConfig{APIKey: "k"})
	assert.Equal(t, DefaultOpenAIModel, p.model)
	assert.InDelta(t, DefaultOpenAITemperature, p.temperature, 1e-6)

	p = NewOpenAIProvider(OpenAIConfig{APIKey: "k", Model: "gpt-4o", Temperature: 0.1})
	assert.Equal(t, "gpt-4o", p.model)
	assert.InDelta(t, 0.1, p.temperature, 1e-6)
}

func TestIsRetryableError(t *testing.T) {
	tests := []struct {
		err  string
		want bool
	}{
		{"rate limit reached", true},
		{"context deadline: timeout", true},
		{"status 502", true},
		{"invalid api key", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, isRetryableError(errors.New(tt.err)), tt.err)
	}
}

func TestMockProvider(t *testing.T) {
	m := NewMockProvider()

	got, err := m.Translate(context.Background(), TranslateRequest{
		Texts:      []string{"Puissant", "", "Inconnu"},
		TargetLang: "en",
	})

	require.NoError(t, err)
	assert.Equal(t, []string{"Powerful", "", "[Inconnu]"}, got)
	assert.Equal(t, 1, m.CallCount())
	assert.Equal(t, "en", m.LastRequest().TargetLang)

	m.Reset()
	assert.Equal(t, 0, m.CallCount())
	assert.Nil(t, m.LastRequest())
}

func TestMockProvider_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewMockProvider().Translate(ctx, TranslateRequest{Texts: []string{"Bonjour"}})
	assert.ErrorIs(t, err, context.Canceled)
}
