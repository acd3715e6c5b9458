package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/sashabaranov/go-openai"
	"gitlab.com/tozd/go/errors"

	"github.com/ZaguanLabs/tlguard"
)

// Defaults applied by NewOpenAIProvider.
const (
	DefaultOpenAIModel       = "gpt-4o-mini"
	DefaultOpenAITemperature = 0.3
)

// OpenAIProvider implements AIProvider using OpenAI's chat completions.
type OpenAIProvider struct {
	client      *openai.Client
	model       string
	temperature float32
}

// OpenAIConfig holds configuration for the OpenAI provider.
type OpenAIConfig struct {
	APIKey      string  // OpenAI API key
	Model       string  // Model to use (default: "gpt-4o-mini")
	Temperature float32 // Temperature for generation (default: 0.3)
	BaseURL     string  // Custom base URL (optional)
}

// NewOpenAIProvider creates a new OpenAI provider.
func NewOpenAIProvider(cfg OpenAIConfig) *OpenAIProvider {
	config := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		config.BaseURL = cfg.BaseURL
	}

	model := cfg.Model
	if model == "" {
		model = DefaultOpenAIModel
	}

	temperature := cfg.Temperature
	if temperature == 0 {
		temperature = DefaultOpenAITemperature
	}

	return &OpenAIProvider{
		client:      openai.NewClientWithConfig(config),
		model:       model,
		temperature: temperature,
	}
}

// Translate translates a batch of texts in one completion.
func (p *OpenAIProvider) Translate(ctx context.Context, req TranslateRequest) ([]string, error) {
	if len(req.Texts) == 0 {
		return []string{}, nil
	}

	userMessage, err := buildUserMessage(req.Texts)
	if err != nil {
		return nil, &tlguard.ProviderError{Message: "encoding request", Cause: err}
	}

	zerolog.Ctx(ctx).Debug().
		Str("model", p.model).
		Int("texts", len(req.Texts)).
		Str("target", req.TargetLang).
		Msg("openai request")

	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: p.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: buildSystemPrompt(req)},
			{Role: openai.ChatMessageRoleUser, Content: userMessage},
		},
		Temperature: p.temperature,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return nil, &tlguard.ProviderError{
			Message:   "OpenAI API call failed",
			Cause:     err,
			Retryable: isRetryableError(err),
		}
	}

	if len(resp.Choices) == 0 {
		return nil, &tlguard.ProviderError{
			Message:   "no response from OpenAI",
			Retryable: true,
		}
	}

	return parseResponse(resp.Choices[0].Message.Content, len(req.Texts))
}

func buildSystemPrompt(req TranslateRequest) string {
	sourceName := tlguard.GetLanguageName(req.SourceLang)
	if req.SourceLang == "" {
		sourceName = "the source language"
	}
	targetName := tlguard.GetLanguageName(req.TargetLang)

	contextText := "The content is product catalog text for an online shop."
	if req.Context != "" {
		contextText = fmt.Sprintf("The content is for: %s. Adapt the tone to be appropriate for this context.", req.Context)
	}

	var b strings.Builder
	fmt.Fprintf(&b, `# Role
You are an expert native translator. You translate from %s to %s with the fluency of a highly educated native speaker.

# Context
%s

# Register
%s

# Task
Translate each provided text into idiomatic %s.

# Rules
- **Natural Flow**: Avoid literal translations. Rephrase so the text reads naturally.
- **Fragments**: Texts may be fragments of a larger sentence split around markup. Translate each fragment on its own and never merge or reorder them.
- **Protected Tokens**: Copy tokens of the form __GLS0__, __GLS1__, ... exactly as written, in the position that fits the translated sentence.
- **Spacing Marker**: Copy the character sequence %q exactly as written; it stands for a non-breaking space.
- **Whitespace**: Preserve leading and trailing spaces.
- **Interpolation**: Do NOT translate variables or placeholders (e.g., {{name}}, {count}, %%s, $1).`,
		sourceName, targetName, contextText, tlguard.GetStyleDescription(req.Style), targetName, tlguard.DefaultNBSPMarker)

	if len(req.ExcludedTerms) > 0 {
		b.WriteString("\n\n# Exclusions\nDo NOT translate the following terms. Keep them exactly as they appear in the source:\n- ")
		b.WriteString(strings.Join(req.ExcludedTerms, "\n- "))
	}

	b.WriteString(`

# Format
Return a valid JSON object with a single key "translations" containing an array of strings in the exact same order as the input.
Example: { "translations": ["translated string 1", "translated string 2"] }
- Do NOT wrap in Markdown code blocks.`)

	return b.String()
}

func buildUserMessage(texts []string) (string, error) {
	var b strings.Builder
	enc := json.NewEncoder(&b)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(texts); err != nil {
		return "", err
	}
	return strings.TrimSuffix(b.String(), "\n"), nil
}

func parseResponse(content string, expectedCount int) ([]string, error) {
	content = strings.TrimSpace(content)

	var objResult map[string]any
	if err := json.Unmarshal([]byte(content), &objResult); err == nil {
		if translations, ok := objResult["translations"]; ok {
			if arr, ok := translations.([]any); ok {
				return toStringSlice(arr, expectedCount)
			}
		}

		// Some models pick their own key.
		for _, v := range objResult {
			if arr, ok := v.([]any); ok {
				return toStringSlice(arr, expectedCount)
			}
		}
	}

	var arrResult []any
	if err := json.Unmarshal([]byte(content), &arrResult); err == nil {
		return toStringSlice(arrResult, expectedCount)
	}

	return nil, &tlguard.ProviderError{
		Message:   "invalid response format from OpenAI",
		Retryable: false,
	}
}

func toStringSlice(arr []any, expectedCount int) ([]string, error) {
	if len(arr) != expectedCount {
		return nil, &tlguard.CountMismatchError{
			Expected: expectedCount,
			Got:      len(arr),
		}
	}

	result := make([]string, len(arr))
	for i, v := range arr {
		if s, ok := v.(string); ok {
			result[i] = s
		} else {
			result[i] = fmt.Sprintf("%v", v)
		}
	}
	return result, nil
}

// isRetryableError classifies API failures. Typed API errors are judged by
// status code, anything else by message.
func isRetryableError(err error) bool {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode == 429 || apiErr.HTTPStatusCode >= 500
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode == 429 || reqErr.HTTPStatusCode >= 500
	}

	errStr := strings.ToLower(err.Error())
	for _, pattern := range []string{"rate limit", "timeout", "connection refused", "temporary", "503", "502", "429"} {
		if strings.Contains(errStr, pattern) {
			return true
		}
	}
	return false
}

var _ AIProvider = (*OpenAIProvider)(nil)
