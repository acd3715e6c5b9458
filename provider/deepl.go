package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"

	"github.com/ZaguanLabs/tlguard"
)

// DeepL endpoints. Keys ending in ":fx" belong to the free plan.
const (
	DeepLFreeURL = "https://api-free.deepl.com/v2/translate"
	DeepLProURL  = "https://api.deepl.com/v2/translate"
)

// deeplMaxTexts is the number of text parameters DeepL accepts per request.
const deeplMaxTexts = 50

// DeepLConfig holds configuration for the DeepL provider.
type DeepLConfig struct {
	APIKey     string
	BaseURL    string        // Defaults from the key's plan
	Timeout    time.Duration // Default: 1 minute
	HTTPClient *http.Client  // Overrides Timeout when set
}

// DeepLProvider implements AIProvider against the DeepL REST API.
type DeepLProvider struct {
	apiKey     string
	url        string
	httpClient *http.Client
}

// NewDeepLProvider creates a new DeepL provider.
func NewDeepLProvider(cfg DeepLConfig) *DeepLProvider {
	endpoint := cfg.BaseURL
	if endpoint == "" {
		endpoint = DeepLProURL
		if strings.HasSuffix(cfg.APIKey, ":fx") {
			endpoint = DeepLFreeURL
		}
	}

	client := cfg.HTTPClient
	if client == nil {
		timeout := cfg.Timeout
		if timeout == 0 {
			timeout = time.Minute
		}
		client = &http.Client{Timeout: timeout}
	}

	return &DeepLProvider{
		apiKey:     cfg.APIKey,
		url:        endpoint,
		httpClient: client,
	}
}

// Translate translates the batch, splitting it into requests DeepL accepts.
func (d *DeepLProvider) Translate(ctx context.Context, req TranslateRequest) ([]string, error) {
	if len(req.Texts) == 0 {
		return []string{}, nil
	}
	if d.apiKey == "" {
		return nil, &tlguard.ProviderError{Message: "DeepL API key not configured"}
	}

	results := make([]string, 0, len(req.Texts))
	for start := 0; start < len(req.Texts); start += deeplMaxTexts {
		end := min(start+deeplMaxTexts, len(req.Texts))
		zerolog.Ctx(ctx).Debug().
			Int("from", start).
			Int("to", end).
			Int("total", len(req.Texts)).
			Msg("deepl request")

		batch, err := d.translateBatch(ctx, req, req.Texts[start:end])
		if err != nil {
			return nil, err
		}
		results = append(results, batch...)
	}
	return results, nil
}

func (d *DeepLProvider) translateBatch(ctx context.Context, req TranslateRequest, texts []string) ([]string, error) {
	form := url.Values{}
	for _, text := range texts {
		form.Add("text", text)
	}
	form.Set("target_lang", tlguard.DeepLCode(req.TargetLang, true))
	if req.SourceLang != "" && req.SourceLang != "auto" {
		form.Set("source_lang", tlguard.DeepLCode(req.SourceLang, false))
	}
	if formality := deeplFormality(req.Style); formality != "" {
		form.Set("formality", formality)
	}
	if req.Context != "" {
		form.Set("context", req.Context)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, d.url, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, &tlguard.ProviderError{Message: "building DeepL request", Cause: err}
	}
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	httpReq.Header.Set("Authorization", "DeepL-Auth-Key "+d.apiKey)
	httpReq.Header.Set("User-Agent", tlguard.UserAgent())

	resp, err := d.httpClient.Do(httpReq)
	if err != nil {
		return nil, &tlguard.ProviderError{
			Message:   "DeepL API request failed",
			Cause:     err,
			Retryable: ctx.Err() == nil,
		}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &tlguard.ProviderError{Message: "reading DeepL response", Cause: err, Retryable: true}
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &tlguard.ProviderError{
			Message:   fmt.Sprintf("DeepL API error (status %d)", resp.StatusCode),
			Cause:     errors.New(strings.TrimSpace(string(body))),
			Retryable: resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500,
		}
	}

	var deeplResp struct {
		Translations []struct {
			Text string `json:"text"`
		} `json:"translations"`
	}
	if err := json.Unmarshal(body, &deeplResp); err != nil {
		return nil, &tlguard.ProviderError{Message: "invalid response format from DeepL", Cause: err}
	}
	if len(deeplResp.Translations) != len(texts) {
		return nil, &tlguard.CountMismatchError{Expected: len(texts), Got: len(deeplResp.Translations)}
	}

	out := make([]string, len(texts))
	for i, tr := range deeplResp.Translations {
		out[i] = tr.Text
	}
	return out, nil
}

// deeplFormality maps a style to DeepL's formality parameter. The
// prefer_ variants fall back silently for languages without formality.
func deeplFormality(style tlguard.TranslationStyle) string {
	switch style {
	case tlguard.StyleFormal, tlguard.StyleTechnical:
		return "prefer_more"
	case tlguard.StyleMarketing:
		return "prefer_less"
	default:
		return ""
	}
}

var _ AIProvider = (*DeepLProvider)(nil)
