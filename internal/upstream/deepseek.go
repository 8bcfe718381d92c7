// Package upstream forwards questions to the model API behind the backend.
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"
	"unicode/utf8"

	http "github.com/bogdanfinn/fhttp"
	"github.com/rs/zerolog/log"
	"github.com/tidwall/gjson"

	"github.com/diogo/finking/internal/api"
	"github.com/diogo/finking/internal/config"
	apierrors "github.com/diogo/finking/internal/errors"
)

// Completion is one answer from the model
type Completion struct {
	Reply string
	Model string
	// TokensUsed is the raw usage object, or {} when absent.
	TokensUsed json.RawMessage
}

// Completer answers a single question
type Completer interface {
	Complete(ctx context.Context, question string) (*Completion, error)
	Configured() bool
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type completionRequest struct {
	Model            string        `json:"model"`
	Messages         []chatMessage `json:"messages"`
	Temperature      float64       `json:"temperature"`
	MaxTokens        int           `json:"max_tokens"`
	TopP             float64       `json:"top_p"`
	FrequencyPenalty float64       `json:"frequency_penalty"`
	PresencePenalty  float64       `json:"presence_penalty"`
	Stream           bool          `json:"stream"`
}

// DeepSeek calls the DeepSeek chat completions API
type DeepSeek struct {
	httpClient api.HTTPDoer
	cfg        config.UpstreamConfig
	timeout    time.Duration
}

// NewDeepSeek creates a completer from the upstream configuration.
// A nil doer selects the default TLS client.
func NewDeepSeek(cfg config.UpstreamConfig, timeout time.Duration, doer api.HTTPDoer) (*DeepSeek, error) {
	if doer == nil {
		httpClient, err := api.NewHTTPClient(timeout)
		if err != nil {
			return nil, err
		}
		doer = httpClient
	}
	return &DeepSeek{httpClient: doer, cfg: cfg, timeout: timeout}, nil
}

// Configured reports whether an API key is available
func (d *DeepSeek) Configured() bool {
	return d.cfg.APIKey != ""
}

// Complete sends question with the system prompt and returns the first choice
func (d *DeepSeek) Complete(ctx context.Context, question string) (*Completion, error) {
	if !d.Configured() {
		return nil, apierrors.ErrNotConfigured
	}

	payload, err := json.Marshal(d.buildRequest(question))
	if err != nil {
		return nil, fmt.Errorf("failed to encode completion request: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.cfg.URL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+d.cfg.APIKey)

	start := time.Now()
	resp, err := d.httpClient.Do(req)
	if err != nil {
		return nil, d.classify(ctx, err)
	}
	defer func() {
		if resp != nil && resp.Body != nil {
			_ = resp.Body.Close()
		}
	}()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, d.classify(ctx, err)
	}

	log.Debug().
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Str("model", d.cfg.Model).
		Msg("upstream responded")

	if resp.StatusCode != http.StatusOK {
		return nil, apierrors.NewAPIErrorWithBody(resp.StatusCode, d.cfg.URL, "AI service returned error", truncate(body, 4096))
	}

	return parseCompletion(body, d.cfg.Model)
}

func (d *DeepSeek) buildRequest(question string) completionRequest {
	return completionRequest{
		Model: d.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: d.cfg.SystemPrompt},
			{Role: "user", Content: question},
		},
		Temperature: d.cfg.Temperature,
		MaxTokens:   d.cfg.MaxTokens,
		TopP:        d.cfg.TopP,
	}
}

func (d *DeepSeek) classify(ctx context.Context, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) || apierrors.IsTimeoutError(err) {
		return &apierrors.TimeoutError{Message: "AI service took too long to respond", Err: err}
	}
	return apierrors.NewNetworkErrorWithEndpoint("complete", d.cfg.URL, err)
}

func parseCompletion(body []byte, model string) (*Completion, error) {
	if !gjson.ValidBytes(body) {
		return nil, apierrors.NewParseError("response is not valid JSON", "")
	}

	parsed := gjson.ParseBytes(body)
	if len(parsed.Get("choices").Array()) == 0 {
		return nil, apierrors.NewParseError("no choices in response", "choices")
	}

	content := parsed.Get("choices.0.message.content")
	if !content.Exists() {
		return nil, apierrors.NewParseError("missing message content", "choices.0.message.content")
	}

	usage := json.RawMessage(`{}`)
	if u := parsed.Get("usage"); u.IsObject() {
		usage = json.RawMessage(u.Raw)
	}

	if m := parsed.Get("model").String(); m != "" {
		model = m
	}

	return &Completion{
		Reply:      content.String(),
		Model:      model,
		TokensUsed: usage,
	}, nil
}

// truncate cuts body to at most limit bytes without splitting a rune
func truncate(body []byte, limit int) string {
	if len(body) <= limit {
		return string(body)
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(body[cut]) {
		cut--
	}
	return string(body[:cut])
}
