package api

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
	"github.com/tidwall/gjson"

	apierrors "github.com/diogo/finking/internal/errors"
	"github.com/diogo/finking/internal/models"
)

const (
	maxBodySize      = 1 << 20
	maxErrorBodySize = 4096
)

// attempt is one request of a delivery. It lives until its response is resolved.
type attempt struct {
	payload  []byte
	number   int
	deadline time.Time
}

// attemptResult is what one request produced
type attemptResult struct {
	status int
	body   []byte
	err    error
}

// Send delivers text and returns its terminal outcome. It never returns an
// error: every failure is folded into an Outcome of kind OutcomeTransportError.
//
// A warm-up answer (503) is retried with the same payload up to maxRetries
// times, waiting retryDelay between attempts. Every attempt runs under its
// own deadline.
func (c *Client) Send(ctx context.Context, text string) models.Outcome {
	payload, err := json.Marshal(models.ChatRequest{Message: text})
	if err != nil {
		return models.TransportErrorOutcome(fmt.Errorf("failed to encode message: %w", err), 0)
	}

	for number := 1; ; number++ {
		a := attempt{payload: payload, number: number}
		res := c.do(ctx, &a)

		if res.err != nil {
			c.logger.Error().Err(res.err).
				Int("attempt", number).
				Str("endpoint", c.endpoint).
				Msg("delivery failed")
			return models.TransportErrorOutcome(res.err, number)
		}

		if res.status == models.StatusWarmingUp {
			if number > c.maxRetries {
				err := apierrors.NewWarmupError(number)
				c.logger.Error().Err(err).Str("endpoint", c.endpoint).Msg("service never finished warming up")
				return models.TransportErrorOutcome(err, number)
			}

			c.logger.Info().
				Int("attempt", number).
				Dur("delay", c.retryDelay).
				Msg("service starting up, retrying")
			if c.onRetry != nil {
				c.onRetry(number, c.retryDelay)
			}
			if err := c.sleep(ctx, c.retryDelay); err != nil {
				return models.TransportErrorOutcome(
					apierrors.NewNetworkErrorWithEndpoint("wait for retry", c.endpoint, err), number)
			}
			continue
		}

		if res.status < 200 || res.status > 299 {
			err := apierrors.NewAPIErrorWithBody(res.status, c.endpoint, "chat request failed", truncate(res.body, maxErrorBodySize))
			c.logger.Error().Err(err).Int("attempt", number).Msg("delivery failed")
			return models.TransportErrorOutcome(err, number)
		}

		return c.parse(res.body, number)
	}
}

// do issues one request and reads its body under the attempt deadline
func (c *Client) do(ctx context.Context, a *attempt) attemptResult {
	attemptCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	a.deadline, _ = attemptCtx.Deadline()

	req, err := http.NewRequestWithContext(attemptCtx, http.MethodPost, c.endpoint, bytes.NewReader(a.payload))
	if err != nil {
		return attemptResult{err: fmt.Errorf("failed to create request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	c.logger.Debug().
		Int("attempt", a.number).
		Time("deadline", a.deadline).
		Str("endpoint", c.endpoint).
		Msg("sending message")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return attemptResult{err: c.classify(attemptCtx, "send message", err)}
	}
	defer func() {
		if resp != nil && resp.Body != nil {
			_ = resp.Body.Close()
		}
	}()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return attemptResult{err: c.classify(attemptCtx, "read response", err)}
	}

	c.logger.Debug().
		Int("attempt", a.number).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Msg("response received")

	return attemptResult{status: resp.StatusCode, body: body}
}

// classify maps a transport failure to a timeout or a network error
func (c *Client) classify(attemptCtx context.Context, operation string, err error) error {
	if errors.Is(attemptCtx.Err(), context.DeadlineExceeded) || apierrors.IsTimeoutError(err) {
		return &apierrors.TimeoutError{
			Message: fmt.Sprintf("no response within %s", c.timeout),
			Err:     err,
		}
	}
	return apierrors.NewNetworkErrorWithEndpoint(operation, c.endpoint, err)
}

// parse turns a 2xx body into an outcome
func (c *Client) parse(body []byte, attempts int) models.Outcome {
	if !gjson.ValidBytes(body) {
		return models.TransportErrorOutcome(apierrors.NewParseError("response is not valid JSON", ""), attempts)
	}

	parsed := gjson.ParseBytes(body)

	if reply := parsed.Get("reply").String(); reply != "" {
		return models.ReplyOutcome(reply, attempts)
	}

	if msg := parsed.Get("error").String(); msg != "" {
		c.logger.Warn().Str("error", msg).Int("attempts", attempts).Msg("server reported an error")
		return models.ApplicationErrorOutcome(msg, attempts)
	}

	c.logger.Info().Int("attempts", attempts).Msg("response had neither reply nor error, using fallback")
	out := models.ReplyOutcome(models.FallbackReplyText, attempts)
	out.Fallback = true
	return out
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
