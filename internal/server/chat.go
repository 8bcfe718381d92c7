package server

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"github.com/tidwall/gjson"

	apierrors "github.com/diogo/finking/internal/errors"
	"github.com/diogo/finking/internal/models"
)

// Error messages returned by the chat endpoint
const (
	msgInvalidRequest = "Invalid request. Please provide a message."
	msgEmpty          = "Message cannot be empty."
	msgConfig         = "API configuration error. Please contact support."
	msgRateLimited    = "Too many requests. Please slow down."
	msgTimeout        = "Request timeout. The AI service took too long to respond. Please try again."
	msgConnection     = "Connection error. Unable to reach AI service. Please check your internet connection."
	msgInvalidReply   = "Invalid response from AI service."
	msgUnexpected     = "An unexpected error occurred. Please try again later."
)

func msgTooLong() string {
	return fmt.Sprintf("Message is too long. Please keep it under %d characters.", models.MaxMessageLength)
}

func chatError(c *fiber.Ctx, status int, msg string) error {
	return c.Status(status).JSON(models.ChatResponse{Error: msg})
}

func (s *Server) handleChat(c *fiber.Ctx) error {
	body := c.Body()
	message := gjson.GetBytes(body, "message")
	if !gjson.ValidBytes(body) || message.Type != gjson.String {
		log.Warn().Msg("invalid request: missing message field")
		return chatError(c, fiber.StatusBadRequest, msgInvalidRequest)
	}

	text := strings.TrimSpace(message.String())
	if text == "" {
		log.Warn().Msg("empty message received")
		return chatError(c, fiber.StatusBadRequest, msgEmpty)
	}
	if n := utf8.RuneCountInString(text); n > models.MaxMessageLength {
		log.Warn().Int("length", n).Msg("message too long")
		return chatError(c, fiber.StatusBadRequest, msgTooLong())
	}

	if !s.completer.Configured() {
		log.Error().Msg("upstream API key not configured")
		return chatError(c, fiber.StatusInternalServerError, msgConfig)
	}

	if s.limiter != nil && !s.limiter.Allow() {
		log.Warn().Msg("rate limit exceeded")
		return chatError(c, fiber.StatusTooManyRequests, msgRateLimited)
	}

	log.Info().Str("message", preview(text)).Msg("processing chat request")

	completion, err := s.completer.Complete(c.UserContext(), text)
	if err != nil {
		status, msg := upstreamFailure(err)
		log.Error().Err(err).Int("status", status).Msg("upstream request failed")
		return chatError(c, status, msg)
	}

	log.Info().Str("reply", preview(completion.Reply)).Msg("generated response")

	return c.Status(fiber.StatusOK).JSON(models.ChatResponse{
		Reply:      completion.Reply,
		Timestamp:  time.Now().UTC().Format(time.RFC3339Nano),
		Model:      completion.Model,
		TokensUsed: completion.TokensUsed,
	})
}

// upstreamFailure maps a completer error to the status and message sent back
func upstreamFailure(err error) (int, string) {
	switch {
	case apierrors.IsAPIError(err):
		code := apierrors.GetHTTPStatus(err)
		return code, fmt.Sprintf("AI service returned error: %d. Please try again.", code)
	case apierrors.IsTimeoutError(err):
		return fiber.StatusGatewayTimeout, msgTimeout
	case apierrors.IsNetworkError(err):
		return fiber.StatusServiceUnavailable, msgConnection
	case apierrors.IsParseError(err):
		return fiber.StatusInternalServerError, msgInvalidReply
	case errors.Is(err, apierrors.ErrNotConfigured):
		return fiber.StatusInternalServerError, msgConfig
	default:
		return fiber.StatusInternalServerError, msgUnexpected
	}
}

func (s *Server) handleHealth(c *fiber.Ctx) error {
	return c.JSON(models.HealthResponse{
		Status:        "healthy",
		Service:       "FinKing AI API",
		Version:       s.version,
		Timestamp:     time.Now().UTC().Format(time.RFC3339Nano),
		APIConfigured: s.completer.Configured(),
	})
}

func preview(s string) string {
	const limit = 50
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	return string([]rune(s)[:limit]) + "..."
}
