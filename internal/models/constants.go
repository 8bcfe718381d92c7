// Package models contains data types and constants shared by the finking client and server.
package models

import (
	"net/http"
	"time"
)

// Endpoint paths served by the backend
const (
	PathChat   = "/api/chat"
	PathHealth = "/api/health"
)

// DefaultEndpoint is the backend chat endpoint used when nothing is configured
const DefaultEndpoint = "http://127.0.0.1:5000" + PathChat

// Delivery limits
const (
	DefaultTimeout    = 60 * time.Second
	DefaultRetryDelay = 3 * time.Second
	DefaultMaxRetries = 2

	// StatusWarmingUp is answered by the backend while it is still starting.
	StatusWarmingUp = http.StatusServiceUnavailable

	// MaxMessageLength is the longest message the backend accepts, in characters.
	MaxMessageLength = 4000
)

// Upstream (DeepSeek) defaults
const (
	DefaultUpstreamURL     = "https://api.deepseek.com/chat/completions"
	DefaultUpstreamModel   = "deepseek-chat"
	DefaultUpstreamTimeout = 30 * time.Second
)

// User-facing texts
const (
	WelcomeText = "Hello! I'm FinKing AI, your AI-powered investment analyst. " +
		"Ask me about stocks, crypto, markets, or any financial questions you have!"
	FallbackReplyText = "Sorry, I encountered an error processing your request."
)

// Markers prefixed to error messages shown in the display log
const (
	MarkerApplicationError = "⚠️"
	MarkerTimeout          = "⏱️"
	MarkerWarmingUp        = "🔄"
	MarkerFailure          = "❌"
)
