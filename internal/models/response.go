package models

import "encoding/json"

// ChatRequest is the body posted to the chat endpoint
type ChatRequest struct {
	Message string `json:"message"`
}

// ChatResponse is the body returned by the chat endpoint.
// Exactly one of Reply or Error is normally set.
type ChatResponse struct {
	Reply      string          `json:"reply,omitempty"`
	Error      string          `json:"error,omitempty"`
	Timestamp  string          `json:"timestamp,omitempty"`
	Model      string          `json:"model,omitempty"`
	TokensUsed json.RawMessage `json:"tokens_used,omitempty"`
}

// HealthResponse is returned by the health endpoint
type HealthResponse struct {
	Status        string `json:"status"`
	Service       string `json:"service"`
	Version       string `json:"version"`
	Timestamp     string `json:"timestamp"`
	APIConfigured bool   `json:"api_configured"`
}

// OutcomeKind classifies the terminal result of a delivery
type OutcomeKind int

const (
	// OutcomeReply is a successful reply (including the fallback text).
	OutcomeReply OutcomeKind = iota
	// OutcomeApplicationError is an error reported by the server in the response body.
	OutcomeApplicationError
	// OutcomeTransportError covers timeouts, warm-up exhaustion, HTTP and connection failures.
	OutcomeTransportError
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeReply:
		return "reply"
	case OutcomeApplicationError:
		return "application_error"
	case OutcomeTransportError:
		return "transport_error"
	default:
		return "unknown"
	}
}

// Outcome is the terminal result of one Send
type Outcome struct {
	Kind OutcomeKind
	// Text holds the reply or the server-reported error message.
	Text string
	// Err is set for transport errors; see the errors package for the concrete types.
	Err error
	// Fallback is true when the server answered without reply or error fields.
	Fallback bool
	// Attempts is the number of requests issued.
	Attempts int
}

// ReplyOutcome builds a successful outcome
func ReplyOutcome(text string, attempts int) Outcome {
	return Outcome{Kind: OutcomeReply, Text: text, Attempts: attempts}
}

// ApplicationErrorOutcome builds an outcome for a server-reported error
func ApplicationErrorOutcome(text string, attempts int) Outcome {
	return Outcome{Kind: OutcomeApplicationError, Text: text, Attempts: attempts}
}

// TransportErrorOutcome builds an outcome for a failed delivery
func TransportErrorOutcome(err error, attempts int) Outcome {
	return Outcome{Kind: OutcomeTransportError, Err: err, Attempts: attempts}
}
