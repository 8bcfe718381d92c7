package widget

import (
	"fmt"

	apierrors "github.com/diogo/finking/internal/errors"
	"github.com/diogo/finking/internal/models"
)

// User-facing texts for failed deliveries
const (
	timeoutText    = "Request timed out. The service took too long to respond. Please try again."
	warmingUpText  = "The service is starting up. Please try again in a moment."
	connectionText = "Sorry, I'm having trouble connecting to the server. Please try again later."
)

// DisplayText returns the assistant message shown for an outcome.
// Errors get their marker prefix; replies are shown as-is.
func DisplayText(out models.Outcome) string {
	switch out.Kind {
	case models.OutcomeReply:
		return out.Text
	case models.OutcomeApplicationError:
		return models.MarkerApplicationError + " " + out.Text
	}

	switch {
	case apierrors.IsTimeoutError(out.Err):
		return models.MarkerTimeout + " " + timeoutText
	case apierrors.IsWarmupError(out.Err):
		return models.MarkerWarmingUp + " " + warmingUpText
	case apierrors.GetHTTPStatus(out.Err) > 0:
		return fmt.Sprintf("%s Server error (HTTP %d). %s",
			models.MarkerFailure, apierrors.GetHTTPStatus(out.Err), connectionText)
	default:
		return models.MarkerFailure + " " + connectionText
	}
}
