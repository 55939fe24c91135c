package accountsdk

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// APIError is any non-2xx reply from the accounts service.
type APIError struct {
	// StatusCode is the HTTP status code of the reply
	StatusCode int

	// Message is the "error" field of the body
	Message string

	// Status is the registration status for approval-gate refusals
	// ("pending" or "rejected"); empty otherwise.
	Status string

	// Details holds per-field validation messages
	Details map[string]string
}

func (e *APIError) Error() string {
	if e.Status != "" {
		return fmt.Sprintf("accountsdk: %d %s (%s)", e.StatusCode, e.Message, e.Status)
	}
	return fmt.Sprintf("accountsdk: %d %s", e.StatusCode, e.Message)
}

// IsPendingApproval reports whether the login was refused because the
// registration is still awaiting review.
func (e *APIError) IsPendingApproval() bool {
	return e.StatusCode == http.StatusForbidden && e.Status == StatusPending
}

// IsRejected reports whether the login was refused because the registration
// was rejected.
func (e *APIError) IsRejected() bool {
	return e.StatusCode == http.StatusForbidden && e.Status == StatusRejected
}

func parseErrorResponse(resp *http.Response, body []byte) error {
	var er ErrorResponse
	if err := json.Unmarshal(body, &er); err != nil || er.Error == "" {
		return &APIError{StatusCode: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
	}
	return &APIError{
		StatusCode: resp.StatusCode,
		Message:    er.Error,
		Status:     er.Status,
		Details:    er.Details,
	}
}
