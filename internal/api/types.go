// Package api holds the JSON shapes exchanged over HTTP.
package api

// Outcome flags carried in EmailResponse.Status.
const (
	StatusFailed  = "0"
	StatusSuccess = "1"
)

// EmailResponse is returned by every /email operation. HTTP status is always 200;
// the outcome is carried in the body. EmailStatus is empty when the operation did
// not run because a parameter was missing.
type EmailResponse struct {
	Status      string `json:"status"`
	EmailStatus string `json:"email_status,omitempty"`
	EmailError  string `json:"email_error,omitempty"`
	Token       string `json:"token,omitempty"`
}

// MeResponse describes the caller identified by a bearer token.
type MeResponse struct {
	UserID uint   `json:"user_id"`
	Email  string `json:"email"`
}

// ErrorResponse is returned on transport level failures.
type ErrorResponse struct {
	Error string `json:"error"`
}
