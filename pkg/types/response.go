// Package types holds the wire envelopes shared by the storefront and sync
// APIs. Every JSON response body is either a SuccessEnvelope or an
// ErrorEnvelope.
package types

type SuccessEnvelope struct {
	Data any `json:"data"`
}

// APIError is the client-facing error shape. Details carries structured
// context (validation field errors, stock violations) when the code allows it.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}
