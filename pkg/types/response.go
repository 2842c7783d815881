// Package types holds the JSON envelopes every CRM endpoint responds with.
package types

// SuccessEnvelope wraps a successful payload, whether that is a lead page,
// a credential listing, or a cached insights report.
type SuccessEnvelope struct {
	Data any `json:"data"`
}

// APIError is the wire form of a request failure. Details carries
// request-specific context such as the Graph error code on upstream failures.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// ErrorEnvelope is the top-level shape of every error response.
type ErrorEnvelope struct {
	Error APIError `json:"error"`
}
