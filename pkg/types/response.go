package types

// SuccessEnvelope wraps every successful API response. Handlers put their
// payload under "data", whether that is a single booking or a page of tours.
type SuccessEnvelope struct {
	Data any `json:"data"`
}

// APIError is the wire form of a failed request. Code stays stable for
// machine handling; Details carries field-level validation context when
// there is any.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// ErrorEnvelope nests the error under its own key so clients can branch on
// the top-level field alone.
type ErrorEnvelope struct {
	Error APIError `json:"error"`
}
