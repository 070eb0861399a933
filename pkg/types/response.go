package types

// SuccessEnvelope is the uniform success shape every endpoint returns.
type SuccessEnvelope struct {
	Success bool `json:"success"`
	Data    any  `json:"data,omitempty"`
}

// ErrorEnvelope is the uniform failure shape. Error carries the public
// message as a plain string so clients can render it directly; the
// machine-readable code and any validation details ride alongside.
type ErrorEnvelope struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}
