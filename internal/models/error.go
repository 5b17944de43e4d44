package models

// ErrorDetail is one field-level validation issue.
// swagger:model ErrorDetail
type ErrorDetail struct {
	// Dotted path of the offending field
	// example: zipCode
	Path string `json:"path"`

	// Human-readable message
	// example: zipCode is required
	Message string `json:"message"`

	// Machine-readable issue code
	// example: too_small
	Code string `json:"code"`

	// Expected type, present for type mismatches
	Expected string `json:"expected,omitempty"`

	// Received type or value, present for type mismatches
	Received string `json:"received,omitempty"`
}

// ErrorBody is the inner error object of every failure response.
// swagger:model ErrorBody
type ErrorBody struct {
	// Error message
	// example: User not found
	Message string `json:"message"`

	// HTTP status code
	// example: 404
	Status int `json:"status"`

	// Validation issues, present only for validation failures
	Details []ErrorDetail `json:"details,omitempty"`
}

// ErrorResponse is the generic error envelope.
// swagger:model ErrorResponse
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}
