// Package services provides the business logic layer between handlers and the
// interpretation engine, the query backend and session state.
package services

import "errors"

// Error codes returned in the API error envelope.
const (
	CodeInvalidRequest     = "INVALID_REQUEST"
	CodeQueryPending       = "QUERY_PENDING"
	CodeQueryFailed        = "QUERY_FAILED"
	CodeBackendUnavailable = "BACKEND_UNAVAILABLE"
	CodeInvalidView        = "INVALID_VIEW"
	CodeInternal           = "INTERNAL_ERROR"
)

// ServiceError represents a service layer error
type ServiceError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

func (e *ServiceError) Error() string {
	return e.Message
}

// NewServiceError creates a new ServiceError
func NewServiceError(code, message string) *ServiceError {
	return &ServiceError{
		Code:    code,
		Message: message,
	}
}

// NewServiceErrorWithDetails creates a new ServiceError with details
func NewServiceErrorWithDetails(code, message string, details map[string]interface{}) *ServiceError {
	return &ServiceError{
		Code:    code,
		Message: message,
		Details: details,
	}
}

// AsServiceError extracts a ServiceError from err's chain.
func AsServiceError(err error) (*ServiceError, bool) {
	var se *ServiceError
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}
