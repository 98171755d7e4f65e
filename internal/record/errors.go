package record

import "errors"

// ErrNotFound reports that a record id does not exist. The web layer
// translates it to 404 before any mutation is attempted.
var ErrNotFound = errors.New("record not found")

// ValidationError reports a field-level contract violation in an inbound
// payload. It is always a client error, never retried.
type ValidationError struct {
	Field   string // offending field, empty for payload-level problems
	Message string // user-facing Portuguese message
}

func (e *ValidationError) Error() string {
	return e.Message
}

func requiredFieldError(field string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: "O campo '" + field + "' é obrigatório.",
	}
}

func invalidIntError(field string) *ValidationError {
	return &ValidationError{Field: field, Message: "Valor numérico inválido."}
}

func invalidDateError(field string) *ValidationError {
	return &ValidationError{Field: field, Message: "Data em formato inválido."}
}
