package errors

import "fmt"

// ========== Response code constants ==========

// CodeSuccess is returned in the response envelope on success
const (
	CodeSuccess = 200
)

// HTTP-layer error codes (400-599)
const (
	CodeInvalidParam  = 400
	CodeUnauthorized  = 401
	CodeForbidden     = 403
	CodeNotFound      = 404
	CodeConflict      = 409
	CodeUnprocessable = 422
	CodeServerError   = 500
	CodeBadGateway    = 502
)

// Kind tags a failure category so callers can branch on it without
// string matching.
type Kind string

const (
	KindValidation       Kind = "validation"
	KindConflict         Kind = "conflict"
	KindInvitationFailed Kind = "invitation_failed"
	KindAuthorization    Kind = "authorization"
	KindExternalService  Kind = "external_service"
	KindNotFound         Kind = "not_found"
)

// AppError is the tagged error carried through service pipelines.
// Field is set for validation errors scoped to a single input field;
// Fields aggregates persistence-level errors keyed by column.
type AppError struct {
	Kind    Kind
	Field   string
	Message string
	Fields  map[string]string
	Err     error
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Code maps the error kind to a response envelope code.
func (e *AppError) Code() int {
	switch e.Kind {
	case KindValidation:
		return CodeUnprocessable
	case KindConflict:
		return CodeConflict
	case KindAuthorization:
		return CodeForbidden
	case KindNotFound:
		return CodeNotFound
	case KindExternalService:
		return CodeBadGateway
	default:
		return CodeServerError
	}
}

func Validation(field, format string, args ...interface{}) *AppError {
	return &AppError{Kind: KindValidation, Field: field, Message: fmt.Sprintf(format, args...)}
}

func Conflict(format string, args ...interface{}) *AppError {
	return &AppError{Kind: KindConflict, Message: fmt.Sprintf(format, args...)}
}

func InvitationFailed(message string, fields map[string]string) *AppError {
	return &AppError{Kind: KindInvitationFailed, Message: message, Fields: fields}
}

func Authorization(message string) *AppError {
	return &AppError{Kind: KindAuthorization, Message: message}
}

func External(message string, err error) *AppError {
	return &AppError{Kind: KindExternalService, Message: message, Err: err}
}

func NotFound(format string, args ...interface{}) *AppError {
	return &AppError{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

// KindOf extracts the kind tag from any error, "" when untagged.
func KindOf(err error) Kind {
	if appErr, ok := err.(*AppError); ok {
		return appErr.Kind
	}
	return ""
}
