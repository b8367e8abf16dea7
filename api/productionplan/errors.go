package productionplan

import (
	"encoding/json"
	"net/http"
)

// Error codes of the JSON error body.
const (
	CodeBadRequest    = "bad_request"
	CodeUnprocessable = "unprocessable_entity"
	CodeNotAllowed    = "not_allowed"
	CodeNotFound      = "not_found"
	CodeTooLarge      = "payload_too_large"
	CodeUnexpected    = "unexpected_error"
)

var defaultMessages = map[string]string{
	CodeBadRequest:    "Something was wrong with the request payload.",
	CodeUnprocessable: "The request payload failed validation.",
	CodeNotAllowed:    "Method not allowed for the requested resource.",
	CodeNotFound:      "Requested resource could not be found.",
	CodeTooLarge:      "Request payload is too large.",
	CodeUnexpected:    "Unexpected server error occurred.",
}

// FieldError locates one validation failure in the request body.
type FieldError struct {
	Loc  []any  `json:"loc"`
	Msg  string `json:"msg"`
	Type string `json:"type"`
}

// Error is the JSON body of every non-2xx answer.
type Error struct {
	Status       int          `json:"-"`
	ResponseType string       `json:"responseType"`
	Code         string       `json:"code"`
	Message      string       `json:"message"`
	Detail       []FieldError `json:"detail,omitempty"`
}

func (e *Error) Error() string { return e.Code + ": " + e.Message }

// NewError builds an error body; an empty msg uses the default message of code.
func NewError(status int, code, msg string) *Error {
	if msg == "" {
		msg = defaultMessages[code]
	}
	return &Error{Status: status, ResponseType: "error", Code: code, Message: msg}
}

// BadRequest reports a body that could not be decoded.
func BadRequest(msg string) *Error {
	return NewError(http.StatusBadRequest, CodeBadRequest, msg)
}

// Unprocessable reports a decoded body that failed validation.
func Unprocessable(detail []FieldError) *Error {
	e := NewError(http.StatusUnprocessableEntity, CodeUnprocessable, "")
	e.Detail = detail
	return e
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, e *Error) {
	writeJSON(w, e.Status, e)
}
