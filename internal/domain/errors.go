package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

type ErrCode string

const (
	CodeValidation   ErrCode = "validation_error"
	CodeNotFound     ErrCode = "not_found"
	CodeInvalidState ErrCode = "invalid_state"
	CodeConflict     ErrCode = "conflict"
)

// AppError is an error the HTTP layer can show to the client as is.
type AppError struct {
	Code    ErrCode
	Message string
	Meta    map[string]string
}

func (e *AppError) Error() string {
	if len(e.Meta) == 0 {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	keys := make([]string, 0, len(e.Meta))
	for k := range e.Meta {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+e.Meta[k])
	}
	return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, strings.Join(parts, ", "))
}

// Is matches any AppError carrying the same code.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	return ok && t.Code == e.Code
}

// ErrCampaignChanged is returned when a campaign row no longer has the status a write expected.
var ErrCampaignChanged = &AppError{Code: CodeConflict, Message: "campaign was changed by another request"}

func ErrValidation(msg string) error { return &AppError{Code: CodeValidation, Message: msg} }
func ErrValidationMeta(msg string, meta map[string]string) error {
	return &AppError{Code: CodeValidation, Message: msg, Meta: meta}
}
func ErrNotFound(msg string) error     { return &AppError{Code: CodeNotFound, Message: msg} }
func ErrInvalidState(msg string) error { return &AppError{Code: CodeInvalidState, Message: msg} }

// CodeOf returns the code of the first AppError in err's chain, or "".
func CodeOf(err error) ErrCode {
	var ae *AppError
	if errors.As(err, &ae) {
		return ae.Code
	}
	return ""
}
