package domain

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Code is a machine-readable error code surfaced to API callers.
type Code string

const (
	CodeInvalidIdentifier Code = "INVALID_IDENTIFIER"
	CodeNotFound          Code = "NOT_FOUND"
	CodeIdsNotValid       Code = "IDS_NOT_VALID"
	CodeDuplicateKey      Code = "DUPLICATE_KEY"
	CodeGenreCycle        Code = "GENRE_CYCLE"
	CodeValidation        Code = "VALIDATION"
	CodeOutOfStock        Code = "OUT_OF_STOCK"
)

// HTTPStatus maps a code to the status the HTTP layer responds with.
func (c Code) HTTPStatus() int {
	switch c {
	case CodeNotFound:
		return http.StatusNotFound
	case CodeOutOfStock:
		return http.StatusConflict
	case CodeInvalidIdentifier, CodeIdsNotValid, CodeDuplicateKey, CodeGenreCycle, CodeValidation:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// Error is a coded catalog error. Two errors match under errors.Is when their
// codes are equal, so the package-level sentinels work as match targets.
type Error struct {
	Code    Code
	Message string
	Details map[string]any
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Code == t.Code
	}
	return false
}

var (
	ErrInvalidIdentifier = &Error{Code: CodeInvalidIdentifier, Message: "invalid identifier"}
	ErrNotFound          = &Error{Code: CodeNotFound, Message: "not found"}
	ErrIdsNotValid       = &Error{Code: CodeIdsNotValid, Message: "ids not valid"}
	ErrDuplicateKey      = &Error{Code: CodeDuplicateKey, Message: "duplicate key"}
	ErrGenreCycle        = &Error{Code: CodeGenreCycle, Message: "genre cycle"}
	ErrValidation        = &Error{Code: CodeValidation, Message: "validation failed"}
	ErrOutOfStock        = &Error{Code: CodeOutOfStock, Message: "out of stock"}
)

func InvalidIdentifier(raw string) *Error {
	return &Error{
		Code:    CodeInvalidIdentifier,
		Message: fmt.Sprintf("%q is neither a native nor a legacy identifier", raw),
		Details: map[string]any{"reference": raw},
	}
}

func NotFound(entity, id string) *Error {
	return &Error{
		Code:    CodeNotFound,
		Message: fmt.Sprintf("%s %s not found", entity, id),
		Details: map[string]any{"entity": entity, "id": id},
	}
}

// IdsNotValid reports every offending id of one write at once.
func IdsNotValid(entity string, ids []string) *Error {
	return &Error{
		Code:    CodeIdsNotValid,
		Message: fmt.Sprintf("%s ids not valid: %s", entity, strings.Join(ids, ", ")),
		Details: map[string]any{"entity": entity, "ids": ids},
	}
}

func DuplicateKey(field, value string) *Error {
	return &Error{
		Code:    CodeDuplicateKey,
		Message: fmt.Sprintf("%s %q already exists", field, value),
		Details: map[string]any{"field": field, "value": value},
	}
}

func GenreCycle(genreID, parentID string) *Error {
	return &Error{
		Code:    CodeGenreCycle,
		Message: fmt.Sprintf("parent %s would make genre %s its own ancestor", parentID, genreID),
		Details: map[string]any{"genre": genreID, "parent": parentID},
	}
}

func Validation(msg string, details map[string]any) *Error {
	return &Error{Code: CodeValidation, Message: msg, Details: details}
}

func OutOfStock(gameID string, requested, available int) *Error {
	return &Error{
		Code:    CodeOutOfStock,
		Message: fmt.Sprintf("game %s has %d units in stock, %d requested", gameID, available, requested),
		Details: map[string]any{"game": gameID, "requested": requested, "available": available},
	}
}

// AsError extracts the coded error from err, if any.
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}
