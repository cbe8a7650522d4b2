package services

import (
	"errors"
)

// Localized messages returned to API clients
const (
	MsgOwnerRequired         = "firebaseUid requis"
	MsgContentRequired       = "content requis"
	MsgSummaryRequired       = "summary requis"
	MsgConversationIDInvalid = "conversationId invalide"
	MsgInvalidID             = "identifiant invalide"
	MsgInvalidFields         = "Champs invalides"
	MsgConversationNotFound  = "Conversation non trouvée"
	MsgSummaryNotFound       = "Summary non trouvé"
	MsgForbidden             = "Non autorisé"
	MsgForbiddenConversation = "Non autorisé pour cette conversation"
)

// Kind classifies a service error
type Kind int

const (
	KindValidation Kind = iota + 1
	KindNotFound
	KindForbidden
	KindStore
)

// Sentinels for errors.Is checks against *Error values
var (
	ErrValidation = errors.New("validation error")
	ErrNotFound   = errors.New("not found")
	ErrForbidden  = errors.New("forbidden")
	ErrStore      = errors.New("store error")
)

// Error is returned by every service operation that fails.
// Message is safe to show to callers; Err holds the underlying cause, if any.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		if e.Message == "" {
			return e.Err.Error()
		}
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches the kind sentinels
func (e *Error) Is(target error) bool {
	switch target {
	case ErrValidation:
		return e.Kind == KindValidation
	case ErrNotFound:
		return e.Kind == KindNotFound
	case ErrForbidden:
		return e.Kind == KindForbidden
	case ErrStore:
		return e.Kind == KindStore
	}
	return false
}

func Validation(msg string) error {
	return &Error{Kind: KindValidation, Message: msg}
}

func NotFound(msg string) error {
	return &Error{Kind: KindNotFound, Message: msg}
}

func Forbidden(msg string) error {
	return &Error{Kind: KindForbidden, Message: msg}
}

// StoreFailure wraps a persistence error; the cause is for logs only
func StoreFailure(err error) error {
	return &Error{Kind: KindStore, Err: err}
}
