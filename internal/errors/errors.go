// Package errors provides structured error types for the Mira client.
// These errors provide context about what operation failed and where.
package errors

import (
	"errors"
	"fmt"
)

// Op describes an operation, usually as "package.function".
type Op string

// Kind categorizes the type of error.
type Kind int

const (
	KindUnknown Kind = iota
	KindNotFound
	KindValidation
	KindNetwork
	KindServer
	KindGeneration
	KindConfig
	KindIO
	KindTimeout
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not found"
	case KindValidation:
		return "validation error"
	case KindNetwork:
		return "network error"
	case KindServer:
		return "server error"
	case KindGeneration:
		return "generation error"
	case KindConfig:
		return "configuration error"
	case KindIO:
		return "I/O error"
	case KindTimeout:
		return "timeout"
	default:
		return "unknown error"
	}
}

// Error is the structured error type for Mira.
type Error struct {
	Op      Op     // Operation that failed
	Kind    Kind   // Category of error
	Err     error  // Underlying error
	Context string // Additional context
}

// Error returns the error message.
func (e *Error) Error() string {
	if e.Context != "" {
		return fmt.Sprintf("%s: %s: %s", e.Op, e.Context, e.Err)
	}
	if e.Op != "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Err)
	}
	return e.Err.Error()
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// E creates a new Error. Arguments can be:
// - Op: the operation name
// - Kind: the error kind
// - string: context message
// - error: the underlying error
func E(args ...interface{}) error {
	e := &Error{}
	for _, arg := range args {
		switch a := arg.(type) {
		case Op:
			e.Op = a
		case Kind:
			e.Kind = a
		case string:
			e.Context = a
		case error:
			e.Err = a
		}
	}
	if e.Err == nil {
		e.Err = errors.New(e.Context)
		e.Context = ""
	}
	return e
}

// Is reports whether err is of the given Kind.
func Is(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}

// GetKind returns the Kind of an error.
func GetKind(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// Validation errors. Rejected locally, never reach the transport.

func EmptyContent() error {
	return E(Op("conversation.Send"), KindValidation, "message content is empty")
}

func NotUserMessage(id string) error {
	return E(Op("conversation.StartEdit"), KindValidation, fmt.Sprintf("message %s is not a user message", id))
}

func MessageNotFound(id string) error {
	return E(Op("conversation.Get"), KindNotFound, fmt.Sprintf("message %s not found", id))
}

// Conversation errors

func ConversationNotFound(id string) error {
	return E(Op("conversation.Get"), KindNotFound, fmt.Sprintf("conversation %s not found", id))
}

// Transport errors

func SendFailed(conversationID string, err error) error {
	return E(Op("mira.Send"), KindNetwork, fmt.Sprintf("failed to send message for conversation %s", conversationID), err)
}

func ServerRejected(status int, body string) error {
	return E(Op("mira.Send"), KindServer, fmt.Sprintf("server returned %d: %s", status, body))
}

func RenameFailed(conversationID string, err error) error {
	return E(Op("mira.UpdateTitle"), KindNetwork, fmt.Sprintf("failed to rename conversation %s", conversationID), err)
}

func FetchFailed(page int, err error) error {
	return E(Op("mira.FetchConversations"), KindNetwork, fmt.Sprintf("failed to fetch conversations page %d", page), err)
}

// TitleGenerationFailed is non-fatal; the conversation keeps its prior title.
func TitleGenerationFailed(conversationID string, err error) error {
	return E(Op("mira.RegenerateTitle"), KindGeneration, fmt.Sprintf("failed to regenerate title for conversation %s", conversationID), err)
}

func ExportFailed(err error) error {
	return E(Op("mira.ExportUserData"), KindNetwork, "failed to export user data", err)
}

// Config errors

func ConfigLoadFailed(path string, err error) error {
	return E(Op("config.Load"), KindConfig, fmt.Sprintf("failed to load config from %s", path), err)
}

func ConfigSaveFailed(path string, err error) error {
	return E(Op("config.Save"), KindConfig, fmt.Sprintf("failed to save config to %s", path), err)
}

func ConfigInvalid(reason string) error {
	return E(Op("config.Validate"), KindValidation, reason)
}
