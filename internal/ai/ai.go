package ai

import (
	"context"
	"errors"
)

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ErrEmptyResponse is returned by backends when the provider answered
// without any usable text.
var ErrEmptyResponse = errors.New("chat completion returned empty response")

type Message struct {
	Role    string
	Content string
}

// Request is a single chat completion call. Sampling values come from
// params.Derive so that identical inputs produce identical requests.
type Request struct {
	Model       string
	Messages    []Message
	MaxTokens   int
	Temperature float32
	TopP        float32
	// Operation labels the call in logs and metrics (profile_fit, qa, ...).
	Operation string
}

// Completer returns the text of the first completion choice.
type Completer interface {
	Complete(ctx context.Context, req Request) (string, error)
	Provider() string
}

// System and User are shorthands for building message lists.
func System(content string) Message { return Message{Role: RoleSystem, Content: content} }

func User(content string) Message { return Message{Role: RoleUser, Content: content} }
