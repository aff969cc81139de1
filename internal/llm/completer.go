// Package llm talks to a conversational completion provider. Providers are
// stateless: the caller sends the whole transcript on every call.
package llm

import (
	"context"
	"errors"
)

// Roles used in a transcript.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ErrProviderUnavailable wraps transport failures, non-2xx responses and
// empty completions.
var ErrProviderUnavailable = errors.New("completion provider unavailable")

// Message is one role-tagged transcript entry.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Completion is the provider's reply.
type Completion struct {
	Text string
}

// Completer produces the next assistant message for a transcript.
type Completer interface {
	Complete(ctx context.Context, transcript []Message) (Completion, error)
}

// CompleterFunc adapts a function to Completer.
type CompleterFunc func(ctx context.Context, transcript []Message) (Completion, error)

func (f CompleterFunc) Complete(ctx context.Context, transcript []Message) (Completion, error) {
	return f(ctx, transcript)
}
