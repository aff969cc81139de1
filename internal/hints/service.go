// Package hints runs the chat-based hint game. Each browser keeps one
// session in the key-value store: the transcript replayed to the model on
// every turn, the number of hints granted so far and a terminal flag.
package hints

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/iliyamo/mission-reveal/internal/kv"
	"github.com/iliyamo/mission-reveal/internal/llm"
	"github.com/iliyamo/mission-reveal/internal/metrics"
)

const (
	// MaxHints is the number of hints a session may receive.
	MaxHints = 3
	// SessionTTL is how long an untouched session is kept.
	SessionTTL = 24 * time.Hour
	// MaxMessageRunes bounds a single user message.
	MaxMessageRunes = 500

	keyPrefix = "chat:session:"
)

var (
	ErrSessionNotFound = errors.New("chat session not found")
	ErrEmptyMessage    = errors.New("message is empty")
	ErrInvalidSession  = errors.New("invalid session id")
)

// Session is the stored state of one conversation.
type Session struct {
	Messages  []llm.Message `json:"messages"`
	HintCount int           `json:"hintCount"`
	Done      bool          `json:"done"`
}

// View is what callers get back: the transcript without system messages.
type View struct {
	HintCount int           `json:"hintCount"`
	Done      bool          `json:"done"`
	Messages  []llm.Message `json:"messages"`
}

// InitResult is returned by InitSession.
type InitResult struct {
	Initialized bool `json:"initialized"`
	View
}

// Reply is returned by SendMessage.
type Reply struct {
	Reply     string `json:"reply"`
	HintCount int    `json:"hintCount"`
	Done      bool   `json:"done"`
}

// Service owns the hint sessions.
type Service struct {
	store     kv.Store
	completer llm.Completer
	log       zerolog.Logger
}

// NewService wires a Service.
func NewService(store kv.Store, completer llm.Completer, log zerolog.Logger) *Service {
	return &Service{store: store, completer: completer, log: log.With().Str("component", "hints").Logger()}
}

func sessionKey(id string) string { return keyPrefix + id }

// ValidSessionID accepts client generated ids of a sane length and alphabet.
func ValidSessionID(id string) bool {
	if len(id) == 0 || len(id) > 128 {
		return false
	}
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
		default:
			return false
		}
	}
	return true
}

func (s *Service) load(ctx context.Context, id string) (*Session, error) {
	if !ValidSessionID(id) {
		return nil, ErrInvalidSession
	}
	var sess Session
	found, err := s.store.Get(ctx, sessionKey(id), &sess)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if !found {
		return nil, nil
	}
	return &sess, nil
}

func (s *Service) save(ctx context.Context, id string, sess *Session) error {
	if err := s.store.Put(ctx, sessionKey(id), sess, SessionTTL); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

func visible(msgs []llm.Message) []llm.Message {
	out := make([]llm.Message, 0, len(msgs))
	for _, m := range msgs {
		if m.Role == llm.RoleSystem {
			continue
		}
		if m.Role == llm.RoleAssistant {
			_, text := ClassifyReply(m.Content)
			m.Content = text
		}
		out = append(out, m)
	}
	return out
}

func (sess *Session) view() View {
	return View{HintCount: sess.HintCount, Done: sess.Done, Messages: visible(sess.Messages)}
}

// InitSession creates the session for id if it does not exist yet. Calling it
// again returns the existing state untouched.
func (s *Service) InitSession(ctx context.Context, id string, mission MissionData) (*InitResult, error) {
	sess, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if sess != nil {
		return &InitResult{Initialized: true, View: sess.view()}, nil
	}

	sess = &Session{
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: BuildSystemPrompt(mission)},
			{Role: llm.RoleAssistant, Content: WelcomeMessage},
		},
	}
	if err := s.save(ctx, id, sess); err != nil {
		return nil, err
	}
	s.log.Debug().Str("session", id).Msg("session created")
	return &InitResult{Initialized: true, View: sess.view()}, nil
}

// SendMessage plays one turn. The session is written only after the model
// has answered, so a failed call leaves the transcript as it was.
func (s *Service) SendMessage(ctx context.Context, id, text string) (*Reply, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyMessage
	}
	if utf8.RuneCountInString(text) > MaxMessageRunes {
		text = string([]rune(text)[:MaxMessageRunes])
	}

	sess, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, ErrSessionNotFound
	}
	if sess.Done {
		metrics.HintsExhausted.Inc()
		return &Reply{Reply: ExhaustedReply, HintCount: sess.HintCount, Done: true}, nil
	}

	transcript := make([]llm.Message, len(sess.Messages), len(sess.Messages)+2)
	copy(transcript, sess.Messages)
	transcript = append(transcript, llm.Message{Role: llm.RoleUser, Content: text})

	out, err := s.completer.Complete(ctx, transcript)
	if err != nil {
		metrics.ProviderFailures.WithLabelValues("chat").Inc()
		s.log.Warn().Err(err).Str("session", id).Msg("completion failed")
		if errors.Is(err, llm.ErrProviderUnavailable) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", llm.ErrProviderUnavailable, err)
	}

	class, reply := ClassifyReply(out.Text)
	metrics.ChatTurns.WithLabelValues(class.String()).Inc()

	next := &Session{
		Messages:  append(transcript, llm.Message{Role: llm.RoleAssistant, Content: out.Text}),
		HintCount: sess.HintCount,
	}
	if class == Hint && next.HintCount < MaxHints {
		next.HintCount++
	}
	next.Done = next.HintCount >= MaxHints

	if err := s.save(ctx, id, next); err != nil {
		return nil, err
	}
	s.log.Debug().Str("session", id).Str("class", class.String()).Int("hints", next.HintCount).Msg("turn played")
	return &Reply{Reply: reply, HintCount: next.HintCount, Done: next.Done}, nil
}

// GetSession returns the visible state, or nil when there is no session.
func (s *Service) GetSession(ctx context.Context, id string) (*View, error) {
	sess, err := s.load(ctx, id)
	if err != nil || sess == nil {
		return nil, err
	}
	v := sess.view()
	return &v, nil
}

// DeleteSession drops the session so the next InitSession starts over.
func (s *Service) DeleteSession(ctx context.Context, id string) error {
	if !ValidSessionID(id) {
		return ErrInvalidSession
	}
	if err := s.store.Delete(ctx, sessionKey(id)); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}
