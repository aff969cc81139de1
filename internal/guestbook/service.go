// Package guestbook validates and stores the predictions and advice guests
// leave on the event page.
package guestbook

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/iliyamo/mission-reveal/internal/model"
)

const (
	MaxAuthorRunes = 80
	MaxBodyRunes   = 1000
	MaxPlaceRunes  = 120

	DefaultLimit = 50
	MaxLimit     = 200
)

var (
	ErrInvalidKind   = errors.New("kind must be prediction or advice")
	ErrAuthorMissing = errors.New("authorName is required")
	ErrAuthorTooLong = fmt.Errorf("authorName exceeds %d characters", MaxAuthorRunes)
	ErrBodyMissing   = errors.New("body is required")
	ErrBodyTooLong   = fmt.Errorf("body exceeds %d characters", MaxBodyRunes)
	ErrPlaceTooLong  = fmt.Errorf("guessedPlace exceeds %d characters", MaxPlaceRunes)
)

// Store is implemented by repository.GuestMessageRepo.
type Store interface {
	Create(ctx context.Context, m *model.GuestMessage) error
	List(ctx context.Context, kind string, limit int) ([]model.GuestMessage, error)
	Delete(ctx context.Context, id uint64) error
}

type Service struct {
	store Store
	log   zerolog.Logger
}

func NewService(store Store, log zerolog.Logger) *Service {
	return &Service{store: store, log: log.With().Str("component", "guestbook").Logger()}
}

// Entry is the guest supplied part of a message.
type Entry struct {
	Kind         string
	AuthorName   string
	Body         string
	GuessedPlace string
}

// ValidKind reports whether kind names a guestbook section.
func ValidKind(kind string) bool {
	return kind == model.KindPrediction || kind == model.KindAdvice
}

func (e *Entry) normalize() error {
	e.Kind = strings.ToLower(strings.TrimSpace(e.Kind))
	e.AuthorName = strings.TrimSpace(e.AuthorName)
	e.Body = strings.TrimSpace(e.Body)
	e.GuessedPlace = strings.TrimSpace(e.GuessedPlace)

	if !ValidKind(e.Kind) {
		return ErrInvalidKind
	}
	switch n := utf8.RuneCountInString(e.AuthorName); {
	case n == 0:
		return ErrAuthorMissing
	case n > MaxAuthorRunes:
		return ErrAuthorTooLong
	}
	switch n := utf8.RuneCountInString(e.Body); {
	case n == 0:
		return ErrBodyMissing
	case n > MaxBodyRunes:
		return ErrBodyTooLong
	}
	// Advice has no destination guess.
	if e.Kind != model.KindPrediction {
		e.GuessedPlace = ""
	}
	if utf8.RuneCountInString(e.GuessedPlace) > MaxPlaceRunes {
		return ErrPlaceTooLong
	}
	return nil
}

// Post validates e and stores it.
func (s *Service) Post(ctx context.Context, e Entry) (*model.GuestMessage, error) {
	if err := e.normalize(); err != nil {
		return nil, err
	}
	m := &model.GuestMessage{
		Kind:         e.Kind,
		AuthorName:   e.AuthorName,
		Body:         e.Body,
		GuessedPlace: e.GuessedPlace,
	}
	if err := s.store.Create(ctx, m); err != nil {
		return nil, err
	}
	s.log.Info().Uint64("id", m.ID).Str("kind", m.Kind).Msg("guest message stored")
	return m, nil
}

// List returns messages newest first. An empty kind lists both sections and
// limit is clamped to [1, MaxLimit] with DefaultLimit for zero.
func (s *Service) List(ctx context.Context, kind string, limit int) ([]model.GuestMessage, error) {
	kind = strings.ToLower(strings.TrimSpace(kind))
	if kind != "" && !ValidKind(kind) {
		return nil, ErrInvalidKind
	}
	switch {
	case limit <= 0:
		limit = DefaultLimit
	case limit > MaxLimit:
		limit = MaxLimit
	}
	return s.store.List(ctx, kind, limit)
}

func (s *Service) Delete(ctx context.Context, id uint64) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	s.log.Info().Uint64("id", id).Msg("guest message deleted")
	return nil
}
