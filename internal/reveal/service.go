// Package reveal owns the secret record: it decides what each caller may see
// of it and applies admin mutations, always writing sensitive fields through
// the field codec.
package reveal

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/iliyamo/mission-reveal/internal/access"
	"github.com/iliyamo/mission-reveal/internal/fieldcrypt"
	"github.com/iliyamo/mission-reveal/internal/hints"
	"github.com/iliyamo/mission-reveal/internal/metrics"
	"github.com/iliyamo/mission-reveal/internal/model"
	"github.com/iliyamo/mission-reveal/internal/queue"
	"github.com/iliyamo/mission-reveal/internal/repository"
)

// Placeholders rendered in place of gated fields.
const (
	HiddenPlaceholder = "???"
	MaskedPlaceholder = "••••••••"
)

var (
	// ErrRecordAbsent is returned by operations that need an existing record.
	ErrRecordAbsent = errors.New("reveal record does not exist")
	// ErrInvalidOpeningDate rejects settings whose opening date cannot be parsed.
	ErrInvalidOpeningDate = errors.New("opening date must look like 2006-01-02T15:04")
)

// Repository persists the singleton record. FindSingleton and ToggleRevealed
// return repository.ErrRevelationNotFound when there is nothing to act on.
type Repository interface {
	FindSingleton(ctx context.Context) (*model.Revelation, error)
	UpsertSingleton(ctx context.Context, p model.RevelationPatch) (*model.Revelation, error)
	ToggleRevealed(ctx context.Context, id string) (*model.Revelation, error)
}

// Publisher delivers audit events. Failures never fail a mutation.
type Publisher interface {
	Publish(ctx context.Context, ev queue.RevealEvent) error
}

// Projection is the caller-specific view of the record.
type Projection struct {
	State             access.State `json:"state"`
	HasData           bool         `json:"hasData"`
	MissionaryName    string       `json:"missionaryName"`
	MissionaryAddress string       `json:"missionaryAddress"`
	MissionName       string       `json:"missionName"`
	Language          string       `json:"language"`
	TrainingCenter    string       `json:"trainingCenter"`
	EntryDate         string       `json:"entryDate"`
	RawText           *string      `json:"rawText"`
	NormalizedText    *string      `json:"normalizedText"`
	IsRevealed        bool         `json:"isRevealed"`
	OpeningDate       string       `json:"openingDate"`
	LocationAddress   string       `json:"locationAddress"`
	LocationURL       string       `json:"locationUrl"`
	UpdatedAt         time.Time    `json:"updatedAt"`
}

// Countdown is the public, non-sensitive view of the opening schedule.
type Countdown struct {
	OpeningDate string `json:"openingDate"`
	OpeningAt   string `json:"openingAt,omitempty"`
	SecondsLeft int64  `json:"secondsLeft"`
	Expired     bool   `json:"expired"`
	IsRevealed  bool   `json:"isRevealed"`
}

// Service composes the access policy and the field codec over a Repository.
type Service struct {
	repo  Repository
	codec *fieldcrypt.Codec
	pub   Publisher
	now   func() time.Time
	log   zerolog.Logger
}

// NewService wires a Service. pub may be nil.
func NewService(repo Repository, codec *fieldcrypt.Codec, pub Publisher, log zerolog.Logger) *Service {
	return &Service{
		repo:  repo,
		codec: codec,
		pub:   pub,
		now:   time.Now,
		log:   log.With().Str("component", "reveal").Logger(),
	}
}

// WithClock replaces the time source.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

func (s *Service) find(ctx context.Context) (*model.Revelation, error) {
	rec, err := s.repo.FindSingleton(ctx)
	if errors.Is(err, repository.ErrRevelationNotFound) {
		return nil, ErrRecordAbsent
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// Find returns the stored record with its fields still encrypted.
func (s *Service) Find(ctx context.Context) (*model.Revelation, error) {
	return s.find(ctx)
}

// Decrypt exposes the codec to collaborators that must read a single field.
func (s *Service) Decrypt(blob string) (string, error) {
	return s.codec.Decrypt(blob)
}

// GetProjection returns nil when no record exists yet.
func (s *Service) GetProjection(ctx context.Context, isAdmin bool) (*Projection, error) {
	rec, err := s.find(ctx)
	if errors.Is(err, ErrRecordAbsent) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return s.project(rec, isAdmin)
}

func (s *Service) project(rec *model.Revelation, isAdmin bool) (*Projection, error) {
	name, err := s.codec.Decrypt(rec.MissionaryName)
	if err != nil {
		return nil, fmt.Errorf("decrypt %s: %w", fieldcrypt.MissionaryName, err)
	}
	p := &Projection{
		State:           access.ProjectionState(rec.IsRevealed, rec.OpeningDate, isAdmin, s.now()),
		MissionaryName:  name,
		IsRevealed:      rec.IsRevealed,
		OpeningDate:     rec.OpeningDate,
		LocationAddress: rec.LocationAddress,
		LocationURL:     rec.LocationURL,
		UpdatedAt:       rec.UpdatedAt,
	}

	switch p.State {
	case access.StateOpen:
		plain, err := s.codec.DecryptRecord(storedFields(rec))
		if err != nil {
			return nil, err
		}
		raw, normalized := plain[fieldcrypt.RawText], plain[fieldcrypt.NormalizedText]
		p.HasData = true
		p.MissionaryAddress = plain[fieldcrypt.MissionaryAddress]
		p.MissionName = plain[fieldcrypt.MissionName]
		p.Language = plain[fieldcrypt.Language]
		p.TrainingCenter = plain[fieldcrypt.TrainingCenter]
		p.EntryDate = plain[fieldcrypt.EntryDate]
		p.RawText = &raw
		p.NormalizedText = &normalized
	case access.StateMasked:
		p.HasData = true
		p.fillGated(MaskedPlaceholder)
	default:
		p.fillGated(HiddenPlaceholder)
	}
	return p, nil
}

func (p *Projection) fillGated(placeholder string) {
	p.MissionaryAddress = placeholder
	p.MissionName = placeholder
	p.Language = placeholder
	p.TrainingCenter = placeholder
	p.EntryDate = placeholder
}

func storedFields(rec *model.Revelation) fieldcrypt.Fields {
	return fieldcrypt.Fields{
		fieldcrypt.MissionaryName:    rec.MissionaryName,
		fieldcrypt.MissionaryAddress: rec.MissionaryAddress,
		fieldcrypt.MissionName:       rec.MissionName,
		fieldcrypt.Language:          rec.Language,
		fieldcrypt.TrainingCenter:    rec.TrainingCenter,
		fieldcrypt.EntryDate:         rec.EntryDate,
		fieldcrypt.RawText:           rec.RawText,
		fieldcrypt.NormalizedText:    rec.NormalizedText,
	}
}

// encryptPatch is the single write path for sensitive fields. Raw and
// normalized text are only written when withText is set.
func (s *Service) encryptPatch(in fieldcrypt.Fields, withText bool) (model.RevelationPatch, error) {
	enc, err := s.codec.EncryptRecord(in)
	if err != nil {
		return model.RevelationPatch{}, err
	}
	pick := func(f fieldcrypt.Field) *string {
		v := enc[f]
		return &v
	}
	p := model.RevelationPatch{
		MissionaryName:    pick(fieldcrypt.MissionaryName),
		MissionaryAddress: pick(fieldcrypt.MissionaryAddress),
		MissionName:       pick(fieldcrypt.MissionName),
		Language:          pick(fieldcrypt.Language),
		TrainingCenter:    pick(fieldcrypt.TrainingCenter),
		EntryDate:         pick(fieldcrypt.EntryDate),
	}
	if withText {
		p.RawText = pick(fieldcrypt.RawText)
		p.NormalizedText = pick(fieldcrypt.NormalizedText)
	}
	return p, nil
}

// UpdateFromExtraction stores confirmed extraction results together with the
// source text, creating the record when needed. An empty normalizedText is
// stored as an encrypted empty string.
func (s *Service) UpdateFromExtraction(ctx context.Context, fields fieldcrypt.Fields, rawText, normalizedText string) (*Projection, error) {
	in := make(fieldcrypt.Fields, len(fields)+2)
	for k, v := range fields {
		in[k] = v
	}
	in[fieldcrypt.RawText] = rawText
	in[fieldcrypt.NormalizedText] = normalizedText
	return s.upsert(ctx, in, true)
}

// UpdateManual stores hand-edited fields, leaving the source text untouched.
func (s *Service) UpdateManual(ctx context.Context, fields fieldcrypt.Fields) (*Projection, error) {
	return s.upsert(ctx, fields, false)
}

func (s *Service) upsert(ctx context.Context, in fieldcrypt.Fields, withText bool) (*Projection, error) {
	if !withText {
		// A new record still needs well-formed blobs for the text columns.
		_, err := s.find(ctx)
		if errors.Is(err, ErrRecordAbsent) {
			withText = true
		} else if err != nil {
			return nil, err
		}
	}
	patch, err := s.encryptPatch(in, withText)
	if err != nil {
		return nil, err
	}
	rec, err := s.repo.UpsertSingleton(ctx, patch)
	if err != nil {
		return nil, err
	}
	written := []string{
		string(fieldcrypt.MissionaryName), string(fieldcrypt.MissionaryAddress), string(fieldcrypt.MissionName),
		string(fieldcrypt.Language), string(fieldcrypt.TrainingCenter), string(fieldcrypt.EntryDate),
	}
	if withText {
		written = append(written, string(fieldcrypt.RawText), string(fieldcrypt.NormalizedText))
	}
	s.publish(ctx, queue.TypeSecretUpdated, rec, written)
	return s.project(rec, true)
}

// UpdateMissionaryNameOnly re-encrypts the name and touches nothing else.
func (s *Service) UpdateMissionaryNameOnly(ctx context.Context, name string) (*Projection, error) {
	if _, err := s.find(ctx); err != nil {
		return nil, err
	}
	blob, err := s.codec.Encrypt(name)
	if err != nil {
		return nil, err
	}
	rec, err := s.repo.UpsertSingleton(ctx, model.RevelationPatch{MissionaryName: &blob})
	if err != nil {
		return nil, err
	}
	s.publish(ctx, queue.TypeSecretUpdated, rec, []string{string(fieldcrypt.MissionaryName)})
	return s.project(rec, true)
}

// ToggleReveal flips the reveal flag. Revealing before the opening date
// fails with access.ErrRevealNotYetPermitted and changes nothing.
func (s *Service) ToggleReveal(ctx context.Context) (*Projection, error) {
	rec, err := s.find(ctx)
	if err != nil {
		return nil, err
	}
	if err := access.CanToggleReveal(rec.IsRevealed, rec.OpeningDate, s.now()); err != nil {
		metrics.RevealToggles.WithLabelValues("rejected").Inc()
		s.log.Info().Str("opening_date", rec.OpeningDate).Msg("reveal rejected before opening date")
		return nil, err
	}
	rec, err = s.repo.ToggleRevealed(ctx, rec.ID)
	if errors.Is(err, repository.ErrRevelationNotFound) {
		return nil, ErrRecordAbsent
	}
	if err != nil {
		return nil, err
	}
	outcome := "hidden"
	if rec.IsRevealed {
		outcome = "revealed"
	}
	metrics.RevealToggles.WithLabelValues(outcome).Inc()
	s.log.Info().Bool("is_revealed", rec.IsRevealed).Msg("reveal toggled")
	s.publish(ctx, queue.TypeRevealToggled, rec, nil)
	return s.project(rec, true)
}

// UpdateEventSettings overwrites the plaintext event fields.
func (s *Service) UpdateEventSettings(ctx context.Context, openingDate, address, url string) (*Projection, error) {
	if !access.ValidOpeningDate(openingDate) {
		return nil, ErrInvalidOpeningDate
	}
	if _, err := s.find(ctx); err != nil {
		return nil, err
	}
	rec, err := s.repo.UpsertSingleton(ctx, model.RevelationPatch{
		OpeningDate:     &openingDate,
		LocationAddress: &address,
		LocationURL:     &url,
	})
	if err != nil {
		return nil, err
	}
	s.publish(ctx, queue.TypeSecretUpdated, rec, []string{"openingDate", "locationAddress", "locationUrl"})
	return s.project(rec, true)
}

// MissionForHints decrypts what the hint game's system prompt needs.
func (s *Service) MissionForHints(ctx context.Context) (*hints.MissionData, error) {
	rec, err := s.find(ctx)
	if err != nil {
		return nil, err
	}
	var m hints.MissionData
	for _, f := range []struct {
		dst  *string
		blob string
	}{
		{&m.MissionName, rec.MissionName},
		{&m.Language, rec.Language},
		{&m.TrainingCenter, rec.TrainingCenter},
	} {
		if *f.dst, err = s.codec.Decrypt(f.blob); err != nil {
			return nil, err
		}
	}
	return &m, nil
}

// Countdown reports the opening schedule without touching encrypted fields.
func (s *Service) Countdown(ctx context.Context) (*Countdown, error) {
	rec, err := s.find(ctx)
	if err != nil {
		return nil, err
	}
	now := s.now()
	c := &Countdown{
		OpeningDate: rec.OpeningDate,
		Expired:     access.Expired(rec.OpeningDate, now),
		IsRevealed:  rec.IsRevealed,
	}
	if at, ok := access.ResolveOpeningInstant(rec.OpeningDate, access.DefaultOffsetMinutes); ok {
		c.OpeningAt = at.UTC().Format(time.RFC3339)
		if left := at.Sub(now); left > 0 {
			c.SecondsLeft = int64(left.Seconds())
		}
	}
	return c, nil
}

func (s *Service) publish(ctx context.Context, typ string, rec *model.Revelation, fields []string) {
	if s.pub == nil {
		return
	}
	ev := queue.RevealEvent{
		Type:        typ,
		RecordID:    rec.ID,
		IsRevealed:  rec.IsRevealed,
		OpeningDate: rec.OpeningDate,
		Fields:      fields,
		OccurredAt:  s.now().UTC().Format(time.RFC3339),
	}
	if err := s.pub.Publish(ctx, ev); err != nil {
		s.log.Warn().Err(err).Str("type", typ).Msg("publish reveal event failed")
	}
}
