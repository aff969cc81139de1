package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/mission-reveal/internal/database"
	"github.com/iliyamo/mission-reveal/internal/model"
)

const revelationColumns = `id, missionary_name, missionary_address, mission_name, language,
	training_center, entry_date, raw_text, normalized_text, is_revealed, opening_date,
	location_address, location_url, created_at, updated_at`

// RevelationRepo persists the singleton secret record.  It never inspects
// the encrypted columns; callers hand it ciphertext.
type RevelationRepo struct {
	db     *sql.DB
	driver string
	now    func() time.Time
}

// NewRevelationRepo binds the repository to a DB handle.  driver selects the
// placeholder style (see database.Rebind).
func NewRevelationRepo(db *sql.DB, driver string) *RevelationRepo {
	return &RevelationRepo{db: db, driver: driver, now: time.Now}
}

func (r *RevelationRepo) q(query string) string { return database.Rebind(r.driver, query) }

func scanRevelation(row interface{ Scan(...any) error }) (*model.Revelation, error) {
	var m model.Revelation
	err := row.Scan(&m.ID, &m.MissionaryName, &m.MissionaryAddress, &m.MissionName, &m.Language,
		&m.TrainingCenter, &m.EntryDate, &m.RawText, &m.NormalizedText, &m.IsRevealed, &m.OpeningDate,
		&m.LocationAddress, &m.LocationURL, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRevelationNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return &m, nil
}

// FindSingleton returns the first stored record or ErrRevelationNotFound.
func (r *RevelationRepo) FindSingleton(ctx context.Context) (*model.Revelation, error) {
	q := "SELECT " + revelationColumns + " FROM revelations ORDER BY created_at, id LIMIT 1"
	return scanRevelation(r.db.QueryRowContext(ctx, q))
}

func (r *RevelationRepo) getByID(ctx context.Context, id string) (*model.Revelation, error) {
	q := r.q("SELECT " + revelationColumns + " FROM revelations WHERE id = ?")
	return scanRevelation(r.db.QueryRowContext(ctx, q, id))
}

type assignment struct {
	column string
	value  *string
}

func patchAssignments(p model.RevelationPatch) []assignment {
	return []assignment{
		{"missionary_name", p.MissionaryName},
		{"missionary_address", p.MissionaryAddress},
		{"mission_name", p.MissionName},
		{"language", p.Language},
		{"training_center", p.TrainingCenter},
		{"entry_date", p.EntryDate},
		{"raw_text", p.RawText},
		{"normalized_text", p.NormalizedText},
		{"opening_date", p.OpeningDate},
		{"location_address", p.LocationAddress},
		{"location_url", p.LocationURL},
	}
}

// UpsertSingleton creates the record when none exists, otherwise updates the
// columns set in p on the existing one.  updated_at is always refreshed.
func (r *RevelationRepo) UpsertSingleton(ctx context.Context, p model.RevelationPatch) (*model.Revelation, error) {
	existing, err := r.FindSingleton(ctx)
	if err != nil && !errors.Is(err, ErrRevelationNotFound) {
		return nil, err
	}
	now := r.now().UTC()
	if existing == nil {
		return r.insert(ctx, p, now)
	}

	sets := make([]string, 0, 12)
	args := make([]any, 0, 13)
	for _, a := range patchAssignments(p) {
		if a.value == nil {
			continue
		}
		sets = append(sets, a.column+" = ?")
		args = append(args, *a.value)
	}
	sets = append(sets, "updated_at = ?")
	args = append(args, now, existing.ID)

	q := r.q("UPDATE revelations SET " + strings.Join(sets, ", ") + " WHERE id = ?")
	if _, err := r.db.ExecContext(ctx, q, args...); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return r.getByID(ctx, existing.ID)
}

func (r *RevelationRepo) insert(ctx context.Context, p model.RevelationPatch, now time.Time) (*model.Revelation, error) {
	id := uuid.NewString()
	cols := []string{"id"}
	args := []any{id}
	for _, a := range patchAssignments(p) {
		v := ""
		if a.value != nil {
			v = *a.value
		}
		cols = append(cols, a.column)
		args = append(args, v)
	}
	cols = append(cols, "is_revealed", "created_at", "updated_at")
	args = append(args, false, now, now)

	marks := strings.TrimSuffix(strings.Repeat("?, ", len(cols)), ", ")
	q := r.q("INSERT INTO revelations (" + strings.Join(cols, ", ") + ") VALUES (" + marks + ")")
	if _, err := r.db.ExecContext(ctx, q, args...); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return r.getByID(ctx, id)
}

// ToggleRevealed flips is_revealed on the record with the given id.
func (r *RevelationRepo) ToggleRevealed(ctx context.Context, id string) (*model.Revelation, error) {
	q := r.q("UPDATE revelations SET is_revealed = NOT is_revealed, updated_at = ? WHERE id = ?")
	res, err := r.db.ExecContext(ctx, q, r.now().UTC(), id)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return nil, ErrRevelationNotFound
	}
	return r.getByID(ctx, id)
}
