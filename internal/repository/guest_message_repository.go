package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/iliyamo/mission-reveal/internal/database"
	"github.com/iliyamo/mission-reveal/internal/model"
)

// GuestMessageRepo stores guestbook predictions and advice.
type GuestMessageRepo struct {
	db     *sql.DB
	driver string
	now    func() time.Time
}

func NewGuestMessageRepo(db *sql.DB, driver string) *GuestMessageRepo {
	return &GuestMessageRepo{db: db, driver: driver, now: time.Now}
}

// Create inserts m and fills in its ID and CreatedAt.
func (r *GuestMessageRepo) Create(ctx context.Context, m *model.GuestMessage) error {
	m.CreatedAt = r.now().UTC().Truncate(time.Second)
	const q = "INSERT INTO guest_messages (kind, author_name, body, guessed_place, created_at) VALUES (?, ?, ?, ?, ?)"
	args := []any{m.Kind, m.AuthorName, m.Body, m.GuessedPlace, m.CreatedAt}

	if r.driver == database.DriverPostgres {
		if err := r.db.QueryRowContext(ctx, database.Rebind(r.driver, q)+" RETURNING id", args...).Scan(&m.ID); err != nil {
			return fmt.Errorf("db error: %w", err)
		}
		return nil
	}
	res, err := r.db.ExecContext(ctx, q, args...)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	m.ID = uint64(id)
	return nil
}

// List returns the newest entries first.  An empty kind lists both kinds.
func (r *GuestMessageRepo) List(ctx context.Context, kind string, limit int) ([]model.GuestMessage, error) {
	q := "SELECT id, kind, author_name, body, guessed_place, created_at FROM guest_messages"
	args := []any{}
	if kind != "" {
		q += " WHERE kind = ?"
		args = append(args, kind)
	}
	q += " ORDER BY created_at DESC, id DESC LIMIT ?"
	args = append(args, limit)

	rows, err := r.db.QueryContext(ctx, database.Rebind(r.driver, q), args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	out := []model.GuestMessage{}
	for rows.Next() {
		var m model.GuestMessage
		if err := rows.Scan(&m.ID, &m.Kind, &m.AuthorName, &m.Body, &m.GuessedPlace, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return out, nil
}

// Delete removes one entry; ErrGuestMessageNotFound when nothing matched.
func (r *GuestMessageRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, database.Rebind(r.driver, "DELETE FROM guest_messages WHERE id = ?"), id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return ErrGuestMessageNotFound
	}
	return nil
}
