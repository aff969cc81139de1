package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/mission-reveal/internal/database"
	"github.com/iliyamo/mission-reveal/internal/model"
)

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

var revelationCols = []string{"id", "missionary_name", "missionary_address", "mission_name", "language",
	"training_center", "entry_date", "raw_text", "normalized_text", "is_revealed", "opening_date",
	"location_address", "location_url", "created_at", "updated_at"}

func newRevelationRepo(t *testing.T, driver string) (*RevelationRepo, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	repo := NewRevelationRepo(db, driver)
	repo.now = func() time.Time { return fixedNow }
	return repo, mock, db
}

func revelationRow(id string, revealed bool) *sqlmock.Rows {
	return sqlmock.NewRows(revelationCols).AddRow(id, "enc-name", "enc-addr", "enc-mission", "enc-lang",
		"enc-ccm", "enc-date", "enc-raw", "enc-norm", revealed, "2026-03-15T10:00",
		"Capilla", "https://maps.example/x", fixedNow, fixedNow)
}

func strp(s string) *string { return &s }

func TestFindSingleton_Found(t *testing.T) {
	repo, mock, db := newRevelationRepo(t, database.DriverMySQL)
	defer db.Close()

	mock.ExpectQuery(`SELECT .* FROM revelations ORDER BY created_at, id LIMIT 1`).
		WillReturnRows(revelationRow("r-1", true))

	got, err := repo.FindSingleton(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "r-1", got.ID)
	assert.Equal(t, "enc-mission", got.MissionName)
	assert.True(t, got.IsRevealed)
	assert.Equal(t, "2026-03-15T10:00", got.OpeningDate)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFindSingleton_NotFound(t *testing.T) {
	repo, mock, db := newRevelationRepo(t, database.DriverMySQL)
	defer db.Close()

	mock.ExpectQuery(`SELECT .* FROM revelations`).WillReturnRows(sqlmock.NewRows(revelationCols))

	_, err := repo.FindSingleton(context.Background())
	assert.ErrorIs(t, err, ErrRevelationNotFound)
}

func TestFindSingleton_DBError(t *testing.T) {
	repo, mock, db := newRevelationRepo(t, database.DriverMySQL)
	defer db.Close()

	mock.ExpectQuery(`SELECT .* FROM revelations`).WillReturnError(errors.New("db down"))

	_, err := repo.FindSingleton(context.Background())
	require.Error(t, err)
	assert.Regexp(t, `db error: .*db down`, err.Error())
}

func TestUpsertSingleton_InsertsWhenAbsent(t *testing.T) {
	repo, mock, db := newRevelationRepo(t, database.DriverMySQL)
	defer db.Close()

	mock.ExpectQuery(`SELECT .* FROM revelations ORDER BY`).WillReturnRows(sqlmock.NewRows(revelationCols))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO revelations (id, missionary_name, missionary_address, mission_name, language, training_center, entry_date, raw_text, normalized_text, opening_date, location_address, location_url, is_revealed, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)")).
		WithArgs(sqlmock.AnyArg(), "n", "", "m", "", "", "", "", "", "", "", "", false, fixedNow, fixedNow).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectQuery(`SELECT .* FROM revelations WHERE id = \?`).
		WithArgs(sqlmock.AnyArg()).
		WillReturnRows(revelationRow("new-id", false))

	got, err := repo.UpsertSingleton(context.Background(), model.RevelationPatch{MissionaryName: strp("n"), MissionName: strp("m")})
	require.NoError(t, err)
	assert.Equal(t, "new-id", got.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsertSingleton_UpdatesOnlyPatchedColumns(t *testing.T) {
	repo, mock, db := newRevelationRepo(t, database.DriverMySQL)
	defer db.Close()

	mock.ExpectQuery(`SELECT .* FROM revelations ORDER BY`).WillReturnRows(revelationRow("r-1", false))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE revelations SET missionary_name = ?, updated_at = ? WHERE id = ?")).
		WithArgs("new-name", fixedNow, "r-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`SELECT .* FROM revelations WHERE id = \?`).
		WithArgs("r-1").
		WillReturnRows(revelationRow("r-1", false))

	_, err := repo.UpsertSingleton(context.Background(), model.RevelationPatch{MissionaryName: strp("new-name")})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestToggleRevealed_Postgres(t *testing.T) {
	repo, mock, db := newRevelationRepo(t, database.DriverPostgres)
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta("UPDATE revelations SET is_revealed = NOT is_revealed, updated_at = $1 WHERE id = $2")).
		WithArgs(fixedNow, "r-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`SELECT .* FROM revelations WHERE id = \$1`).
		WithArgs("r-1").
		WillReturnRows(revelationRow("r-1", true))

	got, err := repo.ToggleRevealed(context.Background(), "r-1")
	require.NoError(t, err)
	assert.True(t, got.IsRevealed)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestToggleRevealed_NotFound(t *testing.T) {
	repo, mock, db := newRevelationRepo(t, database.DriverMySQL)
	defer db.Close()

	mock.ExpectExec(`UPDATE revelations SET is_revealed`).
		WithArgs(fixedNow, "gone").
		WillReturnResult(sqlmock.NewResult(0, 0))

	_, err := repo.ToggleRevealed(context.Background(), "gone")
	assert.ErrorIs(t, err, ErrRevelationNotFound)
}
