package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/issue-tracker-api/internal/models"
)

func newUserRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	sqlxdb := sqlx.NewDb(db, "sqlmock")
	return sqlxdb, mock, func() {
		db.Close()
	}
}

func userRows(id, email, fullName, role string, active bool) *sqlmock.Rows {
	now := time.Now().UTC()
	return sqlmock.NewRows([]string{"id", "version", "is_deleted", "created_at", "updated_at", "email", "full_name", "role", "active"}).
		AddRow(id, int64(1), false, now, now, email, fullName, role, active)
}

func TestUserRepositoryCreateDefaultsRole(t *testing.T) {
	db, mock, cleanup := newUserRepoMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO users")).WillReturnResult(sqlmock.NewResult(1, 1))

	user := &models.User{Email: "dewi@example.com", FullName: "Dewi Lestari", Active: true}
	require.NoError(t, repo.Create(context.Background(), nil, user))
	assert.Equal(t, models.RoleReporter, user.Role)
	assert.NotEmpty(t, user.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositoryExistsByEmail(t *testing.T) {
	db, mock, cleanup := newUserRepoMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM users WHERE LOWER(email) = LOWER($1) AND is_deleted = FALSE LIMIT 1")).
		WithArgs("dewi@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(1))

	exists, err := repo.ExistsByEmail(context.Background(), "dewi@example.com", "")
	require.NoError(t, err)
	assert.True(t, exists)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM users WHERE LOWER(email) = LOWER($1) AND is_deleted = FALSE LIMIT 1")).
		WithArgs("ghost@example.com").
		WillReturnError(sql.ErrNoRows)

	exists, err = repo.ExistsByEmail(context.Background(), "ghost@example.com", "")
	require.NoError(t, err)
	assert.False(t, exists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositoryCompareAndSwapDeactivates(t *testing.T) {
	db, mock, cleanup := newUserRepoMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	active := false
	mock.ExpectQuery(regexp.QuoteMeta("UPDATE users SET active = $1, updated_at = $2, version = version + 1 WHERE id = $3 AND version = $4 RETURNING")).
		WithArgs(active, sqlmock.AnyArg(), "user-1", int64(2)).
		WillReturnRows(userRows("user-1", "dewi@example.com", "Dewi Lestari", "developer", false))

	updated, err := repo.CompareAndSwapUpdate(context.Background(), nil, "user-1", 2, UpdateUserParams{Active: &active})
	require.NoError(t, err)
	assert.False(t, updated.Active)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositoryList(t *testing.T) {
	db, mock, cleanup := newUserRepoMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE 1=1 AND is_deleted = FALSE ORDER BY full_name ASC LIMIT 20 OFFSET 0")).
		WillReturnRows(userRows("user-1", "dewi@example.com", "Dewi Lestari", "developer", true))

	countRows := sqlmock.NewRows([]string{"count"}).AddRow(1)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM users WHERE 1=1 AND is_deleted = FALSE")).WillReturnRows(countRows)

	users, total, err := repo.List(context.Background(), models.UserFilter{})
	require.NoError(t, err)
	assert.Len(t, users, 1)
	assert.Equal(t, 1, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}
