package users

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/qaapi/internal/common"
	"github.com/dmitrijs2005/qaapi/internal/server/models"
)

var columns = []string{"id", "username", "email", "full_name", "hashed_password", "is_active", "is_superuser", "created_at", "updated_at"}

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		_ = db.Close()
	})
	return NewPostgresRepository(db), mock
}

func aliceRow(ts time.Time) *sqlmock.Rows {
	return sqlmock.NewRows(columns).
		AddRow(int64(7), "alice", "alice@x.com", "Alice A", "$2a$10$hash", true, false, ts, ts)
}

func TestCreate_Success(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	ts := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	q := `(?s)^INSERT\s+INTO\s+users\s*\(username,\s*email,\s*full_name,\s*hashed_password,\s*is_active,\s*is_superuser\)\s*VALUES\s*\(\$1,\s*\$2,\s*\$3,\s*\$4,\s*\$5,\s*\$6\)\s*RETURNING\s+id,\s*created_at,\s*updated_at\s*$`
	mock.ExpectQuery(q).
		WithArgs("alice", "alice@x.com", nil, "hash", true, false).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(int64(42), ts, ts))

	u := &models.User{Username: "alice", Email: "alice@x.com", PasswordHash: "hash", IsActive: true}
	got, err := repo.Create(context.Background(), u)
	require.NoError(t, err)
	assert.Equal(t, int64(42), got.ID)
	assert.Equal(t, ts, got.CreatedAt)
}

func TestCreate_UniqueViolation(t *testing.T) {
	tests := []struct {
		constraint string
		field      string
	}{
		{constraint: "users_username_key", field: "username"},
		{constraint: "users_email_key", field: "email"},
	}

	for _, tt := range tests {
		t.Run(tt.field, func(t *testing.T) {
			repo, mock := newRepoWithMock(t)
			mock.ExpectQuery(`(?s)^INSERT\s+INTO\s+users`).
				WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: tt.constraint})

			_, err := repo.Create(context.Background(), &models.User{Username: "alice", Email: "a@x.com"})
			require.ErrorIs(t, err, common.ErrorConflict)
			assert.Contains(t, err.Error(), tt.field)
		})
	}
}

func TestCreate_DBError(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	mock.ExpectQuery(`(?s)^INSERT\s+INTO\s+users`).WillReturnError(errors.New("db down"))

	_, err := repo.Create(context.Background(), &models.User{Username: "alice"})
	require.Error(t, err)
	assert.Regexp(t, regexp.MustCompile(`db error: .*db down`), err.Error())
	assert.False(t, errors.Is(err, common.ErrorConflict))
}

func TestFindByUsername(t *testing.T) {
	ts := time.Now().UTC()
	q := `(?s)^SELECT\s+id,\s*username,.*FROM\s+users\s+WHERE\s+username\s*=\s*\$1$`

	t.Run("found", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)
		mock.ExpectQuery(q).WithArgs("alice").WillReturnRows(aliceRow(ts))

		u, err := repo.FindByUsername(context.Background(), "alice")
		require.NoError(t, err)
		assert.Equal(t, int64(7), u.ID)
		assert.Equal(t, "$2a$10$hash", u.PasswordHash)
		require.NotNil(t, u.FullName)
		assert.Equal(t, "Alice A", *u.FullName)
	})

	t.Run("null full name", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)
		rows := sqlmock.NewRows(columns).AddRow(int64(7), "alice", "alice@x.com", nil, "h", true, false, ts, ts)
		mock.ExpectQuery(q).WithArgs("alice").WillReturnRows(rows)

		u, err := repo.FindByUsername(context.Background(), "alice")
		require.NoError(t, err)
		assert.Nil(t, u.FullName)
	})

	t.Run("not found", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)
		mock.ExpectQuery(q).WithArgs("ghost").WillReturnError(sql.ErrNoRows)

		_, err := repo.FindByUsername(context.Background(), "ghost")
		require.ErrorIs(t, err, common.ErrorNotFound)
	})

	t.Run("db error", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)
		mock.ExpectQuery(q).WithArgs("alice").WillReturnError(errors.New("boom"))

		_, err := repo.FindByUsername(context.Background(), "alice")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "db error")
	})
}

func TestFindByEmailAndID(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	ts := time.Now().UTC()

	mock.ExpectQuery(`WHERE\s+email\s*=\s*\$1$`).WithArgs("alice@x.com").WillReturnRows(aliceRow(ts))
	mock.ExpectQuery(`WHERE\s+id\s*=\s*\$1$`).WithArgs(int64(7)).WillReturnRows(aliceRow(ts))

	u, err := repo.FindByEmail(context.Background(), "alice@x.com")
	require.NoError(t, err)
	assert.Equal(t, "alice", u.Username)

	u, err = repo.FindByID(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, "alice@x.com", u.Email)
}

func TestUpdate_PartialFields(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	ts := time.Now().UTC()

	email := "new@x.com"
	active := false
	q := `(?s)^UPDATE\s+users\s+SET\s+email\s*=\s*\$1,\s*is_active\s*=\s*\$2,\s*updated_at\s*=\s*NOW\(\)\s+WHERE\s+id\s*=\s*\$3\s+RETURNING\s+id,`
	mock.ExpectQuery(q).WithArgs(email, active, int64(7)).WillReturnRows(aliceRow(ts))

	_, err := repo.Update(context.Background(), 7, models.UserUpdate{Email: &email, IsActive: &active})
	require.NoError(t, err)
}

func TestUpdate_EmptyFallsBackToFind(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	mock.ExpectQuery(`WHERE\s+id\s*=\s*\$1$`).WithArgs(int64(7)).WillReturnRows(aliceRow(time.Now()))

	u, err := repo.Update(context.Background(), 7, models.UserUpdate{})
	require.NoError(t, err)
	assert.Equal(t, "alice", u.Username)
}

func TestUpdate_Errors(t *testing.T) {
	name := "x"

	t.Run("not found", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)
		mock.ExpectQuery(`^UPDATE\s+users`).WillReturnError(sql.ErrNoRows)

		_, err := repo.Update(context.Background(), 99, models.UserUpdate{FullName: &name})
		require.ErrorIs(t, err, common.ErrorNotFound)
	})

	t.Run("email taken", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)
		mock.ExpectQuery(`^UPDATE\s+users`).
			WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"})

		_, err := repo.Update(context.Background(), 7, models.UserUpdate{Email: &name})
		require.ErrorIs(t, err, common.ErrorConflict)
	})
}

func TestDelete(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	q := `^DELETE\s+FROM\s+users\s+WHERE\s+id\s*=\s*\$1$`

	mock.ExpectExec(q).WithArgs(int64(7)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(q).WithArgs(int64(8)).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(q).WithArgs(int64(9)).WillReturnError(errors.New("boom"))

	ok, err := repo.Delete(context.Background(), 7)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.Delete(context.Background(), 8)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = repo.Delete(context.Background(), 9)
	require.Error(t, err)
}

func TestList(t *testing.T) {
	ts := time.Now().UTC()

	t.Run("no filter", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)
		mock.ExpectQuery(`FROM\s+users\s+ORDER\s+BY\s+id\s+LIMIT\s+\$1\s+OFFSET\s+\$2$`).
			WithArgs(10, 0).
			WillReturnRows(aliceRow(ts))

		got, err := repo.List(context.Background(), models.UserFilter{Limit: 10})
		require.NoError(t, err)
		require.Len(t, got, 1)
	})

	t.Run("active filter", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)
		mock.ExpectQuery(`FROM\s+users\s+WHERE\s+is_active\s*=\s*\$1\s+ORDER\s+BY\s+id\s+LIMIT\s+\$2\s+OFFSET\s+\$3$`).
			WithArgs(true, 5, 20).
			WillReturnRows(sqlmock.NewRows(columns))

		active := true
		got, err := repo.List(context.Background(), models.UserFilter{Skip: 20, Limit: 5, IsActive: &active})
		require.NoError(t, err)
		assert.Empty(t, got)
		assert.NotNil(t, got)
	})
}

func TestCount(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`^SELECT\s+COUNT\(\*\)\s+FROM\s+users$`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))
	mock.ExpectQuery(`^SELECT\s+COUNT\(\*\)\s+FROM\s+users\s+WHERE\s+is_active\s*=\s*\$1$`).
		WithArgs(false).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	n, err := repo.Count(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	inactive := false
	n, err = repo.Count(context.Background(), &inactive)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
