package records

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/assetflow/internal/common"
	"github.com/dmitrijs2005/assetflow/internal/server/models"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

func newRepoWithMock(t *testing.T) (*SQLiteRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewSQLiteRepository(db), mock
}

// newSQLite returns a repository over an in-memory database with the
// records table created.
func newSQLite(t *testing.T) *SQLiteRepository {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(`CREATE TABLE records (
		collection TEXT NOT NULL,
		id         TEXT NOT NULL,
		document   TEXT NOT NULL,
		PRIMARY KEY (collection, id)
	)`)
	require.NoError(t, err)
	return NewSQLiteRepository(db)
}

func TestSQLite_CRUD(t *testing.T) {
	ctx := context.Background()
	repo := newSQLite(t)

	require.NoError(t, repo.Insert(ctx, "assets", models.Document{"id": "a1", "name": "Drill", "created_date": "2024-01-01T00:00:00"}))
	require.NoError(t, repo.Insert(ctx, "assets", models.Document{"id": "a2", "name": "Saw", "created_date": "2024-03-01T00:00:00"}))
	require.NoError(t, repo.Insert(ctx, "assets", models.Document{"id": "a3", "name": "Undated"}))
	require.NoError(t, repo.Insert(ctx, "vendors", models.Document{"id": "a1", "name": "Acme"}))

	docs, err := repo.List(ctx, "assets")
	require.NoError(t, err)
	require.Len(t, docs, 3)
	require.Equal(t, []string{"a2", "a1", "a3"}, []string{docs[0].ID(), docs[1].ID(), docs[2].ID()})

	got, err := repo.Get(ctx, "vendors", "a1")
	require.NoError(t, err)
	require.Equal(t, "Acme", got["name"])

	found, err := repo.FindBy(ctx, "assets", "name", "Saw")
	require.NoError(t, err)
	require.Equal(t, "a2", found.ID())

	_, err = repo.FindBy(ctx, "assets", "name", "Hammer")
	require.ErrorIs(t, err, common.ErrorNotFound)

	got["rating"] = 5.0
	require.NoError(t, repo.Replace(ctx, "vendors", got))
	got, err = repo.Get(ctx, "vendors", "a1")
	require.NoError(t, err)
	require.Equal(t, 5.0, got["rating"])

	require.ErrorIs(t, repo.Replace(ctx, "vendors", models.Document{"id": "zz"}), common.ErrorNotFound)

	require.NoError(t, repo.Delete(ctx, "assets", "a1"))
	require.ErrorIs(t, repo.Delete(ctx, "assets", "a1"), common.ErrorNotFound)
	_, err = repo.Get(ctx, "assets", "a1")
	require.ErrorIs(t, err, common.ErrorNotFound)

	n, err := repo.Count(ctx)
	require.NoError(t, err)
	require.Equal(t, 3, n)

	empty, err := repo.List(ctx, "loans")
	require.NoError(t, err)
	require.NotNil(t, empty)
	require.Empty(t, empty)
}

func TestSQLite_InsertDuplicate(t *testing.T) {
	ctx := context.Background()
	repo := newSQLite(t)

	require.NoError(t, repo.Insert(ctx, "assets", models.Document{"id": "a1"}))
	require.Error(t, repo.Insert(ctx, "assets", models.Document{"id": "a1"}))
}

func TestList_DBError(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`(?s)^\s*SELECT\s+document\s+FROM\s+records\s+WHERE\s+collection\s*=\s*\?`).
		WithArgs("assets").
		WillReturnError(errors.New("db down"))

	_, err := repo.List(context.Background(), "assets")
	if err == nil || !regexp.MustCompile(`db error: .*db down`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGet_CorruptDocument(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`SELECT document FROM records WHERE collection = \? AND id = \?`).
		WithArgs("assets", "a1").
		WillReturnRows(sqlmock.NewRows([]string{"document"}).AddRow("{not json"))

	_, err := repo.Get(context.Background(), "assets", "a1")
	require.ErrorContains(t, err, "decode document")
}

func TestDelete_RowsAffectedError(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectExec(`DELETE FROM records`).
		WithArgs("assets", "a1").
		WillReturnResult(sqlmock.NewErrorResult(errors.New("no rows info")))

	err := repo.Delete(context.Background(), "assets", "a1")
	require.ErrorContains(t, err, "no rows info")
}
