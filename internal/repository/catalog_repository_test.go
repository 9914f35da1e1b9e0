package repository_test

import (
	"context"
	"encoding/json"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tierdrive/internal/domain"
	"tierdrive/internal/repository"
)

func newMockRepository(t *testing.T) (*repository.CatalogRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return repository.NewCatalogRepository(sqlx.NewDb(db, "sqlmock")), mock
}

const selectForUpdate = `SELECT document FROM user_records WHERE owner_id = $1 AND record_type = $2 FOR UPDATE`

func TestWithCatalog_LocksReadsAndWritesBack(t *testing.T) {
	repo, mock := newMockRepository(t)

	fileID := uuid.New()
	doc, err := json.Marshal(&domain.Catalog{Files: []*domain.File{{ID: fileID, Name: "a.txt"}}})
	require.NoError(t, err)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(selectForUpdate)).
		WithArgs("user-1", "catalog").
		WillReturnRows(sqlmock.NewRows([]string{"document"}).AddRow(doc))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO user_records")).
		WithArgs("user-1", "catalog", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err = repo.WithCatalog(context.Background(), "user-1", func(cat *domain.Catalog) error {
		require.Len(t, cat.Files, 1)
		cat.Files[0].Name = "b.txt"
		return nil
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithCatalog_StartsEmptyForNewOwner(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(selectForUpdate)).
		WithArgs("user-1", "catalog").
		WillReturnRows(sqlmock.NewRows([]string{"document"}))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO user_records")).
		WithArgs("user-1", "catalog", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.WithCatalog(context.Background(), "user-1", func(cat *domain.Catalog) error {
		assert.Empty(t, cat.Files)
		assert.Empty(t, cat.Folders)
		return nil
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithCatalog_CallbackErrorRollsBack(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(selectForUpdate)).
		WithArgs("user-1", "catalog").
		WillReturnRows(sqlmock.NewRows([]string{"document"}))
	mock.ExpectRollback()

	conflict := domain.Conflict("file", "abc", "busy")
	err := repo.WithCatalog(context.Background(), "user-1", func(cat *domain.Catalog) error {
		return conflict
	})
	assert.ErrorIs(t, err, conflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithCatalog_ConnectionFailureIsBackendUnavailable(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectBegin().WillReturnError(errors.New("connection refused"))

	err := repo.WithCatalog(context.Background(), "user-1", func(cat *domain.Catalog) error {
		t.Fatal("callback must not run")
		return nil
	})
	require.Error(t, err)
	assert.True(t, domain.IsKind(err, domain.KindBackendUnavailable))
}

func TestWithCatalog_EmptyOwner(t *testing.T) {
	repo, _ := newMockRepository(t)

	err := repo.WithCatalog(context.Background(), "", func(cat *domain.Catalog) error { return nil })
	require.Error(t, err)
	assert.True(t, domain.IsKind(err, domain.KindInvalidArgument))
}

func TestReadCatalog_UnknownOwnerIsEmpty(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT document FROM user_records")).
		WithArgs("user-1", "catalog").
		WillReturnRows(sqlmock.NewRows([]string{"document"}))

	cat, err := repo.ReadCatalog(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Empty(t, cat.Files)
}

func TestReadCatalog_CorruptDocumentIsInternal(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT document FROM user_records")).
		WithArgs("user-1", "catalog").
		WillReturnRows(sqlmock.NewRows([]string{"document"}).AddRow([]byte("{broken")))

	_, err := repo.ReadCatalog(context.Background(), "user-1")
	require.Error(t, err)
	assert.True(t, domain.IsKind(err, domain.KindInternal))
}

func TestListOwners(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT owner_id FROM user_records")).
		WithArgs("catalog").
		WillReturnRows(sqlmock.NewRows([]string{"owner_id"}).AddRow("user-1").AddRow("user-2"))

	owners, err := repo.ListOwners(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"user-1", "user-2"}, owners)
}

func TestAppendBillingActivity_FillsIDAndTimestamp(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO billing_activities")).
		WithArgs("user-1", "upload", 0.029, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(int64(7), time.Now()))

	activity := &domain.BillingActivity{
		OwnerID:  "user-1",
		Type:     domain.ActivityUpload,
		Cost:     0.029,
		Metadata: map[string]any{"version": 1},
	}
	err := repo.AppendBillingActivity(context.Background(), activity)
	require.NoError(t, err)
	assert.Equal(t, int64(7), activity.ID)
}
