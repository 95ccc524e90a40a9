package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trendpulse/internal/domain/entity"
	pg "trendpulse/internal/infra/adapter/persistence/postgres"
)

func TestSourceRepo_InsertMany(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	mock.ExpectBegin()
	mock.ExpectPrepare("INSERT INTO sources")
	mock.ExpectExec("INSERT INTO sources").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	repo := pg.NewSourceRepo(db)
	err = repo.InsertMany(context.Background(), []entity.SourceRow{
		{SnapshotID: "s1", KeywordID: "k1", Type: "news", Title: "A", URL: "https://a.com", Domain: "a.com", ImageURL: "https://a.com/img.png"},
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSourceRepo_InsertMany_Empty(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	repo := pg.NewSourceRepo(db)
	err = repo.InsertMany(context.Background(), nil)
	assert.NoError(t, err)
}

func TestSourceRepo_ListByKeyword(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	now := time.Now()
	mock.ExpectQuery("FROM sources").
		WithArgs("s1", "k1").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "snapshot_id", "keyword_id", "type", "title", "url", "domain",
			"published_at_utc", "snippet", "image_url", "title_ko", "title_en", "created_at",
		}).AddRow(
			int64(1), "s1", "k1", "news", "A", "https://a.com", "a.com",
			nil, "snippet", "https://a.com/img.png", "", "", now,
		))

	repo := pg.NewSourceRepo(db)
	got, err := repo.ListByKeyword(context.Background(), "s1", "k1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "A", got[0].Title)
}
