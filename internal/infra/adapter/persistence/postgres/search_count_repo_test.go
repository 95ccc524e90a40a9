package postgres_test

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trendpulse/internal/domain/entity"
	pg "trendpulse/internal/infra/adapter/persistence/postgres"
)

func TestSearchCountRepo_IncrementMany(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	mock.ExpectBegin()
	mock.ExpectPrepare("INSERT INTO search_counts")
	mock.ExpectExec("INSERT INTO search_counts").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	repo := pg.NewSearchCountRepo(db)
	err = repo.IncrementMany(context.Background(), []entity.SearchCountRow{
		{Query: "keyword one", Count: 4},
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSearchCountRepo_IncrementMany_Empty(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	repo := pg.NewSearchCountRepo(db)
	err = repo.IncrementMany(context.Background(), nil)
	assert.NoError(t, err)
}
