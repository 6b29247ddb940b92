package repository_test

import (
	"context"
	"testing"

	"studyboard/internal/repository"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBoardRepository_GetForUpdateLocksRow(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := repository.NewBoardRepository(gormDB)
	id := uuid.New()

	rows := sqlmock.NewRows([]string{"id", "title", "owner_id"}).AddRow(id.String(), "Physics", uuid.New().String())
	mock.ExpectQuery(`SELECT \* FROM "boards" WHERE id = \$1 .*FOR UPDATE`).
		WillReturnRows(rows)

	board, err := repo.GetForUpdate(context.Background(), id)

	require.NoError(t, err)
	assert.Equal(t, "Physics", board.Title)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListRepository_GetForUpdateNotFound(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := repository.NewListRepository(gormDB)
	id := uuid.New()

	mock.ExpectQuery(`SELECT \* FROM "lists" WHERE id = \$1 .*FOR UPDATE`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.GetForUpdate(context.Background(), id)

	assert.ErrorIs(t, err, repository.ErrListNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
