package postgres

import (
	"context"
	"errors"
	"testing"

	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTagRepository_ListByUser(t *testing.T) {
	mock := newMockPool(t)
	repo := NewTagRepository(mock)

	mock.ExpectQuery("SELECT DISTINCT tag").
		WithArgs(ownerID).
		WillReturnRows(pgxmock.NewRows([]string{"tag"}).AddRow("brunch").AddRow("noodles"))

	tags, err := repo.ListByUser(context.Background(), ownerID)
	require.NoError(t, err)
	assert.Equal(t, []string{"brunch", "noodles"}, tags)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTagRepository_ListByUser_Empty(t *testing.T) {
	mock := newMockPool(t)
	repo := NewTagRepository(mock)

	mock.ExpectQuery("SELECT DISTINCT tag").
		WithArgs(ownerID).
		WillReturnRows(pgxmock.NewRows([]string{"tag"}))

	tags, err := repo.ListByUser(context.Background(), ownerID)
	require.NoError(t, err)
	assert.NotNil(t, tags)
	assert.Empty(t, tags)
}

func TestTagRepository_ListByUser_QueryError(t *testing.T) {
	mock := newMockPool(t)
	repo := NewTagRepository(mock)

	dbErr := errors.New("connection reset")
	mock.ExpectQuery("SELECT DISTINCT tag").
		WithArgs(ownerID).
		WillReturnError(dbErr)

	_, err := repo.ListByUser(context.Background(), ownerID)
	assert.ErrorIs(t, err, dbErr)
}
