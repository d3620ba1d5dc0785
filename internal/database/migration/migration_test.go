package migration

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"backoffice/internal/logger"
)

func TestSource_VersionsAreSequential(t *testing.T) {
	src, err := Source()
	require.NoError(t, err)
	defer src.Close()

	v, err := src.First()
	require.NoError(t, err)
	assert.Equal(t, uint(1), v)

	var versions []uint
	versions = append(versions, v)
	for {
		next, err := src.Next(v)
		if err != nil {
			break
		}
		versions = append(versions, next)
		v = next
	}
	assert.Equal(t, []uint{1, 2, 3, 4, 5}, versions)
}

func TestSource_EveryUpHasDown(t *testing.T) {
	src, err := Source()
	require.NoError(t, err)
	defer src.Close()

	for _, tt := range []struct {
		version  uint
		up, down string
	}{
		{1, "CREATE TABLE", "DROP TABLE"},
		{2, "CREATE TABLE", "DROP TABLE"},
		{3, "CREATE TABLE", "DROP TABLE"},
		{4, "CREATE TABLE", "DROP TABLE"},
		{5, "ADD COLUMN IF NOT EXISTS auco_verification_id", "DROP COLUMN IF EXISTS auco_verification_id"},
	} {
		up, _, err := src.ReadUp(tt.version)
		require.NoError(t, err, "up %d", tt.version)
		upSQL, _ := io.ReadAll(up)
		up.Close()
		assert.Contains(t, string(upSQL), tt.up)

		down, _, err := src.ReadDown(tt.version)
		require.NoError(t, err, "down %d", tt.version)
		downSQL, _ := io.ReadAll(down)
		down.Close()
		assert.Contains(t, string(downSQL), tt.down)
	}
}

func TestUp_ConnectionFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT CURRENT_DATABASE").WillReturnError(errors.New("boom"))

	err = Up(context.Background(), db, logger.Nop(), "localhost")
	assert.Error(t, err)
}

func TestDown_RejectsNonPositiveSteps(t *testing.T) {
	err := Down(context.Background(), nil, logger.Nop(), 0)
	assert.EqualError(t, err, "steps must be positive")
}
