package database

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/loaneye/internal/models"
)

func TestOpen_CreatesDirectoryAndSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "loaneye.db")

	db, err := Open(path, zaptest.NewLogger(t))
	require.NoError(t, err)
	defer Close(db)

	assert.FileExists(t, path)
	assert.True(t, db.Migrator().HasTable(&models.User{}))
	assert.True(t, db.Migrator().HasTable(&models.PublishedRule{}))
}

func TestClose_Nil(t *testing.T) {
	assert.NoError(t, Close(nil))
}
