package gorm

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/ichigozero/todokit/database"
	"github.com/ichigozero/todokit/usersvc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepository(t *testing.T) usersvc.UserRepository {
	t.Helper()

	db, err := database.Open(database.Options{SQLitePath: filepath.Join(t.TempDir(), "users.db")})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() { database.Close(db) })

	return NewUserRepository(db)
}

func TestUserRepository_CreateAndFind(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	created, err := repo.Create(ctx, usersvc.User{Username: "alice", Email: "alice@example.com", HashedPassword: "x", IsActive: true})
	require.NoError(t, err)
	assert.NotZero(t, created.ID)

	byID, err := repo.Find(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", byID.Username)
	assert.True(t, byID.IsActive)

	byName, err := repo.FindByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, created.ID, byName.ID)
}

func TestUserRepository_DuplicateUsername(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	_, err := repo.Create(ctx, usersvc.User{Username: "alice", HashedPassword: "x"})
	require.NoError(t, err)

	_, err = repo.Create(ctx, usersvc.User{Username: "alice", HashedPassword: "y"})
	assert.ErrorIs(t, err, usersvc.ErrUserExists)
}

func TestUserRepository_NotFound(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	_, err := repo.Find(ctx, 42)
	assert.ErrorIs(t, err, usersvc.ErrUserNotFound)

	_, err = repo.FindByUsername(ctx, "nobody")
	assert.ErrorIs(t, err, usersvc.ErrUserNotFound)
}
