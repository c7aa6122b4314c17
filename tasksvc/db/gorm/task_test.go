package gorm

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/ichigozero/todokit/database"
	"github.com/ichigozero/todokit/tasksvc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	stdgorm "gorm.io/gorm"
)

const (
	alice uint64 = 1
	bob   uint64 = 2
)

func openTestDB(t *testing.T) *stdgorm.DB {
	t.Helper()

	db, err := database.Open(database.Options{SQLitePath: filepath.Join(t.TempDir(), "todos.db")})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() { database.Close(db) })

	return db
}

func TestTaskRepository_CreateAndFind(t *testing.T) {
	repo := NewTaskRepository(openTestDB(t))
	ctx := context.Background()

	created, err := repo.Create(ctx, alice, tasksvc.Fields{Title: "Buy milk", Description: "2%", Priority: 3})
	require.NoError(t, err)
	assert.NotZero(t, created.ID)
	assert.Equal(t, alice, created.OwnerID)

	got, err := repo.Find(ctx, alice, created.ID)
	require.NoError(t, err)
	assert.Equal(t, tasksvc.Task{
		ID:          created.ID,
		Title:       "Buy milk",
		Description: "2%",
		Priority:    3,
		Complete:    false,
		OwnerID:     alice,
	}, got)
}

func TestTaskRepository_OwnerIsolation(t *testing.T) {
	repo := NewTaskRepository(openTestDB(t))
	ctx := context.Background()

	mine, err := repo.Create(ctx, alice, tasksvc.Fields{Title: "mine", Priority: 1})
	require.NoError(t, err)
	_, err = repo.Create(ctx, bob, tasksvc.Fields{Title: "theirs", Priority: 1})
	require.NoError(t, err)

	_, err = repo.Find(ctx, bob, mine.ID)
	assert.ErrorIs(t, err, tasksvc.ErrTaskNotFound)

	_, err = repo.Update(ctx, bob, mine.ID, tasksvc.Fields{Title: "stolen", Priority: 1})
	assert.ErrorIs(t, err, tasksvc.ErrTaskNotFound)

	err = repo.Delete(ctx, bob, mine.ID)
	assert.ErrorIs(t, err, tasksvc.ErrTaskNotFound)

	got, err := repo.Find(ctx, alice, mine.ID)
	require.NoError(t, err)
	assert.Equal(t, "mine", got.Title)

	tasks, err := repo.FindByOwner(ctx, alice)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, mine.ID, tasks[0].ID)
}

func TestTaskRepository_FindAll(t *testing.T) {
	repo := NewTaskRepository(openTestDB(t))
	ctx := context.Background()

	tasks, err := repo.FindAll(ctx)
	require.NoError(t, err)
	assert.NotNil(t, tasks)
	assert.Empty(t, tasks)

	_, err = repo.Create(ctx, alice, tasksvc.Fields{Title: "a", Priority: 1})
	require.NoError(t, err)
	_, err = repo.Create(ctx, bob, tasksvc.Fields{Title: "b", Priority: 2})
	require.NoError(t, err)

	tasks, err = repo.FindAll(ctx)
	require.NoError(t, err)
	require.Len(t, tasks, 2)
	assert.Equal(t, "a", tasks[0].Title)
	assert.Equal(t, "b", tasks[1].Title)
}

func TestTaskRepository_FindByOwnerEmpty(t *testing.T) {
	repo := NewTaskRepository(openTestDB(t))

	tasks, err := repo.FindByOwner(context.Background(), alice)
	require.NoError(t, err)
	assert.NotNil(t, tasks)
	assert.Empty(t, tasks)
}

func TestTaskRepository_UpdateKeepsOwner(t *testing.T) {
	repo := NewTaskRepository(openTestDB(t))
	ctx := context.Background()

	created, err := repo.Create(ctx, alice, tasksvc.Fields{Title: "draft", Priority: 1})
	require.NoError(t, err)

	updated, err := repo.Update(ctx, alice, created.ID, tasksvc.Fields{Title: "final", Description: "done", Priority: 5, Complete: true})
	require.NoError(t, err)
	assert.Equal(t, tasksvc.Task{
		ID:          created.ID,
		Title:       "final",
		Description: "done",
		Priority:    5,
		Complete:    true,
		OwnerID:     alice,
	}, updated)

	// Setting complete back to false must be written, not skipped as a zero value.
	updated, err = repo.Update(ctx, alice, created.ID, tasksvc.Fields{Title: "final", Priority: 5})
	require.NoError(t, err)
	assert.False(t, updated.Complete)
	assert.Empty(t, updated.Description)
}

func TestTaskRepository_UpdateUnchanged(t *testing.T) {
	repo := NewTaskRepository(openTestDB(t))
	ctx := context.Background()

	f := tasksvc.Fields{Title: "same", Priority: 2}
	created, err := repo.Create(ctx, alice, f)
	require.NoError(t, err)

	_, err = repo.Update(ctx, alice, created.ID, f)
	assert.NoError(t, err)
}

func TestTaskRepository_DeleteTwice(t *testing.T) {
	repo := NewTaskRepository(openTestDB(t))
	ctx := context.Background()

	created, err := repo.Create(ctx, alice, tasksvc.Fields{Title: "once", Priority: 1})
	require.NoError(t, err)

	require.NoError(t, repo.Delete(ctx, alice, created.ID))
	assert.ErrorIs(t, repo.Delete(ctx, alice, created.ID), tasksvc.ErrTaskNotFound)

	_, err = repo.Find(ctx, alice, created.ID)
	assert.ErrorIs(t, err, tasksvc.ErrTaskNotFound)
}

func TestTaskRepository_ConcurrentDelete(t *testing.T) {
	repo := NewTaskRepository(openTestDB(t))
	ctx := context.Background()

	created, err := repo.Create(ctx, alice, tasksvc.Fields{Title: "race", Priority: 1})
	require.NoError(t, err)

	const n = 8
	var (
		wg   sync.WaitGroup
		errs = make([]error, n)
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = repo.Delete(ctx, alice, created.ID)
		}(i)
	}
	wg.Wait()

	var ok, notFound int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case assert.ErrorIs(t, err, tasksvc.ErrTaskNotFound):
			notFound++
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, n-1, notFound)
}

func TestTaskRepository_PriorityCheckConstraint(t *testing.T) {
	db := openTestDB(t)

	err := db.Create(&tasksvc.Task{Title: "bad", Priority: 0, OwnerID: alice}).Error
	assert.Error(t, err)
}

func TestTaskRepository_UnknownID(t *testing.T) {
	repo := NewTaskRepository(openTestDB(t))

	_, err := repo.Find(context.Background(), alice, 999)
	assert.ErrorIs(t, err, tasksvc.ErrTaskNotFound)
}
