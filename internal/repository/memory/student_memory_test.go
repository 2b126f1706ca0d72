package memory

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studentapi/internal/model"
	"studentapi/internal/repository"
)

var ann = model.StudentInput{Name: "Ann Lee", Age: 22, Course: "DevOps"}

func TestStudentMemory_CreateAndFind(t *testing.T) {
	repo := NewStudentMemory()
	ctx := context.Background()

	created, err := repo.Create(ctx, ann)
	require.NoError(t, err)
	assert.Equal(t, "1", created.ID)
	assert.Equal(t, "Ann Lee", created.Name)
	assert.Equal(t, 22, created.Age)
	assert.Equal(t, "DevOps", created.Course)
	assert.False(t, created.CreatedAt.IsZero())
	assert.Nil(t, created.UpdatedAt)

	got, err := repo.FindByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created, got)

	_, err = repo.FindByID(ctx, "999")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestStudentMemory_ListOrderAndEmpty(t *testing.T) {
	repo := NewStudentMemory()
	ctx := context.Background()

	list, err := repo.List(ctx)
	require.NoError(t, err)
	assert.NotNil(t, list)
	assert.Empty(t, list)

	for _, name := range []string{"Ann", "Bob", "Cid"} {
		_, err := repo.Create(ctx, model.StudentInput{Name: name, Age: 30, Course: "DevOps"})
		require.NoError(t, err)
	}

	list, err = repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, []string{"Ann", "Bob", "Cid"}, []string{list[0].Name, list[1].Name, list[2].Name})
}

func TestStudentMemory_Update(t *testing.T) {
	repo := NewStudentMemory()
	ctx := context.Background()

	created, err := repo.Create(ctx, model.StudentInput{Name: "Ann", Age: 22, Course: "DevOps", FileURL: "http://files/a.pdf"})
	require.NoError(t, err)

	updated, err := repo.Update(ctx, created.ID, model.StudentInput{Name: "Ann Lee", Age: 23, Course: "Big Data"})
	require.NoError(t, err)
	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, "Ann Lee", updated.Name)
	assert.Equal(t, 23, updated.Age)
	assert.Equal(t, "Big Data", updated.Course)
	assert.Equal(t, "http://files/a.pdf", updated.FileURL)
	assert.Equal(t, created.CreatedAt, updated.CreatedAt)
	require.NotNil(t, updated.UpdatedAt)
	assert.False(t, updated.UpdatedAt.Before(updated.CreatedAt))
}

func TestStudentMemory_UpdateNeverPrecedesCreate(t *testing.T) {
	repo := NewStudentMemory()
	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	repo.now = func() time.Time { return base }
	ctx := context.Background()

	created, err := repo.Create(ctx, ann)
	require.NoError(t, err)

	repo.now = func() time.Time { return base.Add(-time.Hour) }
	updated, err := repo.Update(ctx, created.ID, ann)
	require.NoError(t, err)
	assert.Equal(t, base, *updated.UpdatedAt)
}

func TestStudentMemory_UpdateMissingLeavesCollection(t *testing.T) {
	repo := NewStudentMemory()
	ctx := context.Background()
	_, err := repo.Create(ctx, ann)
	require.NoError(t, err)
	before, _ := repo.List(ctx)

	_, err = repo.Update(ctx, "999", model.StudentInput{Name: "Zed", Age: 40, Course: "DevOps"})
	assert.ErrorIs(t, err, repository.ErrNotFound)

	after, _ := repo.List(ctx)
	assert.Equal(t, before, after)
}

func TestStudentMemory_DeleteTwice(t *testing.T) {
	repo := NewStudentMemory()
	ctx := context.Background()
	a, _ := repo.Create(ctx, ann)
	_, _ = repo.Create(ctx, ann)

	require.NoError(t, repo.Delete(ctx, a.ID))
	list, _ := repo.List(ctx)
	assert.Len(t, list, 1)

	assert.ErrorIs(t, repo.Delete(ctx, a.ID), repository.ErrNotFound)
	list, _ = repo.List(ctx)
	assert.Len(t, list, 1)
	for _, s := range list {
		assert.NotEqual(t, a.ID, s.ID)
	}
}

func TestStudentMemory_IDsNotReused(t *testing.T) {
	repo := NewStudentMemory()
	ctx := context.Background()
	a, _ := repo.Create(ctx, ann)
	require.NoError(t, repo.Delete(ctx, a.ID))

	b, err := repo.Create(ctx, ann)
	require.NoError(t, err)
	assert.NotEqual(t, a.ID, b.ID)
}

func TestStudentMemory_ReturnsCopies(t *testing.T) {
	repo := NewStudentMemory()
	ctx := context.Background()
	a, _ := repo.Create(ctx, ann)
	_, _ = repo.Update(ctx, a.ID, ann)

	got, _ := repo.FindByID(ctx, a.ID)
	got.Name = "mutated"
	*got.UpdatedAt = time.Time{}

	again, _ := repo.FindByID(ctx, a.ID)
	assert.Equal(t, "Ann Lee", again.Name)
	assert.False(t, again.UpdatedAt.IsZero())
}

func TestStudentMemory_ConcurrentCreateUniqueIDs(t *testing.T) {
	repo := NewStudentMemory()
	ctx := context.Background()

	const n = 50
	var wg sync.WaitGroup
	ids := make(chan string, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s, err := repo.Create(ctx, model.StudentInput{Name: fmt.Sprintf("Student %d", i), Age: 20, Course: "DevOps"})
			if err == nil {
				ids <- s.ID
			}
		}(i)
	}
	wg.Wait()
	close(ids)

	seen := map[string]bool{}
	for id := range ids {
		assert.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
	assert.Len(t, seen, n)
	assert.NoError(t, repo.Ping(ctx))
}
