package service

import (
	"context"
	"testing"

	"github.com/prperemyshlev/pages-service/internal/dto"
	"github.com/prperemyshlev/pages-service/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserService_CreateAndUpdate(t *testing.T) {
	repo := newFakeUserRepo()
	svc := NewUserService(repo)
	ctx := context.Background()

	john, err := svc.Create(ctx, &dto.CreateUserRequest{Name: "John", Email: "John@Example.com"})
	require.NoError(t, err)
	assert.Equal(t, "john@example.com", john.Email)
	assert.False(t, john.HasPassword())

	jane, err := svc.Create(ctx, &dto.CreateUserRequest{Name: "Jane", Email: "jane@example.com"})
	require.NoError(t, err)

	_, err = svc.Create(ctx, &dto.CreateUserRequest{Name: "John 2", Email: "john@example.com"})
	assert.ErrorIs(t, err, repository.ErrDuplicateEmail)

	taken := "john@example.com"
	_, err = svc.Update(ctx, jane.ID, &dto.UpdateUserRequest{Email: &taken})
	assert.ErrorIs(t, err, repository.ErrDuplicateEmail)

	// keeping one's own email is not a conflict
	own := "JANE@example.com"
	age := 33
	updated, err := svc.Update(ctx, jane.ID, &dto.UpdateUserRequest{Email: &own, Age: &age})
	require.NoError(t, err)
	assert.Equal(t, "jane@example.com", updated.Email)
	assert.Equal(t, 33, *updated.Age)
}

func TestUserService_DeleteAndSearch(t *testing.T) {
	repo := newFakeUserRepo()
	svc := NewUserService(repo)
	ctx := context.Background()

	user, err := svc.Create(ctx, &dto.CreateUserRequest{Name: "Searchable", Email: "find@example.com"})
	require.NoError(t, err)

	found, err := svc.Search(ctx, "  search ")
	require.NoError(t, err)
	assert.Len(t, found, 1)

	deleted, err := svc.Delete(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "find@example.com", deleted.Email)

	_, err = svc.Get(ctx, user.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}
