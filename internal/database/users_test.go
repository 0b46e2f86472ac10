package database

import (
	"context"
	"testing"

	"shareit/internal/domain"
	"shareit/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserCRUD(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	user := &models.User{Name: "Alice", Email: "alice@example.com"}
	require.NoError(t, db.CreateUser(ctx, user))
	assert.NotZero(t, user.ID)

	found, err := db.GetUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "Alice", found.Name)
	assert.Equal(t, "alice@example.com", found.Email)

	found.Name = "Alice Cooper"
	require.NoError(t, db.UpdateUser(ctx, found))

	found, err = db.GetUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "Alice Cooper", found.Name)

	byEmail, err := db.GetUserByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, byEmail.ID)

	users, err := db.ListUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 1)

	require.NoError(t, db.DeleteUser(ctx, user.ID))
	_, err = db.GetUser(ctx, user.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestUserEmailConflict(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	createUser(t, db, "alice")
	bob := createUser(t, db, "bob")

	err := db.CreateUser(ctx, &models.User{Name: "Other", Email: "alice@example.com"})
	assert.ErrorIs(t, err, domain.ErrEmailConflict)

	bob.Email = "alice@example.com"
	err = db.UpdateUser(ctx, bob)
	assert.ErrorIs(t, err, domain.ErrEmailConflict)
}

func TestUserNotFound(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	_, err := db.GetUser(ctx, 999)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	err = db.DeleteUser(ctx, 999)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	err = db.UpdateUser(ctx, &models.User{ID: 999, Name: "x", Email: "x@example.com"})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = db.GetUserByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
