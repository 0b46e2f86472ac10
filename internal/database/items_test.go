package database

import (
	"context"
	"testing"

	"shareit/internal/domain"
	"shareit/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestItemCRUD(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	owner := createUser(t, db, "owner")

	item := createItem(t, db, owner, "Drill", true)
	assert.NotZero(t, item.ID)

	found, err := db.GetItem(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, "Drill", found.Name)
	assert.True(t, found.Available)
	assert.Equal(t, owner.ID, found.OwnerID)
	assert.Nil(t, found.RequestID)

	found.Available = false
	found.Description = "Broken"
	require.NoError(t, db.UpdateItem(ctx, found))

	found, err = db.GetItem(ctx, item.ID)
	require.NoError(t, err)
	assert.False(t, found.Available)
	assert.Equal(t, "Broken", found.Description)

	items, err := db.ListItemsByOwner(ctx, owner.ID)
	require.NoError(t, err)
	assert.Len(t, items, 1)

	require.NoError(t, db.DeleteItem(ctx, item.ID))
	_, err = db.GetItem(ctx, item.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.ErrorIs(t, db.DeleteItem(ctx, item.ID), domain.ErrNotFound)
}

func TestSearchAvailableItems(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	owner := createUser(t, db, "owner")

	createItem(t, db, owner, "Power Drill", true)
	createItem(t, db, owner, "Hammer", true)
	createItem(t, db, owner, "Old drill", false)
	screwdriver := &models.Item{Name: "Screwdriver", Description: "Works like a DRILL", Available: true, OwnerID: owner.ID}
	require.NoError(t, db.CreateItem(ctx, screwdriver))

	items, err := db.SearchAvailableItems(ctx, "dRiLl", 0, 10)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "Power Drill", items[0].Name)
	assert.Equal(t, "Screwdriver", items[1].Name)

	items, err = db.SearchAvailableItems(ctx, "drill", 1, 10)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Screwdriver", items[0].Name)

	items, err = db.SearchAvailableItems(ctx, "100%", 0, 10)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestListItemsByRequests(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	owner := createUser(t, db, "owner")
	requestor := createUser(t, db, "requestor")

	req := &models.ItemRequest{Description: "Need a ladder", RequestorID: requestor.ID}
	require.NoError(t, db.CreateRequest(ctx, req))

	ladder := &models.Item{Name: "Ladder", Description: "3m", Available: true, OwnerID: owner.ID, RequestID: &req.ID}
	require.NoError(t, db.CreateItem(ctx, ladder))
	createItem(t, db, owner, "Unrelated", true)

	items, err := db.ListItemsByRequests(ctx, []int64{req.ID})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, ladder.ID, items[0].ID)

	items, err = db.ListItemsByRequests(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, items)
}
