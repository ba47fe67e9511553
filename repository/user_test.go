package repository

import (
	"context"
	"testing"

	"github.com/sahilchouksey/course-market-api/model"
	"github.com/sahilchouksey/course-market-api/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestUserStoreSoftDelete(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()
	store := NewUserStore(db, testutil.Logger(t))

	user := testutil.SeedUser(t, ctx, db, model.RoleStudent)

	deleted, err := store.SoftDelete(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, deleted)

	_, err = store.FindByID(ctx, user.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	var raw model.User
	require.NoError(t, db.Unscoped().First(&raw, user.ID).Error)
	assert.Equal(t, 1, raw.TokenVersion)
	assert.True(t, raw.DeletedAt.Valid)

	deleted, err = store.SoftDelete(ctx, user.ID)
	require.NoError(t, err)
	assert.False(t, deleted)
}
