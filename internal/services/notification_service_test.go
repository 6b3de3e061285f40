package services

import (
	"context"
	"testing"
	"time"

	"github.com/scdri/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotifications_MarkAllRead(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := createUser(t, env.db, "Ana", models.RoleCitizen)
	other := createUser(t, env.db, "Bia", models.RoleCitizen)

	readAt := time.Now().Add(-time.Hour).UTC().Truncate(time.Second)
	require.NoError(t, env.db.Create(&models.Notification{UserID: user.ID, Type: models.NotificationWarning, Title: "a", Message: "a", ReadAt: &readAt}).Error)
	for i := 0; i < 2; i++ {
		require.NoError(t, env.dispatcher.Notify(ctx, env.db, &models.Notification{UserID: user.ID, Type: models.NotificationFine, Title: "b", Message: "b"}))
	}
	require.NoError(t, env.dispatcher.Notify(ctx, env.db, &models.Notification{UserID: other.ID, Type: models.NotificationWarning, Title: "c", Message: "c"}))

	unread, err := env.dispatcher.ListUnread(ctx, user.ID)
	require.NoError(t, err)
	assert.Len(t, unread, 2)

	n, err := env.dispatcher.MarkAllRead(ctx, user.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	count, err := env.dispatcher.CountUnread(ctx, user.ID)
	require.NoError(t, err)
	assert.Zero(t, count)

	count, err = env.dispatcher.CountUnread(ctx, other.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)

	list, err := env.dispatcher.ListRecent(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, list, 3)
	for _, item := range list {
		require.NotNil(t, item.ReadAt)
		if item.Title == "a" {
			assert.True(t, readAt.Equal(*item.ReadAt), "earlier read timestamp must be kept")
		}
	}
}

func TestNotifications_ListRecentLimit(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := createUser(t, env.db, "Ana", models.RoleCitizen)

	for i := 0; i < NotificationListLimit+5; i++ {
		require.NoError(t, env.dispatcher.Notify(ctx, env.db, &models.Notification{UserID: user.ID, Type: models.NotificationWarning, Title: "t", Message: "m"}))
	}

	list, err := env.dispatcher.ListRecent(ctx, user.ID)
	require.NoError(t, err)
	assert.Len(t, list, NotificationListLimit)
	assert.Greater(t, list[0].ID, list[1].ID)
}

func TestNotifications_RejectsUnknownType(t *testing.T) {
	env := newTestEnv(t)
	user := createUser(t, env.db, "Ana", models.RoleCitizen)

	err := env.dispatcher.Notify(context.Background(), env.db, &models.Notification{UserID: user.ID, Type: "sms", Title: "t", Message: "m"})
	assert.ErrorIs(t, err, ErrValidation)
}
