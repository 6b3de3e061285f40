package services

import (
	"testing"

	"github.com/scdri/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNextStatus(t *testing.T) {
	allowed := map[models.Action]map[models.Status]models.Status{
		models.ActionVerify:             {models.StatusOpen: models.StatusVerifying},
		models.ActionFinishVerification: {models.StatusVerifying: models.StatusInProgress},
		models.ActionCompleteCleanup:    {models.StatusInProgress: models.StatusResolved},
		models.ActionResolveDirect: {
			models.StatusOpen: models.StatusResolved, models.StatusVerifying: models.StatusResolved,
			models.StatusInProgress: models.StatusResolved, models.StatusResolved: models.StatusResolved,
			models.StatusRejected: models.StatusResolved,
		},
		models.ActionReject: {
			models.StatusOpen: models.StatusRejected, models.StatusVerifying: models.StatusRejected,
			models.StatusInProgress: models.StatusRejected, models.StatusRejected: models.StatusRejected,
		},
		models.ActionMarkFalse: {
			models.StatusOpen: models.StatusRejected, models.StatusVerifying: models.StatusRejected,
			models.StatusInProgress: models.StatusRejected, models.StatusResolved: models.StatusRejected,
			models.StatusRejected: models.StatusRejected,
		},
		models.ActionSetUrgency: {
			models.StatusOpen: models.StatusOpen, models.StatusVerifying: models.StatusVerifying,
			models.StatusInProgress: models.StatusInProgress, models.StatusResolved: models.StatusResolved,
			models.StatusRejected: models.StatusRejected,
		},
	}

	for action, edges := range allowed {
		for _, from := range models.AllStatuses {
			to, err := NextStatus(action, from)
			want, ok := edges[from]
			if !ok {
				assert.ErrorIs(t, err, ErrInvalidTransition, "%s from %s", action, from)
				continue
			}
			require.NoError(t, err, "%s from %s", action, from)
			assert.Equal(t, want, to, "%s from %s", action, from)
		}
	}
}

func TestNextStatus_Messages(t *testing.T) {
	_, err := NextStatus(models.ActionVerify, models.StatusResolved)
	assert.Equal(t, `report must be "open" to verify (current: resolved)`, err.Error())

	_, err = NextStatus(models.ActionReject, models.StatusResolved)
	assert.Equal(t, "a resolved report cannot be rejected", err.Error())

	_, err = NextStatus("teleport", models.StatusOpen)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestTierFor(t *testing.T) {
	cases := []struct {
		count int
		want  models.NotificationType
	}{
		{1, models.NotificationWarning},
		{2, models.NotificationFine},
		{3, models.NotificationSummons},
		{4, models.NotificationSummons},
		{10, models.NotificationSummons},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, TierFor(tc.count), "count %d", tc.count)
	}
}
