package services

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/scdri/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLifecycle_FullPipeline(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	citizen := createUser(t, env.db, "Ana Souza", models.RoleCitizen)
	admin := createUser(t, env.db, "Fiscal", models.RoleAdmin)
	report := createReport(t, env.db, citizen, "Entulho na praca", models.StatusOpen)

	r, err := env.lifecycle.Verify(ctx, report.ID, actorOf(admin))
	require.NoError(t, err)
	assert.Equal(t, models.StatusVerifying, r.Status)

	r, err = env.lifecycle.FinishVerification(ctx, report.ID, actorOf(admin), models.UrgencyHigh)
	require.NoError(t, err)
	assert.Equal(t, models.StatusInProgress, r.Status)
	require.NotNil(t, r.Urgency)
	assert.Equal(t, models.UrgencyHigh, *r.Urgency)

	r, err = env.lifecycle.CompleteCleanup(ctx, report.ID, actorOf(admin))
	require.NoError(t, err)
	assert.Equal(t, models.StatusResolved, r.Status)
	require.NotNil(t, r.ReviewedBy)
	assert.Equal(t, admin.ID, *r.ReviewedBy)

	entries, err := env.ledger.ListForReport(ctx, report.ID)
	require.NoError(t, err)
	require.Len(t, entries, 3)

	assert.Equal(t, models.ActionCompleteCleanup, entries[0].Action)
	assert.Equal(t, models.ActionFinishVerification, entries[1].Action)
	assert.Equal(t, models.ActionVerify, entries[2].Action)

	assert.Equal(t, models.StatusInProgress, *entries[0].FromStatus)
	assert.Equal(t, models.StatusResolved, *entries[0].ToStatus)
	assert.Equal(t, "Limpeza realizada", *entries[0].Note)
	assert.Equal(t, models.StatusOpen, *entries[2].FromStatus)
	assert.Equal(t, models.StatusVerifying, *entries[2].ToStatus)
	require.NotNil(t, entries[0].ChangedByName)
	assert.Equal(t, "Fiscal", *entries[0].ChangedByName)
}

func TestLifecycle_InvalidTransitionLeavesNoTrace(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	citizen := createUser(t, env.db, "Ana", models.RoleCitizen)
	admin := createUser(t, env.db, "Fiscal", models.RoleAdmin)
	report := createReport(t, env.db, citizen, "Lixo", models.StatusOpen)

	_, err := env.lifecycle.CompleteCleanup(ctx, report.ID, actorOf(admin))
	assert.ErrorIs(t, err, ErrInvalidTransition)

	_, err = env.lifecycle.FinishVerification(ctx, report.ID, actorOf(admin), models.UrgencyLow)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	assert.Equal(t, models.StatusOpen, reload(t, env.db, report.ID).Status)
	assert.Nil(t, reload(t, env.db, report.ID).Urgency)
	assert.Zero(t, historyCount(t, env.db, report.ID))
}

func TestLifecycle_Guards(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	citizen := createUser(t, env.db, "Ana", models.RoleCitizen)
	admin := createUser(t, env.db, "Fiscal", models.RoleAdmin)
	report := createReport(t, env.db, citizen, "Lixo", models.StatusOpen)

	_, err := env.lifecycle.Verify(ctx, report.ID, actorOf(citizen))
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = env.lifecycle.Verify(ctx, uuid.New(), actorOf(admin))
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = env.lifecycle.SetUrgency(ctx, report.ID, actorOf(admin), "critical")
	assert.ErrorIs(t, err, ErrValidation)

	verifying := createReport(t, env.db, citizen, "Em analise", models.StatusVerifying)
	_, err = env.lifecycle.FinishVerification(ctx, verifying.ID, actorOf(admin), "critical")
	assert.ErrorIs(t, err, ErrValidation)
	_, err = env.lifecycle.FinishVerification(ctx, verifying.ID, actorOf(admin), "")
	assert.ErrorIs(t, err, ErrValidation)
	assert.Equal(t, models.StatusVerifying, reload(t, env.db, verifying.ID).Status)

	assert.Zero(t, historyCount(t, env.db, report.ID))
	assert.Zero(t, historyCount(t, env.db, verifying.ID))
}

func TestLifecycle_Reject(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	citizen := createUser(t, env.db, "Ana", models.RoleCitizen)
	admin := createUser(t, env.db, "Fiscal", models.RoleAdmin)

	open := createReport(t, env.db, citizen, "Lixo", models.StatusOpen)
	for _, reason := range []string{"", "   ", "\t\n", "abc", strings.Repeat("a", 256)} {
		_, err := env.lifecycle.Reject(ctx, open.ID, actorOf(admin), reason)
		assert.ErrorIs(t, err, ErrValidation, "reason %q", reason)
	}
	assert.Equal(t, models.StatusOpen, reload(t, env.db, open.ID).Status)
	assert.Zero(t, historyCount(t, env.db, open.ID))

	r, err := env.lifecycle.Reject(ctx, open.ID, actorOf(admin), "  Local nao encontrado  ")
	require.NoError(t, err)
	assert.Equal(t, models.StatusRejected, r.Status)
	require.NotNil(t, r.RejectReason)
	assert.Equal(t, "Local nao encontrado", *r.RejectReason)

	entries, err := env.ledger.ListForReport(ctx, open.ID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "Local nao encontrado", *entries[0].Note)

	resolved := createReport(t, env.db, citizen, "Resolvida", models.StatusResolved)
	_, err = env.lifecycle.Reject(ctx, resolved.ID, actorOf(admin), "Motivo qualquer")
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, models.StatusResolved, reload(t, env.db, resolved.ID).Status)
}

func TestLifecycle_ResolveDirectFromAnyStatus(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	citizen := createUser(t, env.db, "Ana", models.RoleCitizen)
	admin := createUser(t, env.db, "Fiscal", models.RoleAdmin)

	for _, st := range models.AllStatuses {
		report := createReport(t, env.db, citizen, "R "+string(st), st)
		r, err := env.lifecycle.ResolveDirect(ctx, report.ID, actorOf(admin))
		require.NoError(t, err, st)
		assert.Equal(t, models.StatusResolved, r.Status)

		entries, err := env.ledger.ListForReport(ctx, report.ID)
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, st, *entries[0].FromStatus)
		assert.Equal(t, "Encerramento direto", *entries[0].Note)
	}
}

func TestLifecycle_SetUrgencyKeepsStatus(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	citizen := createUser(t, env.db, "Ana", models.RoleCitizen)
	admin := createUser(t, env.db, "Fiscal", models.RoleAdmin)
	report := createReport(t, env.db, citizen, "Lixo", models.StatusVerifying)

	r, err := env.lifecycle.SetUrgency(ctx, report.ID, actorOf(admin), models.UrgencyMedium)
	require.NoError(t, err)
	assert.Equal(t, models.StatusVerifying, r.Status)
	assert.Equal(t, models.UrgencyMedium, *r.Urgency)
	assert.Nil(t, r.ReviewedBy)

	entries, err := env.ledger.ListForReport(ctx, report.ID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Nil(t, entries[0].FromStatus)
	assert.Nil(t, entries[0].ToStatus)
	assert.Equal(t, "Urgencia definida para medium", *entries[0].Note)
}

func TestMarkFalse_EscalationTiers(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	citizen := createUser(t, env.db, "Ana", models.RoleCitizen)
	admin := createUser(t, env.db, "Fiscal", models.RoleAdmin)

	want := []models.NotificationType{
		models.NotificationWarning,
		models.NotificationFine,
		models.NotificationSummons,
		models.NotificationSummons,
	}
	for i, tier := range want {
		report := createReport(t, env.db, citizen, "Falsa", models.StatusOpen)
		res, err := env.lifecycle.MarkFalse(ctx, report.ID, actorOf(admin))
		require.NoError(t, err)

		assert.Equal(t, i+1, res.Penalty.FalseReportCount)
		assert.Equal(t, tier, res.Penalty.Tier)
		assert.Equal(t, models.StatusRejected, res.Report.Status)
		assert.True(t, res.Report.MarkedFalse)
		require.NotNil(t, res.Report.RejectReason)
		assert.Equal(t, DefaultFalseReason, *res.Report.RejectReason)

		n := res.Penalty.Notification
		if tier == models.NotificationSummons {
			require.NotNil(t, n.AttachmentURL)
			assert.True(t, strings.HasPrefix(*n.AttachmentURL, "/uploads/notifications/intimacao-"))
			body, err := os.ReadFile(filepath.Join(env.uploads, strings.TrimPrefix(*n.AttachmentURL, "/uploads/")))
			require.NoError(t, err)
			assert.Contains(t, string(body), "INTIMACAO OFICIAL")
			assert.Contains(t, n.Message, "Foi registrada sua")
		} else {
			assert.Nil(t, n.AttachmentURL)
		}
	}

	var user models.User
	require.NoError(t, env.db.First(&user, "id = ?", citizen.ID).Error)
	assert.Equal(t, 4, user.FalseReportCount)

	list, err := env.dispatcher.ListRecent(ctx, citizen.ID)
	require.NoError(t, err)
	require.Len(t, list, 4)
	assert.Equal(t, models.NotificationSummons, list[0].Type)
	assert.Equal(t, models.NotificationWarning, list[3].Type)
	assert.Equal(t, "Aviso por denuncia falsa", list[3].Title)
	assert.Equal(t, `Sua denuncia "Falsa" foi analisada como falsa. Este e um aviso oficial.`, list[3].Message)
	assert.Equal(t, "Multa administrativa", list[2].Title)
}

func TestMarkFalse_OnlyOncePerReport(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	citizen := createUser(t, env.db, "Ana", models.RoleCitizen)
	admin := createUser(t, env.db, "Fiscal", models.RoleAdmin)
	report := createReport(t, env.db, citizen, "Falsa", models.StatusOpen)

	_, err := env.lifecycle.MarkFalse(ctx, report.ID, actorOf(admin))
	require.NoError(t, err)

	_, err = env.lifecycle.MarkFalse(ctx, report.ID, actorOf(admin))
	assert.ErrorIs(t, err, ErrAlreadyMarked)

	var user models.User
	require.NoError(t, env.db.First(&user, "id = ?", citizen.ID).Error)
	assert.Equal(t, 1, user.FalseReportCount)
	assert.EqualValues(t, 1, historyCount(t, env.db, report.ID))

	n, err := env.dispatcher.CountUnread(ctx, citizen.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}

func TestMarkFalse_ConcurrentCallsPenalizeOnce(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	citizen := createUser(t, env.db, "Ana", models.RoleCitizen)
	admin := createUser(t, env.db, "Fiscal", models.RoleAdmin)
	report := createReport(t, env.db, citizen, "Falsa", models.StatusOpen)

	const workers = 5
	var wg sync.WaitGroup
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = env.lifecycle.MarkFalse(ctx, report.ID, actorOf(admin))
		}(i)
	}
	wg.Wait()

	ok := 0
	for _, err := range errs {
		if err == nil {
			ok++
			continue
		}
		assert.ErrorIs(t, err, ErrAlreadyMarked)
	}
	assert.Equal(t, 1, ok)

	var user models.User
	require.NoError(t, env.db.First(&user, "id = ?", citizen.ID).Error)
	assert.Equal(t, 1, user.FalseReportCount)
}

func TestMarkFalse_KeepsExistingRejectReason(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	citizen := createUser(t, env.db, "Ana", models.RoleCitizen)
	admin := createUser(t, env.db, "Fiscal", models.RoleAdmin)
	report := createReport(t, env.db, citizen, "Falsa", models.StatusOpen)

	_, err := env.lifecycle.Reject(ctx, report.ID, actorOf(admin), "Foto de outro lugar")
	require.NoError(t, err)

	res, err := env.lifecycle.MarkFalse(ctx, report.ID, actorOf(admin))
	require.NoError(t, err)
	assert.Equal(t, "Foto de outro lugar", *res.Report.RejectReason)

	entries, err := env.ledger.ListForReport(ctx, report.ID)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, models.ActionMarkFalse, entries[0].Action)
	assert.Equal(t, models.StatusRejected, *entries[0].FromStatus)
}

func TestMarkFalse_MissingAuthorRollsBack(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	citizen := createUser(t, env.db, "Ana", models.RoleCitizen)
	admin := createUser(t, env.db, "Fiscal", models.RoleAdmin)
	report := createReport(t, env.db, citizen, "Falsa", models.StatusOpen)

	require.NoError(t, env.db.Exec("PRAGMA foreign_keys = OFF").Error)
	require.NoError(t, env.db.Delete(&models.User{}, "id = ?", citizen.ID).Error)

	_, err := env.lifecycle.MarkFalse(ctx, report.ID, actorOf(admin))
	assert.ErrorIs(t, err, ErrNotFound)

	r := reload(t, env.db, report.ID)
	assert.False(t, r.MarkedFalse)
	assert.Equal(t, models.StatusOpen, r.Status)
	assert.Zero(t, historyCount(t, env.db, report.ID))
}

func TestPurge_RemovesReportHistoryAndImage(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	citizen := createUser(t, env.db, "Ana", models.RoleCitizen)
	admin := createUser(t, env.db, "Fiscal", models.RoleAdmin)
	report := createReport(t, env.db, citizen, "Lixo", models.StatusOpen)

	url, err := env.storage.Save(ctx, "reports/report-x.png", []byte("png"), "image/png")
	require.NoError(t, err)
	require.NoError(t, env.db.Model(report).Update("image", url).Error)

	_, err = env.lifecycle.Verify(ctx, report.ID, actorOf(admin))
	require.NoError(t, err)

	assert.ErrorIs(t, env.lifecycle.Purge(ctx, report.ID, actorOf(citizen)), ErrForbidden)
	require.NoError(t, env.lifecycle.Purge(ctx, report.ID, actorOf(admin)))

	var n int64
	require.NoError(t, env.db.Model(&models.Report{}).Where("id = ?", report.ID).Count(&n).Error)
	assert.Zero(t, n)
	assert.Zero(t, historyCount(t, env.db, report.ID))
	_, err = os.Stat(filepath.Join(env.uploads, "reports", "report-x.png"))
	assert.True(t, os.IsNotExist(err))

	assert.ErrorIs(t, env.lifecycle.Purge(ctx, report.ID, actorOf(admin)), ErrNotFound)
}
