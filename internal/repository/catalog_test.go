package repository

import (
	"context"
	"testing"
	"time"

	"shethrive-data/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadCatalog(t *testing.T) {
	c := mustCatalog(t)
	require.Len(t, c.Providers, 3)
	require.Len(t, c.Plans, 3)
	require.Len(t, c.Articles, 3)

	assert.Equal(t, domain.Money{Amount: 12000, Currency: "USD"}, c.Providers[0].Rate)
	assert.Equal(t, []time.Duration{24 * time.Hour, 48 * time.Hour}, c.Providers[0].SlotOffsets)
	assert.Equal(t, int64(999), c.Plans[1].Price.Amount)
	assert.True(t, c.Plans[1].IsFeatured)
	assert.Equal(t, time.Date(2023, 10, 1, 10, 0, 0, 0, time.UTC), c.Articles[0].PublishedDate.UTC())
}

func TestProvidersAt(t *testing.T) {
	providers := mustCatalog(t).ProvidersAt(testNow.Add(17 * time.Second))
	require.Len(t, providers, 3)
	assert.Equal(t, []time.Time{testNow.Add(12 * time.Hour)}, providers[2].AvailableSlots)
	assert.True(t, providers[1].OffersSlot(testNow.Add(36*time.Hour)))
}

func TestProviders_SeededOnceAndStable(t *testing.T) {
	te := newTestEnv(t)
	repo := NewProviders(te.Env, mustCatalog(t))
	ctx := context.Background()

	first, err := repo.List(ctx)
	require.NoError(t, err)
	te.advance(time.Hour)
	second, err := repo.List(ctx)
	require.NoError(t, err)
	// slots are fixed at seeding time
	assert.Equal(t, first, second)

	p, err := repo.Get(ctx, "prov-2")
	require.NoError(t, err)
	assert.Equal(t, "Dr. Sarah Johnson", p.Name)
	_, err = repo.Get(ctx, "prov-9")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestPlans_Get(t *testing.T) {
	te := newTestEnv(t)
	repo := NewPlans(te.Env, mustCatalog(t))

	p, err := repo.Get(context.Background(), "plan_pro")
	require.NoError(t, err)
	assert.True(t, p.HasFeature("Genomic Integration"))
	_, err = repo.Get(context.Background(), "plan_gold")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestContent_Progress(t *testing.T) {
	te := newTestEnv(t)
	repo := NewContent(te.Env, mustCatalog(t))
	ctx := context.Background()

	articles, err := repo.Articles(ctx)
	require.NoError(t, err)
	assert.Len(t, articles, 3)

	p, err := repo.UpdateProgress(ctx, "u1", "art-1", domain.ContentStarted)
	require.NoError(t, err)
	assert.Equal(t, 10, p.ProgressPercentage)

	p, err = repo.UpdateProgress(ctx, "u1", "art-1", domain.ContentCompleted)
	require.NoError(t, err)
	assert.Equal(t, 100, p.ProgressPercentage)

	// reopening does not lower the percentage
	p, err = repo.UpdateProgress(ctx, "u1", "art-1", domain.ContentStarted)
	require.NoError(t, err)
	assert.Equal(t, domain.ContentStarted, p.Status)
	assert.Equal(t, 100, p.ProgressPercentage)

	p, err = repo.UpdateProgress(ctx, "u1", "art-2", domain.ContentCompleted)
	require.NoError(t, err)
	assert.Equal(t, 100, p.ProgressPercentage)

	progress, err := repo.Progress(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, progress, 2)

	_, err = repo.UpdateProgress(ctx, "u1", "art-3", domain.ContentNotStarted)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestIntegrations_ConnectIsIdempotent(t *testing.T) {
	te := newTestEnv(t)
	repo := NewIntegrations(te.Env)
	ctx := context.Background()

	first, err := repo.Connect(ctx, "u1", domain.SourceOura)
	require.NoError(t, err)
	assert.Regexp(t, `^ext_user_[0-9a-f]{8}$`, first.ExternalUserID)

	te.advance(time.Hour)
	second, err := repo.Connect(ctx, "u1", domain.SourceOura)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, testNow.Add(time.Hour), *second.LastSync)

	conns, err := repo.List(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, conns, 1)
	assert.Equal(t, []string{domain.ActionConnectIntegration, domain.ActionConnectIntegration}, te.auditActions(t))

	_, err = repo.Connect(ctx, "u1", "myspace")
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestIntegrations_Disconnect(t *testing.T) {
	te := newTestEnv(t)
	repo := NewIntegrations(te.Env)
	ctx := context.Background()

	conn, err := repo.Connect(ctx, "u1", domain.SourceFitbit)
	require.NoError(t, err)

	_, err = repo.Disconnect(ctx, "u2", conn.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	got, err := repo.Disconnect(ctx, "u1", conn.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ConnectionDisconnected, got.Status)

	// reconnecting reuses the record
	again, err := repo.Connect(ctx, "u1", domain.SourceFitbit)
	require.NoError(t, err)
	assert.Equal(t, conn.ID, again.ID)
	assert.Equal(t, domain.ConnectionConnected, again.Status)
}

func TestIntegrations_GenomicUpload(t *testing.T) {
	te := newTestEnv(t)
	repo := NewIntegrations(te.Env)
	ctx := context.Background()

	up, err := repo.UploadGenomicData(ctx, "u1", "23andme", "genome.txt")
	require.NoError(t, err)
	assert.Equal(t, domain.UploadProcessing, up.Status)

	uploads, err := repo.GenomicUploads(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, uploads, 1)

	entries, err := te.Audit.ListForUser(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "Uploaded genome.txt from 23andme", entries[0].Details)

	_, err = repo.UploadGenomicData(ctx, "u1", "myheritage", "x.txt")
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestReports_EncryptedNewestFirst(t *testing.T) {
	te := newTestEnv(t)
	repo := NewReports(te.Env)
	ctx := context.Background()

	_, err := repo.Save(ctx, "u1", "first insight", domain.ReportDailyInsight)
	require.NoError(t, err)
	te.advance(24 * time.Hour)
	_, err = repo.Save(ctx, "u1", "second insight", domain.ReportDailyInsight)
	require.NoError(t, err)

	raw, err := te.backend.Get(ctx, domain.HealthReportsKey)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "first insight")
	assert.NotContains(t, string(raw), "second insight")

	reports, err := repo.List(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, reports, 2)
	assert.Equal(t, "second insight", reports[0].Content)
	assert.Equal(t, "2026-03-11", reports[0].Date)
}

func TestReports_SaveAuditedSharesTransaction(t *testing.T) {
	te := newTestEnv(t)
	repo := NewReports(te.Env)
	ctx := context.Background()

	_, err := repo.SaveAudited(ctx, "u1", "insight", domain.ReportDailyInsight, domain.AuditLogEntry{
		UserID: "u1", Action: domain.ActionGenerateInsight, Resource: "AI Insights",
	})
	require.NoError(t, err)
	assert.Equal(t, []string{domain.ActionGenerateInsight}, te.auditActions(t))

	_, err = repo.SaveAudited(ctx, "u1", "insight", "monthly", domain.AuditLogEntry{UserID: "u1", Action: domain.ActionGenerateInsight})
	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.Len(t, te.auditActions(t), 1)
}
