package repository

import (
	"context"
	"sync"
	"testing"
	"time"

	"shethrive-data/internal/cipher"
	"shethrive-data/internal/domain"
	"shethrive-data/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCycles_DefaultAndSave(t *testing.T) {
	te := newTestEnv(t)
	repo := NewCycles(te.Env)
	ctx := context.Background()

	def, err := repo.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, domain.CycleRecord{UserID: "u1", StartDate: "2026-03-10", CycleLength: 28, PeriodLength: 5}, *def)

	_, err = repo.Save(ctx, domain.CycleRecord{UserID: "u1", StartDate: "2026-02-20", CycleLength: 30, PeriodLength: 6})
	require.NoError(t, err)
	_, err = repo.Save(ctx, domain.CycleRecord{UserID: "u1", StartDate: "2026-03-01", CycleLength: 29, PeriodLength: 4})
	require.NoError(t, err)

	got, err := repo.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 29, got.CycleLength)

	all, err := store.Load[domain.CycleRecord](ctx, te.Store, domain.CycleKey)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestValidateCycle(t *testing.T) {
	for name, rec := range map[string]domain.CycleRecord{
		"period equals cycle": {UserID: "u", StartDate: "2026-01-01", CycleLength: 28, PeriodLength: 28},
		"zero period":         {UserID: "u", StartDate: "2026-01-01", CycleLength: 28, PeriodLength: 0},
		"too short":           {UserID: "u", StartDate: "2026-01-01", CycleLength: 10, PeriodLength: 3},
		"too long":            {UserID: "u", StartDate: "2026-01-01", CycleLength: 90, PeriodLength: 3},
		"bad date":            {UserID: "u", StartDate: "yesterday", CycleLength: 28, PeriodLength: 5},
		"no user":             {StartDate: "2026-01-01", CycleLength: 28, PeriodLength: 5},
	} {
		t.Run(name, func(t *testing.T) {
			assert.ErrorIs(t, ValidateCycle(rec), domain.ErrValidation)
		})
	}
	assert.NoError(t, ValidateCycle(domain.CycleRecord{UserID: "u", StartDate: "2026-01-01", CycleLength: 28, PeriodLength: 5}))
}

func TestSymptomLogs_AppendOnlyNewestFirst(t *testing.T) {
	te := newTestEnv(t)
	repo := NewSymptomLogs(te.Env)
	ctx := context.Background()

	_, err := repo.Create(ctx, "u1", SymptomLogRequest{Date: "2026-03-08", Symptoms: []string{"Cramps"}, Severity: 6, Mood: "Tired"})
	require.NoError(t, err)
	te.advance(time.Hour)
	_, err = repo.Create(ctx, "u1", SymptomLogRequest{Date: "2026-03-09", Severity: 3, Mood: "Happy"})
	require.NoError(t, err)
	te.advance(time.Hour)
	second, err := repo.Create(ctx, "u1", SymptomLogRequest{Date: "2026-03-09", Severity: 4, Mood: "Anxious"})
	require.NoError(t, err)
	_, err = repo.Create(ctx, "u2", SymptomLogRequest{Date: "2026-03-09", Severity: 1, Mood: "Sad"})
	require.NoError(t, err)

	logs, err := repo.List(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, logs, 3)
	assert.Equal(t, second.ID, logs[0].ID)
	assert.Equal(t, "2026-03-08", logs[2].Date)

	latest, err := repo.LatestForDate(ctx, "u1", "2026-03-09")
	require.NoError(t, err)
	assert.Equal(t, second.ID, latest.ID)
	_, err = repo.LatestForDate(ctx, "u1", "2026-01-01")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	recent, err := repo.Recent(ctx, "u1", 2)
	require.NoError(t, err)
	assert.Len(t, recent, 2)
}

func TestSymptomLogs_Validation(t *testing.T) {
	te := newTestEnv(t)
	repo := NewSymptomLogs(te.Env)
	for _, req := range []SymptomLogRequest{
		{Date: "2026-03-09", Severity: 0, Mood: "Happy"},
		{Date: "2026-03-09", Severity: 11, Mood: "Happy"},
		{Date: "2026-03-09", Severity: 5, Mood: "Grumpy"},
		{Date: "09/03/2026", Severity: 5, Mood: "Happy"},
	} {
		_, err := repo.Create(context.Background(), "u1", req)
		assert.ErrorIs(t, err, domain.ErrValidation)
	}
}

func TestSymptomLogs_ConcurrentAppends(t *testing.T) {
	te := newTestEnv(t)
	repo := NewSymptomLogs(te.Env)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 25; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.Create(ctx, "u1", SymptomLogRequest{Date: "2026-03-09", Severity: 5, Mood: "Happy"})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	logs, err := repo.List(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, logs, 25)
}

func TestJournals_EncryptedAtRest(t *testing.T) {
	te := newTestEnv(t)
	repo := NewJournals(te.Env)
	ctx := context.Background()

	entry, err := repo.Create(ctx, "u1", JournalRequest{Title: "Day one", Content: "felt great today"})
	require.NoError(t, err)
	assert.Equal(t, "felt great today", entry.Content)
	assert.Equal(t, testNow, entry.EntryDate)

	raw, err := te.backend.Get(ctx, domain.JournalKey)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "felt great today")

	entries, err := repo.List(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "felt great today", entries[0].Content)

	others, err := repo.List(ctx, "u2")
	require.NoError(t, err)
	assert.Empty(t, others)
}

func TestJournals_ForeignCiphertextIsMismatch(t *testing.T) {
	te := newTestEnv(t)
	repo := NewJournals(te.Env)
	ctx := context.Background()

	// a record reassigned to another owner never decrypts for them
	_, err := repo.Create(ctx, "u1", JournalRequest{Title: "secret", Content: "private"})
	require.NoError(t, err)
	require.NoError(t, store.Mutate(ctx, te.Store, domain.JournalKey, func(all []domain.JournalEntry) ([]domain.JournalEntry, error) {
		all[0].UserID = "u2"
		return all, nil
	}))

	entries, err := repo.List(ctx, "u2")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, cipher.KeyMismatchText, entries[0].Content)
}

func TestJournals_OrderAndDelete(t *testing.T) {
	te := newTestEnv(t)
	repo := NewJournals(te.Env)
	ctx := context.Background()

	older, err := repo.Create(ctx, "u1", JournalRequest{Title: "older", EntryDate: testNow.Add(-48 * time.Hour)})
	require.NoError(t, err)
	newer, err := repo.Create(ctx, "u1", JournalRequest{Title: "newer", EntryDate: testNow})
	require.NoError(t, err)

	entries, err := repo.List(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, newer.ID, entries[0].ID)

	assert.ErrorIs(t, repo.Delete(ctx, "u2", older.ID), domain.ErrNotFound)
	require.NoError(t, repo.Delete(ctx, "u1", older.ID))
	entries, err = repo.List(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestGoals_Lifecycle(t *testing.T) {
	te := newTestEnv(t)
	repo := NewGoals(te.Env)
	ctx := context.Background()

	goal, err := repo.Create(ctx, "u1", GoalRequest{Name: "Water", TargetValue: 8, Unit: "glasses", Category: "hydration"})
	require.NoError(t, err)
	assert.Equal(t, 0.0, goal.CurrentValue)
	assert.Equal(t, domain.GoalActive, goal.Status)

	goal, err = repo.UpdateProgress(ctx, "u1", goal.ID, 10)
	require.NoError(t, err)
	assert.Equal(t, 10.0, goal.CurrentValue)
	assert.Equal(t, 125, goal.CompletionPercent())

	goal, err = repo.UpdateProgress(ctx, "u1", goal.ID, -3)
	require.NoError(t, err)
	assert.Equal(t, 0.0, goal.CurrentValue)

	_, err = repo.UpdateProgress(ctx, "u2", goal.ID, 1)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	goal, err = repo.SetStatus(ctx, "u1", goal.ID, domain.GoalCompleted)
	require.NoError(t, err)
	assert.Equal(t, domain.GoalCompleted, goal.Status)
	_, err = repo.SetStatus(ctx, "u1", goal.ID, "paused")
	assert.ErrorIs(t, err, domain.ErrValidation)

	require.NoError(t, repo.Delete(ctx, "u1", goal.ID))
	goals, err := repo.List(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, goals)
}

func TestGoals_Validation(t *testing.T) {
	te := newTestEnv(t)
	repo := NewGoals(te.Env)
	_, err := repo.Create(context.Background(), "u1", GoalRequest{Name: "x", TargetValue: 0, Category: "sleep"})
	assert.ErrorIs(t, err, domain.ErrValidation)
	_, err = repo.Create(context.Background(), "u1", GoalRequest{Name: "x", TargetValue: 1, Category: "gaming"})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestReminders_Toggle(t *testing.T) {
	te := newTestEnv(t)
	repo := NewReminders(te.Env)
	ctx := context.Background()

	rem, err := repo.Create(ctx, "u1", ReminderRequest{Name: "Iron", Dosage: "65mg", Frequency: "daily", Time: "08:00"})
	require.NoError(t, err)
	assert.True(t, rem.IsActive)

	rem, err = repo.ToggleActive(ctx, "u1", rem.ID)
	require.NoError(t, err)
	assert.False(t, rem.IsActive)
	rem, err = repo.ToggleActive(ctx, "u1", rem.ID)
	require.NoError(t, err)
	assert.True(t, rem.IsActive)

	_, err = repo.ToggleActive(ctx, "u2", rem.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = repo.Create(ctx, "u1", ReminderRequest{Name: "x", Frequency: "hourly", Time: "08:00"})
	assert.ErrorIs(t, err, domain.ErrValidation)
	_, err = repo.Create(ctx, "u1", ReminderRequest{Name: "x", Frequency: "daily", Time: "8am"})
	assert.ErrorIs(t, err, domain.ErrValidation)

	require.NoError(t, repo.Delete(ctx, "u1", rem.ID))
	assert.ErrorIs(t, repo.Delete(ctx, "u1", rem.ID), domain.ErrNotFound)
}
