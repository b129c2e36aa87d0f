package repository

import (
	"context"
	"fmt"
	"sort"
	"time"

	"shethrive-data/internal/domain"
	"shethrive-data/internal/store"

	"github.com/google/uuid"
)

type JournalRequest struct {
	Title     string `validate:"required"`
	Content   string
	EntryDate time.Time
}

// Journals content is encrypted at rest with the owner's key.
type Journals struct {
	env Env
}

func NewJournals(env Env) *Journals {
	return &Journals{env: env}
}

// Create returns the entry with plaintext content.
func (r *Journals) Create(ctx context.Context, userID string, req JournalRequest) (*domain.JournalEntry, error) {
	if err := validateStruct(req); err != nil {
		return nil, err
	}
	sealed, err := r.env.Cipher.Encrypt(req.Content, userID)
	if err != nil {
		return nil, fmt.Errorf("encrypt journal entry: %w", err)
	}
	now := r.env.now()
	entry := domain.JournalEntry{
		ID:        uuid.New().String(),
		UserID:    userID,
		Title:     req.Title,
		Content:   sealed,
		EntryDate: req.EntryDate.UTC(),
		CreatedAt: now,
	}
	if req.EntryDate.IsZero() {
		entry.EntryDate = now
	}
	err = store.Mutate(ctx, r.env.Store, domain.JournalKey, func(all []domain.JournalEntry) ([]domain.JournalEntry, error) {
		return append(all, entry), nil
	})
	if err != nil {
		return nil, fmt.Errorf("create journal entry: %w", err)
	}
	entry.Content = req.Content
	return &entry, nil
}

// List decrypts every entry, newest EntryDate first.
func (r *Journals) List(ctx context.Context, userID string) ([]domain.JournalEntry, error) {
	all, err := store.Load[domain.JournalEntry](ctx, r.env.Store, domain.JournalKey)
	if err != nil {
		return nil, err
	}
	out := make([]domain.JournalEntry, 0, len(all))
	for _, e := range all {
		if e.UserID != userID {
			continue
		}
		e.Content = r.env.Cipher.Decrypt(e.Content, userID)
		out = append(out, e)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].EntryDate.After(out[j].EntryDate) })
	return out, nil
}

func (r *Journals) Delete(ctx context.Context, userID, entryID string) error {
	err := store.Mutate(ctx, r.env.Store, domain.JournalKey, func(all []domain.JournalEntry) ([]domain.JournalEntry, error) {
		i := indexOf(all, func(e domain.JournalEntry) bool { return e.ID == entryID && e.UserID == userID })
		if i < 0 {
			return nil, domain.ErrNotFound
		}
		return append(all[:i], all[i+1:]...), nil
	})
	if err != nil {
		return fmt.Errorf("delete journal entry %s: %w", entryID, err)
	}
	return nil
}
