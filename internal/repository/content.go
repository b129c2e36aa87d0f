package repository

import (
	"context"
	"fmt"

	"shethrive-data/internal/domain"
	"shethrive-data/internal/store"
)

const (
	startedPercent   = 10
	completedPercent = 100
)

// Content articles and per-user reading progress.
type Content struct {
	env     Env
	catalog *Catalog
}

func NewContent(env Env, catalog *Catalog) *Content {
	return &Content{env: env, catalog: catalog}
}

func (r *Content) Articles(ctx context.Context) ([]domain.Article, error) {
	return seeded(ctx, r.env.Store, domain.ArticlesKey, func() []domain.Article {
		return append([]domain.Article{}, r.catalog.Articles...)
	})
}

func (r *Content) Progress(ctx context.Context, userID string) ([]domain.UserContentProgress, error) {
	all, err := store.Load[domain.UserContentProgress](ctx, r.env.Store, domain.ContentProgressKey)
	if err != nil {
		return nil, err
	}
	out := make([]domain.UserContentProgress, 0, len(all))
	for _, p := range all {
		if p.UserID == userID {
			out = append(out, p)
		}
	}
	return out, nil
}

// UpdateProgress upserts (user, content). A new started record is at 10%,
// completed is always 100%, and started never lowers an existing percentage.
func (r *Content) UpdateProgress(ctx context.Context, userID, contentID, status string) (*domain.UserContentProgress, error) {
	if status != domain.ContentStarted && status != domain.ContentCompleted {
		return nil, invalid("progress status must be started or completed")
	}
	now := r.env.now()
	var out domain.UserContentProgress
	err := store.Mutate(ctx, r.env.Store, domain.ContentProgressKey, func(all []domain.UserContentProgress) ([]domain.UserContentProgress, error) {
		i := indexOf(all, func(p domain.UserContentProgress) bool { return p.UserID == userID && p.ContentID == contentID })
		if i < 0 {
			p := domain.UserContentProgress{
				UserID:             userID,
				ContentID:          contentID,
				Status:             status,
				ProgressPercentage: startedPercent,
				LastAccessed:       now,
			}
			if status == domain.ContentCompleted {
				p.ProgressPercentage = completedPercent
			}
			out = p
			return append(all, p), nil
		}
		p := &all[i]
		p.Status = status
		p.LastAccessed = now
		if status == domain.ContentCompleted {
			p.ProgressPercentage = completedPercent
		}
		out = *p
		return all, nil
	})
	if err != nil {
		return nil, fmt.Errorf("update content progress %s: %w", contentID, err)
	}
	return &out, nil
}
