package repository

import (
	"context"
	"fmt"
	"strings"

	"shethrive-data/internal/domain"
	"shethrive-data/internal/store"

	"github.com/google/uuid"
)

// Integrations wearable/lab connections and genomic uploads.
type Integrations struct {
	env Env
}

func NewIntegrations(env Env) *Integrations {
	return &Integrations{env: env}
}

func validSource(source string) bool {
	switch source {
	case domain.SourceAppleHealth, domain.SourceGoogleFit, domain.SourceOura, domain.SourceFitbit, domain.Source23andMe:
		return true
	}
	return false
}

func (r *Integrations) List(ctx context.Context, userID string) ([]domain.IntegrationConnection, error) {
	all, err := store.Load[domain.IntegrationConnection](ctx, r.env.Store, domain.IntegrationsKey)
	if err != nil {
		return nil, err
	}
	out := make([]domain.IntegrationConnection, 0, len(all))
	for _, c := range all {
		if c.UserID == userID {
			out = append(out, c)
		}
	}
	return out, nil
}

// Connect is idempotent per (user, source): an existing connection is marked
// connected and resynced instead of duplicated.
func (r *Integrations) Connect(ctx context.Context, userID, sourceType string) (*domain.IntegrationConnection, error) {
	if !validSource(sourceType) {
		return nil, invalid("unknown integration source %q", sourceType)
	}
	now := r.env.now()
	var out domain.IntegrationConnection
	err := r.env.updateWithAudit(ctx, []string{domain.IntegrationsKey}, func(tx *store.Tx, appendAudit func(domain.AuditLogEntry) error) error {
		all, err := store.Read[domain.IntegrationConnection](tx, domain.IntegrationsKey)
		if err != nil {
			return err
		}
		i := indexOf(all, func(c domain.IntegrationConnection) bool { return c.UserID == userID && c.SourceType == sourceType })
		if i >= 0 {
			all[i].Status = domain.ConnectionConnected
			all[i].LastSync = &now
			out = all[i]
		} else {
			out = domain.IntegrationConnection{
				ID:             uuid.New().String(),
				UserID:         userID,
				SourceType:     sourceType,
				Status:         domain.ConnectionConnected,
				LastSync:       &now,
				ExternalUserID: "ext_user_" + strings.ReplaceAll(uuid.New().String(), "-", "")[:8],
			}
			all = append(all, out)
		}
		if err := store.Write(tx, domain.IntegrationsKey, all); err != nil {
			return err
		}
		return appendAudit(domain.AuditLogEntry{
			UserID:   userID,
			Action:   domain.ActionConnectIntegration,
			Resource: "Integrations",
			Details:  "Connected " + sourceType,
		})
	})
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", sourceType, err)
	}
	return &out, nil
}

// Disconnect keeps the record with status disconnected.
func (r *Integrations) Disconnect(ctx context.Context, userID, connectionID string) (*domain.IntegrationConnection, error) {
	var out domain.IntegrationConnection
	err := r.env.updateWithAudit(ctx, []string{domain.IntegrationsKey}, func(tx *store.Tx, appendAudit func(domain.AuditLogEntry) error) error {
		all, err := store.Read[domain.IntegrationConnection](tx, domain.IntegrationsKey)
		if err != nil {
			return err
		}
		i := indexOf(all, func(c domain.IntegrationConnection) bool { return c.ID == connectionID && c.UserID == userID })
		if i < 0 {
			return domain.ErrNotFound
		}
		all[i].Status = domain.ConnectionDisconnected
		out = all[i]
		if err := store.Write(tx, domain.IntegrationsKey, all); err != nil {
			return err
		}
		return appendAudit(domain.AuditLogEntry{
			UserID:   userID,
			Action:   domain.ActionDisconnectIntegration,
			Resource: "Integrations",
			Details:  "Disconnected " + out.SourceType,
		})
	})
	if err != nil {
		return nil, fmt.Errorf("disconnect %s: %w", connectionID, err)
	}
	return &out, nil
}

func (r *Integrations) UploadGenomicData(ctx context.Context, userID, provider, fileName string) (*domain.GenomicUpload, error) {
	switch provider {
	case "23andme", "ancestry", "direct":
	default:
		return nil, invalid("unknown genomic provider %q", provider)
	}
	if strings.TrimSpace(fileName) == "" {
		return nil, invalid("file name is required")
	}
	upload := domain.GenomicUpload{
		ID:         uuid.New().String(),
		UserID:     userID,
		FileName:   fileName,
		Provider:   provider,
		Status:     domain.UploadProcessing,
		UploadDate: r.env.now(),
	}
	err := r.env.updateWithAudit(ctx, []string{domain.GenomicUploadsKey}, func(tx *store.Tx, appendAudit func(domain.AuditLogEntry) error) error {
		all, err := store.Read[domain.GenomicUpload](tx, domain.GenomicUploadsKey)
		if err != nil {
			return err
		}
		if err := store.Write(tx, domain.GenomicUploadsKey, append(all, upload)); err != nil {
			return err
		}
		return appendAudit(domain.AuditLogEntry{
			UserID:   userID,
			Action:   domain.ActionUploadGenomics,
			Resource: "Privacy Vault",
			Details:  fmt.Sprintf("Uploaded %s from %s", fileName, provider),
		})
	})
	if err != nil {
		return nil, fmt.Errorf("upload genomic data: %w", err)
	}
	return &upload, nil
}

func (r *Integrations) GenomicUploads(ctx context.Context, userID string) ([]domain.GenomicUpload, error) {
	all, err := store.Load[domain.GenomicUpload](ctx, r.env.Store, domain.GenomicUploadsKey)
	if err != nil {
		return nil, err
	}
	out := make([]domain.GenomicUpload, 0, len(all))
	for _, u := range all {
		if u.UserID == userID {
			out = append(out, u)
		}
	}
	return out, nil
}
