// Package repository holds the per-entity repositories over the entity store.
// Reads filter the whole collection by user ID; mutations addressed by record
// ID also take the user ID and report domain.ErrNotFound for records owned by
// someone else.
package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"shethrive-data/internal/audit"
	"shethrive-data/internal/cipher"
	"shethrive-data/internal/domain"
	"shethrive-data/internal/store"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// Env collaborators shared by every repository.
type Env struct {
	Store  *store.Store
	Cipher cipher.Cipher
	Audit  *audit.Trail
	Logger *zap.Logger
	// Now defaults to time.Now.
	Now func() time.Time
}

func (e Env) now() time.Time {
	if e.Now == nil {
		return time.Now().UTC()
	}
	return e.Now().UTC()
}

func (e Env) logger() *zap.Logger {
	if e.Logger == nil {
		return zap.NewNop()
	}
	return e.Logger
}

// updateWithAudit runs fn over keys plus the audit collection and publishes
// the entries fn appended once the transaction committed.
func (e Env) updateWithAudit(ctx context.Context, keys []string, fn func(tx *store.Tx, appendAudit func(domain.AuditLogEntry) error) error) error {
	var appended []domain.AuditLogEntry
	keys = append(keys[:len(keys):len(keys)], domain.AuditKey)
	err := e.Store.Update(ctx, keys, func(tx *store.Tx) error {
		// reset on optimistic retry
		appended = appended[:0]
		return fn(tx, func(entry domain.AuditLogEntry) error {
			out, err := e.Audit.AppendTx(tx, entry)
			if err != nil {
				return err
			}
			appended = append(appended, out)
			return nil
		})
	})
	if err != nil {
		return err
	}
	e.Audit.Publish(ctx, appended...)
	return nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// validateStruct maps validator failures to domain.ErrValidation.
func validateStruct(v interface{}) error {
	if err := validate.Struct(v); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag()))
			}
			return fmt.Errorf("%w: %s", domain.ErrValidation, strings.Join(msgs, "; "))
		}
		return fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	return nil
}

func invalid(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", domain.ErrValidation, fmt.Sprintf(format, args...))
}

// indexOf position of the first record matching, or -1.
func indexOf[T any](records []T, match func(T) bool) int {
	for i, r := range records {
		if match(r) {
			return i
		}
	}
	return -1
}

// ========== consumer interfaces ==========

type ProfileRepository interface {
	Register(ctx context.Context, req RegisterRequest) (*domain.UserProfile, error)
	Authenticate(ctx context.Context, email, password string) (*domain.UserProfile, error)
	Get(ctx context.Context, userID string) (*domain.UserProfile, error)
	Update(ctx context.Context, userID string, upd ProfileUpdate) (*domain.UserProfile, error)
	EnsureDemoUser(ctx context.Context) error
	GetPrivacy(ctx context.Context, userID string) (*domain.PrivacyPreferences, error)
	UpdatePrivacy(ctx context.Context, userID string, prefs domain.PrivacyPreferences) (*domain.PrivacyPreferences, error)
}

type CycleRepository interface {
	Get(ctx context.Context, userID string) (*domain.CycleRecord, error)
	Save(ctx context.Context, record domain.CycleRecord) (*domain.CycleRecord, error)
}

type SymptomLogRepository interface {
	Create(ctx context.Context, userID string, req SymptomLogRequest) (*domain.SymptomLog, error)
	List(ctx context.Context, userID string) ([]domain.SymptomLog, error)
	Recent(ctx context.Context, userID string, n int) ([]domain.SymptomLog, error)
	LatestForDate(ctx context.Context, userID, date string) (*domain.SymptomLog, error)
}

type JournalRepository interface {
	Create(ctx context.Context, userID string, req JournalRequest) (*domain.JournalEntry, error)
	List(ctx context.Context, userID string) ([]domain.JournalEntry, error)
	Delete(ctx context.Context, userID, entryID string) error
}

type GoalRepository interface {
	Create(ctx context.Context, userID string, req GoalRequest) (*domain.Goal, error)
	List(ctx context.Context, userID string) ([]domain.Goal, error)
	UpdateProgress(ctx context.Context, userID, goalID string, value float64) (*domain.Goal, error)
	SetStatus(ctx context.Context, userID, goalID, status string) (*domain.Goal, error)
	Delete(ctx context.Context, userID, goalID string) error
}

type ReminderRepository interface {
	Create(ctx context.Context, userID string, req ReminderRequest) (*domain.Reminder, error)
	List(ctx context.Context, userID string) ([]domain.Reminder, error)
	ToggleActive(ctx context.Context, userID, reminderID string) (*domain.Reminder, error)
	Delete(ctx context.Context, userID, reminderID string) error
}

type ContentRepository interface {
	Articles(ctx context.Context) ([]domain.Article, error)
	Progress(ctx context.Context, userID string) ([]domain.UserContentProgress, error)
	UpdateProgress(ctx context.Context, userID, contentID, status string) (*domain.UserContentProgress, error)
}

type IntegrationRepository interface {
	List(ctx context.Context, userID string) ([]domain.IntegrationConnection, error)
	Connect(ctx context.Context, userID, sourceType string) (*domain.IntegrationConnection, error)
	Disconnect(ctx context.Context, userID, connectionID string) (*domain.IntegrationConnection, error)
	UploadGenomicData(ctx context.Context, userID, provider, fileName string) (*domain.GenomicUpload, error)
	GenomicUploads(ctx context.Context, userID string) ([]domain.GenomicUpload, error)
}

type ReportRepository interface {
	Save(ctx context.Context, userID, content, reportType string) (*domain.HealthReport, error)
	SaveAudited(ctx context.Context, userID, content, reportType string, entry domain.AuditLogEntry) (*domain.HealthReport, error)
	List(ctx context.Context, userID string) ([]domain.HealthReport, error)
}

type ProviderRepository interface {
	List(ctx context.Context) ([]domain.Provider, error)
	Get(ctx context.Context, providerID string) (*domain.Provider, error)
}

type PlanRepository interface {
	List(ctx context.Context) ([]domain.Plan, error)
	Get(ctx context.Context, planID string) (*domain.Plan, error)
}

type AppointmentRepository interface {
	List(ctx context.Context, userID string) ([]domain.Appointment, error)
	Get(ctx context.Context, userID, appointmentID string) (*domain.Appointment, error)
	Create(ctx context.Context, appt domain.Appointment, entry domain.AuditLogEntry) (*domain.Appointment, error)
	Modify(ctx context.Context, userID, appointmentID string, fn AppointmentMutation) (*domain.Appointment, error)
}

type SubscriptionRepository interface {
	Active(ctx context.Context, userID string) (*domain.Subscription, error)
	List(ctx context.Context, userID string) ([]domain.Subscription, error)
	Activate(ctx context.Context, sub domain.Subscription, payment domain.Payment, entry domain.AuditLogEntry) (*domain.Subscription, error)
	CancelActive(ctx context.Context, userID string, entry domain.AuditLogEntry) (*domain.Subscription, error)
}

type PaymentRepository interface {
	Append(ctx context.Context, p domain.Payment) (*domain.Payment, error)
	List(ctx context.Context, userID string) ([]domain.Payment, error)
}

var (
	_ ProfileRepository      = (*Profiles)(nil)
	_ CycleRepository        = (*Cycles)(nil)
	_ SymptomLogRepository   = (*SymptomLogs)(nil)
	_ JournalRepository      = (*Journals)(nil)
	_ GoalRepository         = (*Goals)(nil)
	_ ReminderRepository     = (*Reminders)(nil)
	_ ContentRepository      = (*Content)(nil)
	_ IntegrationRepository  = (*Integrations)(nil)
	_ ReportRepository       = (*Reports)(nil)
	_ ProviderRepository     = (*Providers)(nil)
	_ PlanRepository         = (*Plans)(nil)
	_ AppointmentRepository  = (*Appointments)(nil)
	_ SubscriptionRepository = (*Subscriptions)(nil)
	_ PaymentRepository      = (*Payments)(nil)
)
