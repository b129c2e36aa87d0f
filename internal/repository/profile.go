package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"shethrive-data/internal/domain"
	"shethrive-data/internal/store"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// BcryptCost is lowered by tests.
var BcryptCost = bcrypt.DefaultCost

type RegisterRequest struct {
	Email     string `validate:"required,email"`
	Password  string `validate:"required,min=8"`
	FirstName string `validate:"required"`
	LastName  string `validate:"required"`
}

// ProfileUpdate partial patch; nil fields are left unchanged.
type ProfileUpdate struct {
	FirstName            *string
	LastName             *string
	DateOfBirth          *string
	Gender               *string
	Location             *string
	IsOnboardingComplete *bool
}

// Profiles stores user profiles and privacy preferences.
type Profiles struct {
	env Env
}

func NewProfiles(env Env) *Profiles {
	return &Profiles{env: env}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (r *Profiles) Register(ctx context.Context, req RegisterRequest) (*domain.UserProfile, error) {
	req.Email = normalizeEmail(req.Email)
	if err := validateStruct(req); err != nil {
		return nil, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := domain.UserProfile{
		ID:           uuid.New().String(),
		Email:        req.Email,
		FirstName:    strings.TrimSpace(req.FirstName),
		LastName:     strings.TrimSpace(req.LastName),
		PasswordHash: string(hash),
		CreatedAt:    r.env.now(),
	}

	err = r.env.Store.Update(ctx, []string{domain.UsersKey, domain.PrivacyKey}, func(tx *store.Tx) error {
		users, err := store.Read[domain.UserProfile](tx, domain.UsersKey)
		if err != nil {
			return err
		}
		users = withDemoUser(users, user.CreatedAt)
		for _, u := range users {
			if normalizeEmail(u.Email) == user.Email {
				return domain.ErrEmailTaken
			}
		}
		if err := store.Write(tx, domain.UsersKey, append(users, user)); err != nil {
			return err
		}
		return upsertPrivacy(tx, domain.DefaultPrivacy(user.ID), false)
	})
	if err != nil {
		return nil, fmt.Errorf("register %s: %w", user.Email, err)
	}

	r.env.logger().Info("user registered", zap.String("user_id", user.ID))
	out := user.Public()
	return &out, nil
}

// Authenticate checks credentials. The demo user has no password hash and
// accepts any password.
func (r *Profiles) Authenticate(ctx context.Context, email, password string) (*domain.UserProfile, error) {
	users, err := r.users(ctx)
	if err != nil {
		return nil, err
	}
	email = normalizeEmail(email)
	for _, u := range users {
		if normalizeEmail(u.Email) != email {
			continue
		}
		if u.PasswordHash != "" {
			if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
				return nil, domain.ErrInvalidCredentials
			}
		}
		out := u.Public()
		return &out, nil
	}
	return nil, domain.ErrInvalidCredentials
}

func (r *Profiles) Get(ctx context.Context, userID string) (*domain.UserProfile, error) {
	users, err := r.users(ctx)
	if err != nil {
		return nil, err
	}
	i := indexOf(users, func(u domain.UserProfile) bool { return u.ID == userID })
	if i < 0 {
		return nil, fmt.Errorf("user %s: %w", userID, domain.ErrNotFound)
	}
	out := users[i].Public()
	return &out, nil
}

func (r *Profiles) Update(ctx context.Context, userID string, upd ProfileUpdate) (*domain.UserProfile, error) {
	if upd.DateOfBirth != nil && *upd.DateOfBirth != "" {
		if _, err := time.Parse(domain.DateLayout, *upd.DateOfBirth); err != nil {
			return nil, invalid("date_of_birth must be YYYY-MM-DD")
		}
	}
	var updated domain.UserProfile
	err := store.Mutate(ctx, r.env.Store, domain.UsersKey, func(users []domain.UserProfile) ([]domain.UserProfile, error) {
		users = withDemoUser(users, r.env.now())
		i := indexOf(users, func(u domain.UserProfile) bool { return u.ID == userID })
		if i < 0 {
			return nil, domain.ErrNotFound
		}
		u := &users[i]
		if upd.FirstName != nil {
			u.FirstName = *upd.FirstName
		}
		if upd.LastName != nil {
			u.LastName = *upd.LastName
		}
		if upd.DateOfBirth != nil {
			u.DateOfBirth = *upd.DateOfBirth
		}
		if upd.Gender != nil {
			u.Gender = *upd.Gender
		}
		if upd.Location != nil {
			u.Location = *upd.Location
		}
		if upd.IsOnboardingComplete != nil {
			u.IsOnboardingComplete = *upd.IsOnboardingComplete
		}
		updated = *u
		return users, nil
	})
	if err != nil {
		return nil, fmt.Errorf("update user %s: %w", userID, err)
	}
	out := updated.Public()
	return &out, nil
}

// EnsureDemoUser writes the demo identity and its privacy defaults when missing.
func (r *Profiles) EnsureDemoUser(ctx context.Context) error {
	return r.env.Store.Update(ctx, []string{domain.UsersKey, domain.PrivacyKey}, func(tx *store.Tx) error {
		users, err := store.Read[domain.UserProfile](tx, domain.UsersKey)
		if err != nil {
			return err
		}
		if hasDemoUser(users) {
			return nil
		}
		if err := store.Write(tx, domain.UsersKey, withDemoUser(users, r.env.now())); err != nil {
			return err
		}
		return upsertPrivacy(tx, domain.DefaultPrivacy(domain.DemoUserID), false)
	})
}

func (r *Profiles) users(ctx context.Context) ([]domain.UserProfile, error) {
	users, err := store.Load[domain.UserProfile](ctx, r.env.Store, domain.UsersKey)
	if err != nil {
		return nil, err
	}
	if hasDemoUser(users) {
		return users, nil
	}
	if err := r.EnsureDemoUser(ctx); err != nil {
		return nil, fmt.Errorf("ensure demo user: %w", err)
	}
	return store.Load[domain.UserProfile](ctx, r.env.Store, domain.UsersKey)
}

func hasDemoUser(users []domain.UserProfile) bool {
	for _, u := range users {
		if u.Email == domain.DemoUserEmail {
			return true
		}
	}
	return false
}

func withDemoUser(users []domain.UserProfile, now time.Time) []domain.UserProfile {
	if hasDemoUser(users) {
		return users
	}
	return append(users, domain.UserProfile{
		ID:              domain.DemoUserID,
		Email:           domain.DemoUserEmail,
		FirstName:       "Sarah",
		LastName:        "Doe",
		IsEmailVerified: true,
		CreatedAt:       now,
	})
}

func (r *Profiles) GetPrivacy(ctx context.Context, userID string) (*domain.PrivacyPreferences, error) {
	all, err := store.Load[domain.PrivacyPreferences](ctx, r.env.Store, domain.PrivacyKey)
	if err != nil {
		return nil, err
	}
	for _, p := range all {
		if p.UserID == userID {
			return &p, nil
		}
	}
	def := domain.DefaultPrivacy(userID)
	return &def, nil
}

// UpdatePrivacy replaces the user's preferences and records UPDATE_PRIVACY in
// the same transaction.
func (r *Profiles) UpdatePrivacy(ctx context.Context, userID string, prefs domain.PrivacyPreferences) (*domain.PrivacyPreferences, error) {
	prefs.UserID = userID
	if err := validateStruct(prefs); err != nil {
		return nil, err
	}
	err := r.env.updateWithAudit(ctx, []string{domain.PrivacyKey}, func(tx *store.Tx, appendAudit func(domain.AuditLogEntry) error) error {
		if err := upsertPrivacy(tx, prefs, true); err != nil {
			return err
		}
		return appendAudit(domain.AuditLogEntry{
			UserID:   userID,
			Action:   domain.ActionUpdatePrivacy,
			Resource: "Privacy Preferences",
			Details:  "User updated data sharing settings.",
		})
	})
	if err != nil {
		return nil, fmt.Errorf("update privacy %s: %w", userID, err)
	}
	return &prefs, nil
}

// upsertPrivacy writes prefs; with overwrite false an existing record is kept.
func upsertPrivacy(tx *store.Tx, prefs domain.PrivacyPreferences, overwrite bool) error {
	all, err := store.Read[domain.PrivacyPreferences](tx, domain.PrivacyKey)
	if err != nil {
		return err
	}
	i := indexOf(all, func(p domain.PrivacyPreferences) bool { return p.UserID == prefs.UserID })
	switch {
	case i < 0:
		all = append(all, prefs)
	case overwrite:
		all[i] = prefs
	default:
		return nil
	}
	return store.Write(tx, domain.PrivacyKey, all)
}
