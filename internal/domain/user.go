package domain

import "time"

// UserProfile registered identity. Never hard-deleted.
type UserProfile struct {
	ID                   string    `json:"id"`
	Email                string    `json:"email"`
	FirstName            string    `json:"first_name"`
	LastName             string    `json:"last_name"`
	DateOfBirth          string    `json:"date_of_birth,omitempty"` // YYYY-MM-DD
	Gender               string    `json:"gender,omitempty"`
	Location             string    `json:"location,omitempty"`
	IsEmailVerified      bool      `json:"is_email_verified"`
	IsOnboardingComplete bool      `json:"is_onboarding_complete"`
	PasswordHash         string    `json:"password_hash,omitempty"`
	CreatedAt            time.Time `json:"created_at"`
}

// Public returns a copy without credential material.
func (u UserProfile) Public() UserProfile {
	u.PasswordHash = ""
	return u
}

// Age in whole years at now, or 0 when DateOfBirth is unset or malformed.
func (u UserProfile) Age(now time.Time) int {
	dob, err := time.Parse(DateLayout, u.DateOfBirth)
	if err != nil {
		return 0
	}
	years := now.Year() - dob.Year()
	if now.YearDay() < dob.YearDay() {
		years--
	}
	if years < 0 {
		return 0
	}
	return years
}

const (
	DemoUserID    = "mock-user-1"
	DemoUserEmail = "sarah@example.com"
)

// DateLayout calendar dates are stored as YYYY-MM-DD.
const DateLayout = "2006-01-02"

const (
	OptIn    = "opt_in"
	OptOut   = "opt_out"
	Enabled  = "enabled"
	Disabled = "disabled"
)

// PrivacyPreferences per-user sharing switches.
type PrivacyPreferences struct {
	UserID              string `json:"user_id"`
	DataSharing         string `json:"data_sharing" validate:"oneof=opt_in opt_out"`
	MarketingEmails     string `json:"marketing_emails" validate:"oneof=opt_in opt_out"`
	LocationTracking    string `json:"location_tracking" validate:"oneof=enabled disabled"`
	AnonymizedAnalytics string `json:"anonymized_analytics" validate:"oneof=enabled disabled"`
}

// DefaultPrivacy is applied at registration and when nothing was stored.
func DefaultPrivacy(userID string) PrivacyPreferences {
	return PrivacyPreferences{
		UserID:              userID,
		DataSharing:         OptOut,
		MarketingEmails:     OptOut,
		LocationTracking:    Disabled,
		AnonymizedAnalytics: Enabled,
	}
}
