package domain

import "time"

const (
	SourceAppleHealth = "apple_health"
	SourceGoogleFit   = "google_fit"
	SourceOura        = "oura"
	SourceFitbit      = "fitbit"
	Source23andMe     = "23andme"
)

const (
	ConnectionConnected    = "connected"
	ConnectionDisconnected = "disconnected"
	ConnectionError        = "error"
)

type IntegrationConnection struct {
	ID             string     `json:"id"`
	UserID         string     `json:"user_id"`
	SourceType     string     `json:"source_type"`
	Status         string     `json:"status"`
	LastSync       *time.Time `json:"last_sync"`
	ExternalUserID string     `json:"external_user_id,omitempty"`
}

const (
	UploadProcessing = "processing"
	UploadCompleted  = "completed"
	UploadFailed     = "failed"
)

type GenomicUpload struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	FileName   string    `json:"file_name"`
	Provider   string    `json:"provider"` // 23andme | ancestry | direct
	Status     string    `json:"status"`
	UploadDate time.Time `json:"upload_date"`
}
