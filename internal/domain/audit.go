package domain

import "time"

const (
	AuditAllowed = "ALLOWED"
	AuditDenied  = "DENIED"
)

const (
	ActionUpdatePrivacy         = "UPDATE_PRIVACY"
	ActionBookAppointment       = "BOOK_APPOINTMENT"
	ActionCancelAppointment     = "CANCEL_APPOINTMENT"
	ActionConnectIntegration    = "CONNECT_INTEGRATION"
	ActionDisconnectIntegration = "DISCONNECT_INTEGRATION"
	ActionUploadGenomics        = "UPLOAD_GENOMICS"
	ActionSubscribe             = "SUBSCRIBE"
	ActionCancelSubscription    = "CANCEL_SUBSCRIPTION"
	ActionExportData            = "EXPORT_DATA"
	ActionGenerateInsight       = "GENERATE_INSIGHT"
)

// AuditLogEntry immutable once appended.
type AuditLogEntry struct {
	ID        string    `json:"id"`
	Seq       int64     `json:"seq"`
	Timestamp time.Time `json:"timestamp"`
	UserID    string    `json:"user_id,omitempty"`
	Actor     string    `json:"actor"`
	Action    string    `json:"action"`
	Resource  string    `json:"resource"`
	Status    string    `json:"status"`
	Details   string    `json:"details,omitempty"`
}
