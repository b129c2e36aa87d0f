package domain

// Collection keys. Renaming one orphans its data; bump the version suffix on schema changes.
const (
	UsersKey           = "shethrive_users_v3"
	PrivacyKey         = "shethrive_privacy_v3"
	CycleKey           = "shethrive_cycle_data_v3"
	SymptomLogsKey     = "shethrive_symptom_logs_v3"
	JournalKey         = "shethrive_journal_v3"
	GoalsKey           = "shethrive_goals_v3"
	RemindersKey       = "shethrive_reminders_v3"
	ProvidersKey       = "shethrive_providers_v3"
	AppointmentsKey    = "shethrive_appointments_v3"
	IntegrationsKey    = "shethrive_integrations_v3"
	GenomicUploadsKey  = "shethrive_genomic_uploads_v3"
	ArticlesKey        = "shethrive_articles_v3"
	ContentProgressKey = "shethrive_content_progress_v3"
	HealthReportsKey   = "shethrive_health_reports_v3"
	PlansKey           = "shethrive_plans_v3"
	SubscriptionsKey   = "shethrive_subscriptions_v3"
	PaymentsKey        = "shethrive_payments_v3"
	AuditKey           = "shethrive_audit_logs_v3"
)
