// Package app wires configuration into a ready-to-use set of repositories and
// services.
package app

import (
	"context"
	"encoding/base64"
	"fmt"
	"time"

	commondb "shethrive-data/internal/common/database"
	commonmqtt "shethrive-data/internal/common/mqtt"
	commonredis "shethrive-data/internal/common/redis"

	"shethrive-data/internal/audit"
	"shethrive-data/internal/auth"
	"shethrive-data/internal/cipher"
	"shethrive-data/internal/config"
	"shethrive-data/internal/insight"
	"shethrive-data/internal/metrics"
	"shethrive-data/internal/repository"
	"shethrive-data/internal/service"
	"shethrive-data/internal/store"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

const redisKeyPrefix = "shethrive:"

// Repositories every repository over the shared store.
type Repositories struct {
	Profiles      *repository.Profiles
	Cycles        *repository.Cycles
	SymptomLogs   *repository.SymptomLogs
	Journals      *repository.Journals
	Goals         *repository.Goals
	Reminders     *repository.Reminders
	Content       *repository.Content
	Integrations  *repository.Integrations
	Reports       *repository.Reports
	Providers     *repository.Providers
	Plans         *repository.Plans
	Appointments  *repository.Appointments
	Subscriptions *repository.Subscriptions
	Payments      *repository.Payments
}

type Services struct {
	Auth    service.AuthService
	Booking service.BookingService
	Billing service.BillingService
	Insight service.InsightService
	Export  service.ExportService
}

// App is closed with Close.
type App struct {
	Config   *config.Config
	Logger   *zap.Logger
	Registry *prometheus.Registry
	Metrics  *metrics.Metrics
	Store    *store.Store
	Cipher   cipher.Cipher
	Audit    *audit.Trail
	Issuer   *auth.Issuer
	Gateway  service.PaymentGateway
	Repos    Repositories
	Services Services
	Now      func() time.Time

	closers []func() error
}

// Option adjusts an App before the services are built.
type Option func(*options)

type options struct {
	now       func() time.Time
	gateway   service.PaymentGateway
	generator insight.Generator
}

// WithClock overrides time.Now for every component.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithGateway replaces the simulated payment gateway.
func WithGateway(g service.PaymentGateway) Option {
	return func(o *options) { o.gateway = g }
}

// WithGenerator replaces the configured insight provider.
func WithGenerator(g insight.Generator) Option {
	return func(o *options) { o.generator = g }
}

// New opens the configured backend and sinks. On error everything opened so
// far is closed.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger, opts ...Option) (a *App, err error) {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	reg := prometheus.NewRegistry()
	a = &App{
		Config:   cfg,
		Logger:   logger,
		Registry: reg,
		Metrics:  metrics.New(reg),
		Now:      o.now,
	}
	defer func() {
		if err != nil {
			_ = a.Close()
			a = nil
		}
	}()

	backend, err := a.openBackend(ctx)
	if err != nil {
		return nil, err
	}
	a.Store = store.New(backend, logger.Named("store"), a.Metrics)

	if a.Cipher, err = newCipher(cfg, a.Metrics, logger); err != nil {
		return nil, err
	}

	sinks, err := a.openSinks(ctx)
	if err != nil {
		return nil, err
	}
	a.Audit = audit.NewTrail(a.Store, logger.Named("audit"), a.Metrics, sinks...)
	a.Audit.SetClock(o.now)

	a.Issuer, err = auth.NewIssuer(auth.Config{
		SigningKey: cfg.Auth.SigningKey,
		Issuer:     cfg.Auth.Issuer,
		AccessTTL:  cfg.Auth.AccessTTL,
		RefreshTTL: cfg.Auth.RefreshTTL,
		RoomTTL:    cfg.Auth.RoomTTL,
		Now:        o.now,
	})
	if err != nil {
		return nil, fmt.Errorf("auth issuer: %w", err)
	}

	catalog, err := repository.LoadCatalog()
	if err != nil {
		return nil, err
	}
	env := repository.Env{Store: a.Store, Cipher: a.Cipher, Audit: a.Audit, Logger: logger.Named("repository"), Now: o.now}
	a.Repos = Repositories{
		Profiles:      repository.NewProfiles(env),
		Cycles:        repository.NewCycles(env),
		SymptomLogs:   repository.NewSymptomLogs(env),
		Journals:      repository.NewJournals(env),
		Goals:         repository.NewGoals(env),
		Reminders:     repository.NewReminders(env),
		Content:       repository.NewContent(env, catalog),
		Integrations:  repository.NewIntegrations(env),
		Reports:       repository.NewReports(env),
		Providers:     repository.NewProviders(env, catalog),
		Plans:         repository.NewPlans(env, catalog),
		Appointments:  repository.NewAppointments(env),
		Subscriptions: repository.NewSubscriptions(env),
		Payments:      repository.NewPayments(env),
	}

	a.Gateway = o.gateway
	if a.Gateway == nil {
		a.Gateway = service.NewSimulatedGateway(cfg.Payments.Latency)
	}
	generator := o.generator
	if generator == nil {
		generator = newGenerator(cfg, logger)
	}
	a.Services = a.buildServices(generator, o.now)
	return a, nil
}

func (a *App) openBackend(ctx context.Context) (store.Backend, error) {
	cfg := a.Config
	switch cfg.Store.Backend {
	case "memory", "":
		return a.track(store.NewMemoryBackend()), nil

	case "redis":
		client := commonredis.NewRedisClient(&cfg.Redis)
		if err := commonredis.Ping(ctx, client); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("failed to connect to redis %s: %w", cfg.Redis.Addr, err)
		}
		b := store.NewRedisBackend(client, redisKeyPrefix)
		b.OnRetry(func() { a.Metrics.StoreRetry(b.Name()) })
		return a.track(b), nil

	case "postgres":
		db, err := commondb.NewPostgresDB(ctx, &cfg.Database)
		if err != nil {
			return nil, err
		}
		b := store.NewPostgresBackend(db)
		a.track(b)
		if err := b.Migrate(ctx); err != nil {
			return nil, fmt.Errorf("failed to migrate entity store: %w", err)
		}
		return b, nil

	case "badger":
		db, err := store.OpenBadger(store.BadgerConfig{Path: cfg.Store.BadgerPath, SyncWrites: true, Logger: a.Logger})
		if err != nil {
			return nil, err
		}
		b := store.NewBadgerBackend(db)
		b.OnRetry(func() { a.Metrics.StoreRetry(b.Name()) })
		return a.track(b), nil
	}
	return nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
}

func (a *App) track(b store.Backend) store.Backend {
	a.closers = append(a.closers, b.Close)
	return b
}

func (a *App) openSinks(ctx context.Context) ([]audit.Sink, error) {
	cfg := a.Config
	var sinks []audit.Sink
	if cfg.Audit.MQTTEnabled {
		client, err := commonmqtt.NewClient(&cfg.MQTT)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, func() error { client.Disconnect(); return nil })
		sinks = append(sinks, audit.NewMQTTSink(client, cfg.Audit.MQTTTopic, cfg.MQTT.QoS))
	}
	if cfg.Audit.StreamEnabled {
		client := commonredis.NewRedisClient(&cfg.Redis)
		if err := commonredis.Ping(ctx, client); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("failed to connect to audit stream redis: %w", err)
		}
		a.closers = append(a.closers, client.Close)
		sinks = append(sinks, audit.NewStreamSink(client, cfg.Audit.StreamName, cfg.Audit.StreamMaxLen))
	}
	return sinks, nil
}

func newCipher(cfg *config.Config, m *metrics.Metrics, logger *zap.Logger) (cipher.Cipher, error) {
	if cfg.Cipher.Mode == "salt" {
		logger.Warn("Using legacy salt cipher; content is obfuscated, not encrypted")
		return cipher.SaltCipher{Metrics: m}, nil
	}
	if cfg.Cipher.MasterKey == "" {
		logger.Warn("CIPHER_MASTER_KEY not set; using an ephemeral key, encrypted content will not survive a restart")
		return cipher.NewRandomAEADCipher(m)
	}
	key, err := base64.StdEncoding.DecodeString(cfg.Cipher.MasterKey)
	if err != nil {
		return nil, fmt.Errorf("decode CIPHER_MASTER_KEY: %w", err)
	}
	return cipher.NewAEADCipher(key, m)
}

func newGenerator(cfg *config.Config, logger *zap.Logger) insight.Generator {
	switch cfg.Insight.Provider {
	case "gemini":
		return insight.NewGeminiClient(insight.GeminiConfig{
			BaseURL:    cfg.Insight.GeminiBaseURL,
			APIKey:     cfg.Insight.GeminiAPIKey,
			Model:      cfg.Insight.GeminiModel,
			Timeout:    cfg.Insight.Timeout,
			RetryCount: 2,
		}, logger.Named("gemini"))
	case "openai":
		return insight.NewOpenAIClient(insight.OpenAIConfig{
			APIKey: cfg.Insight.OpenAIAPIKey,
			Model:  cfg.Insight.OpenAIModel,
		}, logger.Named("openai"))
	}
	return nil
}

func (a *App) buildServices(generator insight.Generator, now func() time.Time) Services {
	cfg := a.Config
	r := a.Repos
	policy := service.PaymentPolicy{Timeout: cfg.Payments.AuthorizeTimeout, MaxAttempts: cfg.Payments.MaxAttempts}
	return Services{
		Auth: service.NewAuthService(r.Profiles, a.Issuer, a.Logger.Named("auth")),
		Booking: service.NewBookingService(service.BookingDeps{
			Providers:    r.Providers,
			Appointments: r.Appointments,
			Gateway:      a.Gateway,
			Policy:       policy,
			Issuer:       a.Issuer,
			Metrics:      a.Metrics,
			Logger:       a.Logger.Named("booking"),
			Now:          now,
		}),
		Billing: service.NewBillingService(service.BillingDeps{
			Plans:         r.Plans,
			Subscriptions: r.Subscriptions,
			Payments:      r.Payments,
			Gateway:       a.Gateway,
			Policy:        policy,
			Metrics:       a.Metrics,
			Logger:        a.Logger.Named("billing"),
			Now:           now,
		}),
		Insight: service.NewInsightService(service.InsightDeps{
			Profiles:  r.Profiles,
			Cycles:    r.Cycles,
			Symptoms:  r.SymptomLogs,
			Reports:   r.Reports,
			Generator: generator,
			Timeout:   cfg.Insight.Timeout,
			PerMinute: cfg.Insight.PerMinute,
			Burst:     cfg.Insight.Burst,
			Metrics:   a.Metrics,
			Logger:    a.Logger.Named("insight"),
			Now:       now,
		}),
		Export: service.NewExportService(service.ExportDeps{
			Profiles:     r.Profiles,
			Cycles:       r.Cycles,
			Symptoms:     r.SymptomLogs,
			Journals:     r.Journals,
			Goals:        r.Goals,
			Reminders:    r.Reminders,
			Appointments: r.Appointments,
			Payments:     r.Payments,
			Audit:        a.Audit,
			Logger:       a.Logger.Named("export"),
		}),
	}
}

// Seed writes the demo user and the global catalogues.
func (a *App) Seed(ctx context.Context) error {
	if err := a.Repos.Profiles.EnsureDemoUser(ctx); err != nil {
		return fmt.Errorf("seed demo user: %w", err)
	}
	if _, err := a.Repos.Providers.List(ctx); err != nil {
		return fmt.Errorf("seed providers: %w", err)
	}
	if _, err := a.Repos.Plans.List(ctx); err != nil {
		return fmt.Errorf("seed plans: %w", err)
	}
	if _, err := a.Repos.Content.Articles(ctx); err != nil {
		return fmt.Errorf("seed articles: %w", err)
	}
	return nil
}

// Close releases backends and sinks in reverse order of opening.
func (a *App) Close() error {
	var first error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil && first == nil {
			first = err
		}
	}
	a.closers = nil
	return first
}
