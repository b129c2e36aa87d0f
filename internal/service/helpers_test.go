package service

import (
	"bytes"
	"context"
	"testing"
	"time"

	"shethrive-data/internal/audit"
	"shethrive-data/internal/auth"
	"shethrive-data/internal/cipher"
	"shethrive-data/internal/domain"
	"shethrive-data/internal/repository"
	"shethrive-data/internal/store"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

var testNow = time.Date(2026, 3, 10, 9, 30, 0, 0, time.UTC)

func init() {
	repository.BcryptCost = bcrypt.MinCost
}

type harness struct {
	env      repository.Env
	clock    *time.Time
	catalog  *repository.Catalog
	gateway  *SimulatedGateway
	issuer   *auth.Issuer
	profiles *repository.Profiles
	cycles   *repository.Cycles
	symptoms *repository.SymptomLogs
	journals *repository.Journals
	goals    *repository.Goals
	remind   *repository.Reminders
	reports  *repository.Reports
	appts    *repository.Appointments
	subs     *repository.Subscriptions
	payments *repository.Payments
	provs    *repository.Providers
	plans    *repository.Plans
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	catalog, err := repository.LoadCatalog()
	require.NoError(t, err)
	return newHarnessWithCatalog(t, catalog)
}

func newHarnessWithCatalog(t *testing.T, catalog *repository.Catalog) *harness {
	t.Helper()
	s := store.New(store.NewMemoryBackend(), zap.NewNop(), nil)
	c, err := cipher.NewAEADCipher(bytes.Repeat([]byte{0x42}, cipher.MinMasterKeySize), nil)
	require.NoError(t, err)

	h := &harness{catalog: catalog, gateway: NewSimulatedGateway(0)}
	clock := testNow
	h.clock = &clock
	now := func() time.Time { return *h.clock }

	trail := audit.NewTrail(s, zap.NewNop(), nil)
	trail.SetClock(now)
	h.env = repository.Env{Store: s, Cipher: c, Audit: trail, Logger: zap.NewNop(), Now: now}

	h.issuer, err = auth.NewIssuer(auth.Config{
		SigningKey: "test-signing-key",
		Issuer:     "shethrive-test",
		AccessTTL:  15 * time.Minute,
		RefreshTTL: 30 * 24 * time.Hour,
		RoomTTL:    time.Hour,
		Now:        now,
	})
	require.NoError(t, err)

	h.profiles = repository.NewProfiles(h.env)
	h.cycles = repository.NewCycles(h.env)
	h.symptoms = repository.NewSymptomLogs(h.env)
	h.journals = repository.NewJournals(h.env)
	h.goals = repository.NewGoals(h.env)
	h.remind = repository.NewReminders(h.env)
	h.reports = repository.NewReports(h.env)
	h.appts = repository.NewAppointments(h.env)
	h.subs = repository.NewSubscriptions(h.env)
	h.payments = repository.NewPayments(h.env)
	h.provs = repository.NewProviders(h.env, catalog)
	h.plans = repository.NewPlans(h.env, catalog)
	return h
}

func (h *harness) now() time.Time { return *h.clock }

func (h *harness) advance(d time.Duration) { *h.clock = h.clock.Add(d) }

var fastPayments = PaymentPolicy{Timeout: time.Second, MaxAttempts: 3, InitialInterval: time.Millisecond}

func (h *harness) booking() BookingService {
	return NewBookingService(BookingDeps{
		Providers:    h.provs,
		Appointments: h.appts,
		Gateway:      h.gateway,
		Policy:       fastPayments,
		Issuer:       h.issuer,
		Now:          h.now,
	})
}

func (h *harness) billing() BillingService {
	return NewBillingService(BillingDeps{
		Plans:         h.plans,
		Subscriptions: h.subs,
		Payments:      h.payments,
		Gateway:       h.gateway,
		Policy:        fastPayments,
		Now:           h.now,
	})
}

func (h *harness) auditEntries(t *testing.T, userID string) []domain.AuditLogEntry {
	t.Helper()
	entries, err := h.env.Audit.ListForUser(context.Background(), userID)
	require.NoError(t, err)
	return entries
}

func (h *harness) auditActions(t *testing.T, userID string) []string {
	t.Helper()
	var out []string
	for _, e := range h.auditEntries(t, userID) {
		out = append(out, e.Action)
	}
	return out
}
