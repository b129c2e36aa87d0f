package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"shethrive-data/internal/audit"
	"shethrive-data/internal/cycle"
	"shethrive-data/internal/domain"
	"shethrive-data/internal/insight"
	"shethrive-data/internal/metrics"
	"shethrive-data/internal/repository"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// recentLogWindow symptom logs sent with each prompt.
const recentLogWindow = 7

// InsightService AI health insights persisted as encrypted reports.
type InsightService interface {
	Generate(ctx context.Context, userID string) (*domain.HealthReport, error)
	Reports(ctx context.Context, userID string) ([]domain.HealthReport, error)
}

// InsightDeps collaborators for NewInsightService. A nil Generator makes
// every Generate call fail with domain.ErrInsightUnavailable.
type InsightDeps struct {
	Profiles  repository.ProfileRepository
	Cycles    repository.CycleRepository
	Symptoms  repository.SymptomLogRepository
	Reports   repository.ReportRepository
	Generator insight.Generator
	Timeout   time.Duration
	// PerMinute and Burst bound requests per user.
	PerMinute float64
	Burst     int
	Metrics   *metrics.Metrics
	Logger    *zap.Logger
	Now       func() time.Time
}

type insightService struct {
	deps     InsightDeps
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

func NewInsightService(d InsightDeps) InsightService {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.Timeout <= 0 {
		d.Timeout = 30 * time.Second
	}
	if d.PerMinute <= 0 {
		d.PerMinute = 1
	}
	if d.Burst <= 0 {
		d.Burst = 1
	}
	return &insightService{deps: d, limiters: make(map[string]*rate.Limiter)}
}

func (s *insightService) limiter(userID string) *rate.Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.limiters[userID]
	if !ok {
		l = rate.NewLimiter(rate.Limit(s.deps.PerMinute/60), s.deps.Burst)
		s.limiters[userID] = l
	}
	return l
}

// Generate builds a prompt from the user's profile, cycle and recent logs and
// stores the model's answer. Nothing is stored when the model fails.
func (s *insightService) Generate(ctx context.Context, userID string) (*domain.HealthReport, error) {
	now := s.deps.Now()
	if !s.limiter(userID).AllowN(now, 1) {
		s.deps.Metrics.Insight("rate_limited")
		return nil, fmt.Errorf("insight for %s: %w", userID, domain.ErrRateLimited)
	}

	profile, err := s.deps.Profiles.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	rec, err := s.deps.Cycles.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	logs, err := s.deps.Symptoms.Recent(ctx, userID, recentLogWindow)
	if err != nil {
		return nil, err
	}
	status := cycle.Summarize(*rec, now)
	prompt := insight.BuildPrompt(insight.PromptInput{
		FirstName:   profile.FirstName,
		Age:         profile.Age(now),
		CycleLength: rec.CycleLength,
		StartDate:   rec.StartDate,
		Phase:       string(status.Phase),
		CycleDay:    status.Day,
		Logs:        logs,
	})

	if s.deps.Generator == nil {
		s.deps.Metrics.Insight("unavailable")
		return nil, fmt.Errorf("no insight provider configured: %w", domain.ErrInsightUnavailable)
	}
	genCtx, cancel := context.WithTimeout(ctx, s.deps.Timeout)
	defer cancel()
	text, err := s.deps.Generator.Generate(genCtx, prompt)
	if err != nil {
		result := "error"
		if errors.Is(err, context.DeadlineExceeded) {
			result = "timeout"
		}
		s.deps.Metrics.Insight(result)
		s.deps.Logger.Warn("Insight generation failed", zap.String("user_id", userID), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", domain.ErrInsightUnavailable, err)
	}

	report, err := s.deps.Reports.SaveAudited(ctx, userID, text, domain.ReportDailyInsight, domain.AuditLogEntry{
		UserID:   userID,
		Actor:    audit.ActorUser,
		Action:   domain.ActionGenerateInsight,
		Resource: "AI Insights",
		Status:   domain.AuditAllowed,
		Details:  "Generated daily insight",
	})
	if err != nil {
		s.deps.Metrics.Insight("error")
		return nil, err
	}
	s.deps.Metrics.Insight("generated")
	return report, nil
}

func (s *insightService) Reports(ctx context.Context, userID string) ([]domain.HealthReport, error) {
	return s.deps.Reports.List(ctx, userID)
}
