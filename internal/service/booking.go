package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"shethrive-data/internal/audit"
	"shethrive-data/internal/auth"
	"shethrive-data/internal/domain"
	"shethrive-data/internal/metrics"
	"shethrive-data/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const resourceTelehealth = "Telehealth"

// BookingService telehealth appointments: booked -> completed | cancelled.
type BookingService interface {
	Providers(ctx context.Context) ([]domain.Provider, error)
	Book(ctx context.Context, req BookRequest) (*domain.Appointment, error)
	Cancel(ctx context.Context, userID, appointmentID string) (*domain.Appointment, error)
	Complete(ctx context.Context, userID, appointmentID string) (*domain.Appointment, error)
	JoinCall(ctx context.Context, userID, appointmentID string) (*JoinCallResponse, error)
	List(ctx context.Context, userID string) ([]domain.Appointment, error)
}

// BookRequest Slot must be one of the provider's listed slots.
type BookRequest struct {
	UserID     string
	ProviderID string
	Slot       time.Time
	Notes      string
}

// JoinCallResponse credential for the appointment's video room.
type JoinCallResponse struct {
	AppointmentID string `json:"appointment_id"`
	RoomID        string `json:"room_id"`
	Token         string `json:"token"`
}

type bookingService struct {
	providers    repository.ProviderRepository
	appointments repository.AppointmentRepository
	payments     *authorizer
	issuer       *auth.Issuer
	metrics      *metrics.Metrics
	logger       *zap.Logger
	now          func() time.Time
}

// BookingDeps collaborators for NewBookingService.
type BookingDeps struct {
	Providers    repository.ProviderRepository
	Appointments repository.AppointmentRepository
	Gateway      PaymentGateway
	Policy       PaymentPolicy
	Issuer       *auth.Issuer
	Metrics      *metrics.Metrics
	Logger       *zap.Logger
	Now          func() time.Time
}

func NewBookingService(d BookingDeps) BookingService {
	logger := d.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	now := d.Now
	if now == nil {
		now = time.Now
	}
	return &bookingService{
		providers:    d.Providers,
		appointments: d.Appointments,
		payments:     &authorizer{gateway: d.Gateway, policy: d.Policy.withDefaults(), metrics: d.Metrics, logger: logger},
		issuer:       d.Issuer,
		metrics:      d.Metrics,
		logger:       logger,
		now:          now,
	}
}

func (s *bookingService) Providers(ctx context.Context) ([]domain.Provider, error) {
	return s.providers.List(ctx)
}

// Book validates the slot, authorizes the provider fee and stores the
// appointment with its audit entry. The authorization is voided when the
// store rejects the booking.
func (s *bookingService) Book(ctx context.Context, req BookRequest) (*domain.Appointment, error) {
	if req.UserID == "" {
		return nil, fmt.Errorf("%w: user_id is required", domain.ErrValidation)
	}
	provider, err := s.providers.Get(ctx, req.ProviderID)
	if err != nil {
		s.metrics.Booking("provider_not_found")
		return nil, err
	}
	if !provider.OffersSlot(req.Slot) {
		s.metrics.Booking("slot_unavailable")
		return nil, fmt.Errorf("provider %s at %s: %w", provider.ID, req.Slot.Format(time.RFC3339), domain.ErrSlotUnavailable)
	}

	authID, err := s.payments.authorize(ctx, AuthorizationRequest{
		UserID:      req.UserID,
		Amount:      provider.Rate,
		Description: "Telehealth visit with " + provider.Name,
	})
	if err != nil {
		s.metrics.Booking("payment_failed")
		return nil, err
	}

	start := req.Slot.UTC()
	appt := domain.Appointment{
		ID:                     uuid.New().String(),
		UserID:                 req.UserID,
		ProviderID:             provider.ID,
		StartTime:              start,
		EndTime:                start.Add(domain.AppointmentDuration),
		Status:                 domain.AppointmentBooked,
		Fee:                    provider.Rate.Amount,
		Currency:               provider.Rate.Currency,
		UserNotes:              req.Notes,
		VideoRoomID:            "room_" + uuid.New().String(),
		PaymentAuthorizationID: authID,
		CreatedAt:              s.now().UTC(),
	}
	out, err := s.appointments.Create(ctx, appt, domain.AuditLogEntry{
		UserID:   req.UserID,
		Actor:    audit.ActorUser,
		Action:   domain.ActionBookAppointment,
		Resource: resourceTelehealth,
		Status:   domain.AuditAllowed,
		Details:  "Booked appt with " + provider.Name,
	})
	if err != nil {
		s.payments.void(context.WithoutCancel(ctx), authID)
		if errors.Is(err, domain.ErrSlotTaken) {
			s.metrics.Booking("slot_taken")
		} else {
			s.metrics.Booking("error")
		}
		return nil, err
	}

	s.metrics.Booking("booked")
	s.logger.Info("Appointment booked",
		zap.String("user_id", req.UserID),
		zap.String("appointment_id", out.ID),
		zap.String("provider_id", provider.ID),
	)
	return out, nil
}

// Cancel is idempotent on cancelled appointments and appends exactly one
// audit entry for the booked -> cancelled transition.
func (s *bookingService) Cancel(ctx context.Context, userID, appointmentID string) (*domain.Appointment, error) {
	return s.appointments.Modify(ctx, userID, appointmentID, func(a *domain.Appointment) (bool, *domain.AuditLogEntry, error) {
		switch a.Status {
		case domain.AppointmentCancelled:
			return false, nil, nil
		case domain.AppointmentCompleted:
			return false, nil, fmt.Errorf("cancel completed appointment: %w", domain.ErrInvalidTransition)
		}
		a.Status = domain.AppointmentCancelled
		return true, &domain.AuditLogEntry{
			UserID:   userID,
			Actor:    audit.ActorUser,
			Action:   domain.ActionCancelAppointment,
			Resource: resourceTelehealth,
			Status:   domain.AuditAllowed,
			Details:  "Cancelled appt " + a.ID,
		}, nil
	})
}

// Complete is idempotent on completed appointments.
func (s *bookingService) Complete(ctx context.Context, userID, appointmentID string) (*domain.Appointment, error) {
	return s.appointments.Modify(ctx, userID, appointmentID, func(a *domain.Appointment) (bool, *domain.AuditLogEntry, error) {
		switch a.Status {
		case domain.AppointmentCompleted:
			return false, nil, nil
		case domain.AppointmentCancelled:
			return false, nil, fmt.Errorf("complete cancelled appointment: %w", domain.ErrInvalidTransition)
		}
		a.Status = domain.AppointmentCompleted
		return true, nil, nil
	})
}

// JoinCall issues a room credential. The appointment is left unchanged and no
// time window is enforced.
func (s *bookingService) JoinCall(ctx context.Context, userID, appointmentID string) (*JoinCallResponse, error) {
	appt, err := s.appointments.Get(ctx, userID, appointmentID)
	if err != nil {
		return nil, err
	}
	if appt.Status == domain.AppointmentCancelled {
		return nil, fmt.Errorf("join cancelled appointment: %w", domain.ErrInvalidTransition)
	}
	token, err := s.issuer.RoomCredential(userID, appt.ID, appt.VideoRoomID)
	if err != nil {
		return nil, fmt.Errorf("issue room credential: %w", err)
	}
	return &JoinCallResponse{AppointmentID: appt.ID, RoomID: appt.VideoRoomID, Token: token}, nil
}

func (s *bookingService) List(ctx context.Context, userID string) ([]domain.Appointment, error) {
	return s.appointments.List(ctx, userID)
}
