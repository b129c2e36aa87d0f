package repository

import (
	"context"
	"fmt"
	"sort"

	"shethrive-data/internal/domain"
	"shethrive-data/internal/store"
)

// AppointmentMutation applies a state change to a booked-or-later appointment.
// It reports whether the record changed and an optional audit entry to append
// in the same transaction.
type AppointmentMutation func(a *domain.Appointment) (changed bool, entry *domain.AuditLogEntry, err error)

type Appointments struct {
	env Env
}

func NewAppointments(env Env) *Appointments {
	return &Appointments{env: env}
}

// List ordered by start time.
func (r *Appointments) List(ctx context.Context, userID string) ([]domain.Appointment, error) {
	all, err := store.Load[domain.Appointment](ctx, r.env.Store, domain.AppointmentsKey)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Appointment, 0, len(all))
	for _, a := range all {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].StartTime.Before(out[j].StartTime) })
	return out, nil
}

func (r *Appointments) Get(ctx context.Context, userID, appointmentID string) (*domain.Appointment, error) {
	all, err := store.Load[domain.Appointment](ctx, r.env.Store, domain.AppointmentsKey)
	if err != nil {
		return nil, err
	}
	for _, a := range all {
		if a.ID == appointmentID && a.UserID == userID {
			return &a, nil
		}
	}
	return nil, fmt.Errorf("appointment %s: %w", appointmentID, domain.ErrNotFound)
}

// Create inserts appt and entry in one transaction, failing with
// domain.ErrSlotTaken when a booked appointment holds the same provider slot.
func (r *Appointments) Create(ctx context.Context, appt domain.Appointment, entry domain.AuditLogEntry) (*domain.Appointment, error) {
	err := r.env.updateWithAudit(ctx, []string{domain.AppointmentsKey}, func(tx *store.Tx, appendAudit func(domain.AuditLogEntry) error) error {
		all, err := store.Read[domain.Appointment](tx, domain.AppointmentsKey)
		if err != nil {
			return err
		}
		for _, a := range all {
			if a.Status == domain.AppointmentBooked && a.ProviderID == appt.ProviderID && a.StartTime.Equal(appt.StartTime) {
				return domain.ErrSlotTaken
			}
		}
		if err := store.Write(tx, domain.AppointmentsKey, append(all, appt)); err != nil {
			return err
		}
		return appendAudit(entry)
	})
	if err != nil {
		return nil, fmt.Errorf("create appointment: %w", err)
	}
	return &appt, nil
}

// Modify runs fn against the user's appointment inside one transaction.
func (r *Appointments) Modify(ctx context.Context, userID, appointmentID string, fn AppointmentMutation) (*domain.Appointment, error) {
	var out domain.Appointment
	err := r.env.updateWithAudit(ctx, []string{domain.AppointmentsKey}, func(tx *store.Tx, appendAudit func(domain.AuditLogEntry) error) error {
		all, err := store.Read[domain.Appointment](tx, domain.AppointmentsKey)
		if err != nil {
			return err
		}
		i := indexOf(all, func(a domain.Appointment) bool { return a.ID == appointmentID && a.UserID == userID })
		if i < 0 {
			return domain.ErrNotFound
		}
		changed, entry, err := fn(&all[i])
		if err != nil {
			return err
		}
		out = all[i]
		if changed {
			if err := store.Write(tx, domain.AppointmentsKey, all); err != nil {
				return err
			}
		}
		if entry != nil {
			return appendAudit(*entry)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("modify appointment %s: %w", appointmentID, err)
	}
	return &out, nil
}
