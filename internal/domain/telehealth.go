package domain

import "time"

// Money integer minor units (cents).
type Money struct {
	Amount   int64  `json:"amount" yaml:"amount"`
	Currency string `json:"currency" yaml:"currency"`
}

// Provider global directory entry.
type Provider struct {
	ID             string      `json:"id"`
	Name           string      `json:"name"`
	Specialty      string      `json:"specialty"`
	Bio            string      `json:"bio"`
	Rate           Money       `json:"rates"`
	ImageURL       string      `json:"image_url,omitempty"`
	AvailableSlots []time.Time `json:"available_slots"`
}

// OffersSlot reports whether slot is one of the listed slots.
func (p Provider) OffersSlot(slot time.Time) bool {
	for _, s := range p.AvailableSlots {
		if s.Equal(slot) {
			return true
		}
	}
	return false
}

const (
	AppointmentBooked    = "booked"
	AppointmentCompleted = "completed"
	AppointmentCancelled = "cancelled"
)

// AppointmentDuration slot length.
const AppointmentDuration = 30 * time.Minute

type Appointment struct {
	ID                     string    `json:"id"`
	UserID                 string    `json:"user_id"`
	ProviderID             string    `json:"provider_id"`
	StartTime              time.Time `json:"start_time"`
	EndTime                time.Time `json:"end_time"`
	Status                 string    `json:"status"`
	Fee                    int64     `json:"fee"`
	Currency               string    `json:"currency"`
	UserNotes              string    `json:"user_notes,omitempty"`
	VideoRoomID            string    `json:"video_room_id"`
	PaymentAuthorizationID string    `json:"payment_authorization_id,omitempty"`
	CreatedAt              time.Time `json:"created_at"`
}
