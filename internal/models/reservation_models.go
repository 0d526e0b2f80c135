package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ReservationStatus is the lifecycle state of a reservation.
type ReservationStatus string

const (
	ReservationStatusPending    ReservationStatus = "PENDING"
	ReservationStatusConfirmed  ReservationStatus = "CONFIRMED"
	ReservationStatusCheckedIn  ReservationStatus = "CHECKED_IN"
	ReservationStatusCheckedOut ReservationStatus = "CHECKED_OUT"
	ReservationStatusCancelled  ReservationStatus = "CANCELLED"
)

// IsValidReservationStatus checks if the provided string is a known ReservationStatus.
// Any status may move to any other; there is no enforced transition graph.
func IsValidReservationStatus(status string) bool {
	switch ReservationStatus(status) {
	case ReservationStatusPending,
		ReservationStatusConfirmed,
		ReservationStatusCheckedIn,
		ReservationStatusCheckedOut,
		ReservationStatusCancelled:
		return true
	default:
		return false
	}
}

// Reservation books one accommodation unit for one client over [CheckIn, CheckOut).
type Reservation struct {
	ID                  int64               `json:"id"`
	AccommodationUnitID int64               `json:"accommodation_unit_id"`
	ClientID            int64               `json:"client_id"`
	CheckIn             time.Time           `json:"check_in"`
	CheckOut            time.Time           `json:"check_out"`
	GuestCountAdults    int                 `json:"guest_count_adults"`
	GuestCountChildren  int                 `json:"guest_count_children"`
	PetCount            int                 `json:"pet_count"`
	TotalPrice          decimal.NullDecimal `json:"total_price"`
	PriceBreakdown      PriceBreakdown      `json:"price_breakdown"`
	AmountPaid          decimal.Decimal     `json:"amount_paid"`
	PaymentHistory      PaymentHistory      `json:"payment_history"`
	Status              ReservationStatus   `json:"status"`
	Notes               *string             `json:"notes"`
	CreatedAt           time.Time           `json:"created_at"`
	UpdatedAt           time.Time           `json:"updated_at"`

	// Derived on read, never stored. See Refresh.
	AmountRemaining decimal.Decimal `json:"amount_remaining"`
	FullyPaid       bool            `json:"is_fully_paid"`

	Client            *Client            `json:"client,omitempty"`
	AccommodationUnit *AccommodationUnit `json:"accommodation_unit,omitempty"`
}

// Remaining is max(0, total_price - amount_paid), or 0 without a total price.
func (r *Reservation) Remaining() decimal.Decimal {
	if !r.TotalPrice.Valid {
		return decimal.Zero
	}
	remaining := r.TotalPrice.Decimal.Sub(r.AmountPaid)
	if remaining.IsNegative() {
		return decimal.Zero
	}
	return remaining
}

// IsFullyPaid reports amount_paid >= total_price for a positive total price.
func (r *Reservation) IsFullyPaid() bool {
	if !r.TotalPrice.Valid || !r.TotalPrice.Decimal.IsPositive() {
		return false
	}
	return r.AmountPaid.GreaterThanOrEqual(r.TotalPrice.Decimal)
}

// IsActive reports whether the reservation occupies its unit.
func (r *Reservation) IsActive() bool {
	return r.Status != ReservationStatusCancelled
}

// Refresh recomputes the derived JSON fields.
func (r *Reservation) Refresh() {
	r.AmountRemaining = r.Remaining()
	r.FullyPaid = r.IsFullyPaid()
}

// ReservationFilters defines the available filters for querying reservations.
type ReservationFilters struct {
	Status              *string
	AccommodationUnitID *int64
	ClientID            *int64
	CheckInStart        *time.Time
	CheckInEnd          *time.Time
	Page                int
	PageSize            int
}
