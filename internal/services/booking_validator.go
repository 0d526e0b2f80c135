package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"lodge_backend/internal/models"
	"lodge_backend/internal/repositories"
)

// --- Custom Service Errors for reservation validation ---
var (
	ErrReservationValidation  = errors.New("reservation data validation error")
	ErrReservationConflict    = errors.New("accommodation unit is already booked for this period")
	ErrInvalidReservationTime = errors.New("check-out must be after check-in")
)

// displayLayout is how stay boundaries are rendered in messages.
const displayLayout = "02/01/06 15:04"

// ConflictError lists the reservations that a write would overlap.
type ConflictError struct {
	Conflicts []models.Reservation
	loc       *time.Location
}

func (e *ConflictError) Error() string {
	parts := make([]string, 0, len(e.Conflicts))
	for _, c := range e.Conflicts {
		parts = append(parts, fmt.Sprintf("%s (%s to %s)",
			clientName(&c), formatStay(c.CheckIn, e.loc), formatStay(c.CheckOut, e.loc)))
	}
	return fmt.Sprintf("Accommodation unit already booked in this period by: %s", strings.Join(parts, "; "))
}

func (e *ConflictError) Unwrap() error {
	return ErrReservationConflict
}

func clientName(r *models.Reservation) string {
	if r.Client != nil && r.Client.FullName != "" {
		return r.Client.FullName
	}
	return fmt.Sprintf("client #%d", r.ClientID)
}

func formatStay(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format(displayLayout)
}

// Overlaps is the half-open interval test [aIn, aOut) ∩ [bIn, bOut) ≠ ∅.
// Touching endpoints do not overlap, so back-to-back stays are allowed.
// The SQL in the reservation repository encodes the same predicate.
func Overlaps(aIn, aOut, bIn, bOut time.Time) bool {
	return aIn.Before(bOut) && aOut.After(bIn)
}

// BookingValidator enforces the no-overlap invariant for reservation writes.
// It must run inside the transaction that performs the write, after the
// unit row has been locked.
type BookingValidator struct {
	reservationRepo repositories.ReservationRepository
	turnaround      time.Duration
	loc             *time.Location
}

// NewBookingValidator creates a validator. turnaround is the gap below which
// adjacent stays produce a warning; zero disables the warning.
func NewBookingValidator(repo repositories.ReservationRepository, turnaround time.Duration, loc *time.Location) *BookingValidator {
	if loc == nil {
		loc = time.UTC
	}
	return &BookingValidator{reservationRepo: repo, turnaround: turnaround, loc: loc}
}

// CheckOverlap returns the non-cancelled reservations of unitID that
// intersect [checkIn, checkOut), ignoring excludeID.
func (v *BookingValidator) CheckOverlap(ctx context.Context, ex repositories.SQLExecutor, unitID int64, checkIn, checkOut time.Time, excludeID *int64) ([]models.Reservation, error) {
	conflicts, err := v.reservationRepo.FindOverlapping(ctx, ex, unitID, checkIn, checkOut, excludeID)
	if err != nil {
		return nil, fmt.Errorf("failed to check reservation overlap: %w", err)
	}
	return conflicts, nil
}

// Validate checks the fully merged candidate record. Cancelled reservations
// do not occupy their unit and skip the overlap check.
func (v *BookingValidator) Validate(ctx context.Context, ex repositories.SQLExecutor, candidate *models.Reservation) error {
	if !candidate.CheckOut.After(candidate.CheckIn) {
		return newValidationError(ErrInvalidReservationTime, "check_out", "check-out must be after check-in")
	}
	if candidate.GuestCountAdults < 0 || candidate.GuestCountChildren < 0 || candidate.PetCount < 0 {
		return newValidationError(ErrReservationValidation, "guest_count_adults", "guest counts cannot be negative")
	}
	if candidate.TotalPrice.Valid && candidate.TotalPrice.Decimal.IsNegative() {
		return newValidationError(ErrReservationValidation, "total_price", "total price cannot be negative")
	}
	if candidate.AmountPaid.IsNegative() {
		return newValidationError(ErrReservationValidation, "amount_paid", "amount paid cannot be negative")
	}
	if !candidate.IsActive() {
		return nil
	}

	var excludeID *int64
	if candidate.ID != 0 {
		excludeID = &candidate.ID
	}
	conflicts, err := v.CheckOverlap(ctx, ex, candidate.AccommodationUnitID, candidate.CheckIn, candidate.CheckOut, excludeID)
	if err != nil {
		return err
	}
	if len(conflicts) > 0 {
		return &ConflictError{Conflicts: conflicts, loc: v.loc}
	}
	return nil
}

// TurnaroundWarning describes adjacent stays on the same unit that leave
// less than the configured gap for cleaning. It never blocks the write.
func (v *BookingValidator) TurnaroundWarning(ctx context.Context, ex repositories.SQLExecutor, candidate *models.Reservation) (string, error) {
	if v.turnaround <= 0 || !candidate.IsActive() {
		return "", nil
	}
	var excludeID *int64
	if candidate.ID != 0 {
		excludeID = &candidate.ID
	}
	nearby, err := v.reservationRepo.FindNearby(ctx, ex, candidate.AccommodationUnitID, candidate.CheckIn, candidate.CheckOut, v.turnaround, excludeID)
	if err != nil {
		return "", fmt.Errorf("failed to check turnaround: %w", err)
	}

	var notes []string
	for i := range nearby {
		other := &nearby[i]
		if !other.CheckOut.After(candidate.CheckIn) {
			gap := candidate.CheckIn.Sub(other.CheckOut)
			notes = append(notes, fmt.Sprintf("only %s between the check-out of %s (%s) and this check-in",
				formatGap(gap), clientName(other), formatStay(other.CheckOut, v.loc)))
		} else if !other.CheckIn.Before(candidate.CheckOut) {
			gap := other.CheckIn.Sub(candidate.CheckOut)
			notes = append(notes, fmt.Sprintf("only %s between this check-out and the check-in of %s (%s)",
				formatGap(gap), clientName(other), formatStay(other.CheckIn, v.loc)))
		}
	}
	if len(notes) == 0 {
		return "", nil
	}
	return "Tight turnaround: " + strings.Join(notes, "; "), nil
}

func formatGap(d time.Duration) string {
	d = d.Round(time.Minute)
	hours := int(d / time.Hour)
	minutes := int((d % time.Hour) / time.Minute)
	switch {
	case hours == 0:
		return fmt.Sprintf("%dmin", minutes)
	case minutes == 0:
		return fmt.Sprintf("%dh", hours)
	default:
		return fmt.Sprintf("%dh%02dmin", hours, minutes)
	}
}
