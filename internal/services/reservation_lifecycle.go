package services

import "lodge_backend/internal/models"

// TransitionEffects are the automatic consequences of one reservation write,
// derived by comparing the persisted record with the incoming one.
type TransitionEffects struct {
	// AutoConfirmed is set when the first payment moved a PENDING
	// reservation to CONFIRMED.
	AutoConfirmed bool
	// MarkUnitDirty is set when the write moves the reservation into CHECKED_OUT.
	MarkUnitDirty bool
	// Cancelled is set when the write moves the reservation into CANCELLED.
	Cancelled bool
}

// ApplyLifecycle applies the automatic status rules to next and reports the
// side effects the caller must carry out in the same unit of work. prev is
// nil on create. Any explicit status change is otherwise allowed.
func ApplyLifecycle(prev, next *models.Reservation) TransitionEffects {
	var effects TransitionEffects

	if prev != nil &&
		prev.Status == models.ReservationStatusPending &&
		next.Status == models.ReservationStatusPending &&
		prev.AmountPaid.IsZero() &&
		next.AmountPaid.IsPositive() {
		next.Status = models.ReservationStatusConfirmed
		effects.AutoConfirmed = true
	}

	if next.Status == models.ReservationStatusCheckedOut &&
		(prev == nil || prev.Status != models.ReservationStatusCheckedOut) {
		effects.MarkUnitDirty = true
	}

	if next.Status == models.ReservationStatusCancelled &&
		(prev == nil || prev.Status != models.ReservationStatusCancelled) {
		effects.Cancelled = true
	}

	return effects
}
