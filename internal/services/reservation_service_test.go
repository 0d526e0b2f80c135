package services

import (
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"lodge_backend/internal/models"
)

func TestCreateReservationRejectsOverlap(t *testing.T) {
	f := newFixture(t)
	unit := f.unit("Chalé Araucária")
	ana, bruno := f.client("Ana Souza"), f.client("Bruno Lima")

	first := f.mustBook(unit.ID, ana.ID, "2025-06-01T14:00:00", "2025-06-04T12:00:00", withStatus(models.ReservationStatusConfirmed))

	_, err := f.book(unit.ID, bruno.ID, "2025-06-03T10:00:00", "2025-06-05T12:00:00")
	if !errors.Is(err, ErrReservationConflict) {
		t.Fatalf("expected ErrReservationConflict, got %v", err)
	}
	var conflict *ConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("expected *ConflictError, got %T", err)
	}
	if len(conflict.Conflicts) != 1 || conflict.Conflicts[0].ID != first.ID {
		t.Fatalf("expected conflict with reservation %d, got %+v", first.ID, conflict.Conflicts)
	}
	msg := conflict.Error()
	for _, want := range []string{"Ana Souza", "01/06/25 14:00", "04/06/25 12:00"} {
		if !strings.Contains(msg, want) {
			t.Errorf("conflict message %q does not mention %q", msg, want)
		}
	}

	list, total, err := f.reservations.GetReservations(f.ctx, models.ReservationFilters{AccommodationUnitID: &unit.ID})
	if err != nil {
		t.Fatalf("list reservations: %v", err)
	}
	if total != 1 || len(list) != 1 {
		t.Fatalf("rejected write must not persist, got %d reservations", total)
	}
}

func TestCreateReservationAcceptsBackToBack(t *testing.T) {
	f := newFixture(t)
	unit := f.unit("Suíte Ipê")
	ana, bruno := f.client("Ana Souza"), f.client("Bruno Lima")

	f.mustBook(unit.ID, ana.ID, "2025-06-01T14:00:00", "2025-06-04T12:00:00", withStatus(models.ReservationStatusConfirmed))

	res, err := f.book(unit.ID, bruno.ID, "2025-06-04T12:00:00", "2025-06-06T12:00:00")
	if err != nil {
		t.Fatalf("back-to-back stay should be accepted: %v", err)
	}
	if res.Status != models.ReservationStatusPending {
		t.Errorf("expected PENDING, got %s", res.Status)
	}
	if !strings.HasPrefix(res.Warning, "Tight turnaround") {
		t.Errorf("expected a turnaround warning for a zero gap, got %q", res.Warning)
	}
	if res.Client == nil || res.Client.FullName != "Bruno Lima" {
		t.Errorf("expected embedded client, got %+v", res.Client)
	}
	if res.AccommodationUnit == nil || res.AccommodationUnit.ID != unit.ID {
		t.Errorf("expected embedded unit, got %+v", res.AccommodationUnit)
	}
}

func TestOverlapBoundaries(t *testing.T) {
	f := newFixture(t)
	unit := f.unit("Chalé Boundary")
	ana, bruno := f.client("Ana"), f.client("Bruno")
	f.mustBook(unit.ID, ana.ID, "2025-06-10T14:00:00", "2025-06-14T12:00:00")

	tests := []struct {
		name     string
		in, out  string
		conflict bool
	}{
		{"ends exactly at existing check-in", "2025-06-08T14:00:00", "2025-06-10T14:00:00", false},
		{"starts exactly at existing check-out", "2025-06-14T12:00:00", "2025-06-15T12:00:00", false},
		{"same check-out, later check-in", "2025-06-12T14:00:00", "2025-06-14T12:00:00", true},
		{"contained", "2025-06-11T00:00:00", "2025-06-12T00:00:00", true},
		{"containing", "2025-06-09T00:00:00", "2025-06-16T00:00:00", true},
		{"identical", "2025-06-10T14:00:00", "2025-06-14T12:00:00", true},
		{"one minute over check-in", "2025-06-08T14:00:00", "2025-06-10T14:01:00", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := f.book(unit.ID, bruno.ID, tt.in, tt.out)
			if tt.conflict {
				if !errors.Is(err, ErrReservationConflict) {
					t.Fatalf("expected conflict, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("expected success, got %v", err)
			}
			// Free the slot again for the next case.
			if err := f.reservations.DeleteReservation(f.ctx, res.ID); err != nil {
				t.Fatalf("cleanup: %v", err)
			}
		})
	}
}

func TestCreateReservationValidation(t *testing.T) {
	f := newFixture(t)
	unit := f.unit("Chalé Validation")
	ana := f.client("Ana")

	_, err := f.book(unit.ID, ana.ID, "2025-06-04T12:00:00", "2025-06-04T12:00:00")
	if !errors.Is(err, ErrInvalidReservationTime) {
		t.Fatalf("expected ErrInvalidReservationTime for empty stay, got %v", err)
	}
	var verr *ValidationError
	if !errors.As(err, &verr) || verr.Field != "check_out" {
		t.Fatalf("expected check_out validation error, got %v", err)
	}

	if _, err := f.book(unit.ID, ana.ID, "2025-06-05T12:00:00", "2025-06-04T12:00:00"); !errors.Is(err, ErrInvalidReservationTime) {
		t.Fatalf("expected ErrInvalidReservationTime for reversed stay, got %v", err)
	}

	_, err = f.reservations.CreateReservation(f.ctx, CreateReservationRequest{
		AccommodationUnitID: unit.ID, ClientID: ana.ID, CheckIn: "next tuesday", CheckOut: "2025-06-04T12:00:00Z",
	})
	if !errors.Is(err, ErrReservationValidation) {
		t.Fatalf("expected ErrReservationValidation for malformed timestamp, got %v", err)
	}

	if _, err := f.book(9999, ana.ID, "2025-06-01T14:00:00", "2025-06-02T12:00:00"); !errors.Is(err, ErrUnitNotFound) {
		t.Fatalf("expected ErrUnitNotFound, got %v", err)
	}
	if _, err := f.book(unit.ID, 9999, "2025-06-01T14:00:00", "2025-06-02T12:00:00"); !errors.Is(err, ErrClientNotFound) {
		t.Fatalf("expected ErrClientNotFound, got %v", err)
	}
	if _, err := f.book(unit.ID, ana.ID, "2025-06-01T14:00:00", "2025-06-02T12:00:00", withTotal("-1")); !errors.Is(err, ErrReservationValidation) {
		t.Fatalf("expected ErrReservationValidation for negative price, got %v", err)
	}
}

func TestCancelledReservationsDoNotBlock(t *testing.T) {
	f := newFixture(t)
	unit := f.unit("Chalé Cancel")
	ana, bruno := f.client("Ana"), f.client("Bruno")

	f.mustBook(unit.ID, ana.ID, "2025-06-01T14:00:00", "2025-06-04T12:00:00", withStatus(models.ReservationStatusCancelled))
	if _, err := f.book(unit.ID, bruno.ID, "2025-06-02T14:00:00", "2025-06-03T12:00:00"); err != nil {
		t.Fatalf("cancelled reservation must not block: %v", err)
	}

	// A cancelled candidate skips the overlap check as well.
	if _, err := f.book(unit.ID, ana.ID, "2025-06-02T14:00:00", "2025-06-03T12:00:00", withStatus(models.ReservationStatusCancelled)); err != nil {
		t.Fatalf("cancelled candidate must not be rejected: %v", err)
	}
}

func TestUpdateRevalidatesMergedState(t *testing.T) {
	f := newFixture(t)
	unit := f.unit("Chalé Merge")
	other := f.unit("Chalé Other")
	ana, bruno := f.client("Ana"), f.client("Bruno")

	res := f.mustBook(unit.ID, ana.ID, "2025-06-01T14:00:00", "2025-06-04T12:00:00")

	// Shifting a reservation over its own old window is not a conflict.
	shifted, err := f.reservations.UpdateReservation(f.ctx, res.ID, UpdateReservationRequest{
		CheckOut: strPtr("2025-06-05T12:00:00-03:00"),
	})
	if err != nil {
		t.Fatalf("self overlap must be excluded: %v", err)
	}
	if !shifted.CheckOut.Equal(time.Date(2025, 6, 5, 15, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected check_out %s", shifted.CheckOut)
	}

	// A colliding row written behind the validator's back.
	now := f.clock.Now()
	sneaky := &models.Reservation{
		AccommodationUnitID: unit.ID,
		ClientID:            bruno.ID,
		CheckIn:             time.Date(2025, 6, 2, 17, 0, 0, 0, time.UTC),
		CheckOut:            time.Date(2025, 6, 3, 15, 0, 0, 0, time.UTC),
		GuestCountAdults:    1,
		PriceBreakdown:      models.PriceBreakdown{},
		PaymentHistory:      models.PaymentHistory{},
		Status:              models.ReservationStatusConfirmed,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	if err := f.reservationRepo.CreateReservation(f.ctx, f.db, sneaky); err != nil {
		t.Fatalf("insert colliding row: %v", err)
	}

	adults := 3
	_, err = f.reservations.UpdateReservation(f.ctx, res.ID, UpdateReservationRequest{GuestCountAdults: &adults})
	if !errors.Is(err, ErrReservationConflict) {
		t.Fatalf("guest-count-only update must still be validated, got %v", err)
	}

	// Moving to a free unit resolves it.
	moved, err := f.reservations.UpdateReservation(f.ctx, res.ID, UpdateReservationRequest{
		AccommodationUnitID: &other.ID,
		GuestCountAdults:    &adults,
	})
	if err != nil {
		t.Fatalf("move to free unit: %v", err)
	}
	if moved.AccommodationUnitID != other.ID || moved.GuestCountAdults != 3 {
		t.Fatalf("update not applied: %+v", moved.Reservation)
	}

	// And moving onto the occupied unit is rejected.
	if _, err := f.reservations.UpdateReservation(f.ctx, res.ID, UpdateReservationRequest{AccommodationUnitID: &unit.ID}); !errors.Is(err, ErrReservationConflict) {
		t.Fatalf("expected conflict moving back, got %v", err)
	}
}

func TestUpdateReservationNotFound(t *testing.T) {
	f := newFixture(t)
	adults := 2
	if _, err := f.reservations.UpdateReservation(f.ctx, 4242, UpdateReservationRequest{GuestCountAdults: &adults}); !errors.Is(err, ErrReservationNotFound) {
		t.Fatalf("expected ErrReservationNotFound, got %v", err)
	}
	if err := f.reservations.DeleteReservation(f.ctx, 4242); !errors.Is(err, ErrReservationNotFound) {
		t.Fatalf("expected ErrReservationNotFound on delete, got %v", err)
	}
	if _, err := f.reservations.GetReservationByID(f.ctx, 4242); !errors.Is(err, ErrReservationNotFound) {
		t.Fatalf("expected ErrReservationNotFound on get, got %v", err)
	}
}

func TestFirstPaymentAutoConfirmsAndSettlesIncome(t *testing.T) {
	f := newFixture(t)
	unit := f.unit("Chalé Payments")
	ana := f.client("Ana")

	res := f.mustBook(unit.ID, ana.ID, "2025-06-01T14:00:00", "2025-06-04T12:00:00", withTotal("1000.00"))
	if res.Status != models.ReservationStatusPending {
		t.Fatalf("expected PENDING, got %s", res.Status)
	}

	ledger := f.ledger(res.ID)
	if len(ledger) != 1 {
		t.Fatalf("expected exactly one transaction, got %d", len(ledger))
	}
	income := ledger[0]
	if !income.Amount.Equal(decimal.RequireFromString("1000")) {
		t.Errorf("expected amount 1000, got %s", income.Amount)
	}
	if income.TransactionType != models.TransactionTypeIncome || income.Category != models.CategoryLodging || income.PaymentMethod != models.PaymentMethodPix {
		t.Errorf("unexpected income classification: %+v", income)
	}
	if income.PaidDate != nil {
		t.Errorf("expected unpaid income, got paid_date %s", income.PaidDate)
	}
	if income.DueDate.String() != "2025-06-01" {
		t.Errorf("expected due date 2025-06-01, got %s", income.DueDate)
	}

	updated, err := f.reservations.UpdateReservation(f.ctx, res.ID, UpdateReservationRequest{AmountPaid: dec("1000.00")})
	if err != nil {
		t.Fatalf("pay in full: %v", err)
	}
	if updated.Status != models.ReservationStatusConfirmed {
		t.Fatalf("expected auto-confirm, got %s", updated.Status)
	}
	if !updated.FullyPaid || !updated.AmountRemaining.IsZero() {
		t.Errorf("expected fully paid with nothing remaining, got %+v", updated.Reservation)
	}

	ledger = f.ledger(res.ID)
	if len(ledger) != 1 {
		t.Fatalf("expected still one transaction, got %d", len(ledger))
	}
	if ledger[0].ID != income.ID {
		t.Errorf("income must be updated in place, got new id %d", ledger[0].ID)
	}
	if ledger[0].PaidDate == nil || ledger[0].PaidDate.String() != "2025-05-20" {
		t.Fatalf("expected paid_date 2025-05-20, got %v", ledger[0].PaidDate)
	}

	// Reversing the payment reopens the entry.
	if _, err := f.reservations.UpdateReservation(f.ctx, res.ID, UpdateReservationRequest{AmountPaid: dec("400.00")}); err != nil {
		t.Fatalf("reverse payment: %v", err)
	}
	ledger = f.ledger(res.ID)
	if len(ledger) != 1 || ledger[0].PaidDate != nil {
		t.Fatalf("expected paid_date cleared, got %+v", ledger)
	}
}

func TestAutoConfirmOnlyFromPendingWithZeroPaid(t *testing.T) {
	f := newFixture(t)
	unit := f.unit("Chalé Confirm")
	ana := f.client("Ana")

	// Creating with a payment is not a transition from zero.
	created := f.mustBook(unit.ID, ana.ID, "2025-06-01T14:00:00", "2025-06-02T12:00:00", withPaid("100"))
	if created.Status != models.ReservationStatusPending {
		t.Fatalf("create must not auto-confirm, got %s", created.Status)
	}

	checkedIn := f.mustBook(unit.ID, ana.ID, "2025-06-03T14:00:00", "2025-06-04T12:00:00", withStatus(models.ReservationStatusCheckedIn))
	got, err := f.reservations.UpdateReservation(f.ctx, checkedIn.ID, UpdateReservationRequest{AmountPaid: dec("50")})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if got.Status != models.ReservationStatusCheckedIn {
		t.Fatalf("non-PENDING status must be kept, got %s", got.Status)
	}

	// An explicit status in the same write wins over the automatic rule.
	pending := f.mustBook(unit.ID, ana.ID, "2025-06-05T14:00:00", "2025-06-06T12:00:00")
	cancelled := string(models.ReservationStatusCancelled)
	got, err = f.reservations.UpdateReservation(f.ctx, pending.ID, UpdateReservationRequest{AmountPaid: dec("50"), Status: &cancelled})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if got.Status != models.ReservationStatusCancelled {
		t.Fatalf("explicit status must win, got %s", got.Status)
	}
}

func TestRecordPayment(t *testing.T) {
	f := newFixture(t)
	unit := f.unit("Chalé Pix")
	ana := f.client("Ana")
	res := f.mustBook(unit.ID, ana.ID, "2025-06-01T14:00:00", "2025-06-03T12:00:00", withTotal("600"))

	got, err := f.reservations.RecordPayment(f.ctx, res.ID, RecordPaymentRequest{Amount: dec("200"), Method: "PIX", Note: strPtr("deposit")})
	if err != nil {
		t.Fatalf("record payment: %v", err)
	}
	if got.Status != models.ReservationStatusConfirmed {
		t.Errorf("first payment should confirm, got %s", got.Status)
	}
	if !got.AmountPaid.Equal(decimal.RequireFromString("200")) || len(got.PaymentHistory) != 1 {
		t.Fatalf("unexpected payment state: paid=%s history=%+v", got.AmountPaid, got.PaymentHistory)
	}
	if got.PaymentHistory[0].Date != "2025-05-20" || got.PaymentHistory[0].Note != "deposit" {
		t.Errorf("unexpected payment record %+v", got.PaymentHistory[0])
	}

	got, err = f.reservations.RecordPayment(f.ctx, res.ID, RecordPaymentRequest{Amount: dec("400"), Method: "CASH", Date: strPtr("2025-06-01")})
	if err != nil {
		t.Fatalf("second payment: %v", err)
	}
	if !got.FullyPaid || len(got.PaymentHistory) != 2 {
		t.Fatalf("expected fully paid after two payments, got %+v", got.Reservation)
	}
	ledger := f.ledger(res.ID)
	if len(ledger) != 1 || ledger[0].PaidDate == nil {
		t.Fatalf("expected settled income, got %+v", ledger)
	}

	if _, err := f.reservations.RecordPayment(f.ctx, res.ID, RecordPaymentRequest{Amount: dec("0"), Method: "PIX"}); !errors.Is(err, ErrInvalidPayment) {
		t.Fatalf("expected ErrInvalidPayment for zero amount, got %v", err)
	}
	if _, err := f.reservations.RecordPayment(f.ctx, res.ID, RecordPaymentRequest{Amount: dec("10"), Method: "PIX", Date: strPtr("01/06/2025")}); !errors.Is(err, ErrInvalidPayment) {
		t.Fatalf("expected ErrInvalidPayment for bad date, got %v", err)
	}
}

func TestCancellationPurgesUnpaidTransactions(t *testing.T) {
	f := newFixture(t)
	unit := f.unit("Chalé Purge")
	ana := f.client("Ana")
	cancelled := string(models.ReservationStatusCancelled)

	unpaid := f.mustBook(unit.ID, ana.ID, "2025-06-01T14:00:00", "2025-06-03T12:00:00", withTotal("800"))
	if len(f.ledger(unpaid.ID)) != 1 {
		t.Fatalf("expected income before cancelling")
	}
	if _, err := f.reservations.UpdateReservation(f.ctx, unpaid.ID, UpdateReservationRequest{Status: &cancelled}); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if n := len(f.ledger(unpaid.ID)); n != 0 {
		t.Fatalf("expected unpaid income deleted, %d left", n)
	}

	// Saving it again while cancelled must not recreate the income.
	notes := "guest asked to keep the record"
	if _, err := f.reservations.UpdateReservation(f.ctx, unpaid.ID, UpdateReservationRequest{Notes: models.Optional[string]{Set: true, Value: &notes}}); err != nil {
		t.Fatalf("update cancelled: %v", err)
	}
	if n := len(f.ledger(unpaid.ID)); n != 0 {
		t.Fatalf("cancelled reservation must not get income, got %d", n)
	}

	paid := f.mustBook(unit.ID, ana.ID, "2025-06-05T14:00:00", "2025-06-07T12:00:00", withTotal("800"))
	income := f.ledger(paid.ID)[0]
	today := models.NewDate(f.clock.Now())
	if _, err := f.transactions.UpdateTransaction(f.ctx, income.ID, UpdateTransactionRequest{
		PaidDate: models.Optional[models.Date]{Set: true, Value: &today},
	}); err != nil {
		t.Fatalf("mark paid: %v", err)
	}
	if _, err := f.reservations.UpdateReservation(f.ctx, paid.ID, UpdateReservationRequest{Status: &cancelled}); err != nil {
		t.Fatalf("cancel paid: %v", err)
	}
	ledger := f.ledger(paid.ID)
	if len(ledger) != 1 || ledger[0].PaidDate == nil {
		t.Fatalf("paid income must survive cancellation, got %+v", ledger)
	}
}

func TestReconciliationIsIdempotent(t *testing.T) {
	f := newFixture(t)
	unit := f.unit("Chalé Idempotent")
	ana := f.client("Ana")

	res := f.mustBook(unit.ID, ana.ID, "2025-06-01T14:00:00", "2025-06-03T12:00:00")
	if n := len(f.ledger(res.ID)); n != 0 {
		t.Fatalf("no total price means no income, got %d", n)
	}

	total := decimal.RequireFromString("900")
	for i := 0; i < 3; i++ {
		if _, err := f.reservations.UpdateReservation(f.ctx, res.ID, UpdateReservationRequest{
			TotalPrice: models.Optional[decimal.Decimal]{Set: true, Value: &total},
		}); err != nil {
			t.Fatalf("update %d: %v", i, err)
		}
	}
	ledger := f.ledger(res.ID)
	if len(ledger) != 1 || !ledger[0].Amount.Equal(total) {
		t.Fatalf("expected one income of 900, got %+v", ledger)
	}

	// An open income follows the price.
	raised := decimal.RequireFromString("950")
	if _, err := f.reservations.UpdateReservation(f.ctx, res.ID, UpdateReservationRequest{
		TotalPrice: models.Optional[decimal.Decimal]{Set: true, Value: &raised},
	}); err != nil {
		t.Fatalf("raise price: %v", err)
	}
	ledger = f.ledger(res.ID)
	if len(ledger) != 1 || !ledger[0].Amount.Equal(raised) {
		t.Fatalf("expected income to follow price, got %+v", ledger)
	}

	// Running the reconciler directly is a no-op once in sync.
	reconciler := NewReconciler(f.db, f.reservationRepo, f.transactionRepo, f.clock, brt, nil)
	if err := reconciler.Reconcile(f.ctx, res.ID, false); err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if n := len(f.ledger(res.ID)); n != 1 {
		t.Fatalf("expected one income, got %d", n)
	}
}

func TestIncomeCreatedPaidWhenAlreadySettled(t *testing.T) {
	f := newFixture(t)
	unit := f.unit("Chalé Settled")
	ana := f.client("Ana")

	res := f.mustBook(unit.ID, ana.ID, "2025-06-01T14:00:00", "2025-06-03T12:00:00", withTotal("500"), withPaid("500"))
	ledger := f.ledger(res.ID)
	if len(ledger) != 1 || ledger[0].PaidDate == nil || ledger[0].PaidDate.String() != "2025-05-20" {
		t.Fatalf("expected income paid today, got %+v", ledger)
	}
	if ledger[0].Description == nil || !strings.Contains(*ledger[0].Description, "Chalé Settled") || !strings.Contains(*ledger[0].Description, "Ana") {
		t.Errorf("description should name unit and client, got %v", ledger[0].Description)
	}
}

func TestCheckoutMarksUnitDirty(t *testing.T) {
	f := newFixture(t)
	unit := f.unit("Chalé Checkout")
	ana := f.client("Ana")
	res := f.mustBook(unit.ID, ana.ID, "2025-06-01T14:00:00", "2025-06-03T12:00:00", withStatus(models.ReservationStatusCheckedIn))

	checkedOut := string(models.ReservationStatusCheckedOut)
	if _, err := f.reservations.UpdateReservation(f.ctx, res.ID, UpdateReservationRequest{Status: &checkedOut}); err != nil {
		t.Fatalf("check out: %v", err)
	}
	got, err := f.units.GetUnit(f.ctx, unit.ID)
	if err != nil {
		t.Fatalf("get unit: %v", err)
	}
	if got.Status != models.UnitStatusDirty {
		t.Fatalf("expected DIRTY after checkout, got %s", got.Status)
	}

	// Cleaning it and re-saving the checked-out stay leaves it clean.
	clean := string(models.UnitStatusClean)
	if _, err := f.units.UpdateUnit(f.ctx, unit.ID, UpdateUnitRequest{Status: &clean}); err != nil {
		t.Fatalf("clean unit: %v", err)
	}
	adults := 2
	if _, err := f.reservations.UpdateReservation(f.ctx, res.ID, UpdateReservationRequest{GuestCountAdults: &adults}); err != nil {
		t.Fatalf("resave: %v", err)
	}
	got, _ = f.units.GetUnit(f.ctx, unit.ID)
	if got.Status != models.UnitStatusClean {
		t.Fatalf("only the transition into CHECKED_OUT dirties the unit, got %s", got.Status)
	}
}

func TestDeleteReservationRemovesAllTransactions(t *testing.T) {
	f := newFixture(t)
	unit := f.unit("Chalé Delete")
	ana := f.client("Ana")
	res := f.mustBook(unit.ID, ana.ID, "2025-06-01T14:00:00", "2025-06-03T12:00:00", withTotal("500"), withPaid("500"))

	reservationID := res.ID
	extra, err := f.transactions.CreateTransaction(f.ctx, CreateTransactionRequest{
		ReservationID:   &reservationID,
		Amount:          dec("80"),
		TransactionType: string(models.TransactionTypeExpense),
		PaymentMethod:   string(models.PaymentMethodCash),
		DueDate:         &models.Date{Time: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)},
	})
	if err != nil {
		t.Fatalf("create expense: %v", err)
	}
	if extra.Category != models.CategoryLodging {
		t.Errorf("reservation-linked entries default to LODGING, got %s", extra.Category)
	}
	if n := len(f.ledger(res.ID)); n != 2 {
		t.Fatalf("expected two transactions, got %d", n)
	}

	if err := f.reservations.DeleteReservation(f.ctx, res.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if n := len(f.ledger(res.ID)); n != 0 {
		t.Fatalf("expected all transactions removed, got %d", n)
	}
}

func TestConcurrentOverlappingCreatesAdmitOne(t *testing.T) {
	f := newFixture(t)
	unit := f.unit("Chalé Race")
	ana := f.client("Ana")

	const writers = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		conflicts int
	)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.reservations.CreateReservation(f.ctx, CreateReservationRequest{
				AccommodationUnitID: unit.ID,
				ClientID:            ana.ID,
				CheckIn:             "2025-07-01T14:00:00-03:00",
				CheckOut:            "2025-07-03T12:00:00-03:00",
			})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case errors.Is(err, ErrReservationConflict):
				conflicts++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if successes != 1 || conflicts != writers-1 {
		t.Fatalf("expected 1 success and %d conflicts, got %d and %d", writers-1, successes, conflicts)
	}
}

func TestGetReservationsFilters(t *testing.T) {
	f := newFixture(t)
	u1, u2 := f.unit("Chalé A"), f.unit("Chalé B")
	ana, bruno := f.client("Ana"), f.client("Bruno")

	f.mustBook(u1.ID, ana.ID, "2025-06-01T14:00:00", "2025-06-03T12:00:00")
	f.mustBook(u1.ID, bruno.ID, "2025-06-10T14:00:00", "2025-06-12T12:00:00", withStatus(models.ReservationStatusConfirmed))
	f.mustBook(u2.ID, bruno.ID, "2025-06-05T14:00:00", "2025-06-07T12:00:00")

	all, total, err := f.reservations.GetReservations(f.ctx, models.ReservationFilters{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 3 || len(all) != 3 {
		t.Fatalf("expected 3, got %d", total)
	}
	if !all[0].CheckIn.After(all[1].CheckIn) || !all[1].CheckIn.After(all[2].CheckIn) {
		t.Errorf("expected newest check-in first")
	}

	confirmed := string(models.ReservationStatusConfirmed)
	if got, _, _ := f.reservations.GetReservations(f.ctx, models.ReservationFilters{Status: &confirmed}); len(got) != 1 {
		t.Errorf("status filter: expected 1, got %d", len(got))
	}
	if got, _, _ := f.reservations.GetReservations(f.ctx, models.ReservationFilters{ClientID: &bruno.ID}); len(got) != 2 {
		t.Errorf("client filter: expected 2, got %d", len(got))
	}
	start := time.Date(2025, 6, 4, 0, 0, 0, 0, brt)
	end := time.Date(2025, 6, 8, 0, 0, 0, 0, brt)
	got, _, _ := f.reservations.GetReservations(f.ctx, models.ReservationFilters{CheckInStart: &start, CheckInEnd: &end})
	if len(got) != 1 || got[0].AccommodationUnitID != u2.ID {
		t.Errorf("check-in window filter: got %+v", got)
	}

	paged, total, _ := f.reservations.GetReservations(f.ctx, models.ReservationFilters{Page: 2, PageSize: 2})
	if total != 3 || len(paged) != 1 {
		t.Errorf("pagination: expected 1 of 3 on page 2, got %d of %d", len(paged), total)
	}

	bogus := "ARCHIVED"
	if _, _, err := f.reservations.GetReservations(f.ctx, models.ReservationFilters{Status: &bogus}); !errors.Is(err, ErrReservationValidation) {
		t.Errorf("expected validation error for unknown status, got %v", err)
	}
}

func TestReplaceKeepsOmittedFields(t *testing.T) {
	f := newFixture(t)
	unit := f.unit("Chalé Jatobá")
	ana := f.client("Ana")
	adults := 3
	res := f.mustBook(unit.ID, ana.ID, "2025-06-10T14:00:00", "2025-06-12T12:00:00", withTotal("1000"),
		func(req *CreateReservationRequest) {
			req.GuestCountAdults = &adults
			req.PriceBreakdown = models.PriceBreakdown{{Name: "nightly rate", Value: decimal.RequireFromString("500"), Quantity: 2}}
		})
	if _, err := f.reservations.RecordPayment(f.ctx, res.ID, RecordPaymentRequest{Amount: dec("1000"), Method: "PIX"}); err != nil {
		t.Fatalf("record payment: %v", err)
	}

	notes := "bringing a kayak"
	replacement := CreateReservationRequest{
		AccommodationUnitID: unit.ID,
		ClientID:            ana.ID,
		CheckIn:             "2025-06-10T14:00:00-03:00",
		CheckOut:            "2025-06-12T12:00:00-03:00",
		TotalPrice:          models.Optional[decimal.Decimal]{Set: true, Value: dec("1000")},
		Notes:               models.Optional[string]{Set: true, Value: &notes},
	}
	got, err := f.reservations.UpdateReservation(f.ctx, res.ID, replacement.AsUpdate())
	if err != nil {
		t.Fatalf("replace reservation: %v", err)
	}
	if got.Status != models.ReservationStatusConfirmed {
		t.Errorf("status = %s, want CONFIRMED", got.Status)
	}
	if !got.AmountPaid.Equal(decimal.RequireFromString("1000")) || len(got.PaymentHistory) != 1 {
		t.Errorf("payment state lost: paid=%s history=%+v", got.AmountPaid, got.PaymentHistory)
	}
	if got.GuestCountAdults != 3 || len(got.PriceBreakdown) != 1 {
		t.Errorf("omitted fields reset: adults=%d breakdown=%+v", got.GuestCountAdults, got.PriceBreakdown)
	}
	if got.Notes == nil || *got.Notes != notes {
		t.Errorf("notes = %v, want %q", got.Notes, notes)
	}
	if ledger := f.ledger(res.ID); len(ledger) != 1 || ledger[0].PaidDate == nil {
		t.Errorf("income should stay settled, got %+v", ledger)
	}

	// An explicit null still clears a nullable field.
	replacement.Notes = models.Optional[string]{Set: true}
	got, err = f.reservations.UpdateReservation(f.ctx, res.ID, replacement.AsUpdate())
	if err != nil {
		t.Fatalf("replace with null notes: %v", err)
	}
	if got.Notes != nil {
		t.Errorf("notes should be cleared, got %q", *got.Notes)
	}
}
