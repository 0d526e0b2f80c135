package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"lodge_backend/internal/database"
	"lodge_backend/internal/metrics"
	"lodge_backend/internal/models"
	"lodge_backend/internal/repositories"
)

// errIncomeCreatedConcurrently means another run inserted the income
// transaction first; the unique index kept the ledger consistent.
var errIncomeCreatedConcurrently = errors.New("income transaction created concurrently")

// Reconciler keeps the single INCOME transaction of a reservation in step
// with its price, payments and status. The reservation is authoritative and
// the ledger is a projection of it, so failures here never undo the
// reservation write.
type Reconciler struct {
	db              *sql.DB
	reservationRepo repositories.ReservationRepository
	transactionRepo repositories.TransactionRepository
	clock           Clock
	loc             *time.Location
	metrics         *metrics.Metrics
}

// NewReconciler creates a Reconciler. loc decides calendar dates (today,
// due dates).
func NewReconciler(db *sql.DB, rr repositories.ReservationRepository, tr repositories.TransactionRepository, clock Clock, loc *time.Location, m *metrics.Metrics) *Reconciler {
	if loc == nil {
		loc = time.UTC
	}
	return &Reconciler{
		db:              db,
		reservationRepo: rr,
		transactionRepo: tr,
		clock:           clock,
		loc:             loc,
		metrics:         m,
	}
}

func (r *Reconciler) today() models.Date {
	return models.NewDate(r.clock.Now().In(r.loc))
}

// Reconcile brings the ledger in line with the committed reservation.
// cancelled reports that the write just moved the reservation into
// CANCELLED, which purges its unpaid transactions.
func (r *Reconciler) Reconcile(ctx context.Context, reservationID int64, cancelled bool) error {
	err := database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		reservation, err := r.reservationRepo.GetReservationDetail(ctx, tx, reservationID)
		if err != nil {
			return fmt.Errorf("failed to load reservation %d: %w", reservationID, err)
		}

		if cancelled {
			removed, err := r.transactionRepo.DeleteUnpaidForReservation(ctx, tx, reservationID)
			if err != nil {
				return err
			}
			if removed > 0 {
				log.Info().Int64("reservation_id", reservationID).Int64("removed", removed).Msg("Unpaid transactions removed after cancellation")
			}
			return nil
		}
		if reservation.Status == models.ReservationStatusCancelled {
			return nil
		}

		income, err := r.transactionRepo.GetIncomeForReservation(ctx, tx, reservationID)
		if errors.Is(err, repositories.ErrNotFound) {
			return r.createIncome(ctx, tx, reservation)
		}
		if err != nil {
			return err
		}
		return r.syncIncome(ctx, tx, reservation, income)
	})
	if errors.Is(err, errIncomeCreatedConcurrently) {
		err = nil
	}
	r.metrics.Reconciled(err)
	return err
}

func (r *Reconciler) createIncome(ctx context.Context, tx *sql.Tx, reservation *models.Reservation) error {
	if !reservation.TotalPrice.Valid {
		return nil
	}

	now := r.clock.Now()
	description := fmt.Sprintf("Reservation #%d - %s - %s (%s to %s)",
		reservation.ID, unitName(reservation), clientName(reservation),
		reservation.CheckIn.In(r.loc).Format(models.DateLayout),
		reservation.CheckOut.In(r.loc).Format(models.DateLayout))
	income := &models.Transaction{
		ReservationID:   &reservation.ID,
		Amount:          reservation.TotalPrice.Decimal,
		TransactionType: models.TransactionTypeIncome,
		Category:        models.CategoryLodging,
		PaymentMethod:   models.PaymentMethodPix,
		DueDate:         models.NewDate(reservation.CheckIn.In(r.loc)),
		Description:     &description,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if reservation.IsFullyPaid() {
		today := r.today()
		income.PaidDate = &today
	}

	if err := r.transactionRepo.CreateTransaction(ctx, tx, income); err != nil {
		if errors.Is(err, repositories.ErrDuplicateKey) {
			return errIncomeCreatedConcurrently
		}
		return err
	}
	log.Info().Int64("reservation_id", reservation.ID).Int64("transaction_id", income.ID).
		Str("amount", income.Amount.StringFixed(2)).Msg("Income transaction created for reservation")
	return nil
}

func (r *Reconciler) syncIncome(ctx context.Context, tx *sql.Tx, reservation *models.Reservation, income *models.Transaction) error {
	changed := false

	// Only an open entry follows price changes; a settled one is history.
	if income.PaidDate == nil && reservation.TotalPrice.Valid && !income.Amount.Equal(reservation.TotalPrice.Decimal) {
		income.Amount = reservation.TotalPrice.Decimal
		changed = true
	}

	fullyPaid := reservation.IsFullyPaid()
	switch {
	case fullyPaid && income.PaidDate == nil:
		today := r.today()
		income.PaidDate = &today
		changed = true
	case !fullyPaid && income.PaidDate != nil:
		income.PaidDate = nil
		changed = true
	}

	if !changed {
		return nil
	}
	income.UpdatedAt = r.clock.Now()
	if err := r.transactionRepo.UpdateTransaction(ctx, tx, income); err != nil {
		return err
	}
	log.Info().Int64("reservation_id", reservation.ID).Int64("transaction_id", income.ID).
		Bool("paid", income.PaidDate != nil).Msg("Income transaction synchronized with reservation")
	return nil
}

func unitName(r *models.Reservation) string {
	if r.AccommodationUnit != nil {
		return r.AccommodationUnit.Name
	}
	return fmt.Sprintf("unit #%d", r.AccommodationUnitID)
}
