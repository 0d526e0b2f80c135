package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"lodge_backend/internal/database"
	"lodge_backend/internal/metrics"
	"lodge_backend/internal/models"
	"lodge_backend/internal/repositories"
	"lodge_backend/pkg/utils"
)

// --- Custom Service Errors for Reservation ---
var (
	ErrReservationNotFound = errors.New("reservation not found")
	ErrInvalidPayment      = errors.New("invalid payment")
)

// --- Reservation DTOs ---
type CreateReservationRequest struct {
	AccommodationUnitID int64                            `json:"accommodation_unit_id" binding:"required,min=1"`
	ClientID            int64                            `json:"client_id" binding:"required,min=1"`
	CheckIn             string                           `json:"check_in" binding:"required"`  // ISO 8601
	CheckOut            string                           `json:"check_out" binding:"required"` // ISO 8601
	GuestCountAdults    *int                             `json:"guest_count_adults" binding:"omitempty,min=0"`
	GuestCountChildren  *int                             `json:"guest_count_children" binding:"omitempty,min=0"`
	PetCount            *int                             `json:"pet_count" binding:"omitempty,min=0"`
	TotalPrice          models.Optional[decimal.Decimal] `json:"total_price"`
	PriceBreakdown      models.PriceBreakdown            `json:"price_breakdown"`
	AmountPaid          *decimal.Decimal                 `json:"amount_paid"`
	PaymentHistory      models.PaymentHistory            `json:"payment_history"`
	Status              *string                          `json:"status" binding:"omitempty,reservation_status"`
	Notes               models.Optional[string]          `json:"notes"`
}

// UpdateReservationRequest carries a partial update. Nullable columns use
// Optional so an explicit null clears them.
type UpdateReservationRequest struct {
	AccommodationUnitID *int64                           `json:"accommodation_unit_id" binding:"omitempty,min=1"`
	ClientID            *int64                           `json:"client_id" binding:"omitempty,min=1"`
	CheckIn             *string                          `json:"check_in"`
	CheckOut            *string                          `json:"check_out"`
	GuestCountAdults    *int                             `json:"guest_count_adults" binding:"omitempty,min=0"`
	GuestCountChildren  *int                             `json:"guest_count_children" binding:"omitempty,min=0"`
	PetCount            *int                             `json:"pet_count" binding:"omitempty,min=0"`
	TotalPrice          models.Optional[decimal.Decimal] `json:"total_price"`
	PriceBreakdown      *models.PriceBreakdown           `json:"price_breakdown"`
	AmountPaid          *decimal.Decimal                 `json:"amount_paid"`
	PaymentHistory      *models.PaymentHistory           `json:"payment_history"`
	Status              *string                          `json:"status" binding:"omitempty,reservation_status"`
	Notes               models.Optional[string]          `json:"notes"`
}

// AsUpdate turns a full representation (PUT) into an update. The required
// fields are always written; an omitted field keeps its stored value, while
// an explicit null clears a nullable one.
func (req CreateReservationRequest) AsUpdate() UpdateReservationRequest {
	update := UpdateReservationRequest{
		AccommodationUnitID: &req.AccommodationUnitID,
		ClientID:            &req.ClientID,
		CheckIn:             &req.CheckIn,
		CheckOut:            &req.CheckOut,
		GuestCountAdults:    req.GuestCountAdults,
		GuestCountChildren:  req.GuestCountChildren,
		PetCount:            req.PetCount,
		TotalPrice:          req.TotalPrice,
		AmountPaid:          req.AmountPaid,
		Status:              req.Status,
		Notes:               req.Notes,
	}
	if req.PriceBreakdown != nil {
		breakdown := req.PriceBreakdown
		update.PriceBreakdown = &breakdown
	}
	if req.PaymentHistory != nil {
		history := req.PaymentHistory
		update.PaymentHistory = &history
	}
	return update
}

// RecordPaymentRequest appends one payment to a reservation.
type RecordPaymentRequest struct {
	Amount *decimal.Decimal `json:"amount" binding:"required"`
	Method string           `json:"method" binding:"required,payment_method"`
	Date   *string          `json:"date"` // YYYY-MM-DD, defaults to today
	Note   *string          `json:"note"`
}

// ReservationResult is a reservation write outcome. Warning carries the
// advisory tight-turnaround message, if any.
type ReservationResult struct {
	*models.Reservation
	Warning string `json:"warning,omitempty"`
}

// --- ReservationService Interface ---
type ReservationService interface {
	CreateReservation(ctx context.Context, req CreateReservationRequest) (*ReservationResult, error)
	GetReservationByID(ctx context.Context, id int64) (*models.Reservation, error)
	GetReservations(ctx context.Context, filters models.ReservationFilters) ([]models.Reservation, int, error)
	UpdateReservation(ctx context.Context, id int64, req UpdateReservationRequest) (*ReservationResult, error)
	RecordPayment(ctx context.Context, id int64, req RecordPaymentRequest) (*ReservationResult, error)
	DeleteReservation(ctx context.Context, id int64) error
}

// --- reservationService Implementation ---
type reservationService struct {
	db              *sql.DB
	reservationRepo repositories.ReservationRepository
	unitRepo        repositories.UnitRepository
	clientRepo      repositories.ClientRepository
	transactionRepo repositories.TransactionRepository
	units           UnitService
	validator       *BookingValidator
	reconciler      *Reconciler
	clock           Clock
	loc             *time.Location
	metrics         *metrics.Metrics
}

// ReservationServiceDeps groups the collaborators of the reservation service.
type ReservationServiceDeps struct {
	DB              *sql.DB
	ReservationRepo repositories.ReservationRepository
	UnitRepo        repositories.UnitRepository
	ClientRepo      repositories.ClientRepository
	TransactionRepo repositories.TransactionRepository
	Units           UnitService
	Validator       *BookingValidator
	Reconciler      *Reconciler
	Clock           Clock
	Location        *time.Location
	Metrics         *metrics.Metrics
}

// NewReservationService creates a new instance of ReservationService.
func NewReservationService(deps ReservationServiceDeps) ReservationService {
	loc := deps.Location
	if loc == nil {
		loc = time.UTC
	}
	return &reservationService{
		db:              deps.DB,
		reservationRepo: deps.ReservationRepo,
		unitRepo:        deps.UnitRepo,
		clientRepo:      deps.ClientRepo,
		transactionRepo: deps.TransactionRepo,
		units:           deps.Units,
		validator:       deps.Validator,
		reconciler:      deps.Reconciler,
		clock:           deps.Clock,
		loc:             loc,
		metrics:         deps.Metrics,
	}
}

func (s *reservationService) parseTime(field, value string) (time.Time, error) {
	t, err := utils.ParseTimestamp(value, s.loc)
	if err != nil {
		return time.Time{}, newValidationError(ErrReservationValidation, field, err.Error())
	}
	return t.UTC(), nil
}

func (s *reservationService) lockUnit(ctx context.Context, tx *sql.Tx, unitID int64) error {
	if err := s.unitRepo.LockUnit(ctx, tx, unitID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrUnitNotFound
		}
		return fmt.Errorf("failed to lock accommodation unit: %w", err)
	}
	return nil
}

func (s *reservationService) ensureClient(ctx context.Context, tx *sql.Tx, clientID int64) error {
	if _, err := s.clientRepo.GetClientByID(ctx, tx, clientID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrClientNotFound
		}
		return fmt.Errorf("failed to verify client: %w", err)
	}
	return nil
}

// guardAndPersist runs the ordered write steps shared by create and update:
// lifecycle rules, validation, the write itself and the unit side effect.
// The caller holds the unit lock inside tx.
func (s *reservationService) guardAndPersist(ctx context.Context, tx *sql.Tx, prev, next *models.Reservation) (TransitionEffects, string, error) {
	effects := ApplyLifecycle(prev, next)

	if err := s.validator.Validate(ctx, tx, next); err != nil {
		var conflict *ConflictError
		if errors.As(err, &conflict) {
			s.metrics.ReservationConflict()
		}
		return effects, "", err
	}
	warning, err := s.validator.TurnaroundWarning(ctx, tx, next)
	if err != nil {
		return effects, "", err
	}

	next.UpdatedAt = s.clock.Now()
	if prev == nil {
		next.CreatedAt = next.UpdatedAt
		err = s.reservationRepo.CreateReservation(ctx, tx, next)
	} else {
		err = s.reservationRepo.UpdateReservation(ctx, tx, next)
	}
	if err != nil {
		if errors.Is(err, repositories.ErrForeignKey) {
			return effects, "", newValidationError(ErrReservationValidation, "accommodation_unit_id", "referenced unit or client does not exist")
		}
		return effects, "", fmt.Errorf("failed to save reservation: %w", err)
	}

	if effects.MarkUnitDirty {
		if err := s.units.MarkDirty(ctx, tx, next.AccommodationUnitID); err != nil {
			return effects, "", err
		}
	}
	return effects, warning, nil
}

// afterCommit runs the ledger projection and assembles the response.
func (s *reservationService) afterCommit(ctx context.Context, operation string, id int64, effects TransitionEffects, warning string) (*ReservationResult, error) {
	s.metrics.ReservationWritten(operation)
	if effects.MarkUnitDirty {
		s.metrics.UnitDirtied("checkout")
	}
	if warning != "" {
		s.metrics.TurnaroundWarning()
	}
	if effects.AutoConfirmed {
		log.Info().Int64("reservation_id", id).Msg("Reservation auto-confirmed after first payment")
	}

	if err := s.reconciler.Reconcile(ctx, id, effects.Cancelled); err != nil {
		log.Warn().Err(err).Int64("reservation_id", id).Msg("Ledger reconciliation failed; reservation write kept")
	}

	reservation, err := s.reservationRepo.GetReservationDetail(ctx, s.db, id)
	if err != nil {
		return nil, fmt.Errorf("failed to reload reservation: %w", err)
	}
	return &ReservationResult{Reservation: reservation, Warning: warning}, nil
}

func (s *reservationService) CreateReservation(ctx context.Context, req CreateReservationRequest) (*ReservationResult, error) {
	checkIn, err := s.parseTime("check_in", req.CheckIn)
	if err != nil {
		return nil, err
	}
	checkOut, err := s.parseTime("check_out", req.CheckOut)
	if err != nil {
		return nil, err
	}

	base := &models.Reservation{
		AccommodationUnitID: req.AccommodationUnitID,
		ClientID:            req.ClientID,
		Status:              models.ReservationStatusPending,
		GuestCountAdults:    1,
		PriceBreakdown:      models.PriceBreakdown{},
		PaymentHistory:      models.PaymentHistory{},
	}
	update := req.AsUpdate()
	update.CheckIn, update.CheckOut = nil, nil
	reservation := cloneReservation(base)
	if err := s.merge(reservation, update); err != nil {
		return nil, err
	}
	reservation.CheckIn, reservation.CheckOut = checkIn, checkOut

	var (
		effects TransitionEffects
		warning string
	)
	err = database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		candidate := cloneReservation(reservation)
		if err := s.lockUnit(ctx, tx, candidate.AccommodationUnitID); err != nil {
			return err
		}
		if err := s.ensureClient(ctx, tx, candidate.ClientID); err != nil {
			return err
		}
		effects, warning, err = s.guardAndPersist(ctx, tx, nil, candidate)
		if err != nil {
			return err
		}
		reservation.ID = candidate.ID
		return nil
	})
	if err != nil {
		return nil, txError(err)
	}
	return s.afterCommit(ctx, "create", reservation.ID, effects, warning)
}

func (s *reservationService) GetReservationByID(ctx context.Context, id int64) (*models.Reservation, error) {
	reservation, err := s.reservationRepo.GetReservationDetail(ctx, s.db, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrReservationNotFound
		}
		return nil, fmt.Errorf("failed to get reservation by ID: %w", err)
	}
	return reservation, nil
}

func (s *reservationService) GetReservations(ctx context.Context, filters models.ReservationFilters) ([]models.Reservation, int, error) {
	if filters.Page <= 0 {
		filters.Page = 1
	}
	if filters.PageSize <= 0 {
		filters.PageSize = 50
	}
	if filters.Status != nil && *filters.Status != "" && !models.IsValidReservationStatus(*filters.Status) {
		return nil, 0, newValidationError(ErrReservationValidation, "status", "unknown reservation status")
	}
	reservations, total, err := s.reservationRepo.GetReservations(ctx, s.db, filters)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get reservations: %w", err)
	}
	return reservations, total, nil
}

func (s *reservationService) UpdateReservation(ctx context.Context, id int64, req UpdateReservationRequest) (*ReservationResult, error) {
	// Parse outside the transaction so a malformed body never takes locks.
	var checkIn, checkOut *time.Time
	if req.CheckIn != nil {
		t, err := s.parseTime("check_in", *req.CheckIn)
		if err != nil {
			return nil, err
		}
		checkIn = &t
	}
	if req.CheckOut != nil {
		t, err := s.parseTime("check_out", *req.CheckOut)
		if err != nil {
			return nil, err
		}
		checkOut = &t
	}
	req.CheckIn, req.CheckOut = nil, nil

	return s.update(ctx, "update", id, func(next *models.Reservation) error {
		if err := s.merge(next, req); err != nil {
			return err
		}
		if checkIn != nil {
			next.CheckIn = *checkIn
		}
		if checkOut != nil {
			next.CheckOut = *checkOut
		}
		return nil
	})
}

func (s *reservationService) RecordPayment(ctx context.Context, id int64, req RecordPaymentRequest) (*ReservationResult, error) {
	if req.Amount == nil || !req.Amount.IsPositive() {
		return nil, newValidationError(ErrInvalidPayment, "amount", "payment amount must be greater than zero")
	}
	date := models.NewDate(s.clock.Now().In(s.loc))
	if req.Date != nil && *req.Date != "" {
		parsed, err := models.ParseDate(*req.Date)
		if err != nil {
			return nil, newValidationError(ErrInvalidPayment, "date", "date must use the YYYY-MM-DD format")
		}
		date = parsed
	}
	record := models.PaymentRecord{
		Date:   date.String(),
		Amount: *req.Amount,
		Method: req.Method,
	}
	if req.Note != nil {
		record.Note = *req.Note
	}

	return s.update(ctx, "payment", id, func(next *models.Reservation) error {
		next.PaymentHistory = append(next.PaymentHistory, record)
		next.AmountPaid = next.AmountPaid.Add(record.Amount)
		return nil
	})
}

// update is the shared read-lock-merge-validate-write path. mutate is applied
// to a copy of the persisted record and may run twice: once to learn which
// unit the result targets and again on the state re-read under the lock.
func (s *reservationService) update(ctx context.Context, operation string, id int64, mutate func(next *models.Reservation) error) (*ReservationResult, error) {
	var (
		effects TransitionEffects
		warning string
	)
	err := database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		prev, err := s.getForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}
		next := cloneReservation(prev)
		if err := mutate(next); err != nil {
			return err
		}

		locked := map[int64]bool{}
		for _, unitID := range sortedUnique(prev.AccommodationUnitID, next.AccommodationUnitID) {
			if err := s.lockUnit(ctx, tx, unitID); err != nil {
				return err
			}
			locked[unitID] = true
		}

		// Re-read under the lock: the unit set of this reservation is now
		// frozen, so the merge below sees the state the write will replace.
		prev, err = s.getForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}
		next = cloneReservation(prev)
		if err := mutate(next); err != nil {
			return err
		}
		// Moved by a concurrent writer between the reads. Locking the new
		// unit now would break ascending order, so start over instead.
		if !locked[prev.AccommodationUnitID] || !locked[next.AccommodationUnitID] {
			return fmt.Errorf("reservation %d changed unit while locking: %w", id, database.ErrSerialization)
		}
		if next.ClientID != prev.ClientID {
			if err := s.ensureClient(ctx, tx, next.ClientID); err != nil {
				return err
			}
		}

		effects, warning, err = s.guardAndPersist(ctx, tx, prev, next)
		return err
	})
	if err != nil {
		return nil, txError(err)
	}
	return s.afterCommit(ctx, operation, id, effects, warning)
}

func (s *reservationService) getForUpdate(ctx context.Context, tx *sql.Tx, id int64) (*models.Reservation, error) {
	reservation, err := s.reservationRepo.GetReservationByID(ctx, tx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrReservationNotFound
		}
		return nil, fmt.Errorf("failed to find reservation for update: %w", err)
	}
	return reservation, nil
}

// merge copies the set fields of req onto r. Timestamps are handled by the
// callers because they need the configured location.
func (s *reservationService) merge(r *models.Reservation, req UpdateReservationRequest) error {
	if req.AccommodationUnitID != nil {
		r.AccommodationUnitID = *req.AccommodationUnitID
	}
	if req.ClientID != nil {
		r.ClientID = *req.ClientID
	}
	if req.GuestCountAdults != nil {
		r.GuestCountAdults = *req.GuestCountAdults
	}
	if req.GuestCountChildren != nil {
		r.GuestCountChildren = *req.GuestCountChildren
	}
	if req.PetCount != nil {
		r.PetCount = *req.PetCount
	}
	if req.TotalPrice.Set {
		r.TotalPrice = nullDecimal(req.TotalPrice.Value)
	}
	if req.PriceBreakdown != nil {
		r.PriceBreakdown = append(models.PriceBreakdown{}, (*req.PriceBreakdown)...)
	}
	if req.AmountPaid != nil {
		r.AmountPaid = *req.AmountPaid
	}
	if req.PaymentHistory != nil {
		r.PaymentHistory = append(models.PaymentHistory{}, (*req.PaymentHistory)...)
	}
	if req.Status != nil {
		if !models.IsValidReservationStatus(*req.Status) {
			return newValidationError(ErrReservationValidation, "status", "unknown reservation status")
		}
		r.Status = models.ReservationStatus(*req.Status)
	}
	if req.Notes.Set {
		r.Notes = utils.NullableTrim(req.Notes.Value)
	}
	return nil
}

func (s *reservationService) DeleteReservation(ctx context.Context, id int64) error {
	err := database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		if _, err := s.getForUpdate(ctx, tx, id); err != nil {
			return err
		}
		if err := s.transactionRepo.DeleteAllForReservation(ctx, tx, id); err != nil {
			return fmt.Errorf("failed to delete reservation transactions: %w", err)
		}
		if err := s.reservationRepo.DeleteReservation(ctx, tx, id); err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return ErrReservationNotFound
			}
			return fmt.Errorf("failed to delete reservation: %w", err)
		}
		return nil
	})
	if err != nil {
		return txError(err)
	}
	s.metrics.ReservationWritten("delete")
	return nil
}

func cloneReservation(r *models.Reservation) *models.Reservation {
	c := *r
	c.PriceBreakdown = append(models.PriceBreakdown{}, r.PriceBreakdown...)
	c.PaymentHistory = append(models.PaymentHistory{}, r.PaymentHistory...)
	c.Client, c.AccommodationUnit = nil, nil
	return &c
}

// sortedUnique returns the distinct ids in ascending order, the order in
// which unit locks are always taken.
func sortedUnique(ids ...int64) []int64 {
	seen := make(map[int64]bool, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if id == 0 || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
