package services

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"lodge_backend/internal/models"
	"lodge_backend/internal/repositories"
)

// AvailabilityService answers which units are free for a stay window.
type AvailabilityService interface {
	FindAvailable(ctx context.Context, checkIn, checkOut time.Time) ([]models.AccommodationUnit, error)
}

type availabilityService struct {
	reservationRepo repositories.ReservationRepository
	units           UnitService
	db              *sql.DB
}

// NewAvailabilityService creates a new instance of AvailabilityService.
func NewAvailabilityService(rr repositories.ReservationRepository, units UnitService, db *sql.DB) AvailabilityService {
	return &availabilityService{
		reservationRepo: rr,
		units:           units,
		db:              db,
	}
}

// FindAvailable returns every unit without a non-cancelled reservation
// overlapping [checkIn, checkOut). The occupied set comes from the same
// predicate the booking validator enforces, so a unit listed here can be
// booked for the window unless another write wins the race.
func (s *availabilityService) FindAvailable(ctx context.Context, checkIn, checkOut time.Time) ([]models.AccommodationUnit, error) {
	if !checkOut.After(checkIn) {
		return nil, newValidationError(ErrInvalidReservationTime, "check_out", "check-out must be after check-in")
	}

	occupied, err := s.reservationRepo.OccupiedUnitIDs(ctx, s.db, checkIn, checkOut)
	if err != nil {
		return nil, fmt.Errorf("failed to compute occupied units: %w", err)
	}
	busy := make(map[int64]struct{}, len(occupied))
	for _, id := range occupied {
		busy[id] = struct{}{}
	}

	units, err := s.units.ListUnits(ctx, models.UnitFilters{})
	if err != nil {
		return nil, err
	}
	available := make([]models.AccommodationUnit, 0, len(units))
	for _, unit := range units {
		if _, taken := busy[unit.ID]; !taken {
			available = append(available, unit)
		}
	}
	return available, nil
}
