package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"lodge_backend/internal/database"
	"lodge_backend/internal/metrics"
	"lodge_backend/internal/models"
	"lodge_backend/internal/repositories"
)

// --- Custom Service Errors for Accommodation Units ---
var (
	ErrUnitNotFound   = errors.New("accommodation unit not found")
	ErrUnitValidation = errors.New("accommodation unit data validation error")
	ErrUnitNameExists = errors.New("an accommodation unit with this name already exists")
	ErrUnitInUse      = errors.New("accommodation unit cannot be deleted while reservations reference it")
)

// --- Accommodation Unit DTOs ---
type CreateUnitRequest struct {
	Name                string           `json:"name" binding:"required,max=100"`
	Type                *string          `json:"type" binding:"omitempty,unit_type"`
	MaxCapacity         *int             `json:"max_capacity" binding:"required,min=0"`
	BasePrice           *decimal.Decimal `json:"base_price" binding:"required"`
	WeekendPrice        *decimal.Decimal `json:"weekend_price"`
	HolidayPrice        *decimal.Decimal `json:"holiday_price"`
	ColorHex            *string          `json:"color_hex" binding:"omitempty,color_hex"`
	Status              *string          `json:"status" binding:"omitempty,unit_status"`
	AutoDirtyDays       *int             `json:"auto_dirty_days" binding:"omitempty,min=0"`
	LastCleanedAt       *time.Time       `json:"last_cleaned_at"`
	DefaultCheckInTime  *string          `json:"default_check_in_time" binding:"omitempty,clock_time"`
	DefaultCheckOutTime *string          `json:"default_check_out_time" binding:"omitempty,clock_time"`
}

// UpdateUnitRequest serves both PUT and PATCH; omitted fields keep their value.
type UpdateUnitRequest struct {
	Name                *string                          `json:"name" binding:"omitempty,max=100"`
	Type                *string                          `json:"type" binding:"omitempty,unit_type"`
	MaxCapacity         *int                             `json:"max_capacity" binding:"omitempty,min=0"`
	BasePrice           *decimal.Decimal                 `json:"base_price"`
	WeekendPrice        models.Optional[decimal.Decimal] `json:"weekend_price"`
	HolidayPrice        models.Optional[decimal.Decimal] `json:"holiday_price"`
	ColorHex            *string                          `json:"color_hex" binding:"omitempty,color_hex"`
	Status              *string                          `json:"status" binding:"omitempty,unit_status"`
	AutoDirtyDays       *int                             `json:"auto_dirty_days" binding:"omitempty,min=0"`
	LastCleanedAt       models.Optional[time.Time]       `json:"last_cleaned_at"`
	DefaultCheckInTime  *string                          `json:"default_check_in_time" binding:"omitempty,clock_time"`
	DefaultCheckOutTime *string                          `json:"default_check_out_time" binding:"omitempty,clock_time"`
}

// --- UnitService Interface ---
type UnitService interface {
	CreateUnit(ctx context.Context, req CreateUnitRequest) (*models.AccommodationUnit, error)
	// GetUnit and ListUnits evaluate the elapsed-days dirty rule before returning.
	GetUnit(ctx context.Context, id int64) (*models.AccommodationUnit, error)
	ListUnits(ctx context.Context, filters models.UnitFilters) ([]models.AccommodationUnit, error)
	UpdateUnit(ctx context.Context, id int64, req UpdateUnitRequest) (*models.AccommodationUnit, error)
	DeleteUnit(ctx context.Context, id int64) error
	// MarkDirty sets the unit DIRTY inside the caller's transaction.
	MarkDirty(ctx context.Context, ex repositories.SQLExecutor, id int64) error
}

// --- unitService Implementation ---
type unitService struct {
	unitRepo repositories.UnitRepository
	db       *sql.DB
	clock    Clock
	metrics  *metrics.Metrics
}

// NewUnitService creates a new instance of UnitService.
func NewUnitService(repo repositories.UnitRepository, db *sql.DB, clock Clock, m *metrics.Metrics) UnitService {
	return &unitService{
		unitRepo: repo,
		db:       db,
		clock:    clock,
		metrics:  m,
	}
}

// ShouldAutoDirty reports whether a CLEAN unit has gone auto_dirty_days whole
// days since it was last cleaned (or last updated, if never cleaned).
// A threshold of zero disables the rule.
func ShouldAutoDirty(unit *models.AccommodationUnit, now time.Time) bool {
	if unit.Status != models.UnitStatusClean || unit.AutoDirtyDays <= 0 {
		return false
	}
	reference := unit.UpdatedAt
	if unit.LastCleanedAt != nil {
		reference = *unit.LastCleanedAt
	}
	elapsedDays := int(now.Sub(reference) / (24 * time.Hour))
	return elapsedDays >= unit.AutoDirtyDays
}

// evaluateAutoDirty persists the elapsed-days transition. The conditional
// update makes concurrent evaluations and a concurrent cleaning harmless.
func (s *unitService) evaluateAutoDirty(ctx context.Context, unit *models.AccommodationUnit) error {
	now := s.clock.Now()
	if !ShouldAutoDirty(unit, now) {
		return nil
	}
	changed, err := s.unitRepo.MarkDirtyIfClean(ctx, s.db, unit.ID, now)
	if err != nil {
		return fmt.Errorf("failed to auto-dirty accommodation unit %d: %w", unit.ID, err)
	}
	if changed {
		unit.Status = models.UnitStatusDirty
		unit.UpdatedAt = now
		s.metrics.UnitDirtied("elapsed")
		log.Info().Int64("unit_id", unit.ID).Int("auto_dirty_days", unit.AutoDirtyDays).Msg("Accommodation unit marked dirty after cleaning interval elapsed")
	}
	return nil
}

func (s *unitService) CreateUnit(ctx context.Context, req CreateUnitRequest) (*models.AccommodationUnit, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, newValidationError(ErrUnitValidation, "name", "name cannot be empty")
	}
	if req.BasePrice.IsNegative() {
		return nil, newValidationError(ErrUnitValidation, "base_price", "base price cannot be negative")
	}

	now := s.clock.Now()
	unit := &models.AccommodationUnit{
		Name:                name,
		Type:                models.UnitTypeChalet,
		MaxCapacity:         *req.MaxCapacity,
		BasePrice:           *req.BasePrice,
		ColorHex:            models.DefaultUnitColor,
		Status:              models.UnitStatusClean,
		AutoDirtyDays:       models.DefaultAutoDirtyDays,
		LastCleanedAt:       req.LastCleanedAt,
		DefaultCheckInTime:  models.DefaultCheckInTime,
		DefaultCheckOutTime: models.DefaultCheckOutTime,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	if req.Type != nil {
		unit.Type = models.UnitType(*req.Type)
	}
	if req.WeekendPrice != nil {
		unit.WeekendPrice = decimal.NewNullDecimal(*req.WeekendPrice)
	}
	if req.HolidayPrice != nil {
		unit.HolidayPrice = decimal.NewNullDecimal(*req.HolidayPrice)
	}
	if req.ColorHex != nil {
		unit.ColorHex = strings.ToUpper(*req.ColorHex)
	}
	if req.Status != nil {
		unit.Status = models.UnitStatus(*req.Status)
	}
	if req.AutoDirtyDays != nil {
		unit.AutoDirtyDays = *req.AutoDirtyDays
	}
	if req.DefaultCheckInTime != nil {
		unit.DefaultCheckInTime = *req.DefaultCheckInTime
	}
	if req.DefaultCheckOutTime != nil {
		unit.DefaultCheckOutTime = *req.DefaultCheckOutTime
	}
	if unit.Status == models.UnitStatusClean && unit.LastCleanedAt == nil {
		unit.LastCleanedAt = &now
	}
	if unit.LastCleanedAt != nil {
		cleaned := unit.LastCleanedAt.UTC()
		unit.LastCleanedAt = &cleaned
	}

	if err := s.unitRepo.CreateUnit(ctx, s.db, unit); err != nil {
		if errors.Is(err, repositories.ErrDuplicateKey) {
			return nil, ErrUnitNameExists
		}
		return nil, fmt.Errorf("failed to create accommodation unit: %w", err)
	}
	return unit, nil
}

func (s *unitService) GetUnit(ctx context.Context, id int64) (*models.AccommodationUnit, error) {
	unit, err := s.unitRepo.GetUnitByID(ctx, s.db, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrUnitNotFound
		}
		return nil, fmt.Errorf("failed to get accommodation unit: %w", err)
	}
	if err := s.evaluateAutoDirty(ctx, unit); err != nil {
		return nil, err
	}
	return unit, nil
}

func (s *unitService) ListUnits(ctx context.Context, filters models.UnitFilters) ([]models.AccommodationUnit, error) {
	// Evaluate against the full set first so a status filter sees the
	// post-evaluation state.
	units, err := s.unitRepo.GetUnits(ctx, s.db, models.UnitFilters{})
	if err != nil {
		return nil, fmt.Errorf("failed to list accommodation units: %w", err)
	}
	filtered := make([]models.AccommodationUnit, 0, len(units))
	for i := range units {
		if err := s.evaluateAutoDirty(ctx, &units[i]); err != nil {
			return nil, err
		}
		if filters.Status != nil && *filters.Status != "" && string(units[i].Status) != *filters.Status {
			continue
		}
		if filters.Type != nil && *filters.Type != "" && string(units[i].Type) != *filters.Type {
			continue
		}
		filtered = append(filtered, units[i])
	}
	return filtered, nil
}

func (s *unitService) UpdateUnit(ctx context.Context, id int64, req UpdateUnitRequest) (*models.AccommodationUnit, error) {
	var updated *models.AccommodationUnit
	err := database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		if err := s.unitRepo.LockUnit(ctx, tx, id); err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return ErrUnitNotFound
			}
			return fmt.Errorf("failed to lock accommodation unit: %w", err)
		}
		unit, err := s.unitRepo.GetUnitByID(ctx, tx, id)
		if err != nil {
			return fmt.Errorf("failed to find accommodation unit for update: %w", err)
		}
		previousStatus := unit.Status
		now := s.clock.Now()

		if req.Name != nil {
			name := strings.TrimSpace(*req.Name)
			if name == "" {
				return newValidationError(ErrUnitValidation, "name", "name cannot be empty")
			}
			unit.Name = name
		}
		if req.Type != nil {
			unit.Type = models.UnitType(*req.Type)
		}
		if req.MaxCapacity != nil {
			unit.MaxCapacity = *req.MaxCapacity
		}
		if req.BasePrice != nil {
			if req.BasePrice.IsNegative() {
				return newValidationError(ErrUnitValidation, "base_price", "base price cannot be negative")
			}
			unit.BasePrice = *req.BasePrice
		}
		if req.WeekendPrice.Set {
			unit.WeekendPrice = nullDecimal(req.WeekendPrice.Value)
		}
		if req.HolidayPrice.Set {
			unit.HolidayPrice = nullDecimal(req.HolidayPrice.Value)
		}
		if req.ColorHex != nil {
			unit.ColorHex = strings.ToUpper(*req.ColorHex)
		}
		if req.Status != nil {
			unit.Status = models.UnitStatus(*req.Status)
		}
		if req.AutoDirtyDays != nil {
			unit.AutoDirtyDays = *req.AutoDirtyDays
		}
		if req.LastCleanedAt.Set {
			unit.LastCleanedAt = req.LastCleanedAt.Value
		}
		if req.DefaultCheckInTime != nil {
			unit.DefaultCheckInTime = *req.DefaultCheckInTime
		}
		if req.DefaultCheckOutTime != nil {
			unit.DefaultCheckOutTime = *req.DefaultCheckOutTime
		}
		// Cleaning is recorded by the same write that marks the unit CLEAN.
		if unit.Status == models.UnitStatusClean && previousStatus != models.UnitStatusClean {
			unit.LastCleanedAt = &now
		}
		if unit.LastCleanedAt != nil {
			cleaned := unit.LastCleanedAt.UTC()
			unit.LastCleanedAt = &cleaned
		}
		unit.UpdatedAt = now

		if err := s.unitRepo.UpdateUnit(ctx, tx, unit); err != nil {
			if errors.Is(err, repositories.ErrDuplicateKey) {
				return ErrUnitNameExists
			}
			return fmt.Errorf("failed to update accommodation unit: %w", err)
		}
		updated = unit
		return nil
	})
	if err != nil {
		return nil, txError(err)
	}
	return updated, nil
}

func (s *unitService) DeleteUnit(ctx context.Context, id int64) error {
	if err := s.unitRepo.DeleteUnit(ctx, s.db, id); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrUnitNotFound
		}
		if errors.Is(err, repositories.ErrForeignKey) {
			return ErrUnitInUse
		}
		return fmt.Errorf("failed to delete accommodation unit: %w", err)
	}
	return nil
}

func (s *unitService) MarkDirty(ctx context.Context, ex repositories.SQLExecutor, id int64) error {
	if err := s.unitRepo.MarkDirty(ctx, ex, id, s.clock.Now()); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrUnitNotFound
		}
		return fmt.Errorf("failed to mark accommodation unit dirty: %w", err)
	}
	return nil
}

func nullDecimal(d *decimal.Decimal) decimal.NullDecimal {
	if d == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(*d)
}
