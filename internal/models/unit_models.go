package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// UnitStatus is the cleanliness state of an accommodation unit.
type UnitStatus string

const (
	UnitStatusClean      UnitStatus = "CLEAN"
	UnitStatusDirty      UnitStatus = "DIRTY"
	UnitStatusInspecting UnitStatus = "INSPECTING"
)

// IsValidUnitStatus checks if the provided string is a known UnitStatus.
func IsValidUnitStatus(status string) bool {
	switch UnitStatus(status) {
	case UnitStatusClean, UnitStatusDirty, UnitStatusInspecting:
		return true
	default:
		return false
	}
}

// UnitType classifies the physical rental space.
type UnitType string

const (
	UnitTypeChalet    UnitType = "CHALET"
	UnitTypeSuite     UnitType = "SUITE"
	UnitTypeRoom      UnitType = "ROOM"
	UnitTypeApartment UnitType = "APARTMENT"
)

// IsValidUnitType checks if the provided string is a known UnitType.
func IsValidUnitType(unitType string) bool {
	switch UnitType(unitType) {
	case UnitTypeChalet, UnitTypeSuite, UnitTypeRoom, UnitTypeApartment:
		return true
	default:
		return false
	}
}

const (
	DefaultUnitColor     = "#4A90E2"
	DefaultAutoDirtyDays = 3
	DefaultCheckInTime   = "14:00"
	DefaultCheckOutTime  = "12:00"
)

// AccommodationUnit represents a physical rental space (chalet, suite, ...).
// Prices are informational for the reservation core; nothing here computes them.
type AccommodationUnit struct {
	ID                  int64               `json:"id"`
	Name                string              `json:"name"`
	Type                UnitType            `json:"type"`
	MaxCapacity         int                 `json:"max_capacity"`
	BasePrice           decimal.Decimal     `json:"base_price"`
	WeekendPrice        decimal.NullDecimal `json:"weekend_price"`
	HolidayPrice        decimal.NullDecimal `json:"holiday_price"`
	ColorHex            string              `json:"color_hex"`
	Status              UnitStatus          `json:"status"`
	AutoDirtyDays       int                 `json:"auto_dirty_days"`
	LastCleanedAt       *time.Time          `json:"last_cleaned_at"`
	DefaultCheckInTime  string              `json:"default_check_in_time"`
	DefaultCheckOutTime string              `json:"default_check_out_time"`
	CreatedAt           time.Time           `json:"created_at"`
	UpdatedAt           time.Time           `json:"updated_at"`
}

// UnitFilters defines the available filters for listing units.
type UnitFilters struct {
	Status *string `form:"status"`
	Type   *string `form:"type"`
}
