package repositories

import (
	"context"
	"fmt"
	"strings"
	"time"

	"lodge_backend/internal/models"
)

// UnitRepository defines the interface for accommodation unit database operations.
type UnitRepository interface {
	CreateUnit(ctx context.Context, ex SQLExecutor, unit *models.AccommodationUnit) error
	GetUnitByID(ctx context.Context, ex SQLExecutor, id int64) (*models.AccommodationUnit, error)
	GetUnits(ctx context.Context, ex SQLExecutor, filters models.UnitFilters) ([]models.AccommodationUnit, error)
	UpdateUnit(ctx context.Context, ex SQLExecutor, unit *models.AccommodationUnit) error
	DeleteUnit(ctx context.Context, ex SQLExecutor, id int64) error
	// LockUnit holds the unit row until the surrounding transaction ends.
	// It serializes writers of that unit's reservation set.
	LockUnit(ctx context.Context, ex SQLExecutor, id int64) error
	// MarkDirty sets status=DIRTY unconditionally.
	MarkDirty(ctx context.Context, ex SQLExecutor, id int64, now time.Time) error
	// MarkDirtyIfClean is the conditional variant used by read-time
	// evaluation; it reports whether the row changed.
	MarkDirtyIfClean(ctx context.Context, ex SQLExecutor, id int64, now time.Time) (bool, error)
}

type unitRepository struct {
	dialect Dialect
}

// NewUnitRepository creates a new instance of UnitRepository.
func NewUnitRepository(dialect Dialect) UnitRepository {
	return &unitRepository{dialect: dialect}
}

const selectUnitFields = `
	u.id, u.name, u.type, u.max_capacity, u.base_price, u.weekend_price, u.holiday_price,
	u.color_hex, u.status, u.auto_dirty_days, u.last_cleaned_at,
	u.default_check_in_time, u.default_check_out_time, u.created_at, u.updated_at`

func unitScanDest(unit *models.AccommodationUnit) []interface{} {
	return []interface{}{
		&unit.ID, &unit.Name, &unit.Type, &unit.MaxCapacity, &unit.BasePrice, &unit.WeekendPrice, &unit.HolidayPrice,
		&unit.ColorHex, &unit.Status, &unit.AutoDirtyDays, &unit.LastCleanedAt,
		&unit.DefaultCheckInTime, &unit.DefaultCheckOutTime, &unit.CreatedAt, &unit.UpdatedAt,
	}
}

func (r *unitRepository) CreateUnit(ctx context.Context, ex SQLExecutor, unit *models.AccommodationUnit) error {
	query := `INSERT INTO accommodation_units
	            (name, type, max_capacity, base_price, weekend_price, holiday_price, color_hex, status,
	             auto_dirty_days, last_cleaned_at, default_check_in_time, default_check_out_time, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	          RETURNING id`

	err := ex.QueryRowContext(ctx, query,
		unit.Name, unit.Type, unit.MaxCapacity, unit.BasePrice, unit.WeekendPrice, unit.HolidayPrice, unit.ColorHex, unit.Status,
		unit.AutoDirtyDays, unit.LastCleanedAt, unit.DefaultCheckInTime, unit.DefaultCheckOutTime, unit.CreatedAt, unit.UpdatedAt,
	).Scan(&unit.ID)
	return classifyError(err, "creating accommodation unit")
}

func (r *unitRepository) GetUnitByID(ctx context.Context, ex SQLExecutor, id int64) (*models.AccommodationUnit, error) {
	query := "SELECT " + selectUnitFields + " FROM accommodation_units u WHERE u.id = $1"
	var unit models.AccommodationUnit
	if err := ex.QueryRowContext(ctx, query, id).Scan(unitScanDest(&unit)...); err != nil {
		return nil, classifyError(err, fmt.Sprintf("getting accommodation unit ID %d", id))
	}
	return &unit, nil
}

func (r *unitRepository) GetUnits(ctx context.Context, ex SQLExecutor, filters models.UnitFilters) ([]models.AccommodationUnit, error) {
	var queryBuilder strings.Builder
	queryBuilder.WriteString("SELECT " + selectUnitFields + " FROM accommodation_units u")

	var conditions []string
	var args []interface{}
	if filters.Status != nil && *filters.Status != "" {
		args = append(args, *filters.Status)
		conditions = append(conditions, "u.status = "+placeholder(len(args)))
	}
	if filters.Type != nil && *filters.Type != "" {
		args = append(args, *filters.Type)
		conditions = append(conditions, "u.type = "+placeholder(len(args)))
	}
	if len(conditions) > 0 {
		queryBuilder.WriteString(" WHERE " + strings.Join(conditions, " AND "))
	}
	queryBuilder.WriteString(" ORDER BY u.name ASC")

	rows, err := ex.QueryContext(ctx, queryBuilder.String(), args...)
	if err != nil {
		return nil, classifyError(err, "querying accommodation units")
	}
	defer rows.Close()

	units := []models.AccommodationUnit{}
	for rows.Next() {
		var unit models.AccommodationUnit
		if err := rows.Scan(unitScanDest(&unit)...); err != nil {
			return nil, classifyError(err, "scanning accommodation unit")
		}
		units = append(units, unit)
	}
	if err := rows.Err(); err != nil {
		return nil, classifyError(err, "iterating accommodation unit rows")
	}
	return units, nil
}

func (r *unitRepository) UpdateUnit(ctx context.Context, ex SQLExecutor, unit *models.AccommodationUnit) error {
	query := `UPDATE accommodation_units SET
	            name = $1, type = $2, max_capacity = $3, base_price = $4, weekend_price = $5, holiday_price = $6,
	            color_hex = $7, status = $8, auto_dirty_days = $9, last_cleaned_at = $10,
	            default_check_in_time = $11, default_check_out_time = $12, updated_at = $13
	          WHERE id = $14`
	result, err := ex.ExecContext(ctx, query,
		unit.Name, unit.Type, unit.MaxCapacity, unit.BasePrice, unit.WeekendPrice, unit.HolidayPrice,
		unit.ColorHex, unit.Status, unit.AutoDirtyDays, unit.LastCleanedAt,
		unit.DefaultCheckInTime, unit.DefaultCheckOutTime, unit.UpdatedAt, unit.ID,
	)
	if err != nil {
		return classifyError(err, fmt.Sprintf("updating accommodation unit ID %d", unit.ID))
	}
	return affectedOne(result, fmt.Sprintf("updating accommodation unit ID %d", unit.ID))
}

func (r *unitRepository) DeleteUnit(ctx context.Context, ex SQLExecutor, id int64) error {
	result, err := ex.ExecContext(ctx, `DELETE FROM accommodation_units WHERE id = $1`, id)
	if err != nil {
		return classifyError(err, fmt.Sprintf("deleting accommodation unit ID %d", id))
	}
	return affectedOne(result, fmt.Sprintf("deleting accommodation unit ID %d", id))
}

func (r *unitRepository) LockUnit(ctx context.Context, ex SQLExecutor, id int64) error {
	var lockedID int64
	query := r.dialect.ForUpdate(`SELECT id FROM accommodation_units WHERE id = $1`)
	err := ex.QueryRowContext(ctx, query, id).Scan(&lockedID)
	return classifyError(err, fmt.Sprintf("locking accommodation unit ID %d", id))
}

func (r *unitRepository) MarkDirty(ctx context.Context, ex SQLExecutor, id int64, now time.Time) error {
	result, err := ex.ExecContext(ctx,
		`UPDATE accommodation_units SET status = $1, updated_at = $2 WHERE id = $3`,
		models.UnitStatusDirty, now, id)
	if err != nil {
		return classifyError(err, fmt.Sprintf("marking accommodation unit ID %d dirty", id))
	}
	return affectedOne(result, fmt.Sprintf("marking accommodation unit ID %d dirty", id))
}

func (r *unitRepository) MarkDirtyIfClean(ctx context.Context, ex SQLExecutor, id int64, now time.Time) (bool, error) {
	result, err := ex.ExecContext(ctx,
		`UPDATE accommodation_units SET status = $1, updated_at = $2 WHERE id = $3 AND status = $4`,
		models.UnitStatusDirty, now, id, models.UnitStatusClean)
	if err != nil {
		return false, classifyError(err, fmt.Sprintf("auto-dirtying accommodation unit ID %d", id))
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, classifyError(err, "getting rows affected for auto-dirty")
	}
	return n > 0, nil
}
