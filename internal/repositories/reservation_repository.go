package repositories

import (
	"context"
	"fmt"
	"strings"
	"time"

	"lodge_backend/internal/models"
)

// ReservationRepository defines the interface for reservation-related database operations.
type ReservationRepository interface {
	CreateReservation(ctx context.Context, ex SQLExecutor, reservation *models.Reservation) error
	// GetReservationByID returns the bare row without joined details.
	GetReservationByID(ctx context.Context, ex SQLExecutor, id int64) (*models.Reservation, error)
	// GetReservationDetail joins the client and the accommodation unit.
	GetReservationDetail(ctx context.Context, ex SQLExecutor, id int64) (*models.Reservation, error)
	GetReservations(ctx context.Context, ex SQLExecutor, filters models.ReservationFilters) ([]models.Reservation, int, error) // Reservations, total count
	UpdateReservation(ctx context.Context, ex SQLExecutor, reservation *models.Reservation) error
	DeleteReservation(ctx context.Context, ex SQLExecutor, id int64) error

	// FindOverlapping returns the non-cancelled reservations of a unit whose
	// half-open stay intersects [checkIn, checkOut), ordered by check-in.
	FindOverlapping(ctx context.Context, ex SQLExecutor, unitID int64, checkIn, checkOut time.Time, excludeID *int64) ([]models.Reservation, error)
	// FindNearby returns the non-cancelled reservations of a unit that end in
	// (checkIn-window, checkIn] or start in [checkOut, checkOut+window).
	FindNearby(ctx context.Context, ex SQLExecutor, unitID int64, checkIn, checkOut time.Time, window time.Duration, excludeID *int64) ([]models.Reservation, error)
	// OccupiedUnitIDs returns the distinct units holding at least one
	// non-cancelled reservation that intersects [checkIn, checkOut).
	OccupiedUnitIDs(ctx context.Context, ex SQLExecutor, checkIn, checkOut time.Time) ([]int64, error)
}

type reservationRepository struct{}

// NewReservationRepository creates a new instance of ReservationRepository.
func NewReservationRepository() ReservationRepository {
	return &reservationRepository{}
}

const selectReservationFields = `
	r.id, r.accommodation_unit_id, r.client_id, r.check_in, r.check_out,
	r.guest_count_adults, r.guest_count_children, r.pet_count,
	r.total_price, r.price_breakdown, r.amount_paid, r.payment_history,
	r.status, r.notes, r.created_at, r.updated_at`

const reservationDetailJoins = `
	FROM reservations r
	INNER JOIN clients c ON r.client_id = c.id
	INNER JOIN accommodation_units u ON r.accommodation_unit_id = u.id`

func reservationScanDest(reservation *models.Reservation) []interface{} {
	return []interface{}{
		&reservation.ID, &reservation.AccommodationUnitID, &reservation.ClientID, &reservation.CheckIn, &reservation.CheckOut,
		&reservation.GuestCountAdults, &reservation.GuestCountChildren, &reservation.PetCount,
		&reservation.TotalPrice, &reservation.PriceBreakdown, &reservation.AmountPaid, &reservation.PaymentHistory,
		&reservation.Status, &reservation.Notes, &reservation.CreatedAt, &reservation.UpdatedAt,
	}
}

// scanReservationDetail scans a reservation row together with its joined
// client and unit. extra receives any trailing columns (e.g. a window count).
func scanReservationDetail(row scanner, extra ...interface{}) (*models.Reservation, error) {
	var (
		reservation models.Reservation
		client      models.Client
		unit        models.AccommodationUnit
	)
	dest := reservationScanDest(&reservation)
	dest = append(dest, clientScanDest(&client)...)
	dest = append(dest, unitScanDest(&unit)...)
	dest = append(dest, extra...)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	reservation.Client = &client
	reservation.AccommodationUnit = &unit
	reservation.Refresh()
	return &reservation, nil
}

// normalizeTimes stores every instant in UTC so SQLite text comparisons
// order the same way PostgreSQL timestamps do.
func normalizeTimes(reservation *models.Reservation) {
	reservation.CheckIn = reservation.CheckIn.UTC()
	reservation.CheckOut = reservation.CheckOut.UTC()
	reservation.CreatedAt = reservation.CreatedAt.UTC()
	reservation.UpdatedAt = reservation.UpdatedAt.UTC()
}

func (r *reservationRepository) CreateReservation(ctx context.Context, ex SQLExecutor, reservation *models.Reservation) error {
	normalizeTimes(reservation)
	query := `INSERT INTO reservations
	            (accommodation_unit_id, client_id, check_in, check_out, guest_count_adults, guest_count_children, pet_count,
	             total_price, price_breakdown, amount_paid, payment_history, status, notes, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	          RETURNING id`

	err := ex.QueryRowContext(ctx, query,
		reservation.AccommodationUnitID, reservation.ClientID, reservation.CheckIn, reservation.CheckOut,
		reservation.GuestCountAdults, reservation.GuestCountChildren, reservation.PetCount,
		reservation.TotalPrice, reservation.PriceBreakdown, reservation.AmountPaid, reservation.PaymentHistory,
		reservation.Status, reservation.Notes, reservation.CreatedAt, reservation.UpdatedAt,
	).Scan(&reservation.ID)
	return classifyError(err, "creating reservation")
}

func (r *reservationRepository) GetReservationByID(ctx context.Context, ex SQLExecutor, id int64) (*models.Reservation, error) {
	query := "SELECT " + selectReservationFields + " FROM reservations r WHERE r.id = $1"
	var reservation models.Reservation
	if err := ex.QueryRowContext(ctx, query, id).Scan(reservationScanDest(&reservation)...); err != nil {
		return nil, classifyError(err, fmt.Sprintf("getting reservation ID %d", id))
	}
	reservation.Refresh()
	return &reservation, nil
}

func (r *reservationRepository) GetReservationDetail(ctx context.Context, ex SQLExecutor, id int64) (*models.Reservation, error) {
	query := "SELECT " + selectReservationFields + ", " + selectClientFields + ", " + selectUnitFields +
		reservationDetailJoins + " WHERE r.id = $1"
	reservation, err := scanReservationDetail(ex.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, classifyError(err, fmt.Sprintf("getting reservation detail ID %d", id))
	}
	return reservation, nil
}

func (r *reservationRepository) GetReservations(ctx context.Context, ex SQLExecutor, filters models.ReservationFilters) ([]models.Reservation, int, error) {
	var queryBuilder strings.Builder
	queryBuilder.WriteString("SELECT " + selectReservationFields + ", " + selectClientFields + ", " + selectUnitFields +
		", COUNT(*) OVER() AS total_count" + reservationDetailJoins)

	var conditions []string
	var args []interface{}
	if filters.Status != nil && *filters.Status != "" {
		args = append(args, *filters.Status)
		conditions = append(conditions, "r.status = "+placeholder(len(args)))
	}
	if filters.AccommodationUnitID != nil {
		args = append(args, *filters.AccommodationUnitID)
		conditions = append(conditions, "r.accommodation_unit_id = "+placeholder(len(args)))
	}
	if filters.ClientID != nil {
		args = append(args, *filters.ClientID)
		conditions = append(conditions, "r.client_id = "+placeholder(len(args)))
	}
	if filters.CheckInStart != nil {
		args = append(args, filters.CheckInStart.UTC())
		conditions = append(conditions, "r.check_in >= "+placeholder(len(args)))
	}
	if filters.CheckInEnd != nil {
		args = append(args, filters.CheckInEnd.UTC())
		conditions = append(conditions, "r.check_in <= "+placeholder(len(args)))
	}
	if len(conditions) > 0 {
		queryBuilder.WriteString(" WHERE " + strings.Join(conditions, " AND "))
	}
	queryBuilder.WriteString(" ORDER BY r.check_in DESC, r.id DESC")

	if filters.PageSize > 0 {
		args = append(args, filters.PageSize)
		queryBuilder.WriteString(" LIMIT " + placeholder(len(args)))
		if filters.Page > 0 {
			args = append(args, (filters.Page-1)*filters.PageSize)
			queryBuilder.WriteString(" OFFSET " + placeholder(len(args)))
		}
	}

	rows, err := ex.QueryContext(ctx, queryBuilder.String(), args...)
	if err != nil {
		return nil, 0, classifyError(err, "querying reservations")
	}
	defer rows.Close()

	reservations := []models.Reservation{}
	totalCount := 0
	for rows.Next() {
		reservation, err := scanReservationDetail(rows, &totalCount)
		if err != nil {
			return nil, 0, classifyError(err, "scanning reservation")
		}
		reservations = append(reservations, *reservation)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, classifyError(err, "iterating reservation rows")
	}
	return reservations, totalCount, nil
}

func (r *reservationRepository) UpdateReservation(ctx context.Context, ex SQLExecutor, reservation *models.Reservation) error {
	normalizeTimes(reservation)
	query := `UPDATE reservations SET
	            accommodation_unit_id = $1, client_id = $2, check_in = $3, check_out = $4,
	            guest_count_adults = $5, guest_count_children = $6, pet_count = $7,
	            total_price = $8, price_breakdown = $9, amount_paid = $10, payment_history = $11,
	            status = $12, notes = $13, updated_at = $14
	          WHERE id = $15`
	result, err := ex.ExecContext(ctx, query,
		reservation.AccommodationUnitID, reservation.ClientID, reservation.CheckIn, reservation.CheckOut,
		reservation.GuestCountAdults, reservation.GuestCountChildren, reservation.PetCount,
		reservation.TotalPrice, reservation.PriceBreakdown, reservation.AmountPaid, reservation.PaymentHistory,
		reservation.Status, reservation.Notes, reservation.UpdatedAt, reservation.ID,
	)
	if err != nil {
		return classifyError(err, fmt.Sprintf("updating reservation ID %d", reservation.ID))
	}
	return affectedOne(result, fmt.Sprintf("updating reservation ID %d", reservation.ID))
}

func (r *reservationRepository) DeleteReservation(ctx context.Context, ex SQLExecutor, id int64) error {
	result, err := ex.ExecContext(ctx, `DELETE FROM reservations WHERE id = $1`, id)
	if err != nil {
		return classifyError(err, fmt.Sprintf("deleting reservation ID %d", id))
	}
	return affectedOne(result, fmt.Sprintf("deleting reservation ID %d", id))
}

// overlapClause is the single definition of "occupies the window": not
// cancelled, starts before the window ends and ends after it starts.
// Touching endpoints do not overlap.
func overlapClause(args *[]interface{}, checkIn, checkOut time.Time) string {
	*args = append(*args, models.ReservationStatusCancelled)
	status := placeholder(len(*args))
	*args = append(*args, checkOut.UTC())
	end := placeholder(len(*args))
	*args = append(*args, checkIn.UTC())
	start := placeholder(len(*args))
	return fmt.Sprintf("r.status <> %s AND r.check_in < %s AND r.check_out > %s", status, end, start)
}

func excludeClause(args *[]interface{}, excludeID *int64) string {
	if excludeID == nil {
		return ""
	}
	*args = append(*args, *excludeID)
	return " AND r.id <> " + placeholder(len(*args))
}

func (r *reservationRepository) queryDetails(ctx context.Context, ex SQLExecutor, op, where string, args []interface{}) ([]models.Reservation, error) {
	query := "SELECT " + selectReservationFields + ", " + selectClientFields + ", " + selectUnitFields +
		reservationDetailJoins + " WHERE " + where + " ORDER BY r.check_in ASC, r.id ASC"
	rows, err := ex.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, classifyError(err, op)
	}
	defer rows.Close()

	reservations := []models.Reservation{}
	for rows.Next() {
		reservation, err := scanReservationDetail(rows)
		if err != nil {
			return nil, classifyError(err, op)
		}
		reservations = append(reservations, *reservation)
	}
	if err := rows.Err(); err != nil {
		return nil, classifyError(err, op)
	}
	return reservations, nil
}

func (r *reservationRepository) FindOverlapping(ctx context.Context, ex SQLExecutor, unitID int64, checkIn, checkOut time.Time, excludeID *int64) ([]models.Reservation, error) {
	args := []interface{}{unitID}
	where := "r.accommodation_unit_id = $1 AND " + overlapClause(&args, checkIn, checkOut) + excludeClause(&args, excludeID)
	return r.queryDetails(ctx, ex, fmt.Sprintf("finding overlapping reservations for unit ID %d", unitID), where, args)
}

func (r *reservationRepository) FindNearby(ctx context.Context, ex SQLExecutor, unitID int64, checkIn, checkOut time.Time, window time.Duration, excludeID *int64) ([]models.Reservation, error) {
	checkIn, checkOut = checkIn.UTC(), checkOut.UTC()
	args := []interface{}{unitID, models.ReservationStatusCancelled,
		checkIn.Add(-window), checkIn, checkOut, checkOut.Add(window)}
	where := `r.accommodation_unit_id = $1 AND r.status <> $2
	          AND ((r.check_out > $3 AND r.check_out <= $4) OR (r.check_in >= $5 AND r.check_in < $6))` +
		excludeClause(&args, excludeID)
	return r.queryDetails(ctx, ex, fmt.Sprintf("finding nearby reservations for unit ID %d", unitID), where, args)
}

func (r *reservationRepository) OccupiedUnitIDs(ctx context.Context, ex SQLExecutor, checkIn, checkOut time.Time) ([]int64, error) {
	var args []interface{}
	query := "SELECT DISTINCT r.accommodation_unit_id FROM reservations r WHERE " + overlapClause(&args, checkIn, checkOut)
	rows, err := ex.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, classifyError(err, "querying occupied units")
	}
	defer rows.Close()

	ids := []int64{}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, classifyError(err, "scanning occupied unit ID")
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, classifyError(err, "iterating occupied unit rows")
	}
	return ids, nil
}
