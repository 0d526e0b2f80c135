package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"lodge_backend/internal/models"
)

// ReportRepository runs the aggregate queries behind the dashboard and the
// financial report.
type ReportRepository interface {
	CountArrivals(ctx context.Context, ex SQLExecutor, from, to time.Time) (int, error)
	CountDepartures(ctx context.Context, ex SQLExecutor, from, to time.Time) (int, error)
	CountReservationsByStatus(ctx context.Context, ex SQLExecutor, status models.ReservationStatus) (int, error)
	SumOpen(ctx context.Context, ex SQLExecutor, txType models.TransactionType) (decimal.Decimal, error)
	SumPaidBetween(ctx context.Context, ex SQLExecutor, txType models.TransactionType, from, to models.Date) (decimal.Decimal, error)
	FinancialBreakdown(ctx context.Context, ex SQLExecutor, from, to models.Date) ([]models.FinancialReportItem, error)
}

type reportRepository struct{}

// NewReportRepository creates a new instance of ReportRepository.
func NewReportRepository() ReportRepository {
	return &reportRepository{}
}

func (r *reportRepository) count(ctx context.Context, ex SQLExecutor, op, query string, args ...interface{}) (int, error) {
	var n int
	if err := ex.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, classifyError(err, op)
	}
	return n, nil
}

// CountArrivals counts active reservations checking in within [from, to).
func (r *reportRepository) CountArrivals(ctx context.Context, ex SQLExecutor, from, to time.Time) (int, error) {
	return r.count(ctx, ex, "counting arrivals",
		`SELECT COUNT(*) FROM reservations WHERE status <> $1 AND check_in >= $2 AND check_in < $3`,
		models.ReservationStatusCancelled, from.UTC(), to.UTC())
}

// CountDepartures counts active reservations checking out within [from, to).
func (r *reportRepository) CountDepartures(ctx context.Context, ex SQLExecutor, from, to time.Time) (int, error) {
	return r.count(ctx, ex, "counting departures",
		`SELECT COUNT(*) FROM reservations WHERE status <> $1 AND check_out >= $2 AND check_out < $3`,
		models.ReservationStatusCancelled, from.UTC(), to.UTC())
}

func (r *reportRepository) CountReservationsByStatus(ctx context.Context, ex SQLExecutor, status models.ReservationStatus) (int, error) {
	return r.count(ctx, ex, fmt.Sprintf("counting %s reservations", status),
		`SELECT COUNT(*) FROM reservations WHERE status = $1`, status)
}

func (r *reportRepository) sum(ctx context.Context, ex SQLExecutor, op, query string, args ...interface{}) (decimal.Decimal, error) {
	var total decimal.Decimal
	if err := ex.QueryRowContext(ctx, query, args...).Scan(&total); err != nil {
		return decimal.Zero, classifyError(err, op)
	}
	return total, nil
}

// SumOpen totals the unpaid transactions of a type.
func (r *reportRepository) SumOpen(ctx context.Context, ex SQLExecutor, txType models.TransactionType) (decimal.Decimal, error) {
	return r.sum(ctx, ex, "summing open transactions",
		`SELECT COALESCE(SUM(amount), 0) FROM transactions WHERE transaction_type = $1 AND paid_date IS NULL`, txType)
}

// SumPaidBetween totals transactions of a type paid within [from, to).
func (r *reportRepository) SumPaidBetween(ctx context.Context, ex SQLExecutor, txType models.TransactionType, from, to models.Date) (decimal.Decimal, error) {
	return r.sum(ctx, ex, "summing paid transactions",
		`SELECT COALESCE(SUM(amount), 0) FROM transactions
		 WHERE transaction_type = $1 AND paid_date >= $2 AND paid_date < $3`, txType, from, to)
}

// FinancialBreakdown groups transactions due within [from, to] by type and
// category.
func (r *reportRepository) FinancialBreakdown(ctx context.Context, ex SQLExecutor, from, to models.Date) ([]models.FinancialReportItem, error) {
	query := `SELECT transaction_type, category, COUNT(*),
	                 COALESCE(SUM(amount), 0),
	                 COALESCE(SUM(CASE WHEN paid_date IS NOT NULL THEN amount ELSE 0 END), 0)
	          FROM transactions
	          WHERE due_date >= $1 AND due_date <= $2
	          GROUP BY transaction_type, category
	          ORDER BY transaction_type ASC, category ASC`

	rows, err := ex.QueryContext(ctx, query, from, to)
	if err != nil {
		return nil, classifyError(err, "querying financial breakdown")
	}
	defer rows.Close()

	items := []models.FinancialReportItem{}
	for rows.Next() {
		var item models.FinancialReportItem
		if err := rows.Scan(&item.TransactionType, &item.Category, &item.Count, &item.Total, &item.Paid); err != nil {
			return nil, classifyError(err, "scanning financial breakdown row")
		}
		item.Open = item.Total.Sub(item.Paid)
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, classifyError(err, "iterating financial breakdown rows")
	}
	return items, nil
}
