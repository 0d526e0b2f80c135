package repositories

import (
	"context"
	"fmt"
	"strings"

	"lodge_backend/internal/models"
)

// TransactionRepository defines the interface for ledger transaction database operations.
type TransactionRepository interface {
	CreateTransaction(ctx context.Context, ex SQLExecutor, txn *models.Transaction) error
	GetTransactionByID(ctx context.Context, ex SQLExecutor, id int64) (*models.Transaction, error)
	GetTransactions(ctx context.Context, ex SQLExecutor, filters models.TransactionFilters) ([]models.Transaction, int, error) // Transactions, total count
	UpdateTransaction(ctx context.Context, ex SQLExecutor, txn *models.Transaction) error
	DeleteTransaction(ctx context.Context, ex SQLExecutor, id int64) error

	// GetIncomeForReservation locks and returns the reservation's income
	// transaction, or ErrNotFound when there is none.
	GetIncomeForReservation(ctx context.Context, ex SQLExecutor, reservationID int64) (*models.Transaction, error)
	// DeleteUnpaidForReservation removes every transaction of the reservation
	// without a paid date and reports how many were removed.
	DeleteUnpaidForReservation(ctx context.Context, ex SQLExecutor, reservationID int64) (int64, error)
	DeleteAllForReservation(ctx context.Context, ex SQLExecutor, reservationID int64) error
}

type transactionRepository struct {
	dialect Dialect
}

// NewTransactionRepository creates a new instance of TransactionRepository.
func NewTransactionRepository(dialect Dialect) TransactionRepository {
	return &transactionRepository{dialect: dialect}
}

const selectTransactionFields = `
	t.id, t.reservation_id, t.amount, t.transaction_type, t.category, t.payment_method,
	t.due_date, t.paid_date, t.description, t.notes, t.created_at, t.updated_at`

func transactionScanDest(txn *models.Transaction) []interface{} {
	return []interface{}{
		&txn.ID, &txn.ReservationID, &txn.Amount, &txn.TransactionType, &txn.Category, &txn.PaymentMethod,
		&txn.DueDate, &txn.PaidDate, &txn.Description, &txn.Notes, &txn.CreatedAt, &txn.UpdatedAt,
	}
}

func (r *transactionRepository) CreateTransaction(ctx context.Context, ex SQLExecutor, txn *models.Transaction) error {
	query := `INSERT INTO transactions
	            (reservation_id, amount, transaction_type, category, payment_method, due_date, paid_date,
	             description, notes, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	          RETURNING id`

	txn.CreatedAt, txn.UpdatedAt = txn.CreatedAt.UTC(), txn.UpdatedAt.UTC()
	err := ex.QueryRowContext(ctx, query,
		txn.ReservationID, txn.Amount, txn.TransactionType, txn.Category, txn.PaymentMethod, txn.DueDate, txn.PaidDate,
		txn.Description, txn.Notes, txn.CreatedAt, txn.UpdatedAt,
	).Scan(&txn.ID)
	if err != nil {
		return classifyError(err, "creating transaction")
	}
	txn.Refresh()
	return nil
}

func (r *transactionRepository) GetTransactionByID(ctx context.Context, ex SQLExecutor, id int64) (*models.Transaction, error) {
	query := "SELECT " + selectTransactionFields + " FROM transactions t WHERE t.id = $1"
	var txn models.Transaction
	if err := ex.QueryRowContext(ctx, query, id).Scan(transactionScanDest(&txn)...); err != nil {
		return nil, classifyError(err, fmt.Sprintf("getting transaction ID %d", id))
	}
	txn.Refresh()
	return &txn, nil
}

func (r *transactionRepository) GetTransactions(ctx context.Context, ex SQLExecutor, filters models.TransactionFilters) ([]models.Transaction, int, error) {
	var queryBuilder strings.Builder
	queryBuilder.WriteString("SELECT " + selectTransactionFields + ", COUNT(*) OVER() AS total_count FROM transactions t")

	var conditions []string
	var args []interface{}
	if filters.ReservationID != nil {
		args = append(args, *filters.ReservationID)
		conditions = append(conditions, "t.reservation_id = "+placeholder(len(args)))
	}
	if filters.TransactionType != nil && *filters.TransactionType != "" {
		args = append(args, *filters.TransactionType)
		conditions = append(conditions, "t.transaction_type = "+placeholder(len(args)))
	}
	if filters.Category != nil && *filters.Category != "" {
		args = append(args, *filters.Category)
		conditions = append(conditions, "t.category = "+placeholder(len(args)))
	}
	if filters.PaymentMethod != nil && *filters.PaymentMethod != "" {
		args = append(args, *filters.PaymentMethod)
		conditions = append(conditions, "t.payment_method = "+placeholder(len(args)))
	}
	if filters.DueDateStart != nil {
		args = append(args, *filters.DueDateStart)
		conditions = append(conditions, "t.due_date >= "+placeholder(len(args)))
	}
	if filters.DueDateEnd != nil {
		args = append(args, *filters.DueDateEnd)
		conditions = append(conditions, "t.due_date <= "+placeholder(len(args)))
	}
	if filters.IsPaid != nil {
		if *filters.IsPaid {
			conditions = append(conditions, "t.paid_date IS NOT NULL")
		} else {
			conditions = append(conditions, "t.paid_date IS NULL")
		}
	}
	if len(conditions) > 0 {
		queryBuilder.WriteString(" WHERE " + strings.Join(conditions, " AND "))
	}
	queryBuilder.WriteString(" ORDER BY t.due_date DESC, t.id DESC")

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
		return nil, 0, classifyError(err, "querying transactions")
	}
	defer rows.Close()

	txns := []models.Transaction{}
	totalCount := 0
	for rows.Next() {
		var txn models.Transaction
		if err := rows.Scan(append(transactionScanDest(&txn), &totalCount)...); err != nil {
			return nil, 0, classifyError(err, "scanning transaction")
		}
		txn.Refresh()
		txns = append(txns, txn)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, classifyError(err, "iterating transaction rows")
	}
	return txns, totalCount, nil
}

func (r *transactionRepository) UpdateTransaction(ctx context.Context, ex SQLExecutor, txn *models.Transaction) error {
	query := `UPDATE transactions SET
	            reservation_id = $1, amount = $2, transaction_type = $3, category = $4, payment_method = $5,
	            due_date = $6, paid_date = $7, description = $8, notes = $9, updated_at = $10
	          WHERE id = $11`
	txn.UpdatedAt = txn.UpdatedAt.UTC()
	result, err := ex.ExecContext(ctx, query,
		txn.ReservationID, txn.Amount, txn.TransactionType, txn.Category, txn.PaymentMethod,
		txn.DueDate, txn.PaidDate, txn.Description, txn.Notes, txn.UpdatedAt, txn.ID,
	)
	if err != nil {
		return classifyError(err, fmt.Sprintf("updating transaction ID %d", txn.ID))
	}
	if err := affectedOne(result, fmt.Sprintf("updating transaction ID %d", txn.ID)); err != nil {
		return err
	}
	txn.Refresh()
	return nil
}

func (r *transactionRepository) DeleteTransaction(ctx context.Context, ex SQLExecutor, id int64) error {
	result, err := ex.ExecContext(ctx, `DELETE FROM transactions WHERE id = $1`, id)
	if err != nil {
		return classifyError(err, fmt.Sprintf("deleting transaction ID %d", id))
	}
	return affectedOne(result, fmt.Sprintf("deleting transaction ID %d", id))
}

func (r *transactionRepository) GetIncomeForReservation(ctx context.Context, ex SQLExecutor, reservationID int64) (*models.Transaction, error) {
	query := r.dialect.ForUpdate("SELECT " + selectTransactionFields +
		" FROM transactions t WHERE t.reservation_id = $1 AND t.transaction_type = $2")
	var txn models.Transaction
	err := ex.QueryRowContext(ctx, query, reservationID, models.TransactionTypeIncome).Scan(transactionScanDest(&txn)...)
	if err != nil {
		return nil, classifyError(err, fmt.Sprintf("getting income transaction for reservation ID %d", reservationID))
	}
	txn.Refresh()
	return &txn, nil
}

func (r *transactionRepository) DeleteUnpaidForReservation(ctx context.Context, ex SQLExecutor, reservationID int64) (int64, error) {
	result, err := ex.ExecContext(ctx,
		`DELETE FROM transactions WHERE reservation_id = $1 AND paid_date IS NULL`, reservationID)
	if err != nil {
		return 0, classifyError(err, fmt.Sprintf("deleting unpaid transactions for reservation ID %d", reservationID))
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, classifyError(err, "getting rows affected for unpaid transaction delete")
	}
	return n, nil
}

func (r *transactionRepository) DeleteAllForReservation(ctx context.Context, ex SQLExecutor, reservationID int64) error {
	_, err := ex.ExecContext(ctx, `DELETE FROM transactions WHERE reservation_id = $1`, reservationID)
	return classifyError(err, fmt.Sprintf("deleting transactions for reservation ID %d", reservationID))
}
