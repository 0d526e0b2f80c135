package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"lodge_backend/internal/models"
	"lodge_backend/internal/repositories"
	"lodge_backend/pkg/utils"
)

// --- Custom Service Errors for ledger Transactions ---
var (
	ErrTransactionNotFound   = errors.New("transaction not found")
	ErrTransactionValidation = errors.New("transaction data validation error")
	ErrIncomeAlreadyExists   = errors.New("reservation already has an income transaction")
)

// --- Transaction DTOs ---
type CreateTransactionRequest struct {
	ReservationID   *int64           `json:"reservation" binding:"omitempty,min=1"`
	Amount          *decimal.Decimal `json:"amount" binding:"required"`
	TransactionType string           `json:"transaction_type" binding:"required,transaction_type"`
	Category        *string          `json:"category" binding:"omitempty,transaction_category"`
	PaymentMethod   string           `json:"payment_method" binding:"required,payment_method"`
	DueDate         *models.Date     `json:"due_date" binding:"required"`
	PaidDate        *models.Date     `json:"paid_date"`
	Description     *string          `json:"description"`
	Notes           *string          `json:"notes"`
}

type UpdateTransactionRequest struct {
	ReservationID   models.Optional[int64]       `json:"reservation"`
	Amount          *decimal.Decimal             `json:"amount"`
	TransactionType *string                      `json:"transaction_type" binding:"omitempty,transaction_type"`
	Category        *string                      `json:"category" binding:"omitempty,transaction_category"`
	PaymentMethod   *string                      `json:"payment_method" binding:"omitempty,payment_method"`
	DueDate         *models.Date                 `json:"due_date"`
	PaidDate        models.Optional[models.Date] `json:"paid_date"`
	Description     models.Optional[string]      `json:"description"`
	Notes           models.Optional[string]      `json:"notes"`
}

// --- TransactionService Interface ---
type TransactionService interface {
	CreateTransaction(ctx context.Context, req CreateTransactionRequest) (*models.Transaction, error)
	GetTransactionByID(ctx context.Context, id int64) (*models.Transaction, error)
	GetTransactions(ctx context.Context, filters models.TransactionFilters) ([]models.Transaction, int, error)
	UpdateTransaction(ctx context.Context, id int64, req UpdateTransactionRequest) (*models.Transaction, error)
	DeleteTransaction(ctx context.Context, id int64) error
}

// --- transactionService Implementation ---
type transactionService struct {
	transactionRepo repositories.TransactionRepository
	db              *sql.DB
	clock           Clock
}

// NewTransactionService creates a new instance of TransactionService.
func NewTransactionService(repo repositories.TransactionRepository, db *sql.DB, clock Clock) TransactionService {
	return &transactionService{
		transactionRepo: repo,
		db:              db,
		clock:           clock,
	}
}

func (s *transactionService) CreateTransaction(ctx context.Context, req CreateTransactionRequest) (*models.Transaction, error) {
	if !req.Amount.IsPositive() {
		return nil, newValidationError(ErrTransactionValidation, "amount", "amount must be greater than zero")
	}
	category := models.CategoryOther
	if req.Category != nil {
		category = models.TransactionCategory(*req.Category)
	} else if req.ReservationID != nil {
		category = models.CategoryLodging
	}

	now := s.clock.Now()
	txn := &models.Transaction{
		ReservationID:   req.ReservationID,
		Amount:          *req.Amount,
		TransactionType: models.TransactionType(req.TransactionType),
		Category:        category,
		PaymentMethod:   models.PaymentMethod(req.PaymentMethod),
		DueDate:         *req.DueDate,
		PaidDate:        req.PaidDate,
		Description:     utils.NullableTrim(req.Description),
		Notes:           utils.NullableTrim(req.Notes),
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.transactionRepo.CreateTransaction(ctx, s.db, txn); err != nil {
		return nil, s.mapWriteError(err)
	}
	return txn, nil
}

func (s *transactionService) GetTransactionByID(ctx context.Context, id int64) (*models.Transaction, error) {
	txn, err := s.transactionRepo.GetTransactionByID(ctx, s.db, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrTransactionNotFound
		}
		return nil, fmt.Errorf("failed to get transaction by ID: %w", err)
	}
	return txn, nil
}

func (s *transactionService) GetTransactions(ctx context.Context, filters models.TransactionFilters) ([]models.Transaction, int, error) {
	if filters.Page <= 0 {
		filters.Page = 1
	}
	if filters.PageSize <= 0 {
		filters.PageSize = 50
	}
	txns, total, err := s.transactionRepo.GetTransactions(ctx, s.db, filters)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get transactions: %w", err)
	}
	return txns, total, nil
}

func (s *transactionService) UpdateTransaction(ctx context.Context, id int64, req UpdateTransactionRequest) (*models.Transaction, error) {
	txn, err := s.transactionRepo.GetTransactionByID(ctx, s.db, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrTransactionNotFound
		}
		return nil, fmt.Errorf("failed to find transaction for update: %w", err)
	}

	if req.ReservationID.Set {
		txn.ReservationID = req.ReservationID.Value
	}
	if req.Amount != nil {
		if !req.Amount.IsPositive() {
			return nil, newValidationError(ErrTransactionValidation, "amount", "amount must be greater than zero")
		}
		txn.Amount = *req.Amount
	}
	if req.TransactionType != nil {
		txn.TransactionType = models.TransactionType(*req.TransactionType)
	}
	if req.Category != nil {
		txn.Category = models.TransactionCategory(*req.Category)
	}
	if req.PaymentMethod != nil {
		txn.PaymentMethod = models.PaymentMethod(*req.PaymentMethod)
	}
	if req.DueDate != nil {
		txn.DueDate = *req.DueDate
	}
	if req.PaidDate.Set {
		txn.PaidDate = req.PaidDate.Value
	}
	if req.Description.Set {
		txn.Description = utils.NullableTrim(req.Description.Value)
	}
	if req.Notes.Set {
		txn.Notes = utils.NullableTrim(req.Notes.Value)
	}
	txn.UpdatedAt = s.clock.Now()

	if err := s.transactionRepo.UpdateTransaction(ctx, s.db, txn); err != nil {
		return nil, s.mapWriteError(err)
	}
	return txn, nil
}

func (s *transactionService) DeleteTransaction(ctx context.Context, id int64) error {
	if err := s.transactionRepo.DeleteTransaction(ctx, s.db, id); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrTransactionNotFound
		}
		return fmt.Errorf("failed to delete transaction: %w", err)
	}
	return nil
}

func (s *transactionService) mapWriteError(err error) error {
	switch {
	case errors.Is(err, repositories.ErrNotFound):
		return ErrTransactionNotFound
	case errors.Is(err, repositories.ErrDuplicateKey):
		return ErrIncomeAlreadyExists
	case errors.Is(err, repositories.ErrForeignKey):
		return newValidationError(ErrTransactionValidation, "reservation", "referenced reservation does not exist")
	default:
		return fmt.Errorf("failed to save transaction: %w", err)
	}
}
