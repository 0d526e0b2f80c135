package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type TransactionType string

const (
	TransactionTypeIncome  TransactionType = "INCOME"
	TransactionTypeExpense TransactionType = "EXPENSE"
)

func IsValidTransactionType(t string) bool {
	switch TransactionType(t) {
	case TransactionTypeIncome, TransactionTypeExpense:
		return true
	default:
		return false
	}
}

type TransactionCategory string

const (
	CategoryLodging     TransactionCategory = "LODGING"
	CategoryMaintenance TransactionCategory = "MAINTENANCE"
	CategoryUtilities   TransactionCategory = "UTILITIES"
	CategorySupplies    TransactionCategory = "SUPPLIES"
	CategorySalary      TransactionCategory = "SALARY"
	CategoryOther       TransactionCategory = "OTHER"
)

func IsValidTransactionCategory(c string) bool {
	switch TransactionCategory(c) {
	case CategoryLodging, CategoryMaintenance, CategoryUtilities, CategorySupplies, CategorySalary, CategoryOther:
		return true
	default:
		return false
	}
}

type PaymentMethod string

const (
	PaymentMethodPix          PaymentMethod = "PIX"
	PaymentMethodCreditCard   PaymentMethod = "CREDIT_CARD"
	PaymentMethodDebitCard    PaymentMethod = "DEBIT_CARD"
	PaymentMethodCash         PaymentMethod = "CASH"
	PaymentMethodBankTransfer PaymentMethod = "BANK_TRANSFER"
)

func IsValidPaymentMethod(m string) bool {
	switch PaymentMethod(m) {
	case PaymentMethodPix, PaymentMethodCreditCard, PaymentMethodDebitCard, PaymentMethodCash, PaymentMethodBankTransfer:
		return true
	default:
		return false
	}
}

// Transaction is a ledger entry, either linked to a reservation (income kept
// in sync by reconciliation) or standalone.
type Transaction struct {
	ID              int64               `json:"id"`
	ReservationID   *int64              `json:"reservation"`
	Amount          decimal.Decimal     `json:"amount"`
	TransactionType TransactionType     `json:"transaction_type"`
	Category        TransactionCategory `json:"category"`
	PaymentMethod   PaymentMethod       `json:"payment_method"`
	DueDate         Date                `json:"due_date"`
	PaidDate        *Date               `json:"paid_date"`
	Description     *string             `json:"description"`
	Notes           *string             `json:"notes"`
	Paid            bool                `json:"is_paid"`
	CreatedAt       time.Time           `json:"created_at"`
	UpdatedAt       time.Time           `json:"updated_at"`
}

// IsPaid is derived from the presence of a paid date.
func (t *Transaction) IsPaid() bool {
	return t.PaidDate != nil
}

// Refresh recomputes the derived JSON fields.
func (t *Transaction) Refresh() {
	t.Paid = t.IsPaid()
}

// TransactionFilters defines the available filters for querying transactions.
type TransactionFilters struct {
	ReservationID   *int64
	TransactionType *string
	Category        *string
	PaymentMethod   *string
	DueDateStart    *Date
	DueDateEnd      *Date
	IsPaid          *bool
	Page            int
	PageSize        int
}
