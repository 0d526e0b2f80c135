package models

import "github.com/shopspring/decimal"

// DashboardSummary holds the front-desk figures for one calendar day.
type DashboardSummary struct {
	Date                     Date            `json:"date"`
	ArrivalsToday            int             `json:"arrivals_today"`
	DeparturesToday          int             `json:"departures_today"`
	InHouseCount             int             `json:"in_house_count"`
	PendingReservationsCount int             `json:"pending_reservations_count"`
	UpcomingArrivalsCount    int             `json:"upcoming_arrivals_count"` // next 7 days, today excluded
	DirtyUnitsCount          int             `json:"dirty_units_count"`
	OpenReceivables          decimal.Decimal `json:"open_receivables"`   // unpaid INCOME, any due date
	IncomeThisMonth          decimal.Decimal `json:"income_this_month"`  // INCOME paid this month
	ExpenseThisMonth         decimal.Decimal `json:"expense_this_month"` // EXPENSE paid this month
}

// FinancialReportItem aggregates the ledger for one type and category.
type FinancialReportItem struct {
	TransactionType TransactionType     `json:"transaction_type"`
	Category        TransactionCategory `json:"category"`
	Count           int                 `json:"count"`
	Total           decimal.Decimal     `json:"total"`
	Paid            decimal.Decimal     `json:"paid"`
	Open            decimal.Decimal     `json:"open"`
}

// FinancialReport covers transactions due within [StartDate, EndDate].
type FinancialReport struct {
	StartDate    Date                  `json:"start_date"`
	EndDate      Date                  `json:"end_date"`
	Items        []FinancialReportItem `json:"items"`
	TotalIncome  decimal.Decimal       `json:"total_income"`
	TotalExpense decimal.Decimal       `json:"total_expense"`
	Net          decimal.Decimal       `json:"net"`
}

// ReportRequestParams holds the optional period of a report.
type ReportRequestParams struct {
	StartDate *Date
	EndDate   *Date
}
