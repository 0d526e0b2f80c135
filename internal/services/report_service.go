package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"lodge_backend/internal/models"
	"lodge_backend/internal/repositories"
)

var ErrReportValidation = errors.New("report parameters validation error")

// upcomingArrivalsDays is the horizon of DashboardSummary.UpcomingArrivalsCount.
const upcomingArrivalsDays = 7

// ReportService computes the dashboard and financial summaries.
type ReportService interface {
	GetDashboardSummary(ctx context.Context) (*models.DashboardSummary, error)
	GetFinancialReport(ctx context.Context, params models.ReportRequestParams) (*models.FinancialReport, error)
}

type reportService struct {
	reportRepo repositories.ReportRepository
	units      UnitService
	db         *sql.DB
	clock      Clock
	loc        *time.Location
}

// NewReportService creates a new instance of ReportService. Day and month
// boundaries are taken in loc.
func NewReportService(repo repositories.ReportRepository, units UnitService, db *sql.DB, clock Clock, loc *time.Location) ReportService {
	if loc == nil {
		loc = time.UTC
	}
	return &reportService{reportRepo: repo, units: units, db: db, clock: clock, loc: loc}
}

func (s *reportService) GetDashboardSummary(ctx context.Context) (*models.DashboardSummary, error) {
	now := s.clock.Now().In(s.loc)
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.loc)
	endOfDay := startOfDay.AddDate(0, 0, 1)
	startOfMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, s.loc)

	summary := &models.DashboardSummary{Date: models.NewDate(now)}
	var err error

	if summary.ArrivalsToday, err = s.reportRepo.CountArrivals(ctx, s.db, startOfDay, endOfDay); err != nil {
		return nil, fmt.Errorf("failed to count arrivals: %w", err)
	}
	if summary.DeparturesToday, err = s.reportRepo.CountDepartures(ctx, s.db, startOfDay, endOfDay); err != nil {
		return nil, fmt.Errorf("failed to count departures: %w", err)
	}
	if summary.UpcomingArrivalsCount, err = s.reportRepo.CountArrivals(ctx, s.db, endOfDay, endOfDay.AddDate(0, 0, upcomingArrivalsDays)); err != nil {
		return nil, fmt.Errorf("failed to count upcoming arrivals: %w", err)
	}
	if summary.InHouseCount, err = s.reportRepo.CountReservationsByStatus(ctx, s.db, models.ReservationStatusCheckedIn); err != nil {
		return nil, fmt.Errorf("failed to count guests in house: %w", err)
	}
	if summary.PendingReservationsCount, err = s.reportRepo.CountReservationsByStatus(ctx, s.db, models.ReservationStatusPending); err != nil {
		return nil, fmt.Errorf("failed to count pending reservations: %w", err)
	}

	// Through the registry so the elapsed-days rule is applied first.
	dirty := string(models.UnitStatusDirty)
	dirtyUnits, err := s.units.ListUnits(ctx, models.UnitFilters{Status: &dirty})
	if err != nil {
		return nil, err
	}
	summary.DirtyUnitsCount = len(dirtyUnits)

	if summary.OpenReceivables, err = s.reportRepo.SumOpen(ctx, s.db, models.TransactionTypeIncome); err != nil {
		return nil, fmt.Errorf("failed to sum open receivables: %w", err)
	}
	monthFrom, monthTo := models.NewDate(startOfMonth), models.NewDate(startOfMonth.AddDate(0, 1, 0))
	if summary.IncomeThisMonth, err = s.reportRepo.SumPaidBetween(ctx, s.db, models.TransactionTypeIncome, monthFrom, monthTo); err != nil {
		return nil, fmt.Errorf("failed to sum monthly income: %w", err)
	}
	if summary.ExpenseThisMonth, err = s.reportRepo.SumPaidBetween(ctx, s.db, models.TransactionTypeExpense, monthFrom, monthTo); err != nil {
		return nil, fmt.Errorf("failed to sum monthly expenses: %w", err)
	}
	return summary, nil
}

// GetFinancialReport defaults to the current month when a bound is missing.
func (s *reportService) GetFinancialReport(ctx context.Context, params models.ReportRequestParams) (*models.FinancialReport, error) {
	now := s.clock.Now().In(s.loc)
	startOfMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, s.loc)

	from := models.NewDate(startOfMonth)
	if params.StartDate != nil {
		from = *params.StartDate
	}
	to := models.NewDate(startOfMonth.AddDate(0, 1, -1))
	if params.EndDate != nil {
		to = *params.EndDate
	}
	if to.Before(from.Time) {
		return nil, newValidationError(ErrReportValidation, "end_date", "end_date must not be before start_date")
	}

	items, err := s.reportRepo.FinancialBreakdown(ctx, s.db, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to build financial report: %w", err)
	}

	report := &models.FinancialReport{
		StartDate:    from,
		EndDate:      to,
		Items:        items,
		TotalIncome:  decimal.Zero,
		TotalExpense: decimal.Zero,
	}
	for _, item := range items {
		switch item.TransactionType {
		case models.TransactionTypeIncome:
			report.TotalIncome = report.TotalIncome.Add(item.Total)
		case models.TransactionTypeExpense:
			report.TotalExpense = report.TotalExpense.Add(item.Total)
		}
	}
	report.Net = report.TotalIncome.Sub(report.TotalExpense)
	return report, nil
}
