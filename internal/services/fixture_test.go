package services

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"lodge_backend/internal/metrics"
	"lodge_backend/internal/models"
	"lodge_backend/internal/repositories"
	"lodge_backend/internal/testutil"
)

// brt is a fixed UTC-3 zone, the lodge's local time in these tests.
var brt = time.FixedZone("BRT", -3*60*60)

type fixture struct {
	t               *testing.T
	ctx             context.Context
	db              *sql.DB
	clock           *testutil.Clock
	metrics         *metrics.Metrics
	units           UnitService
	clients         ClientService
	reservations    ReservationService
	transactions    TransactionService
	availability    AvailabilityService
	reports         ReportService
	reservationRepo repositories.ReservationRepository
	transactionRepo repositories.TransactionRepository
	unitRepo        repositories.UnitRepository
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.OpenSQLite(t)
	clock := testutil.NewClock(time.Date(2025, 5, 20, 15, 0, 0, 0, time.UTC))
	m := metrics.New()

	dialect := repositories.NewDialect("sqlite3")
	unitRepo := repositories.NewUnitRepository(dialect)
	clientRepo := repositories.NewClientRepository()
	reservationRepo := repositories.NewReservationRepository()
	transactionRepo := repositories.NewTransactionRepository(dialect)

	units := NewUnitService(unitRepo, db, clock, m)
	f := &fixture{
		t:               t,
		ctx:             context.Background(),
		db:              db,
		clock:           clock,
		metrics:         m,
		units:           units,
		clients:         NewClientService(clientRepo, db, clock),
		transactions:    NewTransactionService(transactionRepo, db, clock),
		availability:    NewAvailabilityService(reservationRepo, units, db),
		reports:         NewReportService(repositories.NewReportRepository(), units, db, clock, brt),
		reservationRepo: reservationRepo,
		transactionRepo: transactionRepo,
		unitRepo:        unitRepo,
	}
	f.reservations = NewReservationService(ReservationServiceDeps{
		DB:              db,
		ReservationRepo: reservationRepo,
		UnitRepo:        unitRepo,
		ClientRepo:      clientRepo,
		TransactionRepo: transactionRepo,
		Units:           units,
		Validator:       NewBookingValidator(reservationRepo, 2*time.Hour, brt),
		Reconciler:      NewReconciler(db, reservationRepo, transactionRepo, clock, brt, m),
		Clock:           clock,
		Location:        brt,
		Metrics:         m,
	})
	return f
}

func (f *fixture) unit(name string) *models.AccommodationUnit {
	f.t.Helper()
	capacity := 4
	price := decimal.RequireFromString("350.00")
	unit, err := f.units.CreateUnit(f.ctx, CreateUnitRequest{Name: name, MaxCapacity: &capacity, BasePrice: &price})
	if err != nil {
		f.t.Fatalf("create unit %q: %v", name, err)
	}
	return unit
}

func (f *fixture) client(name string) *models.Client {
	f.t.Helper()
	client, err := f.clients.CreateClient(f.ctx, CreateClientRequest{FullName: name})
	if err != nil {
		f.t.Fatalf("create client %q: %v", name, err)
	}
	return client
}

// book creates a reservation; checkIn and checkOut are local BRT timestamps.
func (f *fixture) book(unitID, clientID int64, checkIn, checkOut string, mutators ...func(*CreateReservationRequest)) (*ReservationResult, error) {
	f.t.Helper()
	req := CreateReservationRequest{
		AccommodationUnitID: unitID,
		ClientID:            clientID,
		CheckIn:             checkIn + "-03:00",
		CheckOut:            checkOut + "-03:00",
	}
	for _, m := range mutators {
		m(&req)
	}
	return f.reservations.CreateReservation(f.ctx, req)
}

func (f *fixture) mustBook(unitID, clientID int64, checkIn, checkOut string, mutators ...func(*CreateReservationRequest)) *ReservationResult {
	f.t.Helper()
	res, err := f.book(unitID, clientID, checkIn, checkOut, mutators...)
	if err != nil {
		f.t.Fatalf("book %s..%s: %v", checkIn, checkOut, err)
	}
	return res
}

func (f *fixture) ledger(reservationID int64) []models.Transaction {
	f.t.Helper()
	txns, _, err := f.transactions.GetTransactions(f.ctx, models.TransactionFilters{ReservationID: &reservationID})
	if err != nil {
		f.t.Fatalf("list transactions: %v", err)
	}
	return txns
}

func withTotal(amount string) func(*CreateReservationRequest) {
	return func(req *CreateReservationRequest) {
		total := decimal.RequireFromString(amount)
		req.TotalPrice = models.Optional[decimal.Decimal]{Set: true, Value: &total}
	}
}

func withStatus(status models.ReservationStatus) func(*CreateReservationRequest) {
	return func(req *CreateReservationRequest) {
		s := string(status)
		req.Status = &s
	}
}

func withPaid(amount string) func(*CreateReservationRequest) {
	return func(req *CreateReservationRequest) {
		paid := decimal.RequireFromString(amount)
		req.AmountPaid = &paid
	}
}

func dec(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func strPtr(s string) *string { return &s }
