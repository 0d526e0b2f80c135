package services

import (
	"errors"
	"testing"
	"time"

	"lodge_backend/internal/models"
)

func TestFindAvailableExcludesOccupiedUnits(t *testing.T) {
	f := newFixture(t)
	busy, free := f.unit("Chalé Ocupado"), f.unit("Chalé Livre")
	ana := f.client("Ana")
	f.mustBook(busy.ID, ana.ID, "2025-06-01T14:00:00", "2025-06-04T12:00:00", withStatus(models.ReservationStatusConfirmed))

	at := func(day, hour int) time.Time { return time.Date(2025, 6, day, hour, 0, 0, 0, brt) }

	units, err := f.availability.FindAvailable(f.ctx, at(3, 10), at(5, 12))
	if err != nil {
		t.Fatalf("find available: %v", err)
	}
	if len(units) != 1 || units[0].ID != free.ID {
		t.Fatalf("expected only %q, got %+v", free.Name, units)
	}

	// A window starting exactly at the existing check-out is free.
	units, err = f.availability.FindAvailable(f.ctx, at(4, 12), at(6, 12))
	if err != nil {
		t.Fatalf("find available: %v", err)
	}
	if len(units) != 2 {
		t.Fatalf("expected both units for a back-to-back window, got %d", len(units))
	}
}

func TestFindAvailableIgnoresCancelled(t *testing.T) {
	f := newFixture(t)
	unit := f.unit("Chalé Cancelado")
	ana := f.client("Ana")
	f.mustBook(unit.ID, ana.ID, "2025-06-01T14:00:00", "2025-06-04T12:00:00", withStatus(models.ReservationStatusCancelled))

	units, err := f.availability.FindAvailable(f.ctx,
		time.Date(2025, 6, 2, 0, 0, 0, 0, brt), time.Date(2025, 6, 3, 0, 0, 0, 0, brt))
	if err != nil {
		t.Fatalf("find available: %v", err)
	}
	if len(units) != 1 {
		t.Fatalf("cancelled stays do not occupy units, got %d available", len(units))
	}
}

func TestFindAvailableAgreesWithBooking(t *testing.T) {
	f := newFixture(t)
	unit := f.unit("Chalé Agree")
	ana, bruno := f.client("Ana"), f.client("Bruno")
	f.mustBook(unit.ID, ana.ID, "2025-06-10T14:00:00", "2025-06-12T12:00:00")

	windows := [][2]string{
		{"2025-06-08T14:00:00", "2025-06-10T14:00:00"},
		{"2025-06-09T14:00:00", "2025-06-10T15:00:00"},
		{"2025-06-12T12:00:00", "2025-06-13T12:00:00"},
		{"2025-06-11T12:00:00", "2025-06-13T12:00:00"},
	}
	for _, w := range windows {
		in, _ := time.ParseInLocation("2006-01-02T15:04:05", w[0], brt)
		out, _ := time.ParseInLocation("2006-01-02T15:04:05", w[1], brt)
		units, err := f.availability.FindAvailable(f.ctx, in, out)
		if err != nil {
			t.Fatalf("find available: %v", err)
		}
		available := len(units) == 1

		res, err := f.book(unit.ID, bruno.ID, w[0], w[1])
		booked := err == nil
		if err != nil && !errors.Is(err, ErrReservationConflict) {
			t.Fatalf("book: %v", err)
		}
		if available != booked {
			t.Fatalf("window %v: availability says %v but booking says %v", w, available, booked)
		}
		if booked {
			if err := f.reservations.DeleteReservation(f.ctx, res.ID); err != nil {
				t.Fatalf("cleanup: %v", err)
			}
		}
	}
}

func TestFindAvailableRejectsEmptyWindow(t *testing.T) {
	f := newFixture(t)
	at := time.Date(2025, 6, 1, 14, 0, 0, 0, brt)
	if _, err := f.availability.FindAvailable(f.ctx, at, at); !errors.Is(err, ErrInvalidReservationTime) {
		t.Fatalf("expected ErrInvalidReservationTime, got %v", err)
	}
}
