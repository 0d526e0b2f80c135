package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestReservationPaymentState(t *testing.T) {
	total := func(s string) decimal.NullDecimal {
		return decimal.NullDecimal{Decimal: decimal.RequireFromString(s), Valid: true}
	}
	tests := []struct {
		name      string
		total     decimal.NullDecimal
		paid      string
		remaining string
		fullyPaid bool
	}{
		{"no total price", decimal.NullDecimal{}, "100", "0", false},
		{"zero total", total("0"), "0", "0", false},
		{"partially paid", total("1050"), "300", "750", false},
		{"exactly paid", total("1050"), "1050", "0", true},
		{"overpaid", total("1050"), "1200", "0", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := Reservation{TotalPrice: tt.total, AmountPaid: decimal.RequireFromString(tt.paid)}
			r.Refresh()
			if !r.AmountRemaining.Equal(decimal.RequireFromString(tt.remaining)) {
				t.Errorf("remaining = %s, want %s", r.AmountRemaining, tt.remaining)
			}
			if r.FullyPaid != tt.fullyPaid {
				t.Errorf("fully paid = %v, want %v", r.FullyPaid, tt.fullyPaid)
			}
		})
	}
}

func TestDateScanAndJSON(t *testing.T) {
	var d Date
	if err := d.Scan("2025-06-01 00:00:00+00:00"); err != nil || d.String() != "2025-06-01" {
		t.Fatalf("scan string: %v %s", err, d)
	}
	if err := d.Scan(time.Date(2025, 6, 2, 23, 0, 0, 0, time.UTC)); err != nil || d.String() != "2025-06-02" {
		t.Fatalf("scan time: %v %s", err, d)
	}
	if err := d.Scan(42); err == nil {
		t.Fatalf("expected an error scanning an int")
	}

	out, _ := json.Marshal(d)
	if string(out) != `"2025-06-02"` {
		t.Errorf("marshal = %s", out)
	}
	var back Date
	if err := json.Unmarshal([]byte(`"2025-13-01"`), &back); err == nil {
		t.Errorf("expected an error for month 13")
	}
}

func TestOptional(t *testing.T) {
	var req struct {
		Notes Optional[string] `json:"notes"`
		Email Optional[string] `json:"email"`
		Phone Optional[string] `json:"phone"`
	}
	if err := json.Unmarshal([]byte(`{"notes": null, "email": "a@b.co"}`), &req); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !req.Notes.Set || req.Notes.Value != nil {
		t.Errorf("explicit null should be Set with nil value: %+v", req.Notes)
	}
	if !req.Email.Set || req.Email.Value == nil || *req.Email.Value != "a@b.co" {
		t.Errorf("email not decoded: %+v", req.Email)
	}
	if req.Phone.Set {
		t.Errorf("omitted field must not be Set")
	}
}

func TestJSONColumns(t *testing.T) {
	var tags StringList
	if err := tags.Scan([]byte(`["vip","returning"]`)); err != nil || len(tags) != 2 {
		t.Fatalf("scan bytes: %v %v", err, tags)
	}
	if err := tags.Scan(nil); err != nil || tags == nil || len(tags) != 0 {
		t.Fatalf("NULL should scan to an empty list: %v %v", err, tags)
	}
	v, err := PaymentHistory(nil).Value()
	if err != nil || v != "[]" {
		t.Fatalf("nil history value = %v, %v", v, err)
	}
	var history PaymentHistory
	if err := history.Scan(`[{"date":"2025-06-01","amount":"300","method":"PIX"}]`); err != nil {
		t.Fatalf("scan history: %v", err)
	}
	if len(history) != 1 || !history[0].Amount.Equal(decimal.NewFromInt(300)) {
		t.Errorf("unexpected history %+v", history)
	}
}
