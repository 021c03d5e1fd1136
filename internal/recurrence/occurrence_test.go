package recurrence

import (
	"testing"
	"time"

	"github.com/maneeshanif/todo-realtime-core/pkg/models"
)

func TestAdvanceDaily(t *testing.T) {
	from := time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC)
	next, err := Advance(from, models.RecurrenceDaily, 1)
	if err != nil {
		t.Fatalf("Advance() error = %v", err)
	}
	want := time.Date(2026, 1, 16, 10, 0, 0, 0, time.UTC)
	if !next.Equal(want) {
		t.Fatalf("next = %v, want %v", next, want)
	}
}

func TestAdvanceWeeklyEveryTwo(t *testing.T) {
	from := time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC)
	next, err := Advance(from, models.RecurrenceWeekly, 2)
	if err != nil {
		t.Fatalf("Advance() error = %v", err)
	}
	want := time.Date(2026, 1, 29, 10, 0, 0, 0, time.UTC)
	if !next.Equal(want) {
		t.Fatalf("next = %v, want %v", next, want)
	}
}

func TestAdvanceMonthlyAndYearly(t *testing.T) {
	from := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	month, err := Advance(from, models.RecurrenceMonthly, 1)
	if err != nil {
		t.Fatalf("Advance() error = %v", err)
	}
	if month.Month() != time.April {
		t.Fatalf("month = %v, want April", month.Month())
	}

	year, err := Advance(from, models.RecurrenceYearly, 1)
	if err != nil {
		t.Fatalf("Advance() error = %v", err)
	}
	if year.Year() != 2027 {
		t.Fatalf("year = %d, want 2027", year.Year())
	}
}

func TestAdvanceMonthlyClampsJan31ToFeb28(t *testing.T) {
	from := time.Date(2026, 1, 31, 9, 0, 0, 0, time.UTC)
	next, err := Advance(from, models.RecurrenceMonthly, 1)
	if err != nil {
		t.Fatalf("Advance() error = %v", err)
	}
	want := time.Date(2026, 2, 28, 9, 0, 0, 0, time.UTC)
	if !next.Equal(want) {
		t.Fatalf("next = %v, want %v", next, want)
	}
}

func TestAdvanceMonthlyClampsJan31ToFeb29InLeapYear(t *testing.T) {
	from := time.Date(2028, 1, 31, 9, 0, 0, 0, time.UTC)
	next, err := Advance(from, models.RecurrenceMonthly, 1)
	if err != nil {
		t.Fatalf("Advance() error = %v", err)
	}
	want := time.Date(2028, 2, 29, 9, 0, 0, 0, time.UTC)
	if !next.Equal(want) {
		t.Fatalf("next = %v, want %v", next, want)
	}
}

func TestAdvanceYearlyClampsFeb29ToFeb28InNonLeapYear(t *testing.T) {
	from := time.Date(2028, 2, 29, 9, 0, 0, 0, time.UTC)
	next, err := Advance(from, models.RecurrenceYearly, 1)
	if err != nil {
		t.Fatalf("Advance() error = %v", err)
	}
	want := time.Date(2029, 2, 28, 9, 0, 0, 0, time.UTC)
	if !next.Equal(want) {
		t.Fatalf("next = %v, want %v", next, want)
	}
}

func TestAdvanceMonthlyCrossesYearBoundary(t *testing.T) {
	from := time.Date(2026, 12, 15, 0, 0, 0, 0, time.UTC)
	next, err := Advance(from, models.RecurrenceMonthly, 2)
	if err != nil {
		t.Fatalf("Advance() error = %v", err)
	}
	want := time.Date(2027, 2, 15, 0, 0, 0, 0, time.UTC)
	if !next.Equal(want) {
		t.Fatalf("next = %v, want %v", next, want)
	}
}

func TestAdvanceDefaultsIntervalWhenUnset(t *testing.T) {
	from := time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)
	next, err := Advance(from, models.RecurrenceDaily, 0)
	if err != nil {
		t.Fatalf("Advance() error = %v", err)
	}
	if !next.Equal(from.AddDate(0, 0, 1)) {
		t.Fatalf("next = %v, want one day after %v", next, from)
	}
}

func TestAdvanceRejectsUnknownPattern(t *testing.T) {
	if _, err := Advance(time.Now(), "fortnightly", 1); err == nil {
		t.Fatal("expected an error for an unknown recurrence pattern")
	}
}
