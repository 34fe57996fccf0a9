package calendar

import (
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/payroll-desk/internal/domain"
)

func byID(events []Event) map[string]Event {
	out := make(map[string]Event, len(events))
	for _, e := range events {
		out[e.ID] = e
	}
	return out
}

func TestGenerateDates(t *testing.T) {
	company := domain.Company{ID: "c1", TaxID: "20100100101"}
	today := time.Date(2024, time.October, 1, 9, 0, 0, 0, time.UTC)

	events := byID(Generate(company, 2024, time.October, today))
	require.Len(t, events, 5)
	assert.Equal(t, 15, events["tax-1"].Date.Day())
	assert.Equal(t, 5, events["legal-1"].Date.Day())
	assert.Equal(t, 15, events["pay-1"].Date.Day())
	assert.Equal(t, 20, events["int-1"].Date.Day())
	assert.Equal(t, 30, events["pay-2"].Date.Day())
	assert.Contains(t, events["tax-1"].Description, "ending in 1")
}

func TestGenerateShortMonthClampsPayday(t *testing.T) {
	company := domain.Company{TaxID: "20550550559"}
	events := byID(Generate(company, 2023, time.February, time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)))

	assert.Equal(t, 28, events["pay-2"].Date.Day())
	assert.Equal(t, 23, events["tax-1"].Date.Day())
	assert.Equal(t, time.February, events["tax-1"].Date.Month())
}

func TestGenerateStatuses(t *testing.T) {
	company := domain.Company{TaxID: "20100100101"} // tax due on the 15th
	cases := []struct {
		name   string
		today  time.Time
		tax    EventStatus
		cutoff EventStatus
	}{
		{"early in month", time.Date(2024, 10, 2, 12, 0, 0, 0, time.UTC), StatusPending, StatusWarning},
		{"two days before tax", time.Date(2024, 10, 13, 12, 0, 0, 0, time.UTC), StatusWarning, StatusWarning},
		{"tax due today", time.Date(2024, 10, 15, 12, 0, 0, 0, time.UTC), StatusWarning, StatusWarning},
		{"after cut-off", time.Date(2024, 10, 21, 12, 0, 0, 0, time.UTC), StatusCompleted, StatusCompleted},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			events := byID(Generate(company, 2024, time.October, tc.today))
			assert.Equal(t, tc.tax, events["tax-1"].Status)
			assert.Equal(t, tc.cutoff, events["int-1"].Status)
			assert.Equal(t, StatusPending, events["pay-2"].Status)
		})
	}
}

func TestGenerateNonDigitTaxID(t *testing.T) {
	events := byID(Generate(domain.Company{TaxID: "ABC"}, 2024, time.March, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, 14, events["tax-1"].Date.Day())
}

func TestOnDay(t *testing.T) {
	events := Generate(domain.Company{TaxID: "1"}, 2024, time.October, time.Date(2024, 9, 1, 0, 0, 0, 0, time.UTC))
	got := OnDay(events, time.Date(2024, 10, 15, 18, 0, 0, 0, time.UTC))
	require.Len(t, got, 2)
}

func TestGenerateSortedByDate(t *testing.T) {
	events := Generate(domain.Company{TaxID: "9"}, 2024, time.October, time.Date(2024, 9, 1, 0, 0, 0, 0, time.UTC))
	for i := 1; i < len(events); i++ {
		assert.False(t, events[i].Date.Before(events[i-1].Date))
	}
	assert.Equal(t, "tax-1", events[3].ID)
}

func TestDaysBetweenAcrossDaylightSaving(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	// Clocks move forward on 2024-03-10, so the span is 71 hours.
	from := time.Date(2024, time.March, 9, 0, 0, 0, 0, ny)
	to := time.Date(2024, time.March, 12, 0, 0, 0, 0, ny)
	assert.Equal(t, 3, daysBetween(from, to))
	assert.Equal(t, 0, daysBetween(from, from.Add(23*time.Hour)))
	assert.Equal(t, -3, daysBetween(to, from))
}
