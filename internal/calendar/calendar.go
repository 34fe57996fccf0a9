// Package calendar derives the monthly fiscal and payroll deadlines of a
// company. Events are computed, never stored.
package calendar

import (
	"fmt"
	"sort"
	"time"

	"github.com/spec-kit/payroll-desk/internal/domain"
)

// EventType groups deadlines by the authority they answer to.
type EventType string

const (
	EventTax      EventType = "TAX"
	EventLegal    EventType = "LEGAL"
	EventInternal EventType = "INTERNAL"
	EventPayment  EventType = "PAYMENT"
)

// EventStatus is how close a deadline is.
type EventStatus string

const (
	StatusPending   EventStatus = "PENDING"
	StatusCompleted EventStatus = "COMPLETED"
	StatusWarning   EventStatus = "WARNING"
)

// Event is one deadline on the calendar.
type Event struct {
	ID          string
	Date        time.Time
	Title       string
	Type        EventType
	Status      EventStatus
	Description string
}

const warningDays = 2

// Generate lists the deadlines of company for the given month, sorted by
// date. today decides which events are already past.
func Generate(company domain.Company, year int, month time.Month, today time.Time) []Event {
	loc := today.Location()
	day := func(d int) time.Time { return clampDay(year, month, d, loc) }
	todayDate := truncate(today)

	digit := lastDigit(company.TaxID)
	taxDate := day(14 + digit)
	pensionDate := day(5)
	advanceDate := day(15)
	cutoffDate := day(20)
	payDate := day(30)

	taxStatus := StatusPending
	switch {
	case taxDate.Before(todayDate):
		taxStatus = StatusCompleted
	case daysBetween(todayDate, taxDate) <= warningDays:
		taxStatus = StatusWarning
	}

	cutoffStatus := StatusWarning
	if cutoffDate.Before(todayDate) {
		cutoffStatus = StatusCompleted
	}

	events := []Event{
		{
			ID:          "legal-1",
			Date:        pensionDate,
			Title:       "Pension fund contributions",
			Type:        EventLegal,
			Status:      pastOr(pensionDate, todayDate, StatusPending),
			Description: "Payment of employee pension contributions to the fund administrators.",
		},
		{
			ID:          "tax-1",
			Date:        taxDate,
			Title:       "Monthly payroll tax return",
			Type:        EventTax,
			Status:      taxStatus,
			Description: fmt.Sprintf("Due date for tax ids ending in %d. Includes withholding and social security.", digit),
		},
		{
			ID:          "pay-1",
			Date:        advanceDate,
			Title:       "Mid-month advance payment",
			Type:        EventPayment,
			Status:      pastOr(advanceDate, todayDate, StatusPending),
			Description: "Transfer of salary advances.",
		},
		{
			ID:          "int-1",
			Date:        cutoffDate,
			Title:       "Timesheet and change cut-off",
			Type:        EventInternal,
			Status:      cutoffStatus,
			Description: "Last day to receive overtime and sick leave from operations.",
		},
		{
			ID:          "pay-2",
			Date:        payDate,
			Title:       "Monthly payroll payment",
			Type:        EventPayment,
			Status:      StatusPending,
			Description: "Disbursement of the monthly payroll and bonuses where applicable.",
		},
	}
	sort.SliceStable(events, func(i, j int) bool { return events[i].Date.Before(events[j].Date) })
	return events
}

// OnDay filters events falling on the same calendar day as d.
func OnDay(events []Event, d time.Time) []Event {
	var out []Event
	for _, e := range events {
		if e.Date.Year() == d.Year() && e.Date.YearDay() == d.YearDay() {
			out = append(out, e)
		}
	}
	return out
}

func pastOr(date, today time.Time, otherwise EventStatus) EventStatus {
	if date.Before(today) {
		return StatusCompleted
	}
	return otherwise
}

// lastDigit reads the final character of a tax id, 0 when it is not a digit.
func lastDigit(taxID string) int {
	if taxID == "" {
		return 0
	}
	c := taxID[len(taxID)-1]
	if c < '0' || c > '9' {
		return 0
	}
	return int(c - '0')
}

func clampDay(year int, month time.Month, d int, loc *time.Location) time.Time {
	last := time.Date(year, month+1, 0, 0, 0, 0, 0, loc).Day()
	if d > last {
		d = last
	}
	return time.Date(year, month, d, 0, 0, 0, 0, loc)
}

func truncate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// daysBetween counts calendar days from one date to another. Both are
// re-anchored at UTC midnight so a daylight-saving shift cannot drop a day.
func daysBetween(from, to time.Time) int {
	a := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	b := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, time.UTC)
	return int(b.Sub(a).Hours() / 24)
}
