package service

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/spec-kit/payroll-desk/internal/audit"
	"github.com/spec-kit/payroll-desk/internal/calendar"
	"github.com/spec-kit/payroll-desk/internal/domain"
	"github.com/spec-kit/payroll-desk/internal/report"
	"github.com/spec-kit/payroll-desk/internal/store"
	apperrors "github.com/spec-kit/payroll-desk/pkg/util/errorutil"
)

// Overview status labels.
const (
	LabelOnTrack  = "On Track"
	LabelDelayed  = "Delayed"
	LabelCritical = "Critical"
)

// DashboardService computes read-only summaries.
type DashboardService struct {
	store   *store.Store
	now     Clock
	mirrors map[string]audit.Mirror
}

// AuditSourceMemory names the in-memory trail, the default audit source.
const AuditSourceMemory = "memory"

const mirrorReadLimit = 200

// TicketStats counts a company's tickets.
type TicketStats struct {
	Total        int
	Open         int
	CriticalOpen int
	ByPriority   map[domain.Priority]int
	ByType       map[domain.TicketType]int
}

// Dashboard is the per-company summary.
type Dashboard struct {
	Company domain.Company
	Tickets TicketStats
	Cycle   CycleView
}

// CompanyOverview is one row of the cross-company view.
type CompanyOverview struct {
	Company      domain.Company
	Cycle        CycleView
	StatusLabel  string
	OpenTickets  int
	CriticalOpen int
}

// NewDashboardService constructs the service.
func NewDashboardService(st *store.Store, clock Clock) *DashboardService {
	return &DashboardService{store: st, now: clockOrNow(clock), mirrors: map[string]audit.Mirror{}}
}

// WithMirrors registers audit mirrors that can be read back by name.
func (s *DashboardService) WithMirrors(mirrors ...audit.Mirror) *DashboardService {
	for _, m := range mirrors {
		if m != nil {
			s.mirrors[m.Name()] = m
		}
	}
	return s
}

// CompanyDashboard summarises one company.
func (s *DashboardService) CompanyDashboard(ctx context.Context, companyID string) (Dashboard, error) {
	var dash Dashboard
	err := s.store.View(func(tx *store.Tx) error {
		company, err := tx.Company(companyID)
		if err != nil {
			return err
		}
		cycle, err := tx.ActiveCycle(companyID)
		if err != nil {
			return err
		}
		dash = Dashboard{
			Company: company,
			Tickets: ticketStats(tx.Tickets(), companyID),
			Cycle:   NewCycleView(cycle),
		}
		return nil
	})
	return dash, mapError(err)
}

// Overview summarises every company's cycle and ticket load.
func (s *DashboardService) Overview(ctx context.Context) ([]CompanyOverview, error) {
	var out []CompanyOverview
	err := s.store.View(func(tx *store.Tx) error {
		tickets := tx.Tickets()
		for _, company := range tx.Companies() {
			row := CompanyOverview{Company: company}
			if cycle, err := tx.ActiveCycle(company.ID); err == nil {
				row.Cycle = NewCycleView(cycle)
			}
			row.StatusLabel = StatusLabel(row.Cycle.Progress.Percent)
			stats := ticketStats(tickets, company.ID)
			row.OpenTickets = stats.Open
			row.CriticalOpen = stats.CriticalOpen
			out = append(out, row)
		}
		return nil
	})
	return out, err
}

// AuditEntries returns the trail newest first, narrowed by filter.
func (s *DashboardService) AuditEntries(ctx context.Context, filter audit.Filter) []domain.AuditLogEntry {
	return s.store.Log().Filter(filter)
}

// MirroredAuditEntries reads the trail back from the named mirror. Only the
// newest entries the mirror returns are filtered.
func (s *DashboardService) MirroredAuditEntries(ctx context.Context, source string, filter audit.Filter) ([]domain.AuditLogEntry, error) {
	if source == "" || source == AuditSourceMemory {
		return s.AuditEntries(ctx, filter), nil
	}
	mirror, ok := s.mirrors[source]
	if !ok {
		return nil, apperrors.NewValidationError("unknown audit source", map[string]any{
			"source":    source,
			"available": s.auditSources(),
		})
	}
	limit := mirrorReadLimit
	if filter.Limit > limit {
		limit = filter.Limit
	}
	entries, err := mirror.Recent(ctx, limit)
	if err != nil {
		de := apperrors.NewDomainError("SOURCE_UNAVAILABLE", "audit source unavailable", http.StatusServiceUnavailable,
			map[string]any{"source": source})
		de.Err = err
		return nil, de
	}
	return filter.Apply(entries), nil
}

func (s *DashboardService) auditSources() []string {
	out := []string{AuditSourceMemory}
	for name := range s.mirrors {
		out = append(out, name)
	}
	sort.Strings(out[1:])
	return out
}

// Calendar lists a company's fiscal deadlines for a month. A zero year or
// month falls back to the current one; a non-zero day keeps only the
// deadlines falling on it.
func (s *DashboardService) Calendar(ctx context.Context, companyID string, year int, month time.Month, day int) ([]calendar.Event, error) {
	var company domain.Company
	err := s.store.View(func(tx *store.Tx) error {
		var err error
		company, err = tx.Company(companyID)
		return err
	})
	if err != nil {
		return nil, mapError(err)
	}
	today := s.now()
	if year == 0 {
		year = today.Year()
	}
	if month == 0 {
		month = today.Month()
	}
	if month < time.January || month > time.December {
		return nil, apperrors.NewValidationError("invalid month", map[string]any{"month": int(month)})
	}
	events := calendar.Generate(company, year, month, today)
	if day == 0 {
		return events, nil
	}
	if last := time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day(); day < 1 || day > last {
		return nil, apperrors.NewValidationError("invalid day", map[string]any{"day": day})
	}
	return calendar.OnDay(events, time.Date(year, month, day, 0, 0, 0, 0, today.Location())), nil
}

// ExportAudit renders the filtered trail as a workbook.
func (s *DashboardService) ExportAudit(ctx context.Context, filter audit.Filter) ([]byte, string, error) {
	raw, err := report.AuditWorkbook(s.store.Log().Filter(filter))
	if err != nil {
		return nil, "", apperrors.NewInternalError(err)
	}
	return raw, fmt.Sprintf("audit-%s.xlsx", s.now().Format("20060102")), nil
}

// StatusLabel grades cycle progress: above 80% is on track, above 40%
// delayed, anything else critical.
func StatusLabel(percent int) string {
	switch {
	case percent > 80:
		return LabelOnTrack
	case percent > 40:
		return LabelDelayed
	default:
		return LabelCritical
	}
}

func ticketStats(tickets []domain.Ticket, companyID string) TicketStats {
	stats := TicketStats{
		ByPriority: make(map[domain.Priority]int, len(domain.Priorities)),
		ByType:     make(map[domain.TicketType]int, len(domain.TicketTypes)),
	}
	for _, p := range domain.Priorities {
		stats.ByPriority[p] = 0
	}
	for _, t := range tickets {
		if t.CompanyID != companyID {
			continue
		}
		stats.Total++
		stats.ByPriority[t.Priority]++
		stats.ByType[t.Type]++
		if t.IsOpen() {
			stats.Open++
			if t.Priority == domain.PriorityCritical {
				stats.CriticalOpen++
			}
		}
	}
	return stats
}
