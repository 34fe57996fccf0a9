package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/spec-kit/payroll-desk/internal/analysis"
	"github.com/spec-kit/payroll-desk/internal/audit"
	"github.com/spec-kit/payroll-desk/internal/domain"
	"github.com/spec-kit/payroll-desk/internal/events"
	"github.com/spec-kit/payroll-desk/internal/seed"
	"github.com/spec-kit/payroll-desk/internal/store"
	apperrors "github.com/spec-kit/payroll-desk/pkg/util/errorutil"
)

var fixedNow = time.Date(2024, time.October, 12, 12, 0, 0, 0, time.UTC)

var (
	ana    = domain.Actor{ID: "u1", Name: "Ana Martinez", Role: domain.RolePayrollManager}
	carlos = domain.Actor{ID: "u2", Name: "Carlos Ruiz", Role: domain.RoleOperations}
	elena  = domain.Actor{ID: "u3", Name: "Elena Gomez", Role: domain.RoleAccounting}
	admin  = domain.Actor{ID: "u4", Name: "System Admin", Role: domain.RoleAdmin}
)

type stubAnalyzer struct {
	mu    sync.Mutex
	text  string
	err   error
	calls int
}

func (s *stubAnalyzer) Analyze(_ context.Context, b analysis.Brief) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return s.text + b.Title, s.err
}

type env struct {
	store      *store.Store
	dispatcher events.Dispatcher
	data       seed.Data
	analyzer   *stubAnalyzer
	tickets    *TicketService
	payroll    *PayrollService
	admin      *AdminService
	dashboard  *DashboardService
	published  []events.Event
	mu         sync.Mutex
}

func newEnv(t *testing.T) *env {
	t.Helper()
	data, err := seed.Default(fixedNow, "")
	require.NoError(t, err)

	e := &env{dispatcher: events.NewInMemoryDispatcher(), data: data, analyzer: &stubAnalyzer{text: "analysis of "}}
	e.dispatcher.Subscribe(events.EventAnalysisFinished, func(_ context.Context, ev events.Event) error {
		e.mu.Lock()
		defer e.mu.Unlock()
		e.published = append(e.published, ev)
		return nil
	})
	e.store = store.New(data.Snapshot, audit.NewLog(e.dispatcher, nil, data.Audit))
	clock := func() time.Time { return fixedNow }
	e.tickets = NewTicketService(TicketDependencies{
		Store:      e.store,
		Analyzer:   e.analyzer,
		AITimeout:  time.Second,
		Dispatcher: e.dispatcher,
		Clock:      clock,
	})
	e.payroll = NewPayrollService(e.store, nil, clock)
	e.admin = NewAdminService(AdminDependencies{
		Store:      e.store,
		Workflow:   data.Workflow,
		BcryptCost: 4,
		Clock:      clock,
	})
	e.dashboard = NewDashboardService(e.store, clock)
	return e
}

func (e *env) auditLen() int {
	return e.store.Log().Len()
}

func (e *env) lastEntry(t *testing.T) domain.AuditLogEntry {
	t.Helper()
	entries := e.store.Log().Entries()
	require.NotEmpty(t, entries)
	return entries[0]
}

func requireStatus(t *testing.T, err error, status int) *apperrors.DomainError {
	t.Helper()
	require.Error(t, err)
	var de *apperrors.DomainError
	require.True(t, errors.As(err, &de), "expected DomainError, got %T: %v", err, err)
	require.Equal(t, status, de.HTTPStatus, de.Message)
	return de
}
