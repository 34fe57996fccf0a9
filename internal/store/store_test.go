package store

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/payroll-desk/internal/audit"
	"github.com/spec-kit/payroll-desk/internal/domain"
	"github.com/spec-kit/payroll-desk/internal/resolution"
)

var t0 = time.Date(2024, time.June, 3, 10, 0, 0, 0, time.UTC)

func snapshot() Snapshot {
	return Snapshot{
		Companies: []domain.Company{{ID: "c1", Name: "Acme"}},
		Users: []domain.User{
			{ID: "u1", Name: "Ana", Email: "ana@payroll.local", Role: domain.RolePayrollManager},
		},
		Tickets: []domain.Ticket{
			{ID: "t-old", CompanyID: "c1", CreatedAt: t0.Add(-time.Hour)},
			{ID: "t-new", CompanyID: "c1", CreatedAt: t0},
		},
		Cycles: []domain.PayrollCycle{{ID: "cy1", CompanyID: "c1", Status: domain.StatusInProgress}},
		History: []domain.PayrollCycle{
			{ID: "h-old", CompanyID: "c1", PeriodStart: t0.AddDate(0, -2, 0)},
			{ID: "h-new", CompanyID: "c1", PeriodStart: t0.AddDate(0, -1, 0)},
		},
	}
}

func newStore() *Store {
	return New(snapshot(), audit.NewLog(nil, nil, nil))
}

func TestNewOrdersTicketsAndHistory(t *testing.T) {
	s := newStore()
	require.NoError(t, s.View(func(tx *Tx) error {
		tickets := tx.Tickets()
		assert.Equal(t, "t-new", tickets[0].ID)
		history := tx.History("c1")
		assert.Equal(t, "h-new", history[0].ID)
		return nil
	}))
}

func TestMutateCommitsAndAppendsEntry(t *testing.T) {
	s := newStore()
	err := s.Mutate(context.Background(), func(tx *Tx) (*domain.AuditLogEntry, error) {
		tx.InsertTicket(domain.Ticket{ID: "t3", CompanyID: "c1", CreatedAt: t0.Add(time.Hour)})
		_, err := tx.Ticket("t3")
		assert.ErrorIs(t, err, ErrNotFound, "staged writes are not visible before commit")
		return &domain.AuditLogEntry{ID: "log-1", Action: audit.ActionTicketCreated}, nil
	})
	require.NoError(t, err)

	require.NoError(t, s.View(func(tx *Tx) error {
		_, err := tx.Ticket("t3")
		return err
	}))
	assert.Equal(t, 1, s.Log().Len())
}

func TestMutateFailureDiscardsWrites(t *testing.T) {
	s := newStore()
	boom := errors.New("boom")
	err := s.Mutate(context.Background(), func(tx *Tx) (*domain.AuditLogEntry, error) {
		tx.AddCompany(domain.Company{ID: "c2"})
		return &domain.AuditLogEntry{ID: "log-x"}, boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 0, s.Log().Len())
	_ = s.View(func(tx *Tx) error {
		assert.Len(t, tx.Companies(), 1)
		return nil
	})
}

func TestViewRejectsWrites(t *testing.T) {
	s := newStore()
	assert.Panics(t, func() {
		_ = s.View(func(tx *Tx) error {
			tx.AddCompany(domain.Company{ID: "c2"})
			return nil
		})
	})
}

func TestReadsReturnCopies(t *testing.T) {
	s := newStore()
	_ = s.View(func(tx *Tx) error {
		c, err := tx.ActiveCycle("c1")
		require.NoError(t, err)
		c.Status = domain.StatusCompleted
		again, _ := tx.ActiveCycle("c1")
		assert.Equal(t, domain.StatusInProgress, again.Status)
		return nil
	})
}

func TestLookupMisses(t *testing.T) {
	s := newStore()
	_ = s.View(func(tx *Tx) error {
		_, err := tx.Company("nope")
		assert.ErrorIs(t, err, ErrNotFound)
		_, err = tx.ActiveCycle("nope")
		assert.ErrorIs(t, err, ErrNotFound)
		_, err = tx.Draft("t-new")
		assert.ErrorIs(t, err, ErrNotFound)
		_, err = tx.Cycle("h-old")
		assert.NoError(t, err)
		u, err := tx.UserByEmail(" ANA@payroll.local ")
		assert.NoError(t, err)
		assert.Equal(t, "u1", u.ID)
		return nil
	})
}

func TestArchiveAndDrafts(t *testing.T) {
	s := newStore()
	ctx := context.Background()
	require.NoError(t, s.Mutate(ctx, func(tx *Tx) (*domain.AuditLogEntry, error) {
		tx.Archive(domain.PayrollCycle{ID: "cy1", CompanyID: "c1", Status: domain.StatusCompleted})
		tx.PutActiveCycle(domain.PayrollCycle{ID: "cy2", CompanyID: "c1"})
		tx.PutDraft(resolution.Draft{TicketID: "t-new"})
		return nil, nil
	}))
	_ = s.View(func(tx *Tx) error {
		h := tx.History("c1")
		assert.Len(t, h, 3)
		assert.Equal(t, "cy1", h[0].ID)
		c, _ := tx.ActiveCycle("c1")
		assert.Equal(t, "cy2", c.ID)
		_, err := tx.Draft("t-new")
		assert.NoError(t, err)
		return nil
	})
	assert.Equal(t, 0, s.Log().Len(), "a nil entry appends nothing")

	require.NoError(t, s.Mutate(ctx, func(tx *Tx) (*domain.AuditLogEntry, error) {
		tx.DeleteDraft("t-new")
		return nil, nil
	}))
	_ = s.View(func(tx *Tx) error {
		_, err := tx.Draft("t-new")
		assert.ErrorIs(t, err, ErrNotFound)
		return nil
	})
}

func TestApplyAnalysisIsOnlyWriter(t *testing.T) {
	s := newStore()
	require.NoError(t, s.ApplyAnalysis("t-new", "summary"))
	assert.ErrorIs(t, s.ApplyAnalysis("nope", "x"), ErrNotFound)

	require.NoError(t, s.Mutate(context.Background(), func(tx *Tx) (*domain.AuditLogEntry, error) {
		tk, err := tx.Ticket("t-new")
		if err != nil {
			return nil, err
		}
		tk.AIAnalysis = "overwritten"
		tk.Title = "renamed"
		tx.PutTicket(tk)
		return nil, nil
	}))
	_ = s.View(func(tx *Tx) error {
		tk, _ := tx.Ticket("t-new")
		assert.Equal(t, "summary", tk.AIAnalysis)
		assert.Equal(t, "renamed", tk.Title)
		return nil
	})
}

func TestConcurrentMutationsKeepLogOrder(t *testing.T) {
	s := newStore()
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = s.Mutate(context.Background(), func(tx *Tx) (*domain.AuditLogEntry, error) {
				n := len(tx.Companies())
				tx.AddCompany(domain.Company{ID: "x"})
				return &domain.AuditLogEntry{ID: "e", Details: string(rune('a' + n))}, nil
			})
		}()
	}
	wg.Wait()

	entries := s.Log().Entries()
	require.Len(t, entries, 20)
	for i := 1; i < len(entries); i++ {
		assert.Greater(t, entries[i-1].Details, entries[i].Details)
	}
}
