package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/spec-kit/payroll-desk/internal/audit"
	"github.com/spec-kit/payroll-desk/internal/domain"
	"github.com/spec-kit/payroll-desk/internal/resolution"
)

// ErrNotFound is wrapped by every lookup miss.
var ErrNotFound = errors.New("not found")

// Snapshot is the initial state handed to New.
type Snapshot struct {
	Companies []domain.Company
	Users     []domain.User
	Tickets   []domain.Ticket
	Templates []domain.TicketTemplate
	Cycles    []domain.PayrollCycle
	History   []domain.PayrollCycle
}

// Store holds all back-office state in memory. Every mutation runs inside
// Mutate under one lock, so transitions are applied one at a time and their
// audit entries are appended in the same order.
type Store struct {
	mu        sync.RWMutex
	companies []domain.Company
	users     []domain.User
	tickets   []domain.Ticket // newest first
	templates []domain.TicketTemplate
	cycles    map[string]domain.PayrollCycle
	history   map[string][]domain.PayrollCycle // newest first
	drafts    map[string]resolution.Draft
	log       *audit.Log
}

// New builds a store from a snapshot. The snapshot is deep copied.
func New(snap Snapshot, log *audit.Log) *Store {
	s := &Store{
		cycles:  make(map[string]domain.PayrollCycle),
		history: make(map[string][]domain.PayrollCycle),
		drafts:  make(map[string]resolution.Draft),
		log:     log,
	}
	s.companies = append(s.companies, snap.Companies...)
	s.users = append(s.users, snap.Users...)
	for _, t := range snap.Tickets {
		s.tickets = append(s.tickets, t.Clone())
	}
	sort.SliceStable(s.tickets, func(i, j int) bool {
		return s.tickets[i].CreatedAt.After(s.tickets[j].CreatedAt)
	})
	for _, tpl := range snap.Templates {
		s.templates = append(s.templates, tpl.Clone())
	}
	for _, c := range snap.Cycles {
		s.cycles[c.CompanyID] = c.Clone()
	}
	for _, c := range snap.History {
		s.history[c.CompanyID] = append(s.history[c.CompanyID], c.Clone())
	}
	for id := range s.history {
		h := s.history[id]
		sort.SliceStable(h, func(i, j int) bool { return h[i].PeriodStart.After(h[j].PeriodStart) })
	}
	return s
}

// Log returns the audit log the store appends to.
func (s *Store) Log() *audit.Log {
	return s.log
}

// Mutate runs fn with exclusive access. When fn succeeds and returns an
// entry, the entry is appended to the audit log before the lock is released.
// When fn fails, nothing it wrote through the Tx is kept.
func (s *Store) Mutate(ctx context.Context, fn func(tx *Tx) (*domain.AuditLogEntry, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &Tx{s: s, writable: true}
	entry, err := fn(tx)
	if err != nil {
		return err
	}
	tx.commit()
	if entry != nil && s.log != nil {
		s.log.Append(ctx, *entry)
	}
	return nil
}

// View runs fn with shared access. Writes through the Tx panic.
func (s *Store) View(fn func(tx *Tx) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fn(&Tx{s: s})
}

// ApplyAnalysis stores the generative-text annotation of a ticket. It is the
// only writer of Ticket.AIAnalysis and does not touch status or audit state.
func (s *Store) ApplyAnalysis(ticketID, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.tickets {
		if s.tickets[i].ID == ticketID {
			s.tickets[i].AIAnalysis = text
			return nil
		}
	}
	return fmt.Errorf("ticket %s: %w", ticketID, ErrNotFound)
}

// Tx is the access handle passed to Mutate and View callbacks. Writes are
// staged and applied when the callback returns without error; reads inside
// the same callback see committed state only.
type Tx struct {
	s        *Store
	writable bool
	pending  []func()
}

func (tx *Tx) stage(op func()) {
	if !tx.writable {
		panic("store: write inside read-only view")
	}
	tx.pending = append(tx.pending, op)
}

func (tx *Tx) commit() {
	for _, op := range tx.pending {
		op()
	}
	tx.pending = nil
}

// Companies returns every company in registration order.
func (tx *Tx) Companies() []domain.Company {
	return append([]domain.Company(nil), tx.s.companies...)
}

// Company returns a company by id.
func (tx *Tx) Company(id string) (domain.Company, error) {
	for _, c := range tx.s.companies {
		if c.ID == id {
			return c, nil
		}
	}
	return domain.Company{}, fmt.Errorf("company %s: %w", id, ErrNotFound)
}

// AddCompany registers a company.
func (tx *Tx) AddCompany(c domain.Company) {
	tx.stage(func() { tx.s.companies = append(tx.s.companies, c) })
}

// Users returns every user in registration order.
func (tx *Tx) Users() []domain.User {
	return append([]domain.User(nil), tx.s.users...)
}

// User returns a user by id.
func (tx *Tx) User(id string) (domain.User, error) {
	for _, u := range tx.s.users {
		if u.ID == id {
			return u, nil
		}
	}
	return domain.User{}, fmt.Errorf("user %s: %w", id, ErrNotFound)
}

// UserByEmail returns a user by case-insensitive email.
func (tx *Tx) UserByEmail(email string) (domain.User, error) {
	for _, u := range tx.s.users {
		if strings.EqualFold(u.Email, strings.TrimSpace(email)) {
			return u, nil
		}
	}
	return domain.User{}, fmt.Errorf("user %s: %w", email, ErrNotFound)
}

// PutUser inserts or replaces a user.
func (tx *Tx) PutUser(u domain.User) {
	tx.stage(func() {
		for i := range tx.s.users {
			if tx.s.users[i].ID == u.ID {
				tx.s.users[i] = u
				return
			}
		}
		tx.s.users = append(tx.s.users, u)
	})
}

// Tickets returns copies of every ticket, newest first.
func (tx *Tx) Tickets() []domain.Ticket {
	out := make([]domain.Ticket, 0, len(tx.s.tickets))
	for _, t := range tx.s.tickets {
		out = append(out, t.Clone())
	}
	return out
}

// Ticket returns a copy of a ticket by id.
func (tx *Tx) Ticket(id string) (domain.Ticket, error) {
	for _, t := range tx.s.tickets {
		if t.ID == id {
			return t.Clone(), nil
		}
	}
	return domain.Ticket{}, fmt.Errorf("ticket %s: %w", id, ErrNotFound)
}

// InsertTicket adds a new ticket at the head of the list.
func (tx *Tx) InsertTicket(t domain.Ticket) {
	t = t.Clone()
	tx.stage(func() {
		tx.s.tickets = append([]domain.Ticket{t}, tx.s.tickets...)
	})
}

// PutTicket replaces an existing ticket. The stored AI analysis is kept;
// only Store.ApplyAnalysis writes it.
func (tx *Tx) PutTicket(t domain.Ticket) {
	t = t.Clone()
	tx.stage(func() {
		for i := range tx.s.tickets {
			if tx.s.tickets[i].ID == t.ID {
				t.AIAnalysis = tx.s.tickets[i].AIAnalysis
				tx.s.tickets[i] = t
				return
			}
		}
	})
}

// Templates returns copies of every ticket template.
func (tx *Tx) Templates() []domain.TicketTemplate {
	out := make([]domain.TicketTemplate, 0, len(tx.s.templates))
	for _, tpl := range tx.s.templates {
		out = append(out, tpl.Clone())
	}
	return out
}

// SetTemplates replaces every ticket template.
func (tx *Tx) SetTemplates(templates []domain.TicketTemplate) {
	cp := make([]domain.TicketTemplate, 0, len(templates))
	for _, tpl := range templates {
		cp = append(cp, tpl.Clone())
	}
	tx.stage(func() { tx.s.templates = cp })
}

// ActiveCycle returns a copy of the company's active payroll cycle.
func (tx *Tx) ActiveCycle(companyID string) (domain.PayrollCycle, error) {
	c, ok := tx.s.cycles[companyID]
	if !ok {
		return domain.PayrollCycle{}, fmt.Errorf("payroll cycle for company %s: %w", companyID, ErrNotFound)
	}
	return c.Clone(), nil
}

// PutActiveCycle sets the company's active payroll cycle.
func (tx *Tx) PutActiveCycle(c domain.PayrollCycle) {
	c = c.Clone()
	tx.stage(func() { tx.s.cycles[c.CompanyID] = c })
}

// History returns copies of the company's archived cycles, newest first.
func (tx *Tx) History(companyID string) []domain.PayrollCycle {
	h := tx.s.history[companyID]
	out := make([]domain.PayrollCycle, 0, len(h))
	for _, c := range h {
		out = append(out, c.Clone())
	}
	return out
}

// Cycle finds an active or archived cycle by id.
func (tx *Tx) Cycle(id string) (domain.PayrollCycle, error) {
	for _, c := range tx.s.cycles {
		if c.ID == id {
			return c.Clone(), nil
		}
	}
	for _, h := range tx.s.history {
		for _, c := range h {
			if c.ID == id {
				return c.Clone(), nil
			}
		}
	}
	return domain.PayrollCycle{}, fmt.Errorf("payroll cycle %s: %w", id, ErrNotFound)
}

// Archive prepends a closed cycle to the company's history.
func (tx *Tx) Archive(c domain.PayrollCycle) {
	c = c.Clone()
	tx.stage(func() {
		tx.s.history[c.CompanyID] = append([]domain.PayrollCycle{c}, tx.s.history[c.CompanyID]...)
	})
}

// Draft returns the open resolution draft of a ticket.
func (tx *Tx) Draft(ticketID string) (resolution.Draft, error) {
	d, ok := tx.s.drafts[ticketID]
	if !ok {
		return resolution.Draft{}, fmt.Errorf("resolution draft for ticket %s: %w", ticketID, ErrNotFound)
	}
	return d.Clone(), nil
}

// PutDraft stores the open resolution draft of a ticket.
func (tx *Tx) PutDraft(d resolution.Draft) {
	d = d.Clone()
	tx.stage(func() { tx.s.drafts[d.TicketID] = d })
}

// DeleteDraft discards a ticket's resolution draft.
func (tx *Tx) DeleteDraft(ticketID string) {
	tx.stage(func() { delete(tx.s.drafts, ticketID) })
}
