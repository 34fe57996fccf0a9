// Package seed loads the bundled demo data set: companies, users, tickets,
// resolution templates, the default payroll workflow and a short audit trail.
package seed

import (
	_ "embed"
	"fmt"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/spec-kit/payroll-desk/internal/domain"
	"github.com/spec-kit/payroll-desk/internal/payroll"
	"github.com/spec-kit/payroll-desk/internal/store"
)

//go:embed seed.yaml
var defaultData []byte

// Data is everything needed to boot the service.
type Data struct {
	Snapshot store.Snapshot
	Audit    []domain.AuditLogEntry
	Workflow payroll.Template
}

type file struct {
	Companies []companyDoc  `yaml:"companies"`
	Users     []userDoc     `yaml:"users"`
	Tickets   []ticketDoc   `yaml:"tickets"`
	Templates []templateDoc `yaml:"templates"`
	Workflow  []stageDoc    `yaml:"workflow"`
	Audit     []auditDoc    `yaml:"audit"`
}

type companyDoc struct {
	ID    string `yaml:"id"`
	Name  string `yaml:"name"`
	TaxID string `yaml:"tax_id"`
}

type userDoc struct {
	ID        string `yaml:"id"`
	Name      string `yaml:"name"`
	Email     string `yaml:"email"`
	Role      string `yaml:"role"`
	AvatarURL string `yaml:"avatar_url"`
}

type attachmentDoc struct {
	ID        string `yaml:"id"`
	Name      string `yaml:"name"`
	MimeType  string `yaml:"mime_type"`
	SizeBytes int64  `yaml:"size_bytes"`
}

type commentDoc struct {
	ID     string        `yaml:"id"`
	UserID string        `yaml:"user_id"`
	Text   string        `yaml:"text"`
	Age    time.Duration `yaml:"age"`
}

type evidenceDoc struct {
	RequirementID string         `yaml:"requirement_id"`
	Checked       bool           `yaml:"checked"`
	File          *attachmentDoc `yaml:"file"`
	ResolvedBy    string         `yaml:"resolved_by"`
}

type ticketDoc struct {
	ID          string          `yaml:"id"`
	Title       string          `yaml:"title"`
	Description string          `yaml:"description"`
	Type        string          `yaml:"type"`
	Status      string          `yaml:"status"`
	Priority    string          `yaml:"priority"`
	CompanyID   string          `yaml:"company_id"`
	CreatedBy   string          `yaml:"created_by"`
	AssignedTo  string          `yaml:"assigned_to"`
	Age         time.Duration   `yaml:"age"`
	UpdatedAge  time.Duration   `yaml:"updated_age"`
	Attachments []attachmentDoc `yaml:"attachments"`
	Comments    []commentDoc    `yaml:"comments"`
	Evidence    []evidenceDoc   `yaml:"resolution_evidence"`
}

type requirementDoc struct {
	ID       string `yaml:"id"`
	Text     string `yaml:"text"`
	Type     string `yaml:"type"`
	Required bool   `yaml:"required"`
}

type templateDoc struct {
	TicketType   string           `yaml:"ticket_type"`
	Requirements []requirementDoc `yaml:"requirements"`
}

type taskDoc struct {
	ID           string `yaml:"id"`
	Title        string `yaml:"title"`
	Description  string `yaml:"description"`
	AssignedRole string `yaml:"assigned_role"`
	RequiresFile bool   `yaml:"requires_file"`
	DueDay       int    `yaml:"due_day"`
	Seed         *struct {
		CompletedBy string `yaml:"completed_by"`
		Evidence    string `yaml:"evidence"`
	} `yaml:"seed"`
}

type stageDoc struct {
	ID    string    `yaml:"id"`
	Name  string    `yaml:"name"`
	Tasks []taskDoc `yaml:"tasks"`
}

type auditDoc struct {
	ID              string        `yaml:"id"`
	Age             time.Duration `yaml:"age"`
	UserID          string        `yaml:"user_id"`
	Action          string        `yaml:"action"`
	Details         string        `yaml:"details"`
	RelatedEntityID string        `yaml:"related_entity_id"`
}

// Default parses the bundled data set relative to now. Every seeded user
// gets passwordHash.
func Default(now time.Time, passwordHash string) (Data, error) {
	return Parse(defaultData, now, passwordHash)
}

// Parse builds boot data from a YAML document. Relative ages in the document
// are subtracted from now.
func Parse(raw []byte, now time.Time, passwordHash string) (Data, error) {
	var f file
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return Data{}, fmt.Errorf("parse seed: %w", err)
	}

	var data Data
	users := make(map[string]domain.User, len(f.Users))
	for _, u := range f.Users {
		role := domain.UserRole(u.Role)
		if !role.Valid() {
			return Data{}, fmt.Errorf("seed user %s: invalid role %q", u.ID, u.Role)
		}
		user := domain.User{
			ID:           u.ID,
			Name:         u.Name,
			Email:        u.Email,
			PasswordHash: passwordHash,
			Role:         role,
			AvatarURL:    u.AvatarURL,
		}
		users[u.ID] = user
		data.Snapshot.Users = append(data.Snapshot.Users, user)
	}

	for _, c := range f.Companies {
		data.Snapshot.Companies = append(data.Snapshot.Companies, domain.Company{
			ID:        c.ID,
			Name:      c.Name,
			TaxID:     c.TaxID,
			CreatedAt: now,
		})
	}

	templates, err := parseTemplates(f.Templates)
	if err != nil {
		return Data{}, err
	}
	data.Snapshot.Templates = templates

	for _, t := range f.Tickets {
		ticket, err := parseTicket(t, templates, now)
		if err != nil {
			return Data{}, err
		}
		data.Snapshot.Tickets = append(data.Snapshot.Tickets, ticket)
	}

	workflow, err := parseWorkflow(f.Workflow)
	if err != nil {
		return Data{}, err
	}
	data.Workflow = workflow

	period := payroll.MonthStart(now)
	for _, c := range data.Snapshot.Companies {
		active := payroll.NewCycle(c.ID, period, workflow, period)
		applyProgress(&active, f.Workflow, users, now)
		data.Snapshot.Cycles = append(data.Snapshot.Cycles, active)

		prev := payroll.NewCycle(c.ID, period.AddDate(0, -1, 0), workflow.WithoutIDs(), period.AddDate(0, -1, 0))
		closeAll(&prev, period.Add(-time.Hour))
		data.Snapshot.History = append(data.Snapshot.History, prev)
	}

	for _, a := range f.Audit {
		u, ok := users[a.UserID]
		if !ok {
			return Data{}, fmt.Errorf("seed audit %s: unknown user %q", a.ID, a.UserID)
		}
		data.Audit = append(data.Audit, domain.AuditLogEntry{
			ID:              a.ID,
			Timestamp:       now.Add(-a.Age),
			UserID:          u.ID,
			UserName:        u.Name,
			UserRole:        u.Role,
			Action:          a.Action,
			Details:         a.Details,
			RelatedEntityID: a.RelatedEntityID,
		})
	}
	return data, nil
}

func parseTemplates(docs []templateDoc) ([]domain.TicketTemplate, error) {
	out := make([]domain.TicketTemplate, 0, len(docs))
	for _, d := range docs {
		tt := domain.TicketType(d.TicketType)
		if !tt.Valid() {
			return nil, fmt.Errorf("seed template: invalid ticket type %q", d.TicketType)
		}
		tpl := domain.TicketTemplate{TicketType: tt}
		for _, r := range d.Requirements {
			rt := domain.RequirementType(r.Type)
			if !rt.Valid() {
				return nil, fmt.Errorf("seed template %s: invalid requirement type %q", d.TicketType, r.Type)
			}
			tpl.Requirements = append(tpl.Requirements, domain.ResolutionRequirement{
				ID:       r.ID,
				Text:     r.Text,
				Type:     rt,
				Required: r.Required,
			})
		}
		out = append(out, tpl)
	}
	return out, nil
}

func parseTicket(d ticketDoc, templates []domain.TicketTemplate, now time.Time) (domain.Ticket, error) {
	t := domain.Ticket{
		ID:          d.ID,
		Title:       d.Title,
		Description: d.Description,
		Type:        domain.TicketType(d.Type),
		Status:      domain.Status(d.Status),
		Priority:    domain.Priority(d.Priority),
		CompanyID:   d.CompanyID,
		CreatedBy:   d.CreatedBy,
		AssignedTo:  d.AssignedTo,
		CreatedAt:   now.Add(-d.Age),
		UpdatedAt:   now.Add(-d.UpdatedAge),
	}
	if !t.Type.Valid() || !t.Status.Valid() || !t.Priority.Valid() {
		return domain.Ticket{}, fmt.Errorf("seed ticket %s: invalid type, status or priority", d.ID)
	}
	for _, a := range d.Attachments {
		t.Attachments = append(t.Attachments, attachment(a, d.CreatedBy, t.CreatedAt))
	}
	for _, c := range d.Comments {
		t.Comments = append(t.Comments, domain.Comment{
			ID:        c.ID,
			UserID:    c.UserID,
			Text:      c.Text,
			CreatedAt: now.Add(-c.Age),
		})
	}
	for _, ev := range d.Evidence {
		text, ok := requirementText(templates, t.Type, ev.RequirementID)
		if !ok {
			return domain.Ticket{}, fmt.Errorf("seed ticket %s: unknown requirement %q", d.ID, ev.RequirementID)
		}
		item := domain.ResolutionEvidence{
			RequirementID:   ev.RequirementID,
			RequirementText: text,
			IsChecked:       ev.Checked,
			ResolvedAt:      t.UpdatedAt,
			ResolvedBy:      ev.ResolvedBy,
		}
		if ev.File != nil {
			a := attachment(*ev.File, ev.ResolvedBy, t.UpdatedAt)
			item.File = &a
		}
		t.ResolutionEvidence = append(t.ResolutionEvidence, item)
	}
	return t, nil
}

func requirementText(templates []domain.TicketTemplate, tt domain.TicketType, reqID string) (string, bool) {
	for _, tpl := range templates {
		if tpl.TicketType != tt {
			continue
		}
		for _, r := range tpl.Requirements {
			if r.ID == reqID {
				return r.Text, true
			}
		}
	}
	return "", false
}

func attachment(d attachmentDoc, by string, at time.Time) domain.Attachment {
	return domain.Attachment{
		ID:         d.ID,
		Name:       d.Name,
		URL:        "#",
		MimeType:   d.MimeType,
		SizeBytes:  d.SizeBytes,
		UploadedBy: by,
		UploadedAt: &at,
	}
}

func parseWorkflow(docs []stageDoc) (payroll.Template, error) {
	tpl := make(payroll.Template, 0, len(docs))
	for _, s := range docs {
		st := payroll.StageTemplate{ID: s.ID, Name: s.Name}
		for _, t := range s.Tasks {
			role := domain.UserRole(t.AssignedRole)
			if !role.Valid() {
				return nil, fmt.Errorf("seed task %s: invalid role %q", t.ID, t.AssignedRole)
			}
			st.Tasks = append(st.Tasks, payroll.TaskTemplate{
				ID:           t.ID,
				Title:        t.Title,
				Description:  t.Description,
				AssignedRole: role,
				RequiresFile: t.RequiresFile,
				DueDay:       t.DueDay,
			})
		}
		tpl = append(tpl, st)
	}
	return tpl, nil
}

// applyProgress marks the tasks the document flags as already done in the
// active cycle.
func applyProgress(cycle *domain.PayrollCycle, docs []stageDoc, users map[string]domain.User, now time.Time) {
	done := make(map[string]string)
	evidence := make(map[string]string)
	for _, s := range docs {
		for _, t := range s.Tasks {
			if t.Seed == nil {
				continue
			}
			done[t.ID] = t.Seed.CompletedBy
			evidence[t.ID] = t.Seed.Evidence
		}
	}
	for si := range cycle.Stages {
		stage := &cycle.Stages[si]
		for ti := range stage.Tasks {
			task := &stage.Tasks[ti]
			by, ok := done[task.ID]
			if !ok {
				continue
			}
			at := now.Add(-time.Hour)
			task.Completed = true
			task.CompletedAt = &at
			if _, ok := users[by]; ok {
				task.CompletedBy = by
			}
			if name := evidence[task.ID]; name != "" {
				a := attachment(attachmentDoc{ID: "ev-" + task.ID, Name: name}, by, at)
				task.EvidenceFile = &a
			}
		}
		stage.Status = payroll.DeriveStageStatus(stage.Tasks)
	}
}

// closeAll completes every task of an archived cycle.
func closeAll(cycle *domain.PayrollCycle, at time.Time) {
	for si := range cycle.Stages {
		stage := &cycle.Stages[si]
		for ti := range stage.Tasks {
			task := &stage.Tasks[ti]
			task.Completed = true
			task.CompletedBy = "system"
			done := at
			task.CompletedAt = &done
			if task.RequiresFile {
				a := attachment(attachmentDoc{ID: "ev-" + cycle.ID + "-" + task.ID, Name: task.Title + ".pdf"}, "system", at)
				task.EvidenceFile = &a
			}
		}
		stage.Status = domain.StatusCompleted
	}
	cycle.Status = domain.StatusCompleted
	closed := at
	cycle.ClosedAt = &closed
}
