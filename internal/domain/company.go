package domain

import "time"

// Company is a payroll client (legal entity) identified by its tax id.
type Company struct {
	ID        string
	Name      string
	TaxID     string
	CreatedAt time.Time
}
