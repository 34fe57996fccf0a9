package domain

// UserRole enumerates back-office roles.
type UserRole string

const (
	RoleAdmin          UserRole = "ADMIN"
	RolePayrollManager UserRole = "PAYROLL_MANAGER"
	RoleOperations     UserRole = "OPERATIONS"
	RoleAccounting     UserRole = "ACCOUNTING"
)

// Valid reports whether r is a known role.
func (r UserRole) Valid() bool {
	switch r {
	case RoleAdmin, RolePayrollManager, RoleOperations, RoleAccounting:
		return true
	}
	return false
}

// User is a back-office operator.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Role         UserRole
	AvatarURL    string
}

// Actor returns a value snapshot of the user's identity and current role.
func (u User) Actor() Actor {
	return Actor{ID: u.ID, Name: u.Name, Role: u.Role}
}

// Actor identifies whoever performs a mutation. It is copied by value into
// audit entries so later role changes never rewrite history.
type Actor struct {
	ID   string
	Name string
	Role UserRole
}

// IsAdmin reports whether the actor holds the administrator role.
func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}
