package models

// UserRole represents the available collaborator roles.
type UserRole string

const (
	RoleReporter  UserRole = "reporter"
	RoleDeveloper UserRole = "developer"
	RoleManager   UserRole = "manager"
	RoleAdmin     UserRole = "admin"
)

// Valid reports whether the value is a known role.
func (r UserRole) Valid() bool {
	switch r {
	case RoleReporter, RoleDeveloper, RoleManager, RoleAdmin:
		return true
	default:
		return false
	}
}

// User represents a tracked collaborator. Credentials live with the
// identity provider; only profile data is stored here.
type User struct {
	Versioned
	Email    string   `db:"email" json:"email"`
	FullName string   `db:"full_name" json:"full_name"`
	Role     UserRole `db:"role" json:"role"`
	Active   bool     `db:"active" json:"active"`
}

// UserPatch describes optional user field changes.
type UserPatch struct {
	Email    *string
	FullName *string
	Role     *UserRole
	Active   *bool
}

// UserFilter captures filtering criteria for listing users.
type UserFilter struct {
	Role           *UserRole
	Active         *bool
	Search         string
	IncludeDeleted bool
	Page           int
	PageSize       int
}
