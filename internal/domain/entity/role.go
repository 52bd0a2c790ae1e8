package entity

// Role represents an authorization role carried by the acting user.
// Only RoleMaster may approve analysis/registration and resolve archive requests.
type Role string

const (
	RoleMaster    Role = "master"
	RoleAdmin     Role = "admin"
	RoleExecutive Role = "executive"
	RoleClient    Role = "client"
)

var roleLabels = map[Role]string{
	RoleMaster:    "Master",
	RoleAdmin:     "Administrador",
	RoleExecutive: "Executivo",
	RoleClient:    "Cliente",
}

// Roles lists the closed set of roles.
func Roles() []Role { return []Role{RoleMaster, RoleAdmin, RoleExecutive, RoleClient} }

func (r Role) Valid() bool {
	_, ok := roleLabels[r]
	return ok
}

func (r Role) Label() string { return labelOr(roleLabels, r) }

// Actor is the caller of an operation as declared by the access layer.
type Actor struct {
	ID   string
	Role Role
}

// IsTopApprover reports whether the actor holds the top-level approval role.
func (a Actor) IsTopApprover() bool { return a.Role == RoleMaster }

func labelOr[K ~string](m map[K]string, k K) string {
	if l, ok := m[k]; ok {
		return l
	}
	return string(k)
}
