package models

// Role of the logged-in user.
type Role string

const (
	RoleNone  Role = ""
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// ParseRole maps a persisted role string; anything unknown becomes RoleUser.
func ParseRole(s string) Role {
	switch Role(s) {
	case RoleAdmin:
		return RoleAdmin
	case RoleNone:
		return RoleNone
	default:
		return RoleUser
	}
}

// RoleFromAdmin maps the backend is_admin flag.
func RoleFromAdmin(isAdmin bool) Role {
	if isAdmin {
		return RoleAdmin
	}
	return RoleUser
}

// Credentials are what the auth backend hands out and what gets persisted.
type Credentials struct {
	Token string `yaml:"auth_token" json:"-"`
	Role  Role   `yaml:"user_role" json:"role"`
}

// Session is the in-memory auth state. Valid=false is terminal until the next login.
type Session struct {
	Token string `json:"-"`
	Role  Role   `json:"role"`
	Valid bool   `json:"valid"`
}
