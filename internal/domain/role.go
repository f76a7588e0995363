// File: internal/domain/role.go
package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// Role is an authorization tag attached to a user.
type Role string

const (
	RoleUser     Role = "User"
	RoleMember   Role = "Member"
	RoleEmployee Role = "Employee"
	RoleAdmin    Role = "Admin"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleMember, RoleEmployee, RoleAdmin:
		return true
	}
	return false
}

// Roles is the ordered role list of a user. The first element is the
// principal role used for authorization checks.
type Roles []Role

// Principal returns the first role, or "" for an empty list.
func (rs Roles) Principal() Role {
	if len(rs) == 0 {
		return ""
	}
	return rs[0]
}

// Strings returns the roles as plain strings (JWT claim shape).
func (rs Roles) Strings() []string {
	out := make([]string, len(rs))
	for i, r := range rs {
		out[i] = string(r)
	}
	return out
}

// RolesFromStrings converts claim values back into Roles.
func RolesFromStrings(ss []string) Roles {
	out := make(Roles, len(ss))
	for i, s := range ss {
		out[i] = Role(s)
	}
	return out
}

// Value stores the list as a JSON array.
func (rs Roles) Value() (driver.Value, error) {
	if rs == nil {
		rs = Roles{}
	}
	b, err := json.Marshal(rs)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan reads a JSON array column.
func (rs *Roles) Scan(value interface{}) error {
	var raw []byte
	switch v := value.(type) {
	case nil:
		*rs = nil
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("roles: unsupported column type %T", value)
	}
	return json.Unmarshal(raw, rs)
}
