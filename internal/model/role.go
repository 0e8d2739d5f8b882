// internal/model/role.go
package model

import (
	"database/sql/driver"
	"fmt"
)

type Role int

const (
	RoleMember Role = iota + 1
	RoleDirector
	RoleAdmin
)

// Roles lists every role in privilege order.
var Roles = []Role{RoleMember, RoleDirector, RoleAdmin}

func ParseRole(s string) (Role, error) {
	switch s {
	case "member":
		return RoleMember, nil
	case "director":
		return RoleDirector, nil
	case "admin":
		return RoleAdmin, nil
	}
	return 0, fmt.Errorf("unknown role %q: %w", s, ErrInvalidInput)
}

func (r Role) String() string {
	switch r {
	case RoleMember:
		return "member"
	case RoleDirector:
		return "director"
	case RoleAdmin:
		return "admin"
	}
	return fmt.Sprintf("Role(%d)", int(r))
}

func (r Role) Valid() bool {
	return r >= RoleMember && r <= RoleAdmin
}

func (r Role) MarshalText() ([]byte, error) {
	if !r.Valid() {
		return nil, fmt.Errorf("invalid role %d", int(r))
	}
	return []byte(r.String()), nil
}

func (r *Role) UnmarshalText(b []byte) error {
	parsed, err := ParseRole(string(b))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// Value stores the role as its lowercase name.
func (r Role) Value() (driver.Value, error) {
	if !r.Valid() {
		return nil, fmt.Errorf("invalid role %d", int(r))
	}
	return r.String(), nil
}

func (r *Role) Scan(src any) error {
	switch v := src.(type) {
	case string:
		return r.UnmarshalText([]byte(v))
	case []byte:
		return r.UnmarshalText(v)
	}
	return fmt.Errorf("cannot scan %T into Role", src)
}
