package models

import (
	"errors"
	"fmt"
	"strings"
)

// Role is the closed set of account roles.
type Role string

const (
	RoleStudent Role = "student"
	RoleTeacher Role = "teacher"
	RoleAdmin   Role = "admin"
)

var ErrUnknownRole = errors.New("unknown role")

// ParseRole converts user input into a Role. Anything outside the three known
// roles is rejected.
func ParseRole(s string) (Role, error) {
	switch r := Role(strings.ToLower(strings.TrimSpace(s))); r {
	case RoleStudent, RoleTeacher, RoleAdmin:
		return r, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownRole, s)
}

// Capability is an action a role may be allowed to perform.
type Capability int

const (
	CapSubmit Capability = iota + 1
	CapViewOwn
	CapAssign
	CapViewAll
	CapResolve
	CapViewAssigned
)

func (c Capability) String() string {
	switch c {
	case CapSubmit:
		return "submit complaints"
	case CapViewOwn:
		return "view own complaints"
	case CapAssign:
		return "assign complaints"
	case CapViewAll:
		return "view all complaints"
	case CapResolve:
		return "resolve complaints"
	case CapViewAssigned:
		return "view assigned complaints"
	}
	return fmt.Sprintf("capability(%d)", int(c))
}

var roleCapabilities = map[Role][]Capability{
	RoleStudent: {CapSubmit, CapViewOwn},
	RoleTeacher: {CapResolve, CapViewAssigned},
	RoleAdmin:   {CapAssign, CapViewAll},
}

// Can reports whether the role grants capability c.
func (r Role) Can(c Capability) bool {
	for _, granted := range roleCapabilities[r] {
		if granted == c {
			return true
		}
	}
	return false
}

// Principal is an authenticated caller. It is passed explicitly into every
// operation instead of living in package state.
type Principal struct {
	UserID string `json:"id"`
	Name   string `json:"name"`
	Role   Role   `json:"role"`
}

// Can reports whether the principal is authenticated and its role grants c.
func (p Principal) Can(c Capability) bool {
	return p.UserID != "" && p.Role.Can(c)
}
