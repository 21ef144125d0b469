package models

import (
	"errors"
	"time"
)

// ErrOperatorNotFound is returned by operator stores for unknown usernames.
var ErrOperatorNotFound = errors.New("operator not found")

// Role represents operator roles in the controller
type Role string

const (
	RoleOperator Role = "operator"
	RoleViewer   Role = "viewer"
)

// Actions checked by HasPermission
const (
	ActionEditScenario = "edit_scenario"
	ActionRunBackend   = "run_backend"
	ActionViewResults  = "view_results"
)

// Operator is an account allowed to drive sessions
type Operator struct {
	Username     string     `bson:"username" json:"username"`
	PasswordHash string     `bson:"password_hash" json:"-"`
	Role         Role       `bson:"role" json:"role"`
	CreatedAt    time.Time  `bson:"created_at,omitempty" json:"created_at,omitempty"`
	LastLogin    *time.Time `bson:"last_login,omitempty" json:"last_login,omitempty"`
}

// LoginRequest represents a login request
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse represents a successful login response
type LoginResponse struct {
	Token    string `json:"token"`
	Username string `json:"username"`
	Role     Role   `json:"role"`
}

// Claims represents JWT claims
type Claims struct {
	Username string `json:"username"`
	Role     Role   `json:"role"`
	Exp      int64  `json:"exp"`
}

// IsValidRole checks if a role is valid
func IsValidRole(role Role) bool {
	switch role {
	case RoleOperator, RoleViewer:
		return true
	default:
		return false
	}
}

// HasPermission checks if a role may perform an action
func (r Role) HasPermission(action string) bool {
	switch r {
	case RoleOperator:
		return action == ActionEditScenario || action == ActionRunBackend || action == ActionViewResults
	case RoleViewer:
		return action == ActionViewResults
	default:
		return false
	}
}
