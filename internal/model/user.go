package model

import (
    "strings"
    "time"
)

// Role is the caller's role as carried in the access token. It is a small
// tagged enumeration so that every policy decision can switch over it
// exhaustively instead of comparing strings.
type Role uint8

const (
    RoleCustomer Role = iota // default; also used for unrecognised role names
    RoleManager
    RoleAdmin
)

// Role names as stored in users.role and in the JWT "role" claim.
const (
    RoleNameCustomer = "customer"
    RoleNameManager  = "restaurant_manager"
    RoleNameAdmin    = "admin"
)

// ParseRole maps a role name to a Role. Unknown names fall back to
// RoleCustomer so that scoping stays at its most restrictive.
func ParseRole(s string) Role {
    switch strings.ToLower(strings.TrimSpace(s)) {
    case RoleNameAdmin:
        return RoleAdmin
    case RoleNameManager:
        return RoleManager
    default:
        return RoleCustomer
    }
}

// String returns the stored name of the role.
func (r Role) String() string {
    switch r {
    case RoleAdmin:
        return RoleNameAdmin
    case RoleManager:
        return RoleNameManager
    default:
        return RoleNameCustomer
    }
}

// Principal is the authenticated caller of a booking operation. It is
// passed explicitly to every policy and lifecycle function; nothing reads
// the current user from ambient request state.
type Principal struct {
    ID   uint64
    Role Role
}

// User represents an application user record as stored in the
// `users` table.
//
// Fields:
//  ID           – primary key identifier of the user.
//  Email        – unique email address.
//  PasswordHash – bcrypt hashed password.
//  Role         – role name (customer, restaurant_manager, admin).
//  IsActive     – whether the account is active.
//  CreatedAt    – timestamp of creation.
//  UpdatedAt    – timestamp of last update.
type User struct {
    ID           uint64    // users.id
    Email        string    // users.email
    PasswordHash string    // users.password_hash
    Role         string    // users.role
    IsActive     bool      // users.is_active
    CreatedAt    time.Time // users.created_at
    UpdatedAt    time.Time // users.updated_at
}
