package model

import (
    "strings"
    "time"
)

// Role names an actor's permission class.  The value is carried in the
// JWT "role" claim.
type Role string

const (
    RoleResident Role = "RESIDENT"
    RoleAdmin    Role = "ADMIN"
)

// ParseRole upper-cases s and falls back to RoleResident for anything
// that is not a known role.
func ParseRole(s string) Role {
    switch r := Role(strings.ToUpper(strings.TrimSpace(s))); r {
    case RoleAdmin, RoleResident:
        return r
    }
    return RoleResident
}

// Actor is the principal performing an operation.  It is passed
// explicitly into every booking function.
type Actor struct {
    UserID uint64 `json:"user_id"`
    Role   Role   `json:"role"`
}

// IsAdmin reports whether the actor holds the administrator role.
func (a Actor) IsAdmin() bool { return a.Role == RoleAdmin }

// User represents an application user record as stored in the
// `users` table.
//
// Fields:
//  ID           – primary key identifier of the user.
//  Email        – unique email address.
//  PasswordHash – bcrypt hashed password.
//  Role         – RESIDENT or ADMIN.
//  Unit         – apartment unit label, optional.
//  IsActive     – whether the account is active.
//  CreatedAt    – timestamp of creation.
//  UpdatedAt    – timestamp of last update.
type User struct {
    ID           uint64    // users.id
    Email        string    // users.email
    PasswordHash string    // users.password_hash
    Role         Role      // users.role
    Unit         string    // users.unit
    IsActive     bool      // users.is_active
    CreatedAt    time.Time // users.created_at
    UpdatedAt    time.Time // users.updated_at
}

// RefreshToken models an entry in the `refresh_tokens` table.  The plain
// token is not stored; only its SHA‑256 hash.
type RefreshToken struct {
    ID        uint64     // refresh_tokens.id
    UserID    uint64     // refresh_tokens.user_id
    TokenHash string     // refresh_tokens.token_hash
    ExpiresAt time.Time  // refresh_tokens.expires_at
    RevokedAt *time.Time // refresh_tokens.revoked_at (nullable)
    CreatedAt time.Time  // refresh_tokens.created_at
}
