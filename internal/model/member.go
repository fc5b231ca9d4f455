package model

import "time"

// Member roles stored in the members.role column and embedded in JWT
// claims.  ADMIN members may manage themes, times and reservations on
// behalf of others; MEMBER is the default role for sign-ups.
const (
	RoleAdmin  = "ADMIN"
	RoleMember = "MEMBER"
)

// Member is a registered user of the booking service.  Members own
// reservations and waiting entries but are otherwise managed by the
// auth endpoints; the lifecycle engine only ever looks them up by id.
//
// Fields:
//  ID           – primary key identifier.
//  Name         – display name shown on reservation views.
//  Email        – login identifier, unique.
//  PasswordHash – bcrypt hash of the password.
//  Role         – ADMIN or MEMBER.
//  CreatedAt    – creation timestamp.
type Member struct {
	ID           uint64    // members.id
	Name         string    // members.name
	Email        string    // members.email
	PasswordHash string    // members.password_hash
	Role         string    // members.role
	CreatedAt    time.Time // members.created_at
}

// IsAdmin reports whether the member holds the ADMIN role.
func (m *Member) IsAdmin() bool { return m.Role == RoleAdmin }
