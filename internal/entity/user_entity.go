package entity

import (
	"time"

	"github.com/google/uuid"
)

type UserRole string
type UserStatus string

const (
	UserRoleMedic      UserRole = "medic"
	UserRoleSupervisor UserRole = "supervisor"

	UserStatusActive  UserStatus = "active"
	UserStatusBlocked UserStatus = "blocked"
)

type User struct {
	Id           uuid.UUID
	Email        string
	PasswordHash *string
	FullName     string
	Role         UserRole
	Status       UserStatus
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Session is the verified identity the document engine consults before
// save/list operations. The auth service owns its lifecycle; everything
// else only reads it.
type Session struct {
	Token     string
	UserId    uuid.UUID
	Role      UserRole
	ExpiresAt time.Time
}

func (s *Session) Valid() bool {
	return s != nil && time.Now().Before(s.ExpiresAt)
}
