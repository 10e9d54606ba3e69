package model

import (
	"time"

	"github.com/google/uuid"
)

// RoleAdmin is the only role allowed past the session gate.
const RoleAdmin = "admin"

// User is an account that can sign in to the admin area.
type User struct {
	ID           uuid.UUID
	Email        string
	PasswordHash string
	Name         string
	Role         string
	UpdatedAt    time.Time
	CreatedAt    time.Time
}

func (u *User) InitMeta() {
	u.ID = uuid.New()
	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now
}
