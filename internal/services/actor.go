package services

import (
	"github.com/google/uuid"
	"github.com/scdri/backend/internal/models"
)

// Actor is the authenticated caller of a service operation.
type Actor struct {
	ID   uuid.UUID
	Role models.Role
}

func (a Actor) IsAdmin() bool {
	return a.Role == models.RoleAdmin
}

func requireAdmin(a Actor) error {
	if !a.IsAdmin() {
		return forbidden("admin access required")
	}
	return nil
}
