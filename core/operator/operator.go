package operator

import (
	"time"

	"github.com/google/uuid"
)

// Operator is a business owner's login account. One operator administers one
// or more tenants.
type Operator struct {
	ID           uuid.UUID
	Email        string
	PasswordHash []byte
	Name         string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
