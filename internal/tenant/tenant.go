package tenant

import (
	"time"

	"github.com/backplane-io/backplane/internal/errors"
)

// Domain errors
var (
	ErrTenantNotFound      = errors.Wrap(errors.ErrNotFound, "tenant not found")
	ErrTenantAlreadyExists = errors.Wrap(errors.ErrConflict, "tenant already exists")
	ErrTenantInactive      = errors.Wrap(errors.ErrValidation, "tenant is inactive")
)

// Tenant represents an isolated backend: identities, data, files, settings
// and ACLs are all scoped to exactly one tenant.
type Tenant struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	APIKey    string    `json:"apiKey"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Status constants
const (
	StatusActive   = "active"
	StatusInactive = "inactive"
)

// IsActive reports whether the tenant accepts requests.
func (t *Tenant) IsActive() bool { return t.Status == StatusActive }
