package models

import (
	"github.com/google/uuid"
)

// Principal is the authenticated caller of a request, as resolved by the
// auth layer: who they are, which tenant scopes them, and what they were
// granted. Permissions are the raw grant spellings as issued; normalization
// happens in the perms package.
type Principal struct {
	TenantID    uuid.UUID
	UserID      uuid.UUID
	Permissions map[string]bool
}
