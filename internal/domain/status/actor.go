package status

import (
	"slices"

	"github.com/lllypuk/statuswatch/internal/domain/event"
)

// RoleStatusAdmin is the realm role required for every mutating operation.
const RoleStatusAdmin = "status-admin"

// Actor is the authenticated caller of an operator operation. The HTTP layer
// builds it from verified token claims.
type Actor struct {
	UserID     string
	UserName   string
	TenantID   string
	TenantName string
	Roles      []string

	// CorrelationID is copied into event metadata, usually the request id.
	CorrelationID string
}

// HasRole checks whether the actor carries the given role.
func (a Actor) HasRole(role string) bool {
	return slices.Contains(a.Roles, role)
}

// IsOperator reports whether the actor may mutate status records.
func (a Actor) IsOperator() bool {
	return a.HasRole(RoleStatusAdmin)
}

// Metadata returns event metadata attributing a change to this actor.
func (a Actor) Metadata() event.Metadata {
	return event.NewMetadata(a.UserID, a.UserName).WithCorrelationID(a.CorrelationID)
}
