package identity

import "github.com/makerclub/printq/internal/entity"

// Role enumerates the roles issued by the external identity provider.
type Role string

const (
	RoleUser       Role = "USER"
	RoleAdmin      Role = "ADMIN"
	RoleSuperAdmin Role = "SUPERADMIN"
	RoleGuest      Role = "GUEST"
)

// ParseRole normalizes a role string, defaulting to GUEST for anything
// unrecognized so an unknown caller never gains write access.
func ParseRole(s string) Role {
	switch Role(s) {
	case RoleUser, RoleAdmin, RoleSuperAdmin, RoleGuest:
		return Role(s)
	}
	return RoleGuest
}

// Principal is the authenticated caller, as verified by the external auth
// layer. The core trusts these fields and only performs ownership and
// capability checks on top of them.
type Principal struct {
	ID    int64
	Email string
	Role  Role
}

// Staff reports whether the principal holds a staff-level role.
func (p Principal) Staff() bool {
	return p.Role == RoleAdmin || p.Role == RoleSuperAdmin
}

// CanMutate reports whether the principal may perform any write at all.
// GUEST principals are read-only.
func (p Principal) CanMutate() bool {
	return p.Role != RoleGuest && p.ID != 0
}

// CanViewOrder reports whether the principal may read the given order.
// Users see their own orders; staff see everything.
func (p Principal) CanViewOrder(order *entity.Order) bool {
	if order == nil {
		return false
	}
	if p.Staff() {
		return true
	}
	return p.ID == order.UserID
}

// CanTransition reports whether the principal may move the given order
// through the lifecycle. Status changes are a staff operation.
func (p Principal) CanTransition(order *entity.Order) bool {
	return order != nil && p.Staff()
}

// CanCancelOwn reports whether the principal may cancel the given order as
// its owner.
func (p Principal) CanCancelOwn(order *entity.Order) bool {
	if order == nil || !p.CanMutate() {
		return false
	}
	return p.Staff() || p.ID == order.UserID
}

// CanManageBatches reports whether the principal may create or progress
// batches.
func (p Principal) CanManageBatches() bool {
	return p.Staff()
}

// CanEditConfig reports whether the principal may change system settings.
func (p Principal) CanEditConfig() bool {
	return p.Role == RoleSuperAdmin
}

// CanQueryAudit reports whether the principal may read the audit trail.
func (p Principal) CanQueryAudit() bool {
	return p.Staff()
}
