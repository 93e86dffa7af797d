package domain

// Role роль вызывающего пользователя (заголовок X-User-Role)
type Role string

const (
	RoleCustomer      Role = "customer"
	RoleTenantAdmin   Role = "tenant_admin"
	RolePlatformAdmin Role = "platform_admin"
)

// Principal аутентифицированный пользователь запроса.
// Аутентификация выполняется до сервиса, сюда приходят уже проверенные заголовки.
type Principal struct {
	UserID   int64
	TenantID *int64
	Role     Role
}

// IsAdmin returns true for tenant and platform administrators
func (p Principal) IsAdmin() bool {
	return p.Role == RoleTenantAdmin || p.Role == RolePlatformAdmin
}

// CanManageTenant returns true if the principal administers the tenant
func (p Principal) CanManageTenant(tenantID int64) bool {
	switch p.Role {
	case RolePlatformAdmin:
		return true
	case RoleTenantAdmin:
		return p.TenantID != nil && *p.TenantID == tenantID
	default:
		return false
	}
}

// CanAccessBooking owner or administrator of the booking's tenant
func (p Principal) CanAccessBooking(b *Booking) bool {
	return b.UserID == p.UserID || p.CanManageTenant(b.TenantID)
}

// Actor maps the role to a status history actor
func (p Principal) Actor() Actor {
	if p.IsAdmin() {
		return ActorAdmin
	}
	return ActorUser
}
