package auth

import "pharmacy/m/domain"

// Operation names a guarded action. Routes declare the operation they perform
// and the policy decides which roles may perform it.
type Operation string

const (
	OpReadCatalog    Operation = "catalog.read"
	OpWriteMedicine  Operation = "medicine.write"
	OpWriteSupplier  Operation = "supplier.write"
	OpReadPurchases  Operation = "purchase.read"
	OpWritePurchases Operation = "purchase.write"
	OpReadSales      Operation = "sale.read"
	OpWriteSales     Operation = "sale.write"
	OpDeleteSales    Operation = "sale.delete"
	OpManageUsers    Operation = "user.manage"
	OpViewDashboard  Operation = "dashboard.read"
)

var policy = map[Operation][]domain.Role{
	OpReadCatalog:    {domain.RoleAdmin, domain.RolePharmacist, domain.RoleInventory, domain.RoleCashier},
	OpWriteMedicine:  {domain.RoleAdmin, domain.RolePharmacist, domain.RoleInventory},
	OpWriteSupplier:  {domain.RoleAdmin, domain.RolePharmacist, domain.RoleInventory},
	OpReadPurchases:  {domain.RoleAdmin, domain.RolePharmacist, domain.RoleInventory},
	OpWritePurchases: {domain.RoleAdmin, domain.RolePharmacist, domain.RoleInventory},
	OpReadSales:      {domain.RoleAdmin, domain.RoleCashier, domain.RolePharmacist},
	OpWriteSales:     {domain.RoleAdmin, domain.RoleCashier, domain.RolePharmacist},
	OpDeleteSales:    {domain.RoleAdmin},
	OpManageUsers:    {},
	OpViewDashboard:  {domain.RoleAdmin, domain.RolePharmacist, domain.RoleInventory, domain.RoleCashier},
}

// AllowedRoles returns the roles besides the superuser that may perform op.
func AllowedRoles(op Operation) []domain.Role {
	roles := policy[op]
	out := make([]domain.Role, len(roles))
	copy(out, roles)
	return out
}

// Allow reports whether role is the superuser or a member of allowed.
func Allow(role domain.Role, allowed []domain.Role) bool {
	if role.Superuser() {
		return true
	}
	for _, r := range allowed {
		if r == role {
			return true
		}
	}
	return false
}

// Authorize checks an active user against the policy for op. Unknown
// operations are denied to everyone except the superuser.
func Authorize(u *domain.User, op Operation) bool {
	if u == nil || !u.Active {
		return false
	}
	return Allow(u.Role, policy[op])
}
