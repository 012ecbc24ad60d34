package domain

import "time"

type User struct {
	ID           int64     `db:"id" json:"id"`
	Username     string    `db:"username" json:"username"`
	Name         string    `db:"name" json:"name"`
	Email        *string   `db:"email" json:"email"`
	Role         Role      `db:"role" json:"role"`
	PasswordHash string    `db:"password_hash" json:"-"`
	Active       bool      `db:"active" json:"active"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

type Role string

const (
	RoleSuperAdmin Role = "Super Admin"
	RoleAdmin      Role = "Admin"
	RolePharmacist Role = "Pharmacist"
	RoleInventory  Role = "Inventory"
	RoleCashier    Role = "Cashier"
)

// Roles lists every role the system knows, superuser first.
func Roles() []Role {
	return []Role{RoleSuperAdmin, RoleAdmin, RolePharmacist, RoleInventory, RoleCashier}
}

// Valid reports whether r is a known role. Matching is case-sensitive.
func (r Role) Valid() bool {
	for _, known := range Roles() {
		if r == known {
			return true
		}
	}
	return false
}

func (r Role) Superuser() bool {
	return r == RoleSuperAdmin
}
