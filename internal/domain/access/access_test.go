package access_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jhoicas/Accesos-api/internal/domain/access"
	"github.com/jhoicas/Accesos-api/internal/domain/entity"
)

var allRoles = []entity.Role{entity.RoleStaff, entity.RoleManager, entity.RoleAdmin, entity.RoleSuperadmin}

func TestRank_OrdenTotal(t *testing.T) {
	assert.Less(t, access.Rank(entity.RoleStaff), access.Rank(entity.RoleManager))
	assert.Less(t, access.Rank(entity.RoleManager), access.Rank(entity.RoleAdmin))
	assert.Less(t, access.Rank(entity.RoleAdmin), access.Rank(entity.RoleSuperadmin))
	assert.Zero(t, access.Rank(entity.Role("owner")))
}

// Si rank(A) >= rank(B), todo mínimo que B satisface también lo satisface A.
func TestAtLeast_Monotonico(t *testing.T) {
	for _, a := range allRoles {
		for _, b := range allRoles {
			if access.Rank(a) < access.Rank(b) {
				continue
			}
			for _, req := range allRoles {
				if access.AtLeast(b, req) {
					assert.True(t, access.AtLeast(a, req), "%s >= %s pero falla el mínimo %s", a, b, req)
				}
			}
		}
	}
}

func TestAtLeast_RolDesconocidoNuncaPasa(t *testing.T) {
	assert.False(t, access.AtLeast(entity.Role(""), entity.RoleStaff))
	assert.False(t, access.AtLeast(entity.Role("root"), entity.Role("root")))
}

func TestOutranks_Estricto(t *testing.T) {
	assert.True(t, access.Outranks(entity.RoleAdmin, entity.RoleManager))
	assert.True(t, access.Outranks(entity.RoleSuperadmin, entity.RoleAdmin))
	assert.False(t, access.Outranks(entity.RoleAdmin, entity.RoleAdmin))
	assert.False(t, access.Outranks(entity.RoleManager, entity.RoleAdmin))
	assert.False(t, access.Outranks(entity.Role("root"), entity.Role("")))
}

func TestEffective_OverridePrevalece(t *testing.T) {
	// rol permite + override deniega = deniega
	deny := &entity.PermissionOverride{Module: entity.ModuleSales, Granted: false}
	assert.True(t, access.DefaultAllows(entity.RoleStaff, entity.ModuleSales))
	assert.False(t, access.Effective(entity.RoleStaff, entity.ModuleSales, deny))

	// rol deniega + override permite = permite
	allow := &entity.PermissionOverride{Module: entity.ModulePayroll, Granted: true}
	assert.False(t, access.DefaultAllows(entity.RoleStaff, entity.ModulePayroll))
	assert.True(t, access.Effective(entity.RoleStaff, entity.ModulePayroll, allow))

	// sin override decide el rol
	assert.False(t, access.Effective(entity.RoleStaff, entity.ModulePayroll, nil))
	assert.True(t, access.Effective(entity.RoleAdmin, entity.ModulePayroll, nil))
}

func TestTenantContext_CanSee(t *testing.T) {
	staff := &entity.User{ID: "u1", Role: entity.RoleStaff, BusinessID: "b1"}
	tc := access.NewTenantContext(staff, "b1", "")
	assert.True(t, tc.CanSee("b1"))
	assert.False(t, tc.CanSee("b2"))
	assert.False(t, tc.IsCrossTenant())

	root := &entity.User{ID: "s", Role: entity.RoleSuperadmin}
	cross := access.NewTenantContext(root, "", "")
	assert.True(t, cross.IsCrossTenant())
	assert.True(t, cross.CanSee("b2"))

	scoped := access.NewTenantContext(root, "b1", "")
	assert.False(t, scoped.CanSee("b2"), "superadmin ligado a un negocio queda acotado a él")
}
