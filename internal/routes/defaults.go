package routes

import "github.com/baladiya/citizen-portal/internal/rbac"

var (
	admins     = rbac.NewRoleSet(rbac.RoleAdmin, rbac.RoleSuperAdmin)
	superAdmin = rbac.NewRoleSet(rbac.RoleSuperAdmin)
)

// DefaultTables returns the portal's compiled-in route tables.
func DefaultTables() Tables {
	return Tables{
		PublicPages: NewPrefixList(
			"/",
			"/login",
			"/register",
			"/forgot-password",
			"/reset-password",
			"/etablissements",
			"/evenements",
			"/actualites",
			"/presse",
			"/campagnes",
			"/talents",
			"/communes",
			"/reclamations/suivi",
			"/a-propos",
			"/contact",
			"/mentions-legales",
			"/confidentialite",
			"/maintenance",
			"/access-denied",
			"/account-deactivated",
			"/error",
		),
		AlwaysPublicAPI: NewPrefixList(
			"/api/auth",
			"/api/license-check",
		),
		PublicReadAPI: NewPrefixList(
			"/api/etablissements",
			"/api/evenements",
			"/api/actualites",
			"/api/presse",
			"/api/communes",
			"/api/campagnes",
			"/api/talents",
			"/api/reclamations/suivi",
			"/api/maintenance",
			"/api/license-check",
		),
		MobileAPI: NewPrefixList(
			"/api/mobile",
		),
		AlwaysProtectedAPI: NewPrefixList(
			"/api/users",
			"/api/reclamations",
			"/api/stats",
			"/api/admin",
			"/api/logs",
			"/api/audit",
			"/api/evaluations",
			"/api/dashboard",
		),
		PageRoles: NewTable(
			Rule{Prefix: "/admin", Roles: admins},
			Rule{Prefix: "/super-admin", Roles: superAdmin},
			Rule{Prefix: "/dashboard/admin", Roles: admins},
			Rule{Prefix: "/dashboard/super-admin", Roles: superAdmin},
			Rule{Prefix: "/dashboard/gouverneur", Roles: rbac.NewRoleSet(rbac.RoleGouverneur, rbac.RoleSuperAdmin)},
			Rule{Prefix: "/dashboard/delegation", Roles: rbac.NewRoleSet(rbac.RoleDelegation, rbac.RoleAdmin, rbac.RoleSuperAdmin)},
			Rule{Prefix: "/dashboard/autorite", Roles: rbac.NewRoleSet(rbac.RoleAutoriteLocale, rbac.RoleAdmin, rbac.RoleSuperAdmin)},
			Rule{Prefix: "/dashboard/coordinateur", Roles: rbac.NewRoleSet(rbac.RoleCoordinateurActivites, rbac.RoleAdmin, rbac.RoleSuperAdmin)},
			Rule{Prefix: "/mes-reclamations", Roles: rbac.NewRoleSet(rbac.RoleCitoyen)},
			Rule{Prefix: "/logs", Roles: admins},
		),
		MutationRoles: NewTable(
			Rule{Prefix: "/api/etablissements", Roles: admins},
			Rule{Prefix: "/api/evenements", Roles: rbac.NewRoleSet(rbac.RoleDelegation, rbac.RoleCoordinateurActivites, rbac.RoleAdmin, rbac.RoleSuperAdmin)},
			Rule{Prefix: "/api/actualites", Roles: rbac.NewRoleSet(rbac.RoleDelegation, rbac.RoleAdmin, rbac.RoleSuperAdmin)},
			Rule{Prefix: "/api/presse", Roles: admins},
			Rule{Prefix: "/api/communes", Roles: superAdmin},
			Rule{Prefix: "/api/campagnes", Roles: rbac.NewRoleSet(rbac.RoleCoordinateurActivites, rbac.RoleAdmin, rbac.RoleSuperAdmin)},
			Rule{Prefix: "/api/talents", Roles: rbac.NewRoleSet(rbac.RoleCoordinateurActivites, rbac.RoleAdmin, rbac.RoleSuperAdmin)},
			Rule{Prefix: "/api/maintenance", Roles: superAdmin},
		),
	}
}
