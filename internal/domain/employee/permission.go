package employee

type Permission string

const (
	PermissionLeaveViewAll Permission = "leave.view_all"
	PermissionLeaveApprove Permission = "leave.approve"
)

// RolePermissions maps roles to the permissions beyond acting on their own
// attendance and leave, which every active employee has.
var RolePermissions = map[Role][]Permission{
	RoleSuperAdmin: {
		PermissionLeaveViewAll,
		PermissionLeaveApprove,
	},
	RoleAdmin: {
		PermissionLeaveViewAll,
		PermissionLeaveApprove,
	},
	RoleEmployee: {},
}

// HasPermission checks if a role has a specific permission
func HasPermission(role Role, permission Permission) bool {
	for _, p := range RolePermissions[role] {
		if p == permission {
			return true
		}
	}
	return false
}

// AdminRoles are the roles that receive leave requests and break review
// alerts: those allowed to approve leave.
func AdminRoles() []Role {
	var roles []Role
	for _, r := range []Role{RoleAdmin, RoleSuperAdmin, RoleEmployee} {
		if HasPermission(r, PermissionLeaveApprove) {
			roles = append(roles, r)
		}
	}
	return roles
}
