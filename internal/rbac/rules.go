package rbac

// Role names as stored on the user record.
const (
	RoleStudent  = "student"
	RoleEducator = "educator"
	RoleAdmin    = "admin"
)

// Default policy. Ownership-sensitive checks (own test, own result) are the
// predicates in policy.go; this map only gates route access by role.
var RolePermissions = map[string][]string{
	RoleStudent: {
		"test:list",
		"test:view",
		"result:submit",
		"result:view",
		"result:view-own",
	},
	RoleEducator: {
		"test:*",
		"question:*",
		"result:view",
		"result:view-test",
		"analytics:view",
	},
	RoleAdmin: {
		"*", // everything
	},
}

func ValidRole(role string) bool {
	switch role {
	case RoleStudent, RoleEducator, RoleAdmin:
		return true
	}
	return false
}
