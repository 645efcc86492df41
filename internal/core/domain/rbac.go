package domain

// Capability tags carried in User.Roles.
const (
	TagAdmin      = "ADMIN"
	TagAccountant = "ACCOUNTANT"
	TagViewer     = "VIEWER"
)

// Capability names accepted by HasPermission. Anything outside this set is
// denied regardless of identity.
const (
	PermView        = "VIEW"
	PermEdit        = "EDIT"
	PermManageUsers = "MANAGE_USERS"
)

// impliedRoles maps a singular primary role to the capability tags it is
// deemed to hold even without explicit Roles entries. An "admin" principal
// carries every administrative tag. This is a UI-visibility convenience, not
// a security control: the upstream server independently enforces
// authorization on every call.
var impliedRoles = map[string][]string{
	RoleAdmin: {TagAdmin, TagAccountant, TagViewer},
}

// permissionRoles maps each capability name to the roles that grant it.
// Checks go through HasRole, so the admin implication rule applies here too.
var permissionRoles = map[string][]string{
	PermView:        {TagViewer, TagAccountant, TagAdmin},
	PermEdit:        {TagAccountant, TagAdmin},
	PermManageUsers: {TagAdmin},
}

// HasRole reports whether the user holds the given role: an explicit entry
// in Roles, an exact match on the singular Role, or an implication from the
// primary role. Nil-safe; a missing identity holds no roles.
func (u *User) HasRole(role string) bool {
	if u == nil || role == "" {
		return false
	}
	if u.Role == role {
		return true
	}
	for _, r := range u.Roles {
		if r == role {
			return true
		}
	}
	for _, r := range impliedRoles[u.Role] {
		if r == role {
			return true
		}
	}
	return false
}

// HasPermission reports whether the user holds the given capability.
// Unrecognized capability names always evaluate false.
func (u *User) HasPermission(capability string) bool {
	if u == nil {
		return false
	}
	roles, ok := permissionRoles[capability]
	if !ok {
		return false
	}
	for _, r := range roles {
		if u.HasRole(r) {
			return true
		}
	}
	return false
}
