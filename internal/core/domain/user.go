package domain

// Primary role values issued by the upstream donation platform.
const (
	RoleAdmin    = "admin"
	RoleSubadmin = "subadmin"
	RoleUser     = "user"
)

// User models an authenticated principal as returned by the upstream
// platform. Role is the singular primary role; Roles carries the coarser
// capability tags some principals hold in addition; Permissions lists
// feature-level capability strings managed server-side.
type User struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Email        string   `json:"email"`
	MobileNumber string   `json:"mobileNumber,omitempty"`
	Role         string   `json:"role"`
	Roles        []string `json:"roles,omitempty"`
	Permissions  []string `json:"permissions,omitempty"`
}

// Clone returns an independent copy so snapshots never share backing slices.
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	clone := *u
	if u.Roles != nil {
		clone.Roles = append([]string(nil), u.Roles...)
	}
	if u.Permissions != nil {
		clone.Permissions = append([]string(nil), u.Permissions...)
	}
	return &clone
}

// Merge overlays the non-empty fields of other onto a copy of u. A profile
// update may return only the fields that changed.
func (u *User) Merge(other *User) *User {
	if u == nil {
		return other.Clone()
	}
	merged := u.Clone()
	if other == nil {
		return merged
	}
	if other.ID != "" {
		merged.ID = other.ID
	}
	if other.Name != "" {
		merged.Name = other.Name
	}
	if other.Email != "" {
		merged.Email = other.Email
	}
	if other.MobileNumber != "" {
		merged.MobileNumber = other.MobileNumber
	}
	if other.Role != "" {
		merged.Role = other.Role
	}
	if other.Roles != nil {
		merged.Roles = append([]string(nil), other.Roles...)
	}
	if other.Permissions != nil {
		merged.Permissions = append([]string(nil), other.Permissions...)
	}
	return merged
}
