package cnst

// RoleName names a row of the roles table
type RoleName string

const (
	RoleAdmin    RoleName = "admin"
	RoleDirector RoleName = "director"
	RoleSinger   RoleName = "singer"
	RoleMember   RoleName = "member"
)

// DefaultRoles is the role table seeded on startup
var DefaultRoles = []struct {
	Name        RoleName
	Description string
}{
	{RoleAdmin, "Full access to every resource"},
	{RoleDirector, "Manages repertoire, events and lyrics"},
	{RoleSinger, "Choir member with an assigned voice"},
	{RoleMember, "Registered user"},
}

// ValidRole reports whether the name is one of the seeded roles
func ValidRole(name string) bool {
	for _, r := range DefaultRoles {
		if string(r.Name) == name {
			return true
		}
	}
	return false
}
