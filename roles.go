package sqlauth

// Roles defines a public type used by sqlauth APIs.
//
// Roles is a fixed-width bitmask over up to 32 independent roles. The bits
// below carry descriptive names; the remaining high bits are free for the
// embedding application to define.
type Roles uint32

// Named role bits.
const (
	RoleAdmin Roles = 1 << iota
	RoleAuthor
	RoleCollaborator
	RoleConsultant
	RoleConsumer
	RoleContributor
	RoleCoordinator
	RoleCreator
	RoleDeveloper
	RoleDirector
	RoleEditor
	RoleEmployee
	RoleMaintainer
	RoleManager
	RoleModerator
	RolePublisher
	RoleReviewer
	RoleSubscriber
	RoleSuperAdmin
	RoleSuperEditor
	RoleSuperModerator
	RoleTranslator
)

var roleNames = map[Roles]string{
	RoleAdmin:          "ADMIN",
	RoleAuthor:         "AUTHOR",
	RoleCollaborator:   "COLLABORATOR",
	RoleConsultant:     "CONSULTANT",
	RoleConsumer:       "CONSUMER",
	RoleContributor:    "CONTRIBUTOR",
	RoleCoordinator:    "COORDINATOR",
	RoleCreator:        "CREATOR",
	RoleDeveloper:      "DEVELOPER",
	RoleDirector:       "DIRECTOR",
	RoleEditor:         "EDITOR",
	RoleEmployee:       "EMPLOYEE",
	RoleMaintainer:     "MAINTAINER",
	RoleManager:        "MANAGER",
	RoleModerator:      "MODERATOR",
	RolePublisher:      "PUBLISHER",
	RoleReviewer:       "REVIEWER",
	RoleSubscriber:     "SUBSCRIBER",
	RoleSuperAdmin:     "SUPER_ADMIN",
	RoleSuperEditor:    "SUPER_EDITOR",
	RoleSuperModerator: "SUPER_MODERATOR",
	RoleTranslator:     "TRANSLATOR",
}

// RoleMap returns a copy of the mapping from named role bits to their
// descriptive names.
func RoleMap() map[Roles]string {
	m := make(map[Roles]string, len(roleNames))
	for r, name := range roleNames {
		m[r] = name
	}
	return m
}

// RoleValues returns the named role bits in ascending bit order.
func RoleValues() []Roles {
	values := make([]Roles, 0, len(roleNames))
	for bit := 0; bit < 32; bit++ {
		r := Roles(1) << bit
		if _, ok := roleNames[r]; ok {
			values = append(values, r)
		}
	}
	return values
}

// RoleNames returns the descriptive names of the named role bits in ascending
// bit order.
func RoleNames() []string {
	values := RoleValues()
	names := make([]string, len(values))
	for i, r := range values {
		names[i] = roleNames[r]
	}
	return names
}

// Has describes the has operation and its observable behavior.
func (r Roles) Has(role Roles) bool { return r&role != 0 }

// HasAny describes the hasany operation and its observable behavior.
func (r Roles) HasAny(roles ...Roles) bool {
	for _, role := range roles {
		if r.Has(role) {
			return true
		}
	}
	return false
}

// HasAll describes the hasall operation and its observable behavior.
func (r Roles) HasAll(roles ...Roles) bool {
	for _, role := range roles {
		if !r.Has(role) {
			return false
		}
	}
	return true
}

// String describes the string operation and its observable behavior.
func (r Roles) String() string {
	out := ""
	for _, role := range RoleValues() {
		if r.Has(role) {
			if out != "" {
				out += "|"
			}
			out += roleNames[role]
		}
	}
	if out == "" {
		return "NONE"
	}
	return out
}
