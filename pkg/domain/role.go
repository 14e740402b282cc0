package domain

import (
	"fmt"
	"strings"
)

// Role is the canonical role tier of an identity. The three tiers carry a
// numeric authority rank used to compare standing between parties.
type Role string

const (
	RoleAdministrator Role = "administrator"
	RoleCoordinator   Role = "coordinator"
	RoleStakeholder   Role = "stakeholder"
)

// authorityRank orders the tiers. Higher outranks lower.
var authorityRank = map[Role]int{
	RoleAdministrator: 3,
	RoleCoordinator:   2,
	RoleStakeholder:   1,
}

// ParseRole validates a canonical role string.
// Returns an error for anything outside the three tiers.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if _, ok := authorityRank[r]; !ok {
		return "", fmt.Errorf("unknown role: %s", s)
	}
	return r, nil
}

// NormalizeRole maps heterogeneous role labels onto the canonical tiers.
// Matching is case-insensitive and substring-tolerant to absorb legacy
// spellings ("Admin", "drive_coordinator", "stakeholder_member"). Unknown
// labels pass through unchanged so caller errors surface as "no actions"
// rather than being silently promoted.
func NormalizeRole(label string) Role {
	l := strings.ToLower(strings.TrimSpace(label))
	switch {
	case strings.Contains(l, "admin"):
		return RoleAdministrator
	case strings.Contains(l, "coordinator"), strings.Contains(l, "coord"):
		return RoleCoordinator
	case strings.Contains(l, "stakeholder"), strings.Contains(l, "requester"), strings.Contains(l, "member"):
		return RoleStakeholder
	default:
		return Role(label)
	}
}

// Rank returns the numeric authority rank of the role; zero for unknown roles.
func (r Role) Rank() int {
	return authorityRank[r]
}

// Outranks reports whether r carries strictly higher authority than other.
func (r Role) Outranks(other Role) bool {
	return r.Rank() > other.Rank()
}

// IsCanonical reports whether the role is one of the three known tiers.
func (r Role) IsCanonical() bool {
	_, ok := authorityRank[r]
	return ok
}

func (r Role) String() string { return string(r) }
