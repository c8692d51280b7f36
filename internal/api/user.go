package api

// User manages a system user account, including its shadow entry and group
// memberships.
type User struct {
	Metadata
	Parameters    UserParameters `json:"parameters"`
	Relationships Relationships  `json:"relationships"`
}

// UserParameters are the declared properties of a managed user. Home
// defaults to /home/{name}, the primary group to a group named like the
// user, and the password to locked. Supplementary groups are sorted and must
// not contain the primary group.
type UserParameters struct {
	Ensure     Ensure      `json:"ensure"`
	Name       Username    `json:"name"`
	System     bool        `json:"system"`
	Comment    *string     `json:"comment"`
	Shell      *SafePath   `json:"shell"`
	Home       SafePath    `json:"home"`
	Password   Password    `json:"password"`
	ExpiryDate *ExpiryDate `json:"expiry-date"`
	Group      Groupname   `json:"group"`
	Groups     []Groupname `json:"groups"`
}

// NewUser returns a user resource with a fresh id.
func NewUser(parameters UserParameters) *User {
	return &User{
		Metadata:      newMetadata(KindUser),
		Parameters:    parameters,
		Relationships: Relationships{Requires: []ResourceRef{}},
	}
}
