package api

// Group manages a system group.
type Group struct {
	Metadata
	Parameters    GroupParameters `json:"parameters"`
	Relationships Relationships   `json:"relationships"`
}

// GroupParameters are the declared properties of a managed group.
type GroupParameters struct {
	Ensure Ensure    `json:"ensure"`
	Name   Groupname `json:"name"`
	System bool      `json:"system"`
}

// NewGroup returns a group resource with a fresh id.
func NewGroup(parameters GroupParameters) *Group {
	return &Group{
		Metadata:      newMetadata(KindGroup),
		Parameters:    parameters,
		Relationships: Relationships{Requires: []ResourceRef{}},
	}
}
