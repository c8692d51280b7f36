package api

// Symlink manages a symbolic link. The agent never follows the link when
// inspecting it and requires the target to exist before creating it.
type Symlink struct {
	Metadata
	Parameters    SymlinkParameters `json:"parameters"`
	Relationships Relationships     `json:"relationships"`
}

// SymlinkParameters are the declared properties of a managed symlink.
type SymlinkParameters struct {
	Path   SafePath `json:"path"`
	Ensure Ensure   `json:"ensure"`
	Target SafePath `json:"target"`
}

// NewSymlink returns a symlink resource with a fresh id.
func NewSymlink(parameters SymlinkParameters) *Symlink {
	return &Symlink{
		Metadata:      newMetadata(KindSymlink),
		Parameters:    parameters,
		Relationships: Relationships{Requires: []ResourceRef{}},
	}
}
