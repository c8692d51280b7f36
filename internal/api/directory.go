package api

// Directory manages a directory. With purge enabled the agent removes every
// entry the catalog does not list as a child.
type Directory struct {
	Metadata
	Parameters    DirectoryParameters    `json:"parameters"`
	Relationships DirectoryRelationships `json:"relationships"`
}

// DirectoryParameters are the declared properties of a managed directory.
type DirectoryParameters struct {
	Path   SafePath   `json:"path"`
	Ensure Ensure     `json:"ensure"`
	Owner  Username   `json:"owner"`
	Group  *Groupname `json:"group"`
	Purge  bool       `json:"purge"`
}

// DirectoryRelationships extend the common relationships with the managed
// entries directly beneath the directory.
type DirectoryRelationships struct {
	Requires []ResourceRef `json:"requires"`
	Children []ChildNode   `json:"children"`
}

// ChildNode records one managed entry directly beneath a directory. The
// kind decides how a purge run would have to remove it, so files managed as
// apt preferences or cron jobs appear as file children.
type ChildNode struct {
	Kind string   `json:"type"`
	Path SafePath `json:"path"`
}

// IsDirectory reports whether the child is a managed directory.
func (c ChildNode) IsDirectory() bool {
	return c.Kind == KindDirectory
}

// NewDirectory returns a directory resource with a fresh id.
func NewDirectory(parameters DirectoryParameters) *Directory {
	return &Directory{
		Metadata:   newMetadata(KindDirectory),
		Parameters: parameters,
		Relationships: DirectoryRelationships{
			Requires: []ResourceRef{},
			Children: []ChildNode{},
		},
	}
}
