package api

// File manages a regular file and its metadata. Content comes either inline
// from the declaration or from an asset on the server, never both.
type File struct {
	Metadata
	Parameters    FileParameters `json:"parameters"`
	Relationships Relationships  `json:"relationships"`
}

// FileParameters are the declared properties of a managed file.
type FileParameters struct {
	Path    SafePath   `json:"path"`
	Ensure  Ensure     `json:"ensure"`
	Mode    FileMode   `json:"mode"`
	Owner   Username   `json:"owner"`
	Group   *Groupname `json:"group"`
	Content *string    `json:"content"`
	Source  *SafePath  `json:"source"`
}

// NewFile returns a file resource with a fresh id.
func NewFile(parameters FileParameters) *File {
	return &File{
		Metadata:      newMetadata(KindFile),
		Parameters:    parameters,
		Relationships: Relationships{Requires: []ResourceRef{}},
	}
}
