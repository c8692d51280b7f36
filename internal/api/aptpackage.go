package api

// AptPackage manages a Debian package through apt-get and dpkg-query.
type AptPackage struct {
	Metadata
	Parameters    AptPackageParameters `json:"parameters"`
	Relationships Relationships        `json:"relationships"`
}

// AptPackageParameters are the declared properties of a managed package.
// Without a version the agent accepts whatever version apt selects.
type AptPackageParameters struct {
	Ensure  PackageEnsure   `json:"ensure"`
	Name    PackageName     `json:"name"`
	Version *PackageVersion `json:"version"`
}

// NewAptPackage returns a package resource with a fresh id.
func NewAptPackage(parameters AptPackageParameters) *AptPackage {
	return &AptPackage{
		Metadata:      newMetadata(KindAptPackage),
		Parameters:    parameters,
		Relationships: Relationships{Requires: []ResourceRef{}},
	}
}
