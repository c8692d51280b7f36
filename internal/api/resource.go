package api

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// Wire values of the "type" field, in catalog order.
const (
	KindAptPackage    = "apt::package"
	KindAptPreference = "apt::preference"
	KindCronJob       = "cron::job"
	KindDirectory     = "directory"
	KindFile          = "file"
	KindGroup         = "group"
	KindHost          = "host"
	KindResolvConf    = "resolv.conf"
	KindSymlink       = "symlink"
	KindUser          = "user"
)

// Kinds lists every resource kind in the order catalogs serialize them.
var Kinds = []string{
	KindAptPackage,
	KindAptPreference,
	KindCronJob,
	KindDirectory,
	KindFile,
	KindGroup,
	KindHost,
	KindResolvConf,
	KindSymlink,
	KindUser,
}

// Metadata identifies a resource on the wire.
type Metadata struct {
	Kind string    `json:"type"`
	ID   uuid.UUID `json:"id"`
}

// ResourceRef points at another resource within the same catalog.
type ResourceRef struct {
	Kind string    `json:"type"`
	ID   uuid.UUID `json:"id"`
}

// newMetadata mints the identity of a freshly compiled resource.
func newMetadata(kind string) Metadata {
	return Metadata{Kind: kind, ID: uuid.New()}
}

// Relationships lists the resources a resource depends on. The agent applies
// every entry of Requires before the resource itself.
type Relationships struct {
	Requires []ResourceRef `json:"requires"`
}

// Resource is a tagged union over the ten supported kinds. Exactly one
// variant is non-nil.
type Resource struct {
	AptPackage    *AptPackage
	AptPreference *AptPreference
	CronJob       *CronJob
	Directory     *Directory
	File          *File
	Group         *Group
	Host          *Host
	ResolvConf    *ResolvConf
	Symlink       *Symlink
	User          *User
}

// MarshalJSON implements json.Marshaler.
func (r Resource) MarshalJSON() ([]byte, error) {
	switch {
	case r.AptPackage != nil:
		return json.Marshal(r.AptPackage)
	case r.AptPreference != nil:
		return json.Marshal(r.AptPreference)
	case r.CronJob != nil:
		return json.Marshal(r.CronJob)
	case r.Directory != nil:
		return json.Marshal(r.Directory)
	case r.File != nil:
		return json.Marshal(r.File)
	case r.Group != nil:
		return json.Marshal(r.Group)
	case r.Host != nil:
		return json.Marshal(r.Host)
	case r.ResolvConf != nil:
		return json.Marshal(r.ResolvConf)
	case r.Symlink != nil:
		return json.Marshal(r.Symlink)
	case r.User != nil:
		return json.Marshal(r.User)
	default:
		return nil, fmt.Errorf("resource has no variant set")
	}
}

// UnmarshalJSON implements json.Unmarshaler, dispatching on the "type" field.
func (r *Resource) UnmarshalJSON(data []byte) error {
	var probe struct {
		Kind string `json:"type"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return err
	}

	switch probe.Kind {
	case KindAptPackage:
		r.AptPackage = &AptPackage{}
		return json.Unmarshal(data, r.AptPackage)
	case KindAptPreference:
		r.AptPreference = &AptPreference{}
		return json.Unmarshal(data, r.AptPreference)
	case KindCronJob:
		r.CronJob = &CronJob{}
		return json.Unmarshal(data, r.CronJob)
	case KindDirectory:
		r.Directory = &Directory{}
		return json.Unmarshal(data, r.Directory)
	case KindFile:
		r.File = &File{}
		return json.Unmarshal(data, r.File)
	case KindGroup:
		r.Group = &Group{}
		return json.Unmarshal(data, r.Group)
	case KindHost:
		r.Host = &Host{}
		return json.Unmarshal(data, r.Host)
	case KindResolvConf:
		r.ResolvConf = &ResolvConf{}
		return json.Unmarshal(data, r.ResolvConf)
	case KindSymlink:
		r.Symlink = &Symlink{}
		return json.Unmarshal(data, r.Symlink)
	case KindUser:
		r.User = &User{}
		return json.Unmarshal(data, r.User)
	default:
		return fmt.Errorf("unknown resource type %q", probe.Kind)
	}
}

// Kind returns the wire type tag of the set variant.
func (r Resource) Kind() string {
	return r.metadata().Kind
}

// ID returns the catalog-unique id of the resource.
func (r Resource) ID() uuid.UUID {
	return r.metadata().ID
}

// Ref returns the reference other resources use to depend on this one.
func (r Resource) Ref() ResourceRef {
	m := r.metadata()
	return ResourceRef{Kind: m.Kind, ID: m.ID}
}

func (r Resource) metadata() Metadata {
	switch {
	case r.AptPackage != nil:
		return r.AptPackage.Metadata
	case r.AptPreference != nil:
		return r.AptPreference.Metadata
	case r.CronJob != nil:
		return r.CronJob.Metadata
	case r.Directory != nil:
		return r.Directory.Metadata
	case r.File != nil:
		return r.File.Metadata
	case r.Group != nil:
		return r.Group.Metadata
	case r.Host != nil:
		return r.Host.Metadata
	case r.ResolvConf != nil:
		return r.ResolvConf.Metadata
	case r.Symlink != nil:
		return r.Symlink.Metadata
	case r.User != nil:
		return r.User.Metadata
	default:
		return Metadata{}
	}
}

// Requires returns the dependency references of the set variant.
func (r Resource) Requires() []ResourceRef {
	switch {
	case r.AptPackage != nil:
		return r.AptPackage.Relationships.Requires
	case r.AptPreference != nil:
		return r.AptPreference.Relationships.Requires
	case r.CronJob != nil:
		return r.CronJob.Relationships.Requires
	case r.Directory != nil:
		return r.Directory.Relationships.Requires
	case r.File != nil:
		return r.File.Relationships.Requires
	case r.Group != nil:
		return r.Group.Relationships.Requires
	case r.Host != nil:
		return r.Host.Relationships.Requires
	case r.ResolvConf != nil:
		return r.ResolvConf.Relationships.Requires
	case r.Symlink != nil:
		return r.Symlink.Relationships.Requires
	case r.User != nil:
		return r.User.Relationships.Requires
	default:
		return nil
	}
}

// AddRequire appends a dependency reference to the set variant.
func (r Resource) AddRequire(ref ResourceRef) {
	switch {
	case r.AptPackage != nil:
		r.AptPackage.Relationships.Requires = append(r.AptPackage.Relationships.Requires, ref)
	case r.AptPreference != nil:
		r.AptPreference.Relationships.Requires = append(r.AptPreference.Relationships.Requires, ref)
	case r.CronJob != nil:
		r.CronJob.Relationships.Requires = append(r.CronJob.Relationships.Requires, ref)
	case r.Directory != nil:
		r.Directory.Relationships.Requires = append(r.Directory.Relationships.Requires, ref)
	case r.File != nil:
		r.File.Relationships.Requires = append(r.File.Relationships.Requires, ref)
	case r.Group != nil:
		r.Group.Relationships.Requires = append(r.Group.Relationships.Requires, ref)
	case r.Host != nil:
		r.Host.Relationships.Requires = append(r.Host.Relationships.Requires, ref)
	case r.ResolvConf != nil:
		r.ResolvConf.Relationships.Requires = append(r.ResolvConf.Relationships.Requires, ref)
	case r.Symlink != nil:
		r.Symlink.Relationships.Requires = append(r.Symlink.Relationships.Requires, ref)
	case r.User != nil:
		r.User.Relationships.Requires = append(r.User.Relationships.Requires, ref)
	}
}

// Key returns the primary key of the set variant: the path for filesystem
// kinds, the name for named kinds, the IP address for hosts. The resolv.conf
// singleton keys on its kind tag.
func (r Resource) Key() string {
	switch {
	case r.AptPackage != nil:
		return r.AptPackage.Parameters.Name.String()
	case r.AptPreference != nil:
		return r.AptPreference.Parameters.Name.String()
	case r.CronJob != nil:
		return r.CronJob.Parameters.Name.String()
	case r.Directory != nil:
		return r.Directory.Parameters.Path.String()
	case r.File != nil:
		return r.File.Parameters.Path.String()
	case r.Group != nil:
		return r.Group.Parameters.Name.String()
	case r.Host != nil:
		return r.Host.Parameters.IPAddress.String()
	case r.ResolvConf != nil:
		return KindResolvConf
	case r.Symlink != nil:
		return r.Symlink.Parameters.Path.String()
	case r.User != nil:
		return r.User.Parameters.Name.String()
	default:
		return ""
	}
}

// String renders the resource the way log messages reference it.
func (r Resource) String() string {
	return fmt.Sprintf("%s `%s`", r.Kind(), r.Key())
}

// IsAbsent reports whether the resource is declared not to exist. Purged
// packages count as absent.
func (r Resource) IsAbsent() bool {
	switch {
	case r.AptPackage != nil:
		return r.AptPackage.Parameters.Ensure.IsAbsent()
	case r.AptPreference != nil:
		return r.AptPreference.Parameters.Ensure.IsAbsent()
	case r.CronJob != nil:
		return r.CronJob.Parameters.Ensure.IsAbsent()
	case r.Directory != nil:
		return r.Directory.Parameters.Ensure.IsAbsent()
	case r.File != nil:
		return r.File.Parameters.Ensure.IsAbsent()
	case r.Group != nil:
		return r.Group.Parameters.Ensure.IsAbsent()
	case r.Host != nil:
		return r.Host.Parameters.Ensure.IsAbsent()
	case r.ResolvConf != nil:
		return r.ResolvConf.Parameters.Ensure.IsAbsent()
	case r.Symlink != nil:
		return r.Symlink.Parameters.Ensure.IsAbsent()
	case r.User != nil:
		return r.User.Parameters.Ensure.IsAbsent()
	default:
		return false
	}
}
