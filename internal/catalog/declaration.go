package catalog

import (
	"fmt"
	"net/netip"
	"sort"

	"pullconf/internal/api"
)

// symbolicRef is one entry of a resource's requires list before resolution:
// the kind tag plus the primary key of the dependency. The resolv.conf
// singleton is referenced by kind alone.
type symbolicRef struct {
	kind string
	key  string
}

func (r symbolicRef) String() string {
	if r.kind == api.KindResolvConf {
		return r.kind
	}
	return fmt.Sprintf("%s `%s`", r.kind, r.key)
}

// refKeyField returns the TOML field naming the primary key in a symbolic
// reference of the given kind.
func refKeyField(kind string) (string, bool) {
	switch kind {
	case api.KindDirectory, api.KindFile, api.KindSymlink:
		return "path", true
	case api.KindGroup, api.KindUser, api.KindCronJob, api.KindAptPackage, api.KindAptPreference:
		return "name", true
	case api.KindHost:
		return "ip-address", true
	case api.KindResolvConf:
		return "", true
	default:
		return "", false
	}
}

// symbolicRequires parses the requires array of a resource table.
func (t *resourceTable) symbolicRequires() ([]symbolicRef, error) {
	raw, ok, err := t.value("requires")
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	list, ok := raw.([]any)
	if !ok {
		return nil, invalidParameterf("requires", "expected an array of tables, got %T", raw)
	}

	refs := make([]symbolicRef, 0, len(list))
	for _, element := range list {
		entry, ok := element.(map[string]any)
		if !ok {
			return nil, invalidParameterf("requires", "expected an array of tables, got element of type %T", element)
		}
		kind, _ := entry["type"].(string)
		field, known := refKeyField(kind)
		if !known {
			return nil, invalidParameterf("requires", "unknown resource type %q", kind)
		}

		ref := symbolicRef{kind: kind}
		if field != "" {
			key, ok := entry[field].(string)
			if !ok || key == "" {
				return nil, invalidParameterf("requires", "references to %s resources must carry a `%s` field", kind, field)
			}
			ref.key = key
		}
		for name := range entry {
			if name != "type" && name != field {
				return nil, invalidParameterf("requires", "reference to %s declares unknown field `%s`", kind, name)
			}
		}
		refs = append(refs, ref)
	}
	return refs, nil
}

// instantiate turns one raw resource table into a resource with resolved
// variables, applied defaults and a freshly minted id, plus its still
// symbolic dependency list.
func instantiate(raw map[string]any, vars Variables) (api.Resource, []symbolicRef, error) {
	kind, _ := raw["type"].(string)
	if kind == "" {
		return api.Resource{}, nil, fmt.Errorf("resource declarations require a `type` field: %w", ErrInvalidValue)
	}

	t := newResourceTable(kind, raw, vars)

	var resource api.Resource
	var err error
	switch kind {
	case api.KindAptPackage:
		resource, err = instantiateAptPackage(t)
	case api.KindAptPreference:
		resource, err = instantiateAptPreference(t)
	case api.KindCronJob:
		resource, err = instantiateCronJob(t)
	case api.KindDirectory:
		resource, err = instantiateDirectory(t)
	case api.KindFile:
		resource, err = instantiateFile(t)
	case api.KindGroup:
		resource, err = instantiateGroup(t)
	case api.KindHost:
		resource, err = instantiateHost(t)
	case api.KindResolvConf:
		resource, err = instantiateResolvConf(t)
	case api.KindSymlink:
		resource, err = instantiateSymlink(t)
	case api.KindUser:
		resource, err = instantiateUser(t)
	default:
		return api.Resource{}, nil, fmt.Errorf("unknown resource type %q: %w", kind, ErrInvalidValue)
	}
	if err != nil {
		return api.Resource{}, nil, fmt.Errorf("%s: %w", kind, err)
	}

	refs, err := t.symbolicRequires()
	if err != nil {
		return api.Resource{}, nil, fmt.Errorf("%s: %w", resource, err)
	}
	if err := t.finish(); err != nil {
		return api.Resource{}, nil, fmt.Errorf("%s: %w", resource, err)
	}
	return resource, refs, nil
}

func instantiateFile(t *resourceTable) (api.Resource, error) {
	path, err := requiredText[api.SafePath](t, "path")
	if err != nil {
		return api.Resource{}, err
	}
	ensure, err := textDefault[api.Ensure](t, "ensure", api.Present)
	if err != nil {
		return api.Resource{}, err
	}
	mode, err := textDefault[api.FileMode](t, "mode", api.DefaultFileMode)
	if err != nil {
		return api.Resource{}, err
	}
	owner, err := textDefault[api.Username](t, "owner", api.RootUser)
	if err != nil {
		return api.Resource{}, err
	}
	group, err := textParameter[api.Groupname](t, "group")
	if err != nil {
		return api.Resource{}, err
	}
	content, err := t.optionalString("content")
	if err != nil {
		return api.Resource{}, err
	}
	source, err := textParameter[api.SafePath](t, "source")
	if err != nil {
		return api.Resource{}, err
	}
	if content != nil && source != nil {
		return api.Resource{}, fmt.Errorf("`content` and `source` are mutually exclusive: %w", ErrInvalidValue)
	}

	return api.Resource{File: api.NewFile(api.FileParameters{
		Path:    path,
		Ensure:  ensure,
		Mode:    mode,
		Owner:   owner,
		Group:   group,
		Content: content,
		Source:  source,
	})}, nil
}

func instantiateDirectory(t *resourceTable) (api.Resource, error) {
	path, err := requiredText[api.SafePath](t, "path")
	if err != nil {
		return api.Resource{}, err
	}
	ensure, err := textDefault[api.Ensure](t, "ensure", api.Present)
	if err != nil {
		return api.Resource{}, err
	}
	owner, err := textDefault[api.Username](t, "owner", api.RootUser)
	if err != nil {
		return api.Resource{}, err
	}
	group, err := textParameter[api.Groupname](t, "group")
	if err != nil {
		return api.Resource{}, err
	}
	purge, err := t.boolean("purge", false)
	if err != nil {
		return api.Resource{}, err
	}

	return api.Resource{Directory: api.NewDirectory(api.DirectoryParameters{
		Path:   path,
		Ensure: ensure,
		Owner:  owner,
		Group:  group,
		Purge:  purge,
	})}, nil
}

func instantiateSymlink(t *resourceTable) (api.Resource, error) {
	path, err := requiredText[api.SafePath](t, "path")
	if err != nil {
		return api.Resource{}, err
	}
	ensure, err := textDefault[api.Ensure](t, "ensure", api.Present)
	if err != nil {
		return api.Resource{}, err
	}
	target, err := requiredText[api.SafePath](t, "target")
	if err != nil {
		return api.Resource{}, err
	}

	return api.Resource{Symlink: api.NewSymlink(api.SymlinkParameters{
		Path:   path,
		Ensure: ensure,
		Target: target,
	})}, nil
}

func instantiateHost(t *resourceTable) (api.Resource, error) {
	ensure, err := textDefault[api.Ensure](t, "ensure", api.Present)
	if err != nil {
		return api.Resource{}, err
	}
	target, err := textDefault[api.SafePath](t, "target", api.DefaultHostsFile)
	if err != nil {
		return api.Resource{}, err
	}
	address, err := requiredText[netip.Addr](t, "ip-address")
	if err != nil {
		return api.Resource{}, err
	}
	hostname, err := requiredText[api.Hostname](t, "hostname")
	if err != nil {
		return api.Resource{}, err
	}
	aliases, err := textListParameter[api.Hostname](t, "aliases")
	if err != nil {
		return api.Resource{}, err
	}
	if len(aliases) > api.MaxHostAliases {
		return api.Resource{}, fmt.Errorf("host entry %s lists %d aliases, at most %d are supported: %w",
			address, len(aliases), api.MaxHostAliases, ErrTooManyAliases)
	}

	return api.Resource{Host: api.NewHost(api.HostParameters{
		Ensure:    ensure,
		Target:    target,
		IPAddress: address,
		Hostname:  hostname,
		Aliases:   aliases,
	})}, nil
}

func instantiateGroup(t *resourceTable) (api.Resource, error) {
	ensure, err := textDefault[api.Ensure](t, "ensure", api.Present)
	if err != nil {
		return api.Resource{}, err
	}
	name, err := requiredText[api.Groupname](t, "name")
	if err != nil {
		return api.Resource{}, err
	}
	system, err := t.boolean("system", false)
	if err != nil {
		return api.Resource{}, err
	}

	return api.Resource{Group: api.NewGroup(api.GroupParameters{
		Ensure: ensure,
		Name:   name,
		System: system,
	})}, nil
}

func instantiateUser(t *resourceTable) (api.Resource, error) {
	ensure, err := textDefault[api.Ensure](t, "ensure", api.Present)
	if err != nil {
		return api.Resource{}, err
	}
	name, err := requiredText[api.Username](t, "name")
	if err != nil {
		return api.Resource{}, err
	}
	system, err := t.boolean("system", false)
	if err != nil {
		return api.Resource{}, err
	}
	comment, err := t.optionalString("comment")
	if err != nil {
		return api.Resource{}, err
	}
	shell, err := textParameter[api.SafePath](t, "shell")
	if err != nil {
		return api.Resource{}, err
	}
	home, err := textDefault[api.SafePath](t, "home", api.SafePath("/home").Join(name.String()))
	if err != nil {
		return api.Resource{}, err
	}
	password, err := textDefault[api.Password](t, "password", api.LockedPassword)
	if err != nil {
		return api.Resource{}, err
	}
	expiry, err := textParameter[api.ExpiryDate](t, "expiry-date")
	if err != nil {
		return api.Resource{}, err
	}
	primary, err := textDefault[api.Groupname](t, "group", api.Groupname(name))
	if err != nil {
		return api.Resource{}, err
	}
	groups, err := textListParameter[api.Groupname](t, "groups")
	if err != nil {
		return api.Resource{}, err
	}

	sort.Slice(groups, func(i, j int) bool { return groups[i] < groups[j] })
	for _, group := range groups {
		if group == primary {
			return api.Resource{}, fmt.Errorf("user `%s` lists its primary group `%s` as a supplementary group: %w",
				name, primary, ErrPrimaryGroupInSupplementary)
		}
	}

	return api.Resource{User: api.NewUser(api.UserParameters{
		Ensure:     ensure,
		Name:       name,
		System:     system,
		Comment:    comment,
		Shell:      shell,
		Home:       home,
		Password:   password,
		ExpiryDate: expiry,
		Group:      primary,
		Groups:     groups,
	})}, nil
}

func instantiateResolvConf(t *resourceTable) (api.Resource, error) {
	ensure, err := textDefault[api.Ensure](t, "ensure", api.Present)
	if err != nil {
		return api.Resource{}, err
	}
	target, err := textDefault[api.SafePath](t, "target", api.DefaultResolvConfFile)
	if err != nil {
		return api.Resource{}, err
	}
	nameservers, err := textListParameter[netip.Addr](t, "nameservers")
	if err != nil {
		return api.Resource{}, err
	}
	search, err := textListParameter[api.Hostname](t, "search")
	if err != nil {
		return api.Resource{}, err
	}
	sortlist, err := textListParameter[api.SortlistPair](t, "sortlist")
	if err != nil {
		return api.Resource{}, err
	}
	options, err := textListParameter[api.ResolverOption](t, "options")
	if err != nil {
		return api.Resource{}, err
	}

	return api.Resource{ResolvConf: api.NewResolvConf(api.ResolvConfParameters{
		Ensure:      ensure,
		Target:      target,
		Nameservers: nameservers,
		Search:      search,
		Sortlist:    sortlist,
		Options:     options,
	})}, nil
}

func instantiateAptPackage(t *resourceTable) (api.Resource, error) {
	ensure, err := textDefault[api.PackageEnsure](t, "ensure", api.PackagePresent)
	if err != nil {
		return api.Resource{}, err
	}
	name, err := requiredText[api.PackageName](t, "name")
	if err != nil {
		return api.Resource{}, err
	}
	version, err := textParameter[api.PackageVersion](t, "version")
	if err != nil {
		return api.Resource{}, err
	}

	return api.Resource{AptPackage: api.NewAptPackage(api.AptPackageParameters{
		Ensure:  ensure,
		Name:    name,
		Version: version,
	})}, nil
}

func instantiateAptPreference(t *resourceTable) (api.Resource, error) {
	ensure, err := textDefault[api.Ensure](t, "ensure", api.Present)
	if err != nil {
		return api.Resource{}, err
	}
	name, err := requiredText[api.PreferenceName](t, "name")
	if err != nil {
		return api.Resource{}, err
	}
	rawOrder, err := t.optionalInteger("order")
	if err != nil {
		return api.Resource{}, err
	}
	var order *uint
	if rawOrder != nil {
		if *rawOrder < 0 {
			return api.Resource{}, invalidParameterf("order", "order must not be negative")
		}
		value := uint(*rawOrder)
		order = &value
	}
	pkg, err := t.requiredString("package")
	if err != nil {
		return api.Resource{}, err
	}
	pin, err := t.requiredString("pin")
	if err != nil {
		return api.Resource{}, err
	}
	priority, err := t.optionalInteger("pin-priority")
	if err != nil {
		return api.Resource{}, err
	}
	if priority == nil {
		return api.Resource{}, fmt.Errorf("parameter `pin-priority` is required: %w", ErrInvalidValue)
	}

	return api.Resource{AptPreference: api.NewAptPreference(api.AptPreferenceParameters{
		Ensure:      ensure,
		Target:      api.PreferenceTarget(name, order),
		Name:        name,
		Order:       order,
		Package:     pkg,
		Pin:         pin,
		PinPriority: int(*priority),
	})}, nil
}

func instantiateCronJob(t *resourceTable) (api.Resource, error) {
	ensure, err := textDefault[api.Ensure](t, "ensure", api.Present)
	if err != nil {
		return api.Resource{}, err
	}
	name, err := requiredText[api.CronJobName](t, "name")
	if err != nil {
		return api.Resource{}, err
	}
	environment, err := t.environment("environment")
	if err != nil {
		return api.Resource{}, err
	}
	schedule, err := t.requiredString("schedule")
	if err != nil {
		return api.Resource{}, err
	}
	if schedule == "" {
		return api.Resource{}, invalidParameterf("schedule", "schedules must not be empty")
	}
	user, err := textDefault[api.Username](t, "user", api.RootUser)
	if err != nil {
		return api.Resource{}, err
	}
	command, err := t.requiredString("command")
	if err != nil {
		return api.Resource{}, err
	}
	if command == "" {
		return api.Resource{}, invalidParameterf("command", "commands must not be empty")
	}

	return api.Resource{CronJob: api.NewCronJob(api.CronJobParameters{
		Ensure:      ensure,
		Target:      api.CronDir.Join(name.String()),
		Name:        name,
		Environment: environment,
		Schedule:    schedule,
		User:        user,
		Command:     command,
	})}, nil
}
