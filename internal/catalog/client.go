package catalog

import (
	"fmt"
	"net/netip"
	"sort"

	"github.com/google/uuid"

	"pullconf/internal/api"
)

// compilation carries the scratch state of compiling one client: the typed
// resource collections, the per-kind primary key registries, the shared path
// namespace, the parked symbolic requires, the group origin of inherited
// resources and the dependency adjacency. None of it survives into the
// catalog except the collections themselves.
type compilation struct {
	declaration *HostDeclaration
	groups      map[string]*GroupDeclaration

	packages    []*api.AptPackage
	preferences []*api.AptPreference
	cronJobs    []*api.CronJob
	directories []*api.Directory
	files       []*api.File
	userGroups  []*api.Group
	hosts       []*api.Host
	resolvConf  *api.ResolvConf
	symlinks    []*api.Symlink
	users       []*api.User

	keys     map[string]map[string]api.Resource
	paths    map[api.SafePath]api.Resource
	origin   map[uuid.UUID]string
	requires map[uuid.UUID][]symbolicRef
	graph    *graph
}

func newCompilation(declaration *HostDeclaration, groups map[string]*GroupDeclaration) *compilation {
	return &compilation{
		declaration: declaration,
		groups:      groups,
		keys:        map[string]map[string]api.Resource{},
		paths:       map[api.SafePath]api.Resource{},
		origin:      map[uuid.UUID]string{},
		requires:    map[uuid.UUID][]symbolicRef{},
		graph:       newGraph(),
	}
}

// run compiles the client into its catalog. The passes follow a fixed kind
// order so every error is reported deterministically and containment edges
// always point at resources that are already attached.
func (c *compilation) run() (*api.Catalog, error) {
	for _, raw := range c.declaration.Resources {
		resource, refs, err := instantiate(raw, c.declaration.Variables)
		if err != nil {
			return nil, err
		}
		if err := c.attach(resource, refs, ""); err != nil {
			return nil, err
		}
	}

	for _, name := range c.declaration.Groups {
		group, ok := c.groups[name]
		if !ok {
			return nil, fmt.Errorf("client belongs to group %q which is not declared: %w", name, ErrUnknownGroup)
		}
		for _, raw := range group.Resources {
			resource, refs, err := instantiate(raw, c.declaration.Variables)
			if err != nil {
				return nil, fmt.Errorf("group %q: %w", name, err)
			}
			if err := c.attach(resource, refs, name); err != nil {
				return nil, err
			}
		}
	}

	c.sortResources()

	passes := []func() error{
		c.validateFiles,
		c.validateDirectories,
		c.validateSymlinks,
		c.validateHosts,
		c.validateGroups,
		c.validateUsers,
		c.validateResolvConf,
		c.validatePackages,
		c.validatePreferences,
		c.validateCronJobs,
	}
	for _, pass := range passes {
		if err := pass(); err != nil {
			return nil, err
		}
	}

	return c.catalog(), nil
}

// attach adds an instantiated resource to the compilation, applying the
// inheritance precedence rules: resources declared on the client shadow group
// resources with the same primary key, while two groups contributing the same
// key is an ambiguity the operator has to resolve.
func (c *compilation) attach(resource api.Resource, refs []symbolicRef, fromGroup string) error {
	kind, key := resource.Kind(), resource.Key()

	if existing, ok := c.keys[kind][key]; ok {
		origin := c.origin[existing.ID()]
		switch {
		case fromGroup == "":
			if kind == api.KindResolvConf {
				return fmt.Errorf("at most one resolv.conf resource may be declared per client: %w", ErrMultipleResolvConf)
			}
			return fmt.Errorf("%s is declared more than once: %w", resource, ErrDuplicateResource)
		case origin == "" || origin == fromGroup:
			// The client's own declaration wins, and a group assigned twice
			// meets its own resources on the second traversal.
			return nil
		case kind == api.KindResolvConf:
			return fmt.Errorf("groups %q and %q both declare a resolv.conf resource: %w", origin, fromGroup, ErrMultipleResolvConf)
		default:
			return fmt.Errorf("%s is declared by both group %q and group %q: %w", resource, origin, fromGroup, ErrDuplicateResource)
		}
	}

	if c.keys[kind] == nil {
		c.keys[kind] = map[string]api.Resource{}
	}
	c.keys[kind][key] = resource
	if fromGroup != "" {
		c.origin[resource.ID()] = fromGroup
	}
	if len(refs) > 0 {
		c.requires[resource.ID()] = refs
	}

	switch {
	case resource.AptPackage != nil:
		c.packages = append(c.packages, resource.AptPackage)
	case resource.AptPreference != nil:
		c.preferences = append(c.preferences, resource.AptPreference)
	case resource.CronJob != nil:
		c.cronJobs = append(c.cronJobs, resource.CronJob)
	case resource.Directory != nil:
		c.directories = append(c.directories, resource.Directory)
	case resource.File != nil:
		c.files = append(c.files, resource.File)
	case resource.Group != nil:
		c.userGroups = append(c.userGroups, resource.Group)
	case resource.Host != nil:
		c.hosts = append(c.hosts, resource.Host)
	case resource.ResolvConf != nil:
		c.resolvConf = resource.ResolvConf
	case resource.Symlink != nil:
		c.symlinks = append(c.symlinks, resource.Symlink)
	case resource.User != nil:
		c.users = append(c.users, resource.User)
	}
	return nil
}

// sortResources orders every collection by primary key so validation order,
// children lists and the serialized catalog are stable across compilations.
func (c *compilation) sortResources() {
	sort.Slice(c.packages, func(i, j int) bool { return c.packages[i].Parameters.Name < c.packages[j].Parameters.Name })
	sort.Slice(c.preferences, func(i, j int) bool { return c.preferences[i].Parameters.Name < c.preferences[j].Parameters.Name })
	sort.Slice(c.cronJobs, func(i, j int) bool { return c.cronJobs[i].Parameters.Name < c.cronJobs[j].Parameters.Name })
	sort.Slice(c.directories, func(i, j int) bool { return c.directories[i].Parameters.Path < c.directories[j].Parameters.Path })
	sort.Slice(c.files, func(i, j int) bool { return c.files[i].Parameters.Path < c.files[j].Parameters.Path })
	sort.Slice(c.userGroups, func(i, j int) bool { return c.userGroups[i].Parameters.Name < c.userGroups[j].Parameters.Name })
	sort.Slice(c.hosts, func(i, j int) bool {
		return c.hosts[i].Parameters.IPAddress.Less(c.hosts[j].Parameters.IPAddress)
	})
	sort.Slice(c.symlinks, func(i, j int) bool { return c.symlinks[i].Parameters.Path < c.symlinks[j].Parameters.Path })
	sort.Slice(c.users, func(i, j int) bool { return c.users[i].Parameters.Name < c.users[j].Parameters.Name })
}

// ancestors returns every strict ancestor of p up to and including the root.
func ancestors(p api.SafePath) []api.SafePath {
	if p == "/" {
		return nil
	}
	var out []api.SafePath
	for current := p.Dir(); ; current = current.Dir() {
		out = append(out, current)
		if current == "/" {
			break
		}
	}
	return out
}

func (c *compilation) fileAt(path api.SafePath) *api.File {
	if r, ok := c.keys[api.KindFile][path.String()]; ok {
		return r.File
	}
	return nil
}

func (c *compilation) directoryAt(path api.SafePath) *api.Directory {
	if r, ok := c.keys[api.KindDirectory][path.String()]; ok {
		return r.Directory
	}
	return nil
}

func (c *compilation) symlinkAt(path api.SafePath) *api.Symlink {
	if r, ok := c.keys[api.KindSymlink][path.String()]; ok {
		return r.Symlink
	}
	return nil
}

// registerPath claims a path in the namespace shared by files, directories,
// symlinks and the rendered targets of apt preferences and cron jobs.
func (c *compilation) registerPath(path api.SafePath, resource api.Resource) error {
	if existing, ok := c.paths[path]; ok {
		return fmt.Errorf("%s and %s both manage path `%s`: %w", existing, resource, path, ErrPathConflict)
	}
	c.paths[path] = resource
	return nil
}

// checkAncestry rejects paths nested below a managed file. Files cannot
// contain anything.
func (c *compilation) checkAncestry(path api.SafePath, resource api.Resource) error {
	for _, ancestor := range ancestors(path) {
		if c.fileAt(ancestor) != nil {
			return fmt.Errorf("file `%s` cannot contain %s: %w", ancestor, resource, ErrPathConflict)
		}
	}
	return nil
}

// addEdge records that from requires to, deduplicated and guarded against
// loops: if from is already reachable from to the edge would close a cycle.
func (c *compilation) addEdge(from, to api.Resource) error {
	if c.graph.has(from.ID(), to.ID()) {
		return nil
	}
	if c.graph.reachable(to.ID(), from.ID()) {
		return fmt.Errorf("%s cannot depend on %s as this would introduce a dependency loop: %w", from, to, ErrDependencyCycle)
	}
	c.graph.add(from.ID(), to.ID())
	from.AddRequire(to.Ref())
	return nil
}

// containmentEdges wires a filesystem resource to every managed directory and
// symlink above it.
func (c *compilation) containmentEdges(resource api.Resource, path api.SafePath) error {
	for _, ancestor := range ancestors(path) {
		if directory := c.directoryAt(ancestor); directory != nil {
			if err := c.addEdge(resource, api.Resource{Directory: directory}); err != nil {
				return err
			}
		}
		if symlink := c.symlinkAt(ancestor); symlink != nil {
			if err := c.addEdge(resource, api.Resource{Symlink: symlink}); err != nil {
				return err
			}
		}
	}
	return nil
}

// resolveRequires turns the parked symbolic references of a resource into
// dependency edges, enforcing existence, the per-kind predicate and
// acyclicity in that order.
func (c *compilation) resolveRequires(resource api.Resource) error {
	for _, ref := range c.requires[resource.ID()] {
		target, ok := c.lookupRef(ref)
		if !ok {
			return fmt.Errorf("%s depends on %s which cannot be found: %w", resource, ref, ErrUnknownDependency)
		}
		if forbiddenDependency(resource, target) {
			return fmt.Errorf("%s cannot depend on %s: %w", resource, target, ErrForbiddenDependency)
		}
		if err := c.addEdge(resource, target); err != nil {
			return err
		}
	}
	return nil
}

// lookupRef resolves a symbolic reference against the primary key
// registries. Host references are parsed so any spelling of an address finds
// the canonical key.
func (c *compilation) lookupRef(ref symbolicRef) (api.Resource, bool) {
	key := ref.key
	switch ref.kind {
	case api.KindResolvConf:
		key = api.KindResolvConf
	case api.KindHost:
		address, err := netip.ParseAddr(ref.key)
		if err != nil {
			return api.Resource{}, false
		}
		key = address.String()
	}
	resource, ok := c.keys[ref.kind][key]
	return resource, ok
}

func (c *compilation) validateFiles() error {
	for _, file := range c.files {
		resource := api.Resource{File: file}
		path := file.Parameters.Path
		if err := c.registerPath(path, resource); err != nil {
			return err
		}
		if err := c.checkAncestry(path, resource); err != nil {
			return err
		}
		if err := c.containmentEdges(resource, path); err != nil {
			return err
		}
		if err := c.resolveRequires(resource); err != nil {
			return err
		}
	}
	return nil
}

func (c *compilation) validateDirectories() error {
	for _, directory := range c.directories {
		resource := api.Resource{Directory: directory}
		path := directory.Parameters.Path
		if err := c.registerPath(path, resource); err != nil {
			return err
		}
		if err := c.checkAncestry(path, resource); err != nil {
			return err
		}

		children := []api.ChildNode{}
		for _, child := range c.directories {
			if child.Parameters.Path.Dir() == path && child.Parameters.Path != path {
				children = append(children, api.ChildNode{Kind: api.KindDirectory, Path: child.Parameters.Path})
			}
		}
		for _, child := range c.files {
			if child.Parameters.Path.Dir() == path {
				children = append(children, api.ChildNode{Kind: api.KindFile, Path: child.Parameters.Path})
			}
		}
		for _, child := range c.symlinks {
			if child.Parameters.Path.Dir() == path {
				children = append(children, api.ChildNode{Kind: api.KindSymlink, Path: child.Parameters.Path})
			}
		}
		// Preference and cron job targets are plain files on disk, so a
		// purging parent directory must know them as file children.
		for _, child := range c.preferences {
			if child.Parameters.Target.Dir() == path {
				children = append(children, api.ChildNode{Kind: api.KindFile, Path: child.Parameters.Target})
			}
		}
		for _, child := range c.cronJobs {
			if child.Parameters.Target.Dir() == path {
				children = append(children, api.ChildNode{Kind: api.KindFile, Path: child.Parameters.Target})
			}
		}
		sort.Slice(children, func(i, j int) bool { return children[i].Path < children[j].Path })
		directory.Relationships.Children = children

		if err := c.containmentEdges(resource, path); err != nil {
			return err
		}
		// useradd creates the home directory along with the account, so a
		// directory at a managed user's home waits for the user.
		for _, user := range c.users {
			if user.Parameters.Home == path {
				if err := c.addEdge(resource, api.Resource{User: user}); err != nil {
					return err
				}
			}
		}
		if err := c.resolveRequires(resource); err != nil {
			return err
		}
	}
	return nil
}

func (c *compilation) validateSymlinks() error {
	for _, symlink := range c.symlinks {
		resource := api.Resource{Symlink: symlink}
		path := symlink.Parameters.Path
		if err := c.registerPath(path, resource); err != nil {
			return err
		}
		if err := c.checkAncestry(path, resource); err != nil {
			return err
		}
		if err := c.containmentEdges(resource, path); err != nil {
			return err
		}

		target := symlink.Parameters.Target
		if file := c.fileAt(target); file != nil {
			if err := c.addEdge(resource, api.Resource{File: file}); err != nil {
				return err
			}
		}
		if directory := c.directoryAt(target); directory != nil {
			if err := c.addEdge(resource, api.Resource{Directory: directory}); err != nil {
				return err
			}
		}
		if err := c.resolveRequires(resource); err != nil {
			return err
		}
	}
	return nil
}

// targetLinkage wires a resource that rewrites a whole file (host entry or
// resolv.conf) to the file or symlink resource managing its target path. The
// file must stay empty in the declaration, the writing resource owns its
// content.
func (c *compilation) targetLinkage(resource api.Resource, target api.SafePath) error {
	if file := c.fileAt(target); file != nil {
		if file.Parameters.Content != nil || file.Parameters.Source != nil {
			return fmt.Errorf("%s writes to file `%s` which must not declare content or source: %w",
				resource, target, ErrTargetFileHasContent)
		}
		if err := c.addEdge(resource, api.Resource{File: file}); err != nil {
			return err
		}
	}
	if symlink := c.symlinkAt(target); symlink != nil {
		if err := c.addEdge(resource, api.Resource{Symlink: symlink}); err != nil {
			return err
		}
	}
	return nil
}

func (c *compilation) validateHosts() error {
	for _, host := range c.hosts {
		resource := api.Resource{Host: host}
		if err := c.targetLinkage(resource, host.Parameters.Target); err != nil {
			return err
		}
		if err := c.resolveRequires(resource); err != nil {
			return err
		}
	}
	return nil
}

func (c *compilation) validateGroups() error {
	for _, group := range c.userGroups {
		resource := api.Resource{Group: group}
		// Creating a user creates its primary group, so the group resource
		// waits for any user claiming it as primary.
		for _, user := range c.users {
			if user.Parameters.Group == group.Parameters.Name {
				if err := c.addEdge(resource, api.Resource{User: user}); err != nil {
					return err
				}
			}
		}
		if err := c.resolveRequires(resource); err != nil {
			return err
		}
	}
	return nil
}

func (c *compilation) validateUsers() error {
	for _, user := range c.users {
		resource := api.Resource{User: user}
		for _, name := range user.Parameters.Groups {
			if r, ok := c.keys[api.KindGroup][name.String()]; ok {
				if err := c.addEdge(resource, r); err != nil {
					return err
				}
			}
		}
		if err := c.resolveRequires(resource); err != nil {
			return err
		}
	}
	return nil
}

func (c *compilation) validateResolvConf() error {
	if c.resolvConf == nil {
		return nil
	}
	resource := api.Resource{ResolvConf: c.resolvConf}
	if err := c.targetLinkage(resource, c.resolvConf.Parameters.Target); err != nil {
		return err
	}
	return c.resolveRequires(resource)
}

func (c *compilation) validatePackages() error {
	for _, pkg := range c.packages {
		if err := c.resolveRequires(api.Resource{AptPackage: pkg}); err != nil {
			return err
		}
	}
	return nil
}

func (c *compilation) validatePreferences() error {
	for _, preference := range c.preferences {
		resource := api.Resource{AptPreference: preference}
		target := preference.Parameters.Target
		if err := c.registerPath(target, resource); err != nil {
			return err
		}
		if err := c.checkAncestry(target, resource); err != nil {
			return err
		}
		if err := c.containmentEdges(resource, target); err != nil {
			return err
		}
		if err := c.resolveRequires(resource); err != nil {
			return err
		}
	}
	return nil
}

func (c *compilation) validateCronJobs() error {
	for _, job := range c.cronJobs {
		resource := api.Resource{CronJob: job}
		target := job.Parameters.Target
		if err := c.registerPath(target, resource); err != nil {
			return err
		}
		if err := c.checkAncestry(target, resource); err != nil {
			return err
		}
		if err := c.containmentEdges(resource, target); err != nil {
			return err
		}
		if err := c.resolveRequires(resource); err != nil {
			return err
		}
	}
	return nil
}

// catalog assembles the compiled collections into the served document, in
// kind tag order with every collection already sorted by primary key.
func (c *compilation) catalog() *api.Catalog {
	data := []api.Resource{}
	for _, r := range c.packages {
		data = append(data, api.Resource{AptPackage: r})
	}
	for _, r := range c.preferences {
		data = append(data, api.Resource{AptPreference: r})
	}
	for _, r := range c.cronJobs {
		data = append(data, api.Resource{CronJob: r})
	}
	for _, r := range c.directories {
		data = append(data, api.Resource{Directory: r})
	}
	for _, r := range c.files {
		data = append(data, api.Resource{File: r})
	}
	for _, r := range c.userGroups {
		data = append(data, api.Resource{Group: r})
	}
	for _, r := range c.hosts {
		data = append(data, api.Resource{Host: r})
	}
	if c.resolvConf != nil {
		data = append(data, api.Resource{ResolvConf: c.resolvConf})
	}
	for _, r := range c.symlinks {
		data = append(data, api.Resource{Symlink: r})
	}
	for _, r := range c.users {
		data = append(data, api.Resource{User: r})
	}

	return &api.Catalog{
		Links: api.Links{Self: api.ClientPath(c.declaration.Name)},
		Data:  data,
	}
}
