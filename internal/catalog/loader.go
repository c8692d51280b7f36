package catalog

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"pullconf/internal/api"
	"pullconf/pkg/logging"
)

// HostDeclaration is the parsed but uncompiled content of one client file.
type HostDeclaration struct {
	Name      api.Hostname
	APIKey    api.APIKey
	Groups    []string
	Variables Variables
	Resources []map[string]any
}

// GroupDeclaration is the parsed content of one group file. Group resources
// stay raw until a client inherits them, because variable resolution depends
// on the inheriting client.
type GroupDeclaration struct {
	Name      string
	Resources []map[string]any
}

// Declarations is everything Load read from the resource directory.
type Declarations struct {
	Hosts  map[api.Hostname]*HostDeclaration
	Groups map[string]*GroupDeclaration
}

type hostFile struct {
	APIKey    api.APIKey       `toml:"api-key"`
	Groups    []string         `toml:"groups"`
	Variables map[string]any   `toml:"variables"`
	Resources []map[string]any `toml:"resources"`
}

type groupFile struct {
	Resources []map[string]any `toml:"resources"`
}

// Load reads every group and client declaration below dir. The directory must
// contain a groups/ and a clients/ subdirectory; entries that are not TOML
// files are skipped with a warning.
func Load(dir string) (*Declarations, error) {
	declarations := &Declarations{
		Hosts:  map[api.Hostname]*HostDeclaration{},
		Groups: map[string]*GroupDeclaration{},
	}

	if err := loadDirectory(filepath.Join(dir, "groups"), func(name, path string) error {
		group, err := loadGroupFile(name, path)
		if err != nil {
			return err
		}
		if _, ok := declarations.Groups[group.Name]; ok {
			return fmt.Errorf("group %q is declared more than once: %w", group.Name, ErrDuplicateGroup)
		}
		declarations.Groups[group.Name] = group
		return nil
	}); err != nil {
		return nil, err
	}

	if err := loadDirectory(filepath.Join(dir, "clients"), func(name, path string) error {
		host, err := loadHostFile(name, path)
		if err != nil {
			return err
		}
		if _, ok := declarations.Hosts[host.Name]; ok {
			return fmt.Errorf("client %q is declared more than once: %w", host.Name, ErrDuplicateHost)
		}
		declarations.Hosts[host.Name] = host
		return nil
	}); err != nil {
		return nil, err
	}

	return declarations, nil
}

// loadDirectory walks one declaration directory and calls parse for every
// TOML file, passing the file stem and the full path.
func loadDirectory(dir string, parse func(name, path string) error) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("reading declaration directory: %w", err)
	}

	for _, entry := range entries {
		path := filepath.Join(dir, entry.Name())
		if entry.IsDir() {
			logging.Warn("configuration", "skipping directory %s, declarations are not read recursively", path)
			continue
		}
		if !strings.HasSuffix(entry.Name(), ".toml") {
			logging.Warn("configuration", "skipping %s, declarations must be TOML files", path)
			continue
		}
		name := strings.TrimSuffix(entry.Name(), ".toml")
		if err := parse(name, path); err != nil {
			return err
		}
	}
	return nil
}

func loadGroupFile(name, path string) (*GroupDeclaration, error) {
	if name == "" {
		return nil, fmt.Errorf("%s: group names must not be empty: %w", path, ErrInvalidValue)
	}

	var parsed groupFile
	if err := decodeTOML(path, &parsed); err != nil {
		return nil, fmt.Errorf("group %q: %w", name, err)
	}

	return &GroupDeclaration{Name: name, Resources: parsed.Resources}, nil
}

func loadHostFile(name, path string) (*HostDeclaration, error) {
	hostname, err := api.NewHostname(name)
	if err != nil {
		return nil, fmt.Errorf("%s: %v: %w", path, err, ErrInvalidValue)
	}

	var parsed hostFile
	if err := decodeTOML(path, &parsed); err != nil {
		return nil, fmt.Errorf("client %s: %w", hostname, err)
	}
	if parsed.APIKey == "" {
		return nil, fmt.Errorf("client %s: declaration is missing the `api-key` field: %w", hostname, ErrInvalidValue)
	}

	variables := Variables{}
	for key, value := range parsed.Variables {
		variables[key] = value
	}

	return &HostDeclaration{
		Name:      hostname,
		APIKey:    parsed.APIKey,
		Groups:    parsed.Groups,
		Variables: variables,
		Resources: parsed.Resources,
	}, nil
}

// decodeTOML parses one declaration file and rejects top-level keys the
// schema does not define. Keys inside resource tables are checked later by
// the per-kind parameter readers.
func decodeTOML(path string, target any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading declaration: %w", err)
	}

	metadata, err := toml.Decode(string(data), target)
	if err != nil {
		return fmt.Errorf("parsing declaration: %v: %w", err, ErrInvalidValue)
	}
	if undecoded := metadata.Undecoded(); len(undecoded) > 0 {
		return fmt.Errorf("declaration contains unknown field `%s`: %w", undecoded[0], ErrInvalidValue)
	}
	return nil
}
