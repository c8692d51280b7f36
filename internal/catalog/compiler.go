package catalog

import (
	"fmt"
	"sort"

	"pullconf/internal/api"
	"pullconf/pkg/logging"
)

// State is the result of one successful compilation run: a finished catalog
// per client plus the API key index request authentication uses. A State is
// immutable once built, the server swaps whole values on reload.
type State struct {
	Clients map[api.Hostname]*api.Catalog
	APIKeys map[api.APIKey]api.Hostname
}

// Compile builds the catalogs of every declared client. Clients compile in
// name order, so the first error of a broken configuration is stable across
// runs. Any error leaves the returned state nil; partial results are never
// exposed.
func Compile(declarations *Declarations) (*State, error) {
	state := &State{
		Clients: map[api.Hostname]*api.Catalog{},
		APIKeys: map[api.APIKey]api.Hostname{},
	}

	names := make([]api.Hostname, 0, len(declarations.Hosts))
	for name := range declarations.Hosts {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })

	referenced := map[string]bool{}
	for _, name := range names {
		declaration := declarations.Hosts[name]

		if other, ok := state.APIKeys[declaration.APIKey]; ok {
			return nil, fmt.Errorf("clients %s and %s share an API key: %w", other, name, ErrDuplicateAPIKey)
		}

		catalog, err := newCompilation(declaration, declarations.Groups).run()
		if err != nil {
			return nil, fmt.Errorf("client %s: %w", name, err)
		}

		state.Clients[name] = catalog
		state.APIKeys[declaration.APIKey] = name
		for _, group := range declaration.Groups {
			referenced[group] = true
		}
	}

	unreferenced := make([]string, 0)
	for name := range declarations.Groups {
		if !referenced[name] {
			unreferenced = append(unreferenced, name)
		}
	}
	sort.Strings(unreferenced)
	for _, name := range unreferenced {
		logging.Warn("validation", "group %q is not referenced by any client", name)
	}

	return state, nil
}
