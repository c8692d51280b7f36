package agent

import (
	"fmt"
	"io"
	"os"
	"time"

	"pullconf/internal/api"
	"pullconf/pkg/logging"
)

// catalogSource delivers the catalog and the assets it references.
type catalogSource interface {
	assetFetcher
	FetchCatalog() (*api.Catalog, error)
}

// Run performs one convergence: fetch the catalog and apply every resource
// in dependency order. Only setup problems fail the run; individual
// resource failures are logged and counted but never change the exit
// status, the next run retries them.
func Run(config *Config, system System, summary bool) error {
	if os.Geteuid() != 0 {
		return fmt.Errorf("pullconf must run as root to manage system state")
	}

	client, err := NewClient(config)
	if err != nil {
		return err
	}
	return converge(client, system, config.Hostname, summary, os.Stdout)
}

func converge(source catalogSource, system System, hostname api.Hostname, summary bool, output io.Writer) error {
	catalog, err := source.FetchCatalog()
	if err != nil {
		return err
	}
	logging.Info("apply", "received a catalog with %d resources for %s", len(catalog.Data), hostname)

	start := time.Now()
	results := NewScheduler(system, source).Run(catalog.Data)
	logging.Info("apply", "applied resource catalog in %d seconds", int(time.Since(start).Seconds()))

	if summary {
		WriteSummary(output, results)
	}

	failed := 0
	for _, result := range results {
		if result.Action == api.ActionFailed {
			failed++
		}
	}
	if failed > 0 {
		logging.Warn("apply", "%d of %d resources failed to apply", failed, len(results))
	}
	return nil
}

// List fetches the catalog exactly like a convergence run, updating the
// local cache, and prints its resources without touching system state.
func List(config *Config) error {
	client, err := NewClient(config)
	if err != nil {
		return err
	}
	catalog, err := client.FetchCatalog()
	if err != nil {
		return err
	}
	WriteCatalog(os.Stdout, catalog.Data)
	return nil
}
