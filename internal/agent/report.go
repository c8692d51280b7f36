package agent

import (
	"io"

	"github.com/jedib0t/go-pretty/v6/table"

	"pullconf/internal/api"
)

func newTable(output io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(output)
	t.SetStyle(table.StyleRounded)
	return t
}

// WriteSummary renders the per-resource outcome of a convergence run.
func WriteSummary(output io.Writer, results []Result) {
	t := newTable(output)
	t.AppendHeader(table.Row{"TYPE", "KEY", "ACTION"})
	for _, result := range results {
		t.AppendRow(table.Row{result.Resource.Kind(), result.Resource.Key(), string(result.Action)})
	}
	t.Render()
}

// WriteCatalog renders the resources of a catalog without applying them.
func WriteCatalog(output io.Writer, resources []api.Resource) {
	t := newTable(output)
	t.AppendHeader(table.Row{"TYPE", "KEY", "ENSURE", "REQUIRES"})
	for _, resource := range resources {
		t.AppendRow(table.Row{resource.Kind(), resource.Key(), ensureOf(resource), len(resource.Requires())})
	}
	t.Render()
}

// ensureOf reports the declared ensure state, including the purged state
// packages support.
func ensureOf(resource api.Resource) string {
	if resource.AptPackage != nil {
		return string(resource.AptPackage.Parameters.Ensure)
	}
	if resource.IsAbsent() {
		return string(api.Absent)
	}
	return string(api.Present)
}
