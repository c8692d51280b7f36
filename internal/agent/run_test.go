package agent

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pullconf/internal/api"
)

// fakeSource serves a fixed catalog alongside the in-memory assets.
type fakeSource struct {
	*fakeAssets
	catalog *api.Catalog
	err     error
}

func (f *fakeSource) FetchCatalog() (*api.Catalog, error) {
	return f.catalog, f.err
}

func TestConverge(t *testing.T) {
	t.Run("resource failures do not fail the run", func(t *testing.T) {
		// Creating a file below a parent that does not exist fails the
		// resource, but the run itself succeeds.
		doomed := api.NewFile(api.FileParameters{
			Path:    tempPath(t, "gone").Join("app.conf"),
			Ensure:  api.Present,
			Mode:    "644",
			Owner:   api.RootUser,
			Content: stringPtr("x\n"),
		})
		source := &fakeSource{
			fakeAssets: newFakeAssets(),
			catalog:    &api.Catalog{Data: []api.Resource{{File: doomed}}},
		}

		var output strings.Builder
		err := converge(source, newFakeSystem().withCurrentOwner(), "web-1.example.com", true, &output)
		require.NoError(t, err)
		assert.Contains(t, output.String(), "failed")
	})

	t.Run("fetch errors fail the run", func(t *testing.T) {
		source := &fakeSource{
			fakeAssets: newFakeAssets(),
			err:        fmt.Errorf("connection refused"),
		}

		var output strings.Builder
		err := converge(source, newFakeSystem(), "web-1.example.com", false, &output)
		require.Error(t, err)
		assert.Empty(t, output.String())
	})
}
