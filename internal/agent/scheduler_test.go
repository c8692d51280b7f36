package agent

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pullconf/internal/api"
)

func resultByID(results []Result, id uuid.UUID) Result {
	for _, result := range results {
		if result.Resource.ID() == id {
			return result
		}
	}
	return Result{}
}

func TestSchedulerOrdersByDependency(t *testing.T) {
	scheduler := NewScheduler(newFakeSystem().withCurrentOwner(), newFakeAssets())

	parent := tempPath(t, "app")
	directory := api.NewDirectory(api.DirectoryParameters{Path: parent, Ensure: api.Present, Owner: api.RootUser})
	file := api.NewFile(api.FileParameters{
		Path:    parent.Join("app.conf"),
		Ensure:  api.Present,
		Mode:    "644",
		Owner:   api.RootUser,
		Content: stringPtr("x\n"),
	})
	file.Relationships.Requires = append(file.Relationships.Requires, api.Resource{Directory: directory}.Ref())

	// The dependent sits in front of its dependency on purpose.
	results := scheduler.Run([]api.Resource{{File: file}, {Directory: directory}})
	require.Len(t, results, 2)
	assert.Equal(t, api.KindDirectory, results[0].Resource.Kind())
	assert.Equal(t, api.ActionCreated, results[0].Action)
	assert.Equal(t, api.KindFile, results[1].Resource.Kind())
	assert.Equal(t, api.ActionCreated, results[1].Action)
}

func TestSchedulerPropagatesFailures(t *testing.T) {
	scheduler := NewScheduler(newFakeSystem().withCurrentOwner(), newFakeAssets())

	// The directory cannot be created below a parent that does not exist,
	// so everything downstream must be skipped, not attempted.
	missingParent := tempPath(t, "gone").Join("app")
	directory := api.NewDirectory(api.DirectoryParameters{Path: missingParent, Ensure: api.Present, Owner: api.RootUser})
	file := api.NewFile(api.FileParameters{
		Path:    missingParent.Join("app.conf"),
		Ensure:  api.Present,
		Mode:    "644",
		Owner:   api.RootUser,
		Content: stringPtr("x\n"),
	})
	file.Relationships.Requires = append(file.Relationships.Requires, api.Resource{Directory: directory}.Ref())
	symlink := api.NewSymlink(api.SymlinkParameters{
		Path:   tempPath(t, "link"),
		Ensure: api.Present,
		Target: missingParent.Join("app.conf"),
	})
	symlink.Relationships.Requires = append(symlink.Relationships.Requires, api.Resource{File: file}.Ref())

	results := scheduler.Run([]api.Resource{{Directory: directory}, {File: file}, {Symlink: symlink}})
	require.Len(t, results, 3)
	assert.Equal(t, api.ActionFailed, resultByID(results, directory.ID).Action)
	assert.Equal(t, api.ActionSkipped, resultByID(results, file.ID).Action)
	assert.Equal(t, api.ActionSkipped, resultByID(results, symlink.ID).Action)
}

func TestSchedulerFailsPresentResourcesWithAbsentDependencies(t *testing.T) {
	scheduler := NewScheduler(newFakeSystem().withCurrentOwner(), newFakeAssets())

	stale := api.NewFile(api.FileParameters{
		Path:   tempPath(t, "stale.conf"),
		Ensure: api.Absent,
		Mode:   "644",
		Owner:  api.RootUser,
	})
	dependent := api.NewFile(api.FileParameters{
		Path:    tempPath(t, "app.conf"),
		Ensure:  api.Present,
		Mode:    "644",
		Owner:   api.RootUser,
		Content: stringPtr("x\n"),
	})
	dependent.Relationships.Requires = append(dependent.Relationships.Requires, api.Resource{File: stale}.Ref())

	results := scheduler.Run([]api.Resource{{File: stale}, {File: dependent}})
	require.Len(t, results, 2)
	assert.Equal(t, api.ActionUnchanged, resultByID(results, stale.ID).Action)

	failed := resultByID(results, dependent.ID)
	assert.Equal(t, api.ActionFailed, failed.Action)
	require.Error(t, failed.Err)
	assert.Contains(t, failed.Err.Error(), "is set to absent")
}

func TestSchedulerFailsUnsatisfiableDependencies(t *testing.T) {
	scheduler := NewScheduler(newFakeSystem().withCurrentOwner(), newFakeAssets())

	orphan := api.NewFile(api.FileParameters{
		Path:    tempPath(t, "app.conf"),
		Ensure:  api.Present,
		Mode:    "644",
		Owner:   api.RootUser,
		Content: stringPtr("x\n"),
	})
	orphan.Relationships.Requires = append(orphan.Relationships.Requires, api.ResourceRef{Kind: api.KindFile, ID: uuid.New()})

	results := scheduler.Run([]api.Resource{{File: orphan}})
	require.Len(t, results, 1)
	assert.Equal(t, api.ActionFailed, results[0].Action)
	require.Error(t, results[0].Err)
}
