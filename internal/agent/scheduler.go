package agent

import (
	"fmt"

	"github.com/google/uuid"

	"pullconf/internal/api"
	"pullconf/pkg/logging"
)

// Result is the outcome of applying one resource.
type Result struct {
	Resource api.Resource
	Action   api.Action
	Err      error
}

// Scheduler converges the resources of a catalog in dependency order.
type Scheduler struct {
	applier *applier
}

// NewScheduler wires the appliers to the host seam and the asset fetcher.
func NewScheduler(system System, assets assetFetcher) *Scheduler {
	return &Scheduler{applier: newApplier(system, assets)}
}

// Run applies every resource, each one only after all of its dependencies.
// The queue rotates resources whose dependencies are still pending; the
// compiler guarantees acyclicity, so each rotation makes progress. Failures
// never abort the run, they propagate as skips to dependent resources.
func (s *Scheduler) Run(resources []api.Resource) []Result {
	queue := make([]api.Resource, len(resources))
	copy(queue, resources)

	byID := make(map[uuid.UUID]api.Resource, len(resources))
	for _, resource := range resources {
		byID[resource.ID()] = resource
	}

	applied := make(map[uuid.UUID]Result, len(resources))
	results := make([]Result, 0, len(resources))

	deferred := 0
	for len(queue) > 0 {
		resource := queue[0]
		queue = queue[1:]

		if !s.ready(resource, applied) {
			queue = append(queue, resource)
			deferred++
			if deferred > len(queue) {
				// A full rotation without progress means the catalog
				// references resources it does not contain. Fail the
				// remainder instead of spinning.
				for _, stuck := range queue {
					result := Result{
						Resource: stuck,
						Action:   api.ActionFailed,
						Err:      fmt.Errorf("cannot apply %s as its dependencies never became ready", stuck),
					}
					logging.Error("apply", result.Err, "failed to apply %s", stuck)
					results = append(results, result)
				}
				return results
			}
			continue
		}
		deferred = 0

		result := s.applyOne(resource, byID, applied)
		applied[resource.ID()] = result
		results = append(results, result)
	}
	return results
}

func (s *Scheduler) ready(resource api.Resource, applied map[uuid.UUID]Result) bool {
	for _, ref := range resource.Requires() {
		if _, ok := applied[ref.ID]; !ok {
			return false
		}
	}
	return true
}

// applyOne runs the pre-apply checks against the already applied
// dependencies, then hands the resource to its applier.
func (s *Scheduler) applyOne(resource api.Resource, byID map[uuid.UUID]api.Resource, applied map[uuid.UUID]Result) Result {
	for _, ref := range resource.Requires() {
		dependency := applied[ref.ID]
		switch dependency.Action {
		case api.ActionFailed:
			logging.Info("apply", "skipping %s as %s has failed to apply", resource, dependency.Resource)
			return Result{Resource: resource, Action: api.ActionSkipped}
		case api.ActionSkipped:
			logging.Info("apply", "skipping %s as %s has been skipped", resource, dependency.Resource)
			return Result{Resource: resource, Action: api.ActionSkipped}
		}
	}

	if !resource.IsAbsent() {
		for _, ref := range resource.Requires() {
			if dependency, ok := byID[ref.ID]; ok && dependency.IsAbsent() {
				err := fmt.Errorf("cannot apply %s as %s is set to absent", resource, dependency)
				logging.Error("apply", err, "failed to apply %s", resource)
				return Result{Resource: resource, Action: api.ActionFailed, Err: err}
			}
		}
	}

	action, err := s.applier.apply(resource)
	if err != nil {
		logging.Error("apply", err, "failed to apply %s", resource)
		return Result{Resource: resource, Action: api.ActionFailed, Err: err}
	}

	switch action {
	case api.ActionUnchanged:
		logging.Debug("apply", "%s is already in the desired state", resource)
	case api.ActionSkipped:
		// The applier has logged the reason.
	default:
		logging.Info("apply", "%s: %s", resource, action)
	}
	return Result{Resource: resource, Action: action}
}
