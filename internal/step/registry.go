package step

import (
	"errors"
	"fmt"
	"sort"
)

// ErrMissingPrerequisite marks a step reading a prior result that was never
// produced.
var ErrMissingPrerequisite = errors.New("prerequisite stage result missing")

// Registry holds the pipeline's stage set keyed by step number. Registration
// conflicts are configuration errors and surface at startup.
type Registry struct {
	steps map[int]Step
}

// NewRegistry builds a registry from the given steps. Duplicate step numbers
// and negative numbers are rejected.
func NewRegistry(steps ...Step) (*Registry, error) {
	registry := &Registry{steps: make(map[int]Step, len(steps))}
	for _, s := range steps {
		if err := registry.Register(s); err != nil {
			return nil, err
		}
	}
	return registry, nil
}

// Register adds one step to the registry.
func (r *Registry) Register(s Step) error {
	number := s.StepNumber()
	if number < 0 {
		return fmt.Errorf("step %q has invalid number %d", s.Name(), number)
	}
	if existing, ok := r.steps[number]; ok {
		return fmt.Errorf("step number %d already registered by %q, cannot add %q",
			number, existing.Name(), s.Name())
	}
	r.steps[number] = s
	return nil
}

// Get returns the step registered at a number.
func (r *Registry) Get(number int) (Step, bool) {
	s, ok := r.steps[number]
	return s, ok
}

// Discovery returns the stage-0 step, if registered.
func (r *Registry) Discovery() (Step, bool) {
	return r.Get(DiscoveryStage)
}

// Numbers returns all registered step numbers in ascending order.
func (r *Registry) Numbers() []int {
	numbers := make([]int, 0, len(r.steps))
	for number := range r.steps {
		numbers = append(numbers, number)
	}
	sort.Ints(numbers)
	return numbers
}

// PipelineNumbers returns the registered step numbers walked by a pipeline
// run, ascending and excluding the discovery stage.
func (r *Registry) PipelineNumbers() []int {
	numbers := make([]int, 0, len(r.steps))
	for number := range r.steps {
		if number == DiscoveryStage {
			continue
		}
		numbers = append(numbers, number)
	}
	sort.Ints(numbers)
	return numbers
}
