// Package transform implements the C4 Transformation Registry & Engine:
// a static registration table (per spec §9's "explicit registration table"
// design note, avoiding reflection-based discovery) plus the ordered,
// environment-gated execution engine.
package transform

import (
	"context"
	"fmt"
	"sort"

	"github.com/r3e-network/datalake-ingestion/internal/dataset"
	"github.com/r3e-network/datalake-ingestion/internal/execution"
	"github.com/r3e-network/datalake-ingestion/internal/ingesterr"
	"github.com/r3e-network/datalake-ingestion/internal/logging"
)

// Step is the C4 transformation step contract. Environment gating is a
// property of the dataset's TransformationSpec invocation, not of the step
// type, so it is applied by Engine.Run from spec.Environments rather than
// queried from Step itself.
type Step interface {
	Name() string
	Transform(ctx context.Context, table *execution.TabularData, config map[string]any) (*execution.TabularData, error)
}

// Factory builds a Step instance from its config for one invocation.
type Factory func(config map[string]any) Step

// Registry is the immutable-after-startup set of known step types.
type Registry struct {
	log       *logging.Logger
	factories map[string]Factory
}

// NewRegistry builds a Registry seeded with the given built-ins.
func NewRegistry(log *logging.Logger) *Registry {
	r := &Registry{log: log, factories: map[string]Factory{}}
	r.Register("DataCleansing", func(cfg map[string]any) Step { return newDataCleansing(cfg) })
	r.Register("DataValidation", func(cfg map[string]any) Step { return newDataValidation(cfg) })
	return r
}

// Register adds a step factory under name. First registration wins;
// duplicates are logged at WARN and skipped (spec §4.4).
func (r *Registry) Register(name string, factory Factory) {
	if _, exists := r.factories[name]; exists {
		if r.log != nil {
			r.log.WithField("step", name).Warn("transform: duplicate registration skipped")
		}
		return
	}
	r.factories[name] = factory
}

// Build resolves a TransformationSpec to a Step, erroring hard on an
// unregistered name (spec §4.4: "raise a hard error before the job runs").
func (r *Registry) Build(spec dataset.TransformationSpec) (Step, error) {
	factory, ok := r.factories[spec.Type]
	if !ok {
		return nil, fmt.Errorf("transform: unregistered step type %q: %w", spec.Type, ingesterr.ErrConfig)
	}
	return factory(spec.Config), nil
}

// Engine applies a dataset's enabled transformations in order.
type Engine struct {
	registry    *Registry
	log         *logging.Logger
	environment string
}

// NewEngine builds an Engine bound to the service's current environment tag.
func NewEngine(registry *Registry, log *logging.Logger, environment string) *Engine {
	return &Engine{registry: registry, log: log, environment: environment}
}

// Run applies every enabled, registered, environment-matching transformation
// from specs to a deep copy of table, in ascending Order (ties broken by
// declaration order).
func (e *Engine) Run(ctx context.Context, table *execution.TabularData, specs []dataset.TransformationSpec) (*execution.TabularData, error) {
	type ordered struct {
		spec  dataset.TransformationSpec
		index int
	}
	enabled := make([]ordered, 0, len(specs))
	for i, s := range specs {
		if s.Enabled {
			enabled = append(enabled, ordered{spec: s, index: i})
		}
	}
	sort.SliceStable(enabled, func(i, j int) bool {
		if enabled[i].spec.Order != enabled[j].spec.Order {
			return enabled[i].spec.Order < enabled[j].spec.Order
		}
		return enabled[i].index < enabled[j].index
	})

	current := table.Clone()
	for _, o := range enabled {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("transform: %w", ingesterr.ErrCancelled)
		default:
		}

		step, err := e.registry.Build(o.spec)
		if err != nil {
			return nil, err
		}

		if !environmentMatches(EnvironmentSet(o.spec.Environments), e.environment) {
			if e.log != nil {
				e.log.WithField("step", step.Name()).Info("transform: skipped by environment gate")
			}
			continue
		}

		out, err := step.Transform(ctx, current, o.spec.Config)
		if err != nil {
			return nil, fmt.Errorf("transform: step %q: %w: %v", step.Name(), ingesterr.ErrTransform, err)
		}
		current = out
	}
	return current, nil
}

func environmentMatches(environments map[string]struct{}, current string) bool {
	if len(environments) == 0 {
		return true
	}
	_, ok := environments[current]
	return ok
}

// EnvironmentSet builds the environment-gate set Engine.Run checks from a
// TransformationSpec's free-form environment tag list.
func EnvironmentSet(tags []string) map[string]struct{} {
	out := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		out[t] = struct{}{}
	}
	return out
}
