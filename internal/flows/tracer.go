// Package flows reconstructs end-to-end execution paths by walking the
// definition-level call graph from entry points, bridging across module
// boundaries via inferred interactions where the static graph runs out.
package flows

import (
	"context"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/ahertel/flowatlas/internal/entrypoints"
	"github.com/ahertel/flowatlas/internal/graph"
	"github.com/ahertel/flowatlas/internal/store"
)

// DefaultMaxDepth bounds traversal when the caller does not specify a limit.
const DefaultMaxDepth = 15

// DefaultParallelism bounds the trace worker pool.
const DefaultParallelism = 4

// TracedDefinitionStep records one cross-module hop between definitions.
type TracedDefinitionStep struct {
	FromDefID    store.DefID    `json:"from_definition_id"`
	ToDefID      store.DefID    `json:"to_definition_id"`
	FromModuleID store.ModuleID `json:"from_module_id"`
	ToModuleID   store.ModuleID `json:"to_module_id"`
	Depth        int            `json:"depth"`
}

// InferredFlowStep records a bridge taken via a module interaction rather
// than a direct call edge.
type InferredFlowStep struct {
	FromModuleID  store.ModuleID          `json:"from_module_id"`
	ToModuleID    store.ModuleID          `json:"to_module_id"`
	FromDefID     store.DefID             `json:"from_definition_id"`
	ToDefID       store.DefID             `json:"to_definition_id"`
	InteractionID store.InteractionID     `json:"interaction_id"`
	Origin        store.InteractionOrigin `json:"origin"`
}

// Trace is the raw result of a single-definition traversal.
type Trace struct {
	Start    store.DefID            `json:"start"`
	Steps    []TracedDefinitionStep `json:"steps"`
	Inferred []InferredFlowStep     `json:"inferred"`
}

// SubflowRef points a flow at a smaller, previously computed atomic flow.
type SubflowRef struct {
	InteractionID store.InteractionID `json:"interaction_id"`
	FlowID        string              `json:"flow_id"`
	Slug          string              `json:"slug"`
}

// Flow is an ordered, named sequence of cross-module steps originating at
// an entry-point definition. Flows are derived artifacts: regenerated
// whenever entry points or the call graph change, never mutated in place.
type Flow struct {
	ID             string                 `json:"id"`
	Name           string                 `json:"name"`
	Slug           string                 `json:"slug"`
	Stakeholder    store.Stakeholder      `json:"stakeholder"`
	EntryDefID     store.DefID            `json:"entry_definition_id"`
	EntryModuleID  store.ModuleID         `json:"entry_module_id"`
	Steps          []TracedDefinitionStep `json:"steps"`
	Inferred       []InferredFlowStep     `json:"inferred,omitempty"`
	InteractionIDs []store.InteractionID  `json:"interaction_ids,omitempty"`
	Subflows       []SubflowRef           `json:"subflows,omitempty"`
}

// Tracer walks the call graph snapshot. The snapshot is read-only, so a
// single Tracer may run any number of traces concurrently: all mutable
// state lives in the per-trace traceState.
type Tracer struct {
	snap        *graph.Snapshot
	maxDepth    int
	parallelism int
}

// NewTracer creates a tracer over the snapshot. A non-positive maxDepth
// or parallelism falls back to the package default.
func NewTracer(snap *graph.Snapshot, maxDepth, parallelism int) *Tracer {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	if parallelism <= 0 {
		parallelism = DefaultParallelism
	}
	return &Tracer{snap: snap, maxDepth: maxDepth, parallelism: parallelism}
}

// traceState owns the mutable traversal state for one trace.
type traceState struct {
	visited        map[store.DefID]bool
	visitedBridges map[store.ModuleID]bool
	steps          []TracedDefinitionStep
	inferred       []InferredFlowStep
}

// traceFrame is one entry on the explicit DFS stack. bridged nodes were
// reached via an inferred interaction and are never expanded: the internal
// flow of the landing module belongs to that module's own entry-point trace.
type traceFrame struct {
	id       store.DefID
	depth    int
	childIdx int
	bridged  bool
}

// Trace performs a bounded-depth depth-first traversal from the start
// definition. The visited set guarantees termination on cyclic graphs;
// depth exhaustion truncates silently.
func (t *Tracer) Trace(start store.DefID) *Trace {
	state := &traceState{
		visited:        make(map[store.DefID]bool),
		visitedBridges: make(map[store.ModuleID]bool),
	}

	if _, ok := t.snap.Definition(start); ok {
		state.visited[start] = true
		t.walk(state, start)
	}

	return &Trace{Start: start, Steps: state.steps, Inferred: state.inferred}
}

func (t *Tracer) walk(state *traceState, start store.DefID) {
	stack := []traceFrame{{id: start}}

	for len(stack) > 0 {
		top := len(stack) - 1
		frame := stack[top]

		if frame.bridged || frame.depth >= t.maxDepth {
			stack = stack[:top]
			continue
		}

		callees := t.snap.Callees(frame.id)
		if len(callees) == 0 {
			// Dead end: pop the leaf, then push any bridge landings.
			stack = stack[:top]
			stack = t.bridge(state, stack, frame)
			continue
		}

		descended := false
		for stack[top].childIdx < len(callees) {
			callee := callees[stack[top].childIdx]
			stack[top].childIdx++

			if _, ok := t.snap.Definition(callee); !ok {
				continue // dangling edge: skip the branch
			}
			fromModule, fromOK := t.snap.ModuleOf(frame.id)
			toModule, toOK := t.snap.ModuleOf(callee)
			if !toOK {
				continue
			}

			// Same-module calls are traced but not recorded as steps;
			// only cross-module hops are part of the flow.
			if fromOK && fromModule != toModule {
				state.steps = append(state.steps, TracedDefinitionStep{
					FromDefID:    frame.id,
					ToDefID:      callee,
					FromModuleID: fromModule,
					ToModuleID:   toModule,
					Depth:        frame.depth,
				})
			}

			if !state.visited[callee] {
				state.visited[callee] = true
				stack = append(stack, traceFrame{id: callee, depth: frame.depth + 1})
				descended = true
				break
			}
		}

		if !descended && stack[top].childIdx >= len(callees) {
			stack = stack[:top]
		}
	}
}

// bridge handles a traversal dead-end: a definition with no outgoing call
// edges. If its owning module has not yet served as a bridge source in this
// trace, each inferred interaction from that module contributes one step
// pair to a representative definition in the destination module. The
// representative is the first unvisited member in stored order, falling
// back to the first member when all are visited. Landings are pushed as
// bridged frames so their own edges are never expanded.
func (t *Tracer) bridge(state *traceState, stack []traceFrame, frame traceFrame) []traceFrame {
	module, ok := t.snap.ModuleOf(frame.id)
	if !ok || state.visitedBridges[module] {
		return stack
	}
	state.visitedBridges[module] = true

	for _, interaction := range t.snap.InferredFrom(module) {
		target, ok := t.snap.Module(interaction.ToModuleID)
		if !ok || len(target.Members) == 0 {
			continue
		}

		rep := target.Members[0].DefID
		for _, member := range target.Members {
			if !state.visited[member.DefID] {
				rep = member.DefID
				break
			}
		}

		state.steps = append(state.steps, TracedDefinitionStep{
			FromDefID:    frame.id,
			ToDefID:      rep,
			FromModuleID: module,
			ToModuleID:   interaction.ToModuleID,
			Depth:        frame.depth,
		})
		state.inferred = append(state.inferred, InferredFlowStep{
			FromModuleID:  module,
			ToModuleID:    interaction.ToModuleID,
			FromDefID:     frame.id,
			ToDefID:       rep,
			InteractionID: interaction.ID,
			Origin:        interaction.Origin,
		})

		if !state.visited[rep] {
			state.visited[rep] = true
			stack = append(stack, traceFrame{id: rep, depth: frame.depth + 1, bridged: true})
		}
	}
	return stack
}

// DeriveInteractionIDs maps each step's module pair through the snapshot's
// pair table, deduplicating while preserving first-seen order. Pairs with
// no matching interaction are skipped.
func (t *Tracer) DeriveInteractionIDs(steps []TracedDefinitionStep) []store.InteractionID {
	var ids []store.InteractionID
	seen := make(map[store.InteractionID]bool)
	for _, step := range steps {
		id, ok := t.snap.InteractionForPair(step.FromModuleID, step.ToModuleID)
		if !ok || seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	return ids
}

// TraceFromEntryPoints runs a trace for every member of every entry-point
// module and assembles named flows. Flows with neither definition steps nor
// derived interaction ids are dropped as vacuous. Atomic flows are joined
// in via a first-writer-wins interaction-to-flow table.
//
// Traces run on a bounded worker pool: each trace owns its visited state
// and the snapshot is read-only, so the fan-out is safe. Results keep the
// deterministic input order.
func (t *Tracer) TraceFromEntryPoints(ctx context.Context, modules []entrypoints.EntryPointModuleInfo, atomicFlows []Flow) ([]Flow, error) {
	atomicByInteraction := make(map[store.InteractionID]*Flow)
	for i := range atomicFlows {
		for _, id := range atomicFlows[i].InteractionIDs {
			if _, exists := atomicByInteraction[id]; !exists {
				atomicByInteraction[id] = &atomicFlows[i]
			}
		}
	}

	type traceJob struct {
		module entrypoints.EntryPointModuleInfo
		member entrypoints.EntryPointMember
	}
	var jobs []traceJob
	for _, module := range modules {
		for _, member := range module.Members {
			jobs = append(jobs, traceJob{module: module, member: member})
		}
	}

	results := make([]*Flow, len(jobs))
	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(t.parallelism)
	for i, job := range jobs {
		i, job := i, job
		g.Go(func() error {
			trace := t.Trace(job.member.DefID)
			interactionIDs := t.DeriveInteractionIDs(trace.Steps)
			if len(trace.Steps) == 0 && len(interactionIDs) == 0 {
				return nil
			}

			var subflows []SubflowRef
			seenFlows := make(map[string]bool)
			for _, id := range interactionIDs {
				atomic, ok := atomicByInteraction[id]
				if !ok || seenFlows[atomic.ID] {
					continue
				}
				seenFlows[atomic.ID] = true
				subflows = append(subflows, SubflowRef{
					InteractionID: id,
					FlowID:        atomic.ID,
					Slug:          atomic.Slug,
				})
			}

			name := flowName(job.member)
			results[i] = &Flow{
				ID:             uuid.NewString(),
				Name:           name,
				Slug:           slugify(name),
				Stakeholder:    stakeholderForPath(job.module.FullPath),
				EntryDefID:     job.member.DefID,
				EntryModuleID:  job.module.ModuleID,
				Steps:          trace.Steps,
				Inferred:       trace.Inferred,
				InteractionIDs: interactionIDs,
				Subflows:       subflows,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var flows []Flow
	for _, f := range results {
		if f != nil {
			flows = append(flows, *f)
		}
	}
	return flows, nil
}
