// Package readiness computes which definitions can be annotated next for a
// given metadata aspect, the dependency chains blocking a target, and the
// cycles that prevent full coverage.
package readiness

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ahertel/flowatlas/internal/graph"
	"github.com/ahertel/flowatlas/internal/store"
)

// ErrInvalidAspect is returned when a caller-supplied aspect key is malformed.
// Graph-shape conditions (cycles, dangling edges, unreachable nodes) never error.
var ErrInvalidAspect = errors.New("invalid aspect key")

// Engine answers readiness queries over a graph snapshot. All queries are
// read-only; annotating definitions and re-querying requires a fresh snapshot.
type Engine struct {
	snap *graph.Snapshot
}

// New creates a readiness engine over the given snapshot.
func New(snap *graph.Snapshot) *Engine {
	return &Engine{snap: snap}
}

// Filter restricts readiness queries to a subset of definitions.
// Zero value matches everything.
type Filter struct {
	Kinds    []store.DefKind // match any of these kinds; empty matches all
	FilePath string          // substring match on the owning file path
}

func (f Filter) matches(d store.Definition) bool {
	if len(f.Kinds) > 0 {
		found := false
		for _, k := range f.Kinds {
			if d.Kind == k {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if f.FilePath != "" && !strings.Contains(d.File, f.FilePath) {
		return false
	}
	return true
}

func validateAspect(key string) error {
	if key == "" || strings.ContainsAny(key, " \t\n") {
		return fmt.Errorf("%w: %q", ErrInvalidAspect, key)
	}
	return nil
}

// ReadyDefinitions returns the definitions that can be annotated next for
// the aspect: not yet covered, with every direct dependency already covered.
// Readiness is a local one-hop check, not a transitive closure; definitions
// with no dependencies are trivially ready.
func (e *Engine) ReadyDefinitions(aspect string, filter Filter) ([]store.Definition, error) {
	if err := validateAspect(aspect); err != nil {
		return nil, err
	}

	var ready []store.Definition
	for _, id := range e.snap.Definitions() {
		if e.snap.Covered(aspect, id) {
			continue
		}
		def, ok := e.snap.Definition(id)
		if !ok || !filter.matches(def) {
			continue
		}

		blocked := false
		for _, callee := range e.snap.Callees(id) {
			if !e.snap.Covered(aspect, callee) {
				blocked = true
				break
			}
		}
		if !blocked {
			ready = append(ready, def)
		}
	}
	return ready, nil
}

// Prerequisite is one entry in a prerequisite chain: a definition that must
// be annotated before the target, with its own unmet dependency count.
type Prerequisite struct {
	Def       store.Definition
	UnmetDeps int
}

// PrerequisiteChain returns the unmet-dependency closure reachable from the
// target, ordered so that every definition's own unmet dependencies appear
// earlier in the list (leaves first). The target itself is excluded unless
// it is reachable as its own dependency through a cycle. Each definition is
// emitted at most once; cycles are broken at the first-discovered edge.
func (e *Engine) PrerequisiteChain(target store.DefID, aspect string) ([]Prerequisite, error) {
	if err := validateAspect(aspect); err != nil {
		return nil, err
	}

	var chain []Prerequisite
	visited := make(map[store.DefID]bool)

	// Post-order DFS restricted to uncovered definitions. Emitting a node
	// after its children yields the leaves-first topological order; the
	// visited set keeps cycle members from recursing forever, which means
	// a cycle member is emitted as soon as its first-discovered dependency
	// edge has been walked.
	type frame struct {
		id       store.DefID
		childIdx int
	}

	emit := func(id store.DefID) {
		def, ok := e.snap.Definition(id)
		if !ok {
			return
		}
		unmet := 0
		for _, callee := range e.snap.Callees(id) {
			if !e.snap.Covered(aspect, callee) {
				unmet++
			}
		}
		chain = append(chain, Prerequisite{Def: def, UnmetDeps: unmet})
	}

	descend := func(start store.DefID) {
		if visited[start] || e.snap.Covered(aspect, start) {
			return
		}
		if _, ok := e.snap.Definition(start); !ok {
			// Edge references a definition absent from the snapshot:
			// skip the branch, not the whole query.
			return
		}
		visited[start] = true
		stack := []frame{{id: start}}
		for len(stack) > 0 {
			top := &stack[len(stack)-1]
			callees := e.snap.Callees(top.id)
			advanced := false
			for top.childIdx < len(callees) {
				child := callees[top.childIdx]
				top.childIdx++
				if visited[child] || e.snap.Covered(aspect, child) {
					continue
				}
				if _, ok := e.snap.Definition(child); !ok {
					continue
				}
				visited[child] = true
				stack = append(stack, frame{id: child})
				advanced = true
				break
			}
			if advanced {
				continue
			}
			emit(top.id)
			stack = stack[:len(stack)-1]
		}
	}

	// Dependency-first discovery from the target's direct dependencies.
	// The target is not seeded as visited so a cycle back to it emits it.
	for _, callee := range e.snap.Callees(target) {
		descend(callee)
	}

	return chain, nil
}

// FindCycles returns the strongly connected components of size >= 2 in the
// call graph restricted to definitions not carrying the aspect. Annotating
// any member of a component removes it from the restricted subgraph on the
// next snapshot, so this is a live-recomputed property, never cached.
func (e *Engine) FindCycles(aspect string) ([][]store.Definition, error) {
	if err := validateAspect(aspect); err != nil {
		return nil, err
	}

	inSubgraph := func(id store.DefID) bool {
		if e.snap.Covered(aspect, id) {
			return false
		}
		_, ok := e.snap.Definition(id)
		return ok
	}

	// Iterative Tarjan over the restricted subgraph. An explicit call
	// stack avoids overflowing on deep graphs.
	index := 0
	nodeIndex := make(map[store.DefID]int)
	nodeLowLink := make(map[store.DefID]int)
	onStack := make(map[store.DefID]bool)
	var sccStack []store.DefID
	var components [][]store.DefID

	type callFrame struct {
		id        store.DefID
		edgeIndex int
		childID   store.DefID
		phase     int // 0=init, 1=edges, 2=post-child, 3=finalize
	}

	strongConnect := func(root store.DefID) {
		callStack := []callFrame{{id: root}}
		for len(callStack) > 0 {
			frame := &callStack[len(callStack)-1]
			switch frame.phase {
			case 0:
				nodeIndex[frame.id] = index
				nodeLowLink[frame.id] = index
				index++
				sccStack = append(sccStack, frame.id)
				onStack[frame.id] = true
				frame.phase = 1

			case 1:
				callees := e.snap.Callees(frame.id)
				pushed := false
				for frame.edgeIndex < len(callees) {
					next := callees[frame.edgeIndex]
					frame.edgeIndex++
					if !inSubgraph(next) {
						continue
					}
					if _, seen := nodeIndex[next]; !seen {
						frame.phase = 2
						frame.childID = next
						callStack = append(callStack, callFrame{id: next})
						pushed = true
						break
					} else if onStack[next] {
						if nodeIndex[next] < nodeLowLink[frame.id] {
							nodeLowLink[frame.id] = nodeIndex[next]
						}
					}
				}
				if !pushed {
					frame.phase = 3
				}

			case 2:
				if nodeLowLink[frame.childID] < nodeLowLink[frame.id] {
					nodeLowLink[frame.id] = nodeLowLink[frame.childID]
				}
				frame.phase = 1

			case 3:
				if nodeLowLink[frame.id] == nodeIndex[frame.id] {
					var scc []store.DefID
					for {
						w := sccStack[len(sccStack)-1]
						sccStack = sccStack[:len(sccStack)-1]
						onStack[w] = false
						scc = append(scc, w)
						if w == frame.id {
							break
						}
					}
					if len(scc) > 1 {
						components = append(components, scc)
					}
				}
				callStack = callStack[:len(callStack)-1]
			}
		}
	}

	for _, id := range e.snap.Definitions() {
		if !inSubgraph(id) {
			continue
		}
		if _, seen := nodeIndex[id]; !seen {
			strongConnect(id)
		}
	}

	result := make([][]store.Definition, 0, len(components))
	for _, scc := range components {
		defs := make([]store.Definition, 0, len(scc))
		for _, id := range scc {
			if def, ok := e.snap.Definition(id); ok {
				defs = append(defs, def)
			}
		}
		result = append(result, defs)
	}
	return result, nil
}

// Coverage summarizes annotation progress for one aspect key.
type Coverage struct {
	Key        string  `json:"key"`
	Covered    int     `json:"covered"`
	Total      int     `json:"total"`
	Percentage float64 `json:"percentage"`
}

// AspectCoverage reports covered/total counts for every distinct aspect key
// observed in metadata, optionally restricted by the filter. Percentage is
// zero when no definitions are eligible.
func (e *Engine) AspectCoverage(filter Filter) []Coverage {
	eligible := make(map[store.DefID]bool)
	total := 0
	for _, id := range e.snap.Definitions() {
		def, ok := e.snap.Definition(id)
		if !ok || !filter.matches(def) {
			continue
		}
		eligible[id] = true
		total++
	}

	result := make([]Coverage, 0, len(e.snap.AspectKeys()))
	for _, key := range e.snap.AspectKeys() {
		covered := 0
		for id := range eligible {
			if e.snap.Covered(key, id) {
				covered++
			}
		}
		cov := Coverage{Key: key, Covered: covered, Total: total}
		if total > 0 {
			cov.Percentage = float64(covered) / float64(total) * 100
		}
		result = append(result, cov)
	}
	return result
}
