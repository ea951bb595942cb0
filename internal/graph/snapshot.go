package graph

import (
	"fmt"
	"sort"

	"github.com/ahertel/flowatlas/internal/store"
)

// Snapshot is a consistent in-memory view of the stored graph, built once
// at the start of an engine invocation. It is read-only after construction
// and safe to share between concurrent traces.
type Snapshot struct {
	defs        map[store.DefID]store.Definition
	defOrder    []store.DefID
	adjacency   map[store.DefID][]store.DefID
	defModule   map[store.DefID]store.ModuleID
	modules     map[store.ModuleID]store.ModuleWithMembers
	moduleOrder []store.ModuleID

	interactions []store.Interaction
	// pairTable maps (from, to) module pairs to the first interaction
	// recorded for that pair.
	pairTable map[modulePair]store.InteractionID
	// inferredFrom indexes llm-inferred interactions by source module.
	inferredFrom map[store.ModuleID][]store.Interaction

	// covered holds, per aspect key, the set of definitions carrying it.
	covered    map[string]map[store.DefID]bool
	aspectKeys []string
}

type modulePair struct {
	from store.ModuleID
	to   store.ModuleID
}

// Load builds a snapshot from the store.
func Load(st *store.Store) (*Snapshot, error) {
	defs, err := st.ListDefinitions()
	if err != nil {
		return nil, fmt.Errorf("listing definitions: %w", err)
	}
	modules, err := st.GetAllModulesWithMembers()
	if err != nil {
		return nil, fmt.Errorf("listing modules: %w", err)
	}
	edges, err := st.ListCallEdges()
	if err != nil {
		return nil, fmt.Errorf("listing call edges: %w", err)
	}
	interactions, err := st.ListInteractions()
	if err != nil {
		return nil, fmt.Errorf("listing interactions: %w", err)
	}
	aspects, err := st.ListAspectEntries()
	if err != nil {
		return nil, fmt.Errorf("listing aspect metadata: %w", err)
	}
	return New(defs, modules, edges, interactions, aspects), nil
}

// New assembles a snapshot from raw rows. The slices are not retained.
func New(
	defs []store.Definition,
	modules []store.ModuleWithMembers,
	edges []store.CallEdge,
	interactions []store.Interaction,
	aspects []store.AspectEntry,
) *Snapshot {
	s := &Snapshot{
		defs:         make(map[store.DefID]store.Definition, len(defs)),
		adjacency:    make(map[store.DefID][]store.DefID),
		defModule:    make(map[store.DefID]store.ModuleID),
		modules:      make(map[store.ModuleID]store.ModuleWithMembers, len(modules)),
		pairTable:    make(map[modulePair]store.InteractionID),
		inferredFrom: make(map[store.ModuleID][]store.Interaction),
		covered:      make(map[string]map[store.DefID]bool),
	}

	for _, d := range defs {
		s.defs[d.ID] = d
		s.defOrder = append(s.defOrder, d.ID)
	}

	for _, m := range modules {
		s.modules[m.ID] = m
		s.moduleOrder = append(s.moduleOrder, m.ID)
		for _, member := range m.Members {
			s.defModule[member.DefID] = m.ID
		}
	}

	for _, e := range edges {
		s.adjacency[e.FromDefID] = append(s.adjacency[e.FromDefID], e.ToDefID)
	}

	s.interactions = append(s.interactions, interactions...)
	for _, in := range interactions {
		pair := modulePair{from: in.FromModuleID, to: in.ToModuleID}
		if _, exists := s.pairTable[pair]; !exists {
			s.pairTable[pair] = in.ID
		}
		if in.Origin == store.OriginInferred {
			s.inferredFrom[in.FromModuleID] = append(s.inferredFrom[in.FromModuleID], in)
		}
	}

	for _, a := range aspects {
		set := s.covered[a.Key]
		if set == nil {
			set = make(map[store.DefID]bool)
			s.covered[a.Key] = set
		}
		set[a.DefID] = true
	}
	for key := range s.covered {
		s.aspectKeys = append(s.aspectKeys, key)
	}
	sort.Strings(s.aspectKeys)

	return s
}

// Definition returns the definition for an ID.
func (s *Snapshot) Definition(id store.DefID) (store.Definition, bool) {
	d, ok := s.defs[id]
	return d, ok
}

// Definitions returns all definition IDs in stored order.
func (s *Snapshot) Definitions() []store.DefID {
	return s.defOrder
}

// Callees returns the outgoing call adjacency for a definition.
func (s *Snapshot) Callees(id store.DefID) []store.DefID {
	return s.adjacency[id]
}

// ModuleOf returns the module owning a definition.
func (s *Snapshot) ModuleOf(id store.DefID) (store.ModuleID, bool) {
	m, ok := s.defModule[id]
	return m, ok
}

// Module returns a module with its ordered members.
func (s *Snapshot) Module(id store.ModuleID) (store.ModuleWithMembers, bool) {
	m, ok := s.modules[id]
	return m, ok
}

// Modules returns all modules in stored order.
func (s *Snapshot) Modules() []store.ModuleWithMembers {
	result := make([]store.ModuleWithMembers, 0, len(s.moduleOrder))
	for _, id := range s.moduleOrder {
		result = append(result, s.modules[id])
	}
	return result
}

// Interactions returns all module interactions.
func (s *Snapshot) Interactions() []store.Interaction {
	return s.interactions
}

// InteractionForPair resolves a module pair to an interaction ID.
// When multiple interactions exist for the same pair, the first stored
// one wins.
func (s *Snapshot) InteractionForPair(from, to store.ModuleID) (store.InteractionID, bool) {
	id, ok := s.pairTable[modulePair{from: from, to: to}]
	return id, ok
}

// InferredFrom returns the llm-inferred interactions originating from a module.
func (s *Snapshot) InferredFrom(moduleID store.ModuleID) []store.Interaction {
	return s.inferredFrom[moduleID]
}

// Covered reports whether a definition carries the given aspect key.
func (s *Snapshot) Covered(key string, id store.DefID) bool {
	return s.covered[key][id]
}

// CoveredCount returns how many definitions carry the given aspect key.
func (s *Snapshot) CoveredCount(key string) int {
	return len(s.covered[key])
}

// AspectKeys returns every distinct aspect key, sorted.
func (s *Snapshot) AspectKeys() []string {
	return s.aspectKeys
}
