// Package ingest loads an externally produced graph dump into the store.
// The dump is the output of the out-of-tree parser/classifier pipeline:
// modules, definitions, call edges, interactions, and any pre-existing
// aspect metadata, keyed by string references that are resolved to store
// IDs here.
package ingest

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/ahertel/flowatlas/internal/store"
)

// Dump is the on-disk JSON format accepted by Run.
type Dump struct {
	Modules      []DumpModule      `json:"modules"`
	Definitions  []DumpDefinition  `json:"definitions"`
	CallEdges    []DumpCallEdge    `json:"call_edges"`
	Interactions []DumpInteraction `json:"interactions"`
	Aspects      []DumpAspect      `json:"aspects,omitempty"`
}

// DumpModule declares a module by dotted path. Parents must appear before
// children.
type DumpModule struct {
	FullPath    string `json:"full_path"`
	Name        string `json:"name"`
	ParentPath  string `json:"parent_path,omitempty"`
	Depth       int    `json:"depth"`
	Description string `json:"description,omitempty"`
	IsTest      bool   `json:"is_test,omitempty"`
}

// DumpDefinition declares a definition. Ref is the dump-local key used by
// edges and aspects; Module is the owning module's full path. Definition
// order within a module fixes stored member order.
type DumpDefinition struct {
	Ref      string        `json:"ref"`
	Name     string        `json:"name"`
	Kind     store.DefKind `json:"kind"`
	File     string        `json:"file"`
	Exported bool          `json:"exported,omitempty"`
	IsTest   bool          `json:"is_test,omitempty"`
	Module   string        `json:"module,omitempty"`
}

// DumpCallEdge references definitions by their dump refs.
type DumpCallEdge struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// DumpInteraction references modules by full path.
type DumpInteraction struct {
	FromModule string                  `json:"from_module"`
	ToModule   string                  `json:"to_module"`
	Origin     store.InteractionOrigin `json:"origin"`
	Weight     int                     `json:"weight,omitempty"`
	Semantic   string                  `json:"semantic,omitempty"`
}

// DumpAspect attaches aspect metadata to a definition by ref.
type DumpAspect struct {
	Definition string `json:"definition"`
	Key        string `json:"key"`
	Value      string `json:"value"`
}

// Result holds the results of an ingest run.
type Result struct {
	ModuleCount      int
	DefinitionCount  int
	EdgeCount        int
	InteractionCount int
	Duration         time.Duration
	DBPath           string
}

// Run clears the store and loads the dump at the given path into it.
func Run(st *store.Store, dumpPath string) (*Result, error) {
	start := time.Now()

	data, err := os.ReadFile(dumpPath)
	if err != nil {
		return nil, fmt.Errorf("reading dump: %w", err)
	}
	var dump Dump
	if err := json.Unmarshal(data, &dump); err != nil {
		return nil, fmt.Errorf("parsing dump: %w", err)
	}

	if err := st.Clear(); err != nil {
		return nil, fmt.Errorf("clearing store: %w", err)
	}

	result, err := Load(st, &dump)
	if err != nil {
		return nil, err
	}

	if err := st.SetMetadata("ingested_at", time.Now().Format(time.RFC3339)); err != nil {
		return nil, fmt.Errorf("storing metadata: %w", err)
	}
	if err := st.SetMetadata("dump_path", dumpPath); err != nil {
		return nil, fmt.Errorf("storing metadata: %w", err)
	}

	result.Duration = time.Since(start)
	result.DBPath = st.DBPath()
	return result, nil
}

// Load inserts a parsed dump into the store within one batch transaction.
func Load(st *store.Store, dump *Dump) (*Result, error) {
	batch, err := st.BeginBatch()
	if err != nil {
		return nil, fmt.Errorf("starting batch: %w", err)
	}
	defer batch.Rollback()

	result := &Result{}

	moduleIDs := make(map[string]store.ModuleID, len(dump.Modules))
	for _, m := range dump.Modules {
		var parentID store.ModuleID
		if m.ParentPath != "" {
			id, ok := moduleIDs[m.ParentPath]
			if !ok {
				return nil, fmt.Errorf("module %s references unknown parent %s", m.FullPath, m.ParentPath)
			}
			parentID = id
		}
		id, err := batch.InsertModule(&store.Module{
			ParentID:    parentID,
			Name:        m.Name,
			FullPath:    m.FullPath,
			Depth:       m.Depth,
			Description: m.Description,
			IsTest:      m.IsTest,
		})
		if err != nil {
			return nil, fmt.Errorf("inserting module %s: %w", m.FullPath, err)
		}
		moduleIDs[m.FullPath] = id
		result.ModuleCount++
	}

	defIDs := make(map[string]store.DefID, len(dump.Definitions))
	memberPos := make(map[store.ModuleID]int)
	for _, d := range dump.Definitions {
		if _, dup := defIDs[d.Ref]; dup {
			return nil, fmt.Errorf("duplicate definition ref %s", d.Ref)
		}
		id, err := batch.InsertDefinition(&store.Definition{
			Name:     d.Name,
			Kind:     d.Kind,
			File:     d.File,
			Exported: d.Exported,
			IsTest:   d.IsTest,
		})
		if err != nil {
			return nil, fmt.Errorf("inserting definition %s: %w", d.Ref, err)
		}
		defIDs[d.Ref] = id
		result.DefinitionCount++

		if d.Module != "" {
			moduleID, ok := moduleIDs[d.Module]
			if !ok {
				return nil, fmt.Errorf("definition %s references unknown module %s", d.Ref, d.Module)
			}
			pos := memberPos[moduleID]
			memberPos[moduleID] = pos + 1
			err := batch.InsertModuleMember(moduleID, &store.ModuleMember{
				DefID:    id,
				Name:     d.Name,
				Kind:     d.Kind,
				Position: pos,
			})
			if err != nil {
				return nil, fmt.Errorf("inserting member %s: %w", d.Ref, err)
			}
		}
	}

	for _, e := range dump.CallEdges {
		from, ok := defIDs[e.From]
		if !ok {
			return nil, fmt.Errorf("call edge references unknown definition %s", e.From)
		}
		to, ok := defIDs[e.To]
		if !ok {
			return nil, fmt.Errorf("call edge references unknown definition %s", e.To)
		}
		if err := batch.InsertCallEdge(&store.CallEdge{FromDefID: from, ToDefID: to}); err != nil {
			return nil, fmt.Errorf("inserting call edge %s -> %s: %w", e.From, e.To, err)
		}
		result.EdgeCount++
	}

	for _, in := range dump.Interactions {
		from, ok := moduleIDs[in.FromModule]
		if !ok {
			return nil, fmt.Errorf("interaction references unknown module %s", in.FromModule)
		}
		to, ok := moduleIDs[in.ToModule]
		if !ok {
			return nil, fmt.Errorf("interaction references unknown module %s", in.ToModule)
		}
		weight := in.Weight
		if weight == 0 {
			weight = 1
		}
		_, err := batch.InsertInteraction(&store.Interaction{
			FromModuleID: from,
			ToModuleID:   to,
			Origin:       in.Origin,
			Weight:       weight,
			Semantic:     in.Semantic,
		})
		if err != nil {
			return nil, fmt.Errorf("inserting interaction %s -> %s: %w", in.FromModule, in.ToModule, err)
		}
		result.InteractionCount++
	}

	for _, a := range dump.Aspects {
		id, ok := defIDs[a.Definition]
		if !ok {
			return nil, fmt.Errorf("aspect references unknown definition %s", a.Definition)
		}
		if err := batch.SetAspect(id, a.Key, a.Value); err != nil {
			return nil, fmt.Errorf("inserting aspect %s on %s: %w", a.Key, a.Definition, err)
		}
	}

	if err := batch.Commit(); err != nil {
		return nil, fmt.Errorf("committing batch: %w", err)
	}
	return result, nil
}
