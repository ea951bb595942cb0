package store

import (
	"os"
	"path/filepath"
	"testing"
)

func TestOpenAndClose(t *testing.T) {
	tmpDir := t.TempDir()

	st, err := Open(tmpDir)
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}

	atlasDir := filepath.Join(tmpDir, ".flowatlas")
	if _, err := os.Stat(atlasDir); os.IsNotExist(err) {
		t.Error(".flowatlas directory was not created")
	}

	dbPath := filepath.Join(atlasDir, "index.db")
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Error("index.db was not created")
	}
	if st.DBPath() != dbPath {
		t.Errorf("DBPath() = %q, want %q", st.DBPath(), dbPath)
	}

	if err := st.Close(); err != nil {
		t.Errorf("failed to close store: %v", err)
	}
}

func openTestStore(t *testing.T) *Store {
	t.Helper()
	st, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

func TestInsertModuleUpsert(t *testing.T) {
	st := openTestStore(t)

	id1, err := st.InsertModule(&Module{Name: "orders", FullPath: "services/orders", Depth: 1})
	if err != nil {
		t.Fatalf("first insert failed: %v", err)
	}
	id2, err := st.InsertModule(&Module{Name: "orders", FullPath: "services/orders", Depth: 1, Description: "order handling"})
	if err != nil {
		t.Fatalf("upsert failed: %v", err)
	}
	if id1 != id2 {
		t.Errorf("upsert returned a new ID: %d != %d", id1, id2)
	}

	got, err := st.GetModuleID("services/orders")
	if err != nil {
		t.Fatalf("GetModuleID failed: %v", err)
	}
	if got != id1 {
		t.Errorf("GetModuleID = %d, want %d", got, id1)
	}

	modules, err := st.GetAllModulesWithMembers()
	if err != nil {
		t.Fatalf("GetAllModulesWithMembers failed: %v", err)
	}
	if len(modules) != 1 {
		t.Fatalf("expected 1 module, got %d", len(modules))
	}
	if modules[0].Description != "order handling" {
		t.Errorf("upsert did not update description: %q", modules[0].Description)
	}
}

func TestModuleMembersOrderedByPosition(t *testing.T) {
	st := openTestStore(t)

	modID, err := st.InsertModule(&Module{Name: "auth", FullPath: "services/auth"})
	if err != nil {
		t.Fatal(err)
	}

	names := []string{"handleLogin", "validateToken", "revokeSession"}
	for i, name := range names {
		defID, err := st.InsertDefinition(&Definition{Name: name, Kind: DefKindFunction, File: "auth.go"})
		if err != nil {
			t.Fatal(err)
		}
		// Insert in reverse position to check ordering comes from position,
		// not insertion order.
		pos := len(names) - 1 - i
		if err := st.InsertModuleMember(modID, &ModuleMember{DefID: defID, Position: pos}); err != nil {
			t.Fatal(err)
		}
	}

	modules, err := st.GetAllModulesWithMembers()
	if err != nil {
		t.Fatal(err)
	}
	if len(modules) != 1 || len(modules[0].Members) != 3 {
		t.Fatalf("unexpected shape: %d modules", len(modules))
	}
	want := []string{"revokeSession", "validateToken", "handleLogin"}
	for i, member := range modules[0].Members {
		if member.Name != want[i] {
			t.Errorf("member[%d] = %q, want %q", i, member.Name, want[i])
		}
	}
}

func TestCallEdgesAndCallees(t *testing.T) {
	st := openTestStore(t)

	var ids []DefID
	for _, name := range []string{"a", "b", "c"} {
		id, err := st.InsertDefinition(&Definition{Name: name, Kind: DefKindFunction, File: "x.go"})
		if err != nil {
			t.Fatal(err)
		}
		ids = append(ids, id)
	}

	edges := []CallEdge{
		{FromDefID: ids[0], ToDefID: ids[1]},
		{FromDefID: ids[0], ToDefID: ids[2]},
		{FromDefID: ids[0], ToDefID: ids[1]}, // duplicate, ignored
	}
	for i := range edges {
		if err := st.InsertCallEdge(&edges[i]); err != nil {
			t.Fatal(err)
		}
	}

	callees, err := st.GetCallees(ids[0])
	if err != nil {
		t.Fatal(err)
	}
	if len(callees) != 2 {
		t.Fatalf("expected 2 callees, got %d", len(callees))
	}
	if callees[0] != ids[1] || callees[1] != ids[2] {
		t.Errorf("callees out of insertion order: %v", callees)
	}

	all, err := st.ListCallEdges()
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 2 {
		t.Errorf("expected 2 stored edges, got %d", len(all))
	}
}

func TestAspects(t *testing.T) {
	st := openTestStore(t)

	defID, err := st.InsertDefinition(&Definition{Name: "f", Kind: DefKindFunction, File: "f.go"})
	if err != nil {
		t.Fatal(err)
	}

	if _, ok, err := st.GetAspect(defID, "error_handling"); err != nil || ok {
		t.Fatalf("expected no aspect, got ok=%v err=%v", ok, err)
	}

	if err := st.SetAspect(defID, "error_handling", "panics"); err != nil {
		t.Fatal(err)
	}
	if err := st.SetAspect(defID, "error_handling", "returns-error"); err != nil {
		t.Fatal(err)
	}
	if err := st.SetAspect(defID, "thread_safety", "safe"); err != nil {
		t.Fatal(err)
	}

	value, ok, err := st.GetAspect(defID, "error_handling")
	if err != nil || !ok {
		t.Fatalf("GetAspect failed: ok=%v err=%v", ok, err)
	}
	if value != "returns-error" {
		t.Errorf("SetAspect did not overwrite: %q", value)
	}

	keys, err := st.ListAspectKeys()
	if err != nil {
		t.Fatal(err)
	}
	if len(keys) != 2 || keys[0] != "error_handling" || keys[1] != "thread_safety" {
		t.Errorf("unexpected aspect keys: %v", keys)
	}

	entries, err := st.ListAspectEntries()
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 {
		t.Errorf("expected 2 aspect entries, got %d", len(entries))
	}
}

func TestInteractions(t *testing.T) {
	st := openTestStore(t)

	m1, err := st.InsertModule(&Module{Name: "a", FullPath: "a"})
	if err != nil {
		t.Fatal(err)
	}
	m2, err := st.InsertModule(&Module{Name: "b", FullPath: "b"})
	if err != nil {
		t.Fatal(err)
	}

	id, err := st.InsertInteraction(&Interaction{
		FromModuleID: m1,
		ToModuleID:   m2,
		Origin:       OriginInferred,
		Weight:       3,
		Semantic:     "a reads b's cache",
	})
	if err != nil {
		t.Fatal(err)
	}
	if id == 0 {
		t.Error("expected non-zero interaction id")
	}

	interactions, err := st.ListInteractions()
	if err != nil {
		t.Fatal(err)
	}
	if len(interactions) != 1 {
		t.Fatalf("expected 1 interaction, got %d", len(interactions))
	}
	in := interactions[0]
	if in.Origin != OriginInferred || in.Weight != 3 || in.Semantic != "a reads b's cache" {
		t.Errorf("interaction round-trip mismatch: %+v", in)
	}
}

func TestReplaceFlows(t *testing.T) {
	st := openTestStore(t)

	first := []FlowRecord{
		{ID: "f1", Name: "CreateOrderFlow", Slug: "create-order-flow", EntryDef: 1, Payload: "{}"},
		{ID: "f2", Name: "ViewCartFlow", Slug: "view-cart-flow", EntryDef: 2, Payload: "{}"},
	}
	if err := st.ReplaceFlows(first); err != nil {
		t.Fatal(err)
	}

	second := []FlowRecord{
		{ID: "f3", Name: "LoginFlow", Slug: "login-flow", EntryDef: 3, Payload: "{}"},
	}
	if err := st.ReplaceFlows(second); err != nil {
		t.Fatal(err)
	}

	records, err := st.ListFlowRecords()
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 1 {
		t.Fatalf("ReplaceFlows did not replace: got %d records", len(records))
	}
	if records[0].ID != "f3" || records[0].Slug != "login-flow" {
		t.Errorf("unexpected surviving flow: %+v", records[0])
	}
}

func TestMetadata(t *testing.T) {
	st := openTestStore(t)

	if err := st.SetMetadata("ingested_at", "2026-01-02T15:04:05Z"); err != nil {
		t.Fatal(err)
	}
	if err := st.SetMetadata("ingested_at", "2026-03-04T05:06:07Z"); err != nil {
		t.Fatal(err)
	}

	value, err := st.GetMetadata("ingested_at")
	if err != nil {
		t.Fatal(err)
	}
	if value != "2026-03-04T05:06:07Z" {
		t.Errorf("metadata not overwritten: %q", value)
	}
}

func TestBatchInsertAndStats(t *testing.T) {
	st := openTestStore(t)

	batch, err := st.BeginBatch()
	if err != nil {
		t.Fatal(err)
	}

	modID, err := batch.InsertModule(&Module{Name: "orders", FullPath: "services/orders"})
	if err != nil {
		t.Fatal(err)
	}
	d1, err := batch.InsertDefinition(&Definition{Name: "createOrder", Kind: DefKindFunction, File: "orders.go"})
	if err != nil {
		t.Fatal(err)
	}
	d2, err := batch.InsertDefinition(&Definition{Name: "validateOrder", Kind: DefKindFunction, File: "orders.go"})
	if err != nil {
		t.Fatal(err)
	}
	if err := batch.InsertModuleMember(modID, &ModuleMember{DefID: d1, Position: 0}); err != nil {
		t.Fatal(err)
	}
	if err := batch.InsertCallEdge(&CallEdge{FromDefID: d1, ToDefID: d2}); err != nil {
		t.Fatal(err)
	}
	if err := batch.SetAspect(d1, "error_handling", "returns-error"); err != nil {
		t.Fatal(err)
	}
	if err := batch.Commit(); err != nil {
		t.Fatal(err)
	}

	stats, err := st.GetStats()
	if err != nil {
		t.Fatal(err)
	}
	if stats.ModuleCount != 1 || stats.DefinitionCount != 2 || stats.CallEdgeCount != 1 || stats.AspectCount != 1 {
		t.Errorf("unexpected stats: %+v", stats)
	}
}

func TestClear(t *testing.T) {
	st := openTestStore(t)

	if _, err := st.InsertModule(&Module{Name: "a", FullPath: "a"}); err != nil {
		t.Fatal(err)
	}
	if _, err := st.InsertDefinition(&Definition{Name: "f", Kind: DefKindFunction, File: "f.go"}); err != nil {
		t.Fatal(err)
	}

	if err := st.Clear(); err != nil {
		t.Fatal(err)
	}

	stats, err := st.GetStats()
	if err != nil {
		t.Fatal(err)
	}
	if stats.ModuleCount != 0 || stats.DefinitionCount != 0 {
		t.Errorf("Clear left data behind: %+v", stats)
	}
}
