package entrypoints

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahertel/flowatlas/internal/store"
)

// stubClassifier returns a canned result map, or an error.
type stubClassifier struct {
	results map[MemberKey]MemberResult
	err     error
}

func (s *stubClassifier) ClassifyMembers(ctx context.Context, candidates []ModuleCandidate) (map[MemberKey]MemberResult, error) {
	return s.results, s.err
}

func testModule(id store.ModuleID, fullPath string, isTest bool, members ...store.ModuleMember) store.ModuleWithMembers {
	return store.ModuleWithMembers{
		Module:  store.Module{ID: id, Name: fullPath, FullPath: fullPath, IsTest: isTest},
		Members: members,
	}
}

func member(defID store.DefID, name string, kind store.DefKind) store.ModuleMember {
	return store.ModuleMember{DefID: defID, Name: name, Kind: kind}
}

func TestBuildCandidatesFiltering(t *testing.T) {
	agg := NewAggregator(DefaultRules(), nil)

	modules := []store.ModuleWithMembers{
		testModule(1, "app.orders", false, member(1, "createOrder", store.DefKindFunction)),
		testModule(2, "app.empty", false),
		testModule(3, "app.orders_test", true, member(2, "testCreate", store.DefKindFunction)),
		testModule(4, "app.types", false,
			member(3, "OrderState", store.DefKindEnum),
			member(4, "Orderable", store.DefKindInterface),
		),
		testModule(5, "app.mixed", false,
			member(5, "Currency", store.DefKindType),
			member(6, "formatPrice", store.DefKindFunction),
		),
	}

	candidates := agg.BuildCandidates(modules)

	require.Len(t, candidates, 2)
	assert.Equal(t, store.ModuleID(1), candidates[0].ModuleID)
	assert.Equal(t, store.ModuleID(5), candidates[1].ModuleID)
	// The full member list survives filtering, non-callables included.
	assert.Len(t, candidates[1].Members, 2)
}

func TestClassifyAllFromLLM(t *testing.T) {
	agg := NewAggregator(DefaultRules(), nil)
	candidates := []ModuleCandidate{
		{
			ModuleID: 1,
			FullPath: "app.orders",
			Members: []store.ModuleMember{
				member(1, "createOrder", store.DefKindFunction),
				member(2, "validateOrder", store.DefKindFunction),
			},
		},
	}
	classifier := &stubClassifier{results: map[MemberKey]MemberResult{
		{ModuleID: 1, MemberName: "createOrder"}: {
			IsEntryPoint: true,
			ActionType:   store.ActionCreate,
			TargetEntity: "order",
			Stakeholder:  store.StakeholderUser,
			Reason:       "request handler",
		},
		{ModuleID: 1, MemberName: "validateOrder"}: {
			Reason: "internal helper",
		},
	}}

	classifications := agg.Classify(context.Background(), candidates, classifier)

	require.Len(t, classifications, 1)
	mc := classifications[0]
	assert.True(t, mc.IsEntryPoint)
	assert.Equal(t, "request handler", mc.Reason)
	assert.Equal(t, ConfidenceHigh, mc.Confidence)
	require.Len(t, mc.Members, 2)
	for _, m := range mc.Members {
		assert.Equal(t, ViaLLM, m.Via)
	}
}

func TestClassifyFillsGapsWithHeuristics(t *testing.T) {
	agg := NewAggregator(DefaultRules(), nil)
	candidates := []ModuleCandidate{
		{
			ModuleID: 1,
			FullPath: "app.screens.checkout",
			Members: []store.ModuleMember{
				member(1, "handleCheckout", store.DefKindFunction),
				member(2, "formatTotal", store.DefKindFunction),
			},
		},
	}
	// The classifier answered for one member only.
	classifier := &stubClassifier{results: map[MemberKey]MemberResult{
		{ModuleID: 1, MemberName: "formatTotal"}: {Reason: "formatting helper"},
	}}

	classifications := agg.Classify(context.Background(), candidates, classifier)

	require.Len(t, classifications, 1)
	mc := classifications[0]
	assert.Equal(t, ConfidenceMedium, mc.Confidence)

	require.Len(t, mc.Members, 2)
	gap := mc.Members[0]
	assert.Equal(t, "handleCheckout", gap.Name)
	assert.Equal(t, ViaHeuristic, gap.Via)
	assert.True(t, gap.IsEntryPoint) // name hint "handle"
	assert.Equal(t, "Not in LLM response, using heuristic", gap.Reason)

	assert.Equal(t, ViaLLM, mc.Members[1].Via)
}

func TestClassifyFailureFallsBackEntirely(t *testing.T) {
	agg := NewAggregator(DefaultRules(), nil)
	candidates := []ModuleCandidate{
		{
			ModuleID: 1,
			FullPath: "app.screens.orders",
			Members: []store.ModuleMember{
				member(1, "handleCreate", store.DefKindFunction),
				member(2, "handleUpdate", store.DefKindFunction),
				member(3, "handleDelete", store.DefKindFunction),
				member(4, "listOrders", store.DefKindFunction),
				member(5, "formatRow", store.DefKindFunction),
			},
		},
	}
	classifier := &stubClassifier{err: errors.New("rate limited")}

	classifications := agg.Classify(context.Background(), candidates, classifier)

	require.Len(t, classifications, 1)
	mc := classifications[0]
	assert.Equal(t, ConfidenceLow, mc.Confidence)
	assert.True(t, mc.IsEntryPoint)
	require.Len(t, mc.Members, 5)
	for _, m := range mc.Members {
		assert.Equal(t, ViaHeuristic, m.Via)
		assert.Equal(t, "Heuristic classification (classifier unavailable)", m.Reason)
	}

	// Heuristic action inference still applies.
	assert.Equal(t, store.ActionCreate, mc.Members[0].ActionType)
	assert.Equal(t, store.ActionUpdate, mc.Members[1].ActionType)
	assert.Equal(t, store.ActionDelete, mc.Members[2].ActionType)
	assert.Equal(t, store.ActionView, mc.Members[3].ActionType)
}

func TestClassifyNilClassifier(t *testing.T) {
	agg := NewAggregator(DefaultRules(), nil)
	candidates := []ModuleCandidate{
		{
			ModuleID: 1,
			FullPath: "app.util",
			Members:  []store.ModuleMember{member(1, "clamp", store.DefKindFunction)},
		},
	}

	classifications := agg.Classify(context.Background(), candidates, nil)

	require.Len(t, classifications, 1)
	mc := classifications[0]
	assert.Equal(t, ConfidenceLow, mc.Confidence)
	assert.False(t, mc.IsEntryPoint)
	// No entry-point members: the reason is the first member's.
	assert.Equal(t, mc.Members[0].Reason, mc.Reason)
}

func TestBuildEntryPointModules(t *testing.T) {
	agg := NewAggregator(DefaultRules(), nil)
	candidates := []ModuleCandidate{
		{
			ModuleID: 1,
			Name:     "checkout",
			FullPath: "app.checkout",
			Members: []store.ModuleMember{
				member(1, "handleCheckout", store.DefKindFunction),
				member(2, "formatTotal", store.DefKindFunction),
			},
		},
		{
			ModuleID: 2,
			Name:     "util",
			FullPath: "app.util",
			Members:  []store.ModuleMember{member(3, "clamp", store.DefKindFunction)},
		},
	}
	classifications := agg.Classify(context.Background(), candidates, nil)

	modules := agg.BuildEntryPointModules(classifications, candidates)

	require.Len(t, modules, 1)
	m := modules[0]
	assert.Equal(t, store.ModuleID(1), m.ModuleID)
	assert.Equal(t, "checkout", m.Name)
	require.Len(t, m.Members, 2)
	assert.Equal(t, store.DefID(1), m.Members[0].DefID)
	assert.True(t, m.Members[0].IsEntryPoint)
	assert.False(t, m.Members[1].IsEntryPoint)
}

func TestInferActionType(t *testing.T) {
	tests := []struct {
		name string
		want store.ActionType
	}{
		{"createOrder", store.ActionCreate},
		{"addItem", store.ActionCreate},
		{"saveProfile", store.ActionUpdate},
		{"removeItem", store.ActionDelete},
		{"showDetails", store.ActionView},
		{"syncInventory", store.ActionProcess},
		{"helper", store.ActionNone},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, inferActionType(tt.name), "name %q", tt.name)
	}
}

func TestInferEntryPoint(t *testing.T) {
	rules := DefaultRules()

	assert.True(t, rules.inferEntryPoint("handleLogin", "app.auth"))
	assert.True(t, rules.inferEntryPoint("LoginScreen", "app.auth"))
	assert.True(t, rules.inferEntryPoint("doLogin", "app.screens.auth"))
	assert.True(t, rules.inferEntryPoint("register", "app.routes.auth"))
	assert.False(t, rules.inferEntryPoint("hashPassword", "app.auth"))
}
