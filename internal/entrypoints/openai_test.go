package entrypoints

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahertel/flowatlas/internal/store"
)

func TestParseResponse(t *testing.T) {
	c := NewOpenAIClassifier("test-key", "", nil, nil)

	content := `[
		{"module_id": 1, "member": "createOrder", "is_entry_point": true,
		 "action_type": "create", "target_entity": "order",
		 "stakeholder": "user", "reason": "request handler"},
		{"module_id": 2, "member": "helper", "is_entry_point": false,
		 "reason": "internal"}
	]`

	results, err := c.parseResponse(content)
	require.NoError(t, err)
	require.Len(t, results, 2)

	r := results[MemberKey{ModuleID: 1, MemberName: "createOrder"}]
	assert.True(t, r.IsEntryPoint)
	assert.Equal(t, store.ActionCreate, r.ActionType)
	assert.Equal(t, "order", r.TargetEntity)
	assert.Equal(t, store.StakeholderUser, r.Stakeholder)

	r = results[MemberKey{ModuleID: 2, MemberName: "helper"}]
	assert.False(t, r.IsEntryPoint)
	assert.Equal(t, "internal", r.Reason)
}

func TestParseResponseMarkdownFenced(t *testing.T) {
	c := NewOpenAIClassifier("test-key", "", nil, nil)

	content := "Here is the classification:\n```json\n" +
		`[{"module_id": 1, "member": "handleLogin", "is_entry_point": true, "reason": "auth"}]` +
		"\n```\nLet me know if you need more."

	results, err := c.parseResponse(content)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.True(t, results[MemberKey{ModuleID: 1, MemberName: "handleLogin"}].IsEntryPoint)
}

func TestParseResponseSkipsNamelessEntries(t *testing.T) {
	c := NewOpenAIClassifier("test-key", "", nil, nil)

	results, err := c.parseResponse(`[{"module_id": 1, "is_entry_point": true, "reason": "x"}]`)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestParseResponseMalformed(t *testing.T) {
	c := NewOpenAIClassifier("test-key", "", nil, nil)

	_, err := c.parseResponse("I could not classify these modules.")
	assert.Error(t, err)
}
