package entrypoints

import (
	"strings"

	"github.com/ahertel/flowatlas/internal/store"
)

// heuristicGapReason is the reason recorded when the classifier responded
// but left a member out of its answer.
const heuristicGapReason = "Not in LLM response, using heuristic"

// Rules holds the name/path substring rules the heuristic fallback uses.
type Rules struct {
	EntryNameHints []string // member-name substrings that suggest an entry point
	EntryPathHints []string // module-path substrings that suggest an entry point
}

// DefaultRules returns the built-in heuristic rules.
func DefaultRules() Rules {
	return Rules{
		EntryNameHints: []string{"handle", "screen", "page"},
		EntryPathHints: []string{"screen", "page", "route"},
	}
}

// actionRules maps name substrings to action types, checked in order.
var actionRules = []struct {
	substrings []string
	action     store.ActionType
}{
	{[]string{"create", "add", "new", "insert"}, store.ActionCreate},
	{[]string{"update", "edit", "modify", "save"}, store.ActionUpdate},
	{[]string{"delete", "remove"}, store.ActionDelete},
	{[]string{"list", "view", "get", "show"}, store.ActionView},
	{[]string{"login", "logout", "auth", "process", "sync"}, store.ActionProcess},
}

// inferActionType derives an action type from a member name.
func inferActionType(name string) store.ActionType {
	lower := strings.ToLower(name)
	for _, rule := range actionRules {
		for _, sub := range rule.substrings {
			if strings.Contains(lower, sub) {
				return rule.action
			}
		}
	}
	return store.ActionNone
}

// inferEntryPoint guesses entry-point-ness from the member name and the
// owning module's path.
func (r Rules) inferEntryPoint(memberName, modulePath string) bool {
	lowerName := strings.ToLower(memberName)
	for _, hint := range r.EntryNameHints {
		if strings.Contains(lowerName, hint) {
			return true
		}
	}
	lowerPath := strings.ToLower(modulePath)
	for _, hint := range r.EntryPathHints {
		if strings.Contains(lowerPath, hint) {
			return true
		}
	}
	return false
}

// heuristicResult classifies one member without a classifier.
func (r Rules) heuristicResult(member store.ModuleMember, modulePath, reason string) MemberResult {
	return MemberResult{
		IsEntryPoint: r.inferEntryPoint(member.Name, modulePath),
		ActionType:   inferActionType(member.Name),
		Reason:       reason,
	}
}
