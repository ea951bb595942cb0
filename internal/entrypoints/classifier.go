package entrypoints

import (
	"context"

	"github.com/ahertel/flowatlas/internal/store"
)

// ModuleCandidate is a module that survived candidate filtering, carrying
// the ordered member list the classifier sees.
type ModuleCandidate struct {
	ModuleID    store.ModuleID       `json:"module_id"`
	Name        string               `json:"name"`
	FullPath    string               `json:"full_path"`
	Description string               `json:"description,omitempty"`
	Members     []store.ModuleMember `json:"members"`
}

// MemberKey identifies one member within a classified batch.
type MemberKey struct {
	ModuleID   store.ModuleID
	MemberName string
}

// MemberResult is the classifier's verdict for a single member.
type MemberResult struct {
	IsEntryPoint bool              `json:"is_entry_point"`
	ActionType   store.ActionType  `json:"action_type,omitempty"`
	TargetEntity string            `json:"target_entity,omitempty"`
	Stakeholder  store.Stakeholder `json:"stakeholder,omitempty"`
	Reason       string            `json:"reason"`
}

// Classifier produces per-member entry-point verdicts for a batch of
// candidates. Implementations may be backed by a language model, a human
// review file, or anything else.
//
// A partial result map is legal: members absent from the map are filled in
// by the aggregator's heuristic fallback. Returning an error signals total
// failure of the batch, which the aggregator also recovers from locally.
type Classifier interface {
	ClassifyMembers(ctx context.Context, candidates []ModuleCandidate) (map[MemberKey]MemberResult, error)
}
