// Package entrypoints turns raw module candidates plus per-member
// classification signals into a final list of entry-point modules.
package entrypoints

import (
	"context"
	"log/slog"

	"github.com/ahertel/flowatlas/internal/store"
)

// Provenance records which path produced a classification.
type Provenance string

const (
	ViaLLM       Provenance = "llm"
	ViaHeuristic Provenance = "heuristic"
)

// Confidence grades how much to trust a module classification.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// MemberClassification is the final verdict for one member, with its
// provenance made explicit rather than inferred from which code path ran.
type MemberClassification struct {
	DefID        store.DefID       `json:"definition_id"`
	Name         string            `json:"name"`
	IsEntryPoint bool              `json:"is_entry_point"`
	ActionType   store.ActionType  `json:"action_type,omitempty"`
	TargetEntity string            `json:"target_entity,omitempty"`
	Stakeholder  store.Stakeholder `json:"stakeholder,omitempty"`
	Reason       string            `json:"reason"`
	Via          Provenance        `json:"via"`
}

// ModuleClassification is the aggregated verdict for one candidate module.
type ModuleClassification struct {
	ModuleID     store.ModuleID         `json:"module_id"`
	FullPath     string                 `json:"full_path"`
	IsEntryPoint bool                   `json:"is_entry_point"`
	Reason       string                 `json:"reason"`
	Confidence   Confidence             `json:"confidence"`
	Members      []MemberClassification `json:"members"`
}

// EntryPointMember is a member of a materialized entry-point module.
type EntryPointMember struct {
	DefID        store.DefID       `json:"definition_id"`
	Name         string            `json:"name"`
	IsEntryPoint bool              `json:"is_entry_point"`
	ActionType   store.ActionType  `json:"action_type,omitempty"`
	TargetEntity string            `json:"target_entity,omitempty"`
	Stakeholder  store.Stakeholder `json:"stakeholder,omitempty"`
	Via          Provenance        `json:"via"`
}

// EntryPointModuleInfo is a module confirmed as an entry point, with its
// member metadata joined back onto the candidate member list.
type EntryPointModuleInfo struct {
	ModuleID   store.ModuleID     `json:"module_id"`
	Name       string             `json:"name"`
	FullPath   string             `json:"full_path"`
	Reason     string             `json:"reason"`
	Confidence Confidence         `json:"confidence"`
	Members    []EntryPointMember `json:"members"`
}

// Aggregator computes entry-point modules from module candidates. It holds
// no per-call state: Classify returns its results instead of caching them.
type Aggregator struct {
	rules  Rules
	logger *slog.Logger
}

// NewAggregator creates an aggregator with the given heuristic rules.
// A nil logger falls back to slog.Default.
func NewAggregator(rules Rules, logger *slog.Logger) *Aggregator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Aggregator{rules: rules, logger: logger}
}

// BuildCandidates filters modules down to classification candidates.
// Dropped: modules with zero members, test-only modules, and modules whose
// members are all non-callable kinds (interfaces, types, enums).
func (a *Aggregator) BuildCandidates(modules []store.ModuleWithMembers) []ModuleCandidate {
	var candidates []ModuleCandidate
	for _, m := range modules {
		if len(m.Members) == 0 || m.IsTest {
			continue
		}
		anyCallable := false
		for _, member := range m.Members {
			if member.Kind.Callable() {
				anyCallable = true
				break
			}
		}
		if !anyCallable {
			continue
		}
		candidates = append(candidates, ModuleCandidate{
			ModuleID:    m.ID,
			Name:        m.Name,
			FullPath:    m.FullPath,
			Description: m.Description,
			Members:     m.Members,
		})
	}
	return candidates
}

// Classify produces a classification for every candidate module.
//
// The external classifier is consulted once for the whole batch. Members it
// did not cover are filled in via the heuristic fallback; if the call fails
// outright, every candidate falls back entirely to the heuristic with
// confidence low. Classifier failure is never surfaced as an error.
func (a *Aggregator) Classify(ctx context.Context, candidates []ModuleCandidate, classifier Classifier) []ModuleClassification {
	var results map[MemberKey]MemberResult
	classifierFailed := classifier == nil
	if classifier != nil {
		var err error
		results, err = classifier.ClassifyMembers(ctx, candidates)
		if err != nil {
			a.logger.Warn("classifier call failed, falling back to heuristics", "error", err)
			classifierFailed = true
			results = nil
		}
	}

	classifications := make([]ModuleClassification, 0, len(candidates))
	for _, cand := range candidates {
		mc := ModuleClassification{
			ModuleID: cand.ModuleID,
			FullPath: cand.FullPath,
		}

		llmCount := 0
		for _, member := range cand.Members {
			key := MemberKey{ModuleID: cand.ModuleID, MemberName: member.Name}
			result, fromLLM := results[key]
			if !fromLLM {
				reason := heuristicGapReason
				if classifierFailed {
					reason = "Heuristic classification (classifier unavailable)"
				}
				result = a.rules.heuristicResult(member, cand.FullPath, reason)
			} else {
				llmCount++
			}

			via := ViaHeuristic
			if fromLLM {
				via = ViaLLM
			}
			mc.Members = append(mc.Members, MemberClassification{
				DefID:        member.DefID,
				Name:         member.Name,
				IsEntryPoint: result.IsEntryPoint,
				ActionType:   result.ActionType,
				TargetEntity: result.TargetEntity,
				Stakeholder:  result.Stakeholder,
				Reason:       result.Reason,
				Via:          via,
			})
		}

		// The module is an entry point iff any member is. The recorded
		// reason is the first entry-point member's, in stored member
		// order, or the first member's when none qualify.
		for _, member := range mc.Members {
			if member.IsEntryPoint {
				mc.IsEntryPoint = true
				mc.Reason = member.Reason
				break
			}
		}
		if !mc.IsEntryPoint && len(mc.Members) > 0 {
			mc.Reason = mc.Members[0].Reason
		}

		switch {
		case classifierFailed:
			mc.Confidence = ConfidenceLow
		case llmCount == len(cand.Members):
			mc.Confidence = ConfidenceHigh
		default:
			mc.Confidence = ConfidenceMedium
		}

		classifications = append(classifications, mc)
	}
	return classifications
}

// BuildEntryPointModules materializes the modules flagged as entry points,
// joining member metadata back onto the candidate member lists. Modules
// whose join yields zero member definitions are dropped even when flagged.
func (a *Aggregator) BuildEntryPointModules(classifications []ModuleClassification, candidates []ModuleCandidate) []EntryPointModuleInfo {
	candByID := make(map[store.ModuleID]ModuleCandidate, len(candidates))
	for _, cand := range candidates {
		candByID[cand.ModuleID] = cand
	}

	var modules []EntryPointModuleInfo
	for _, mc := range classifications {
		if !mc.IsEntryPoint {
			continue
		}
		cand, ok := candByID[mc.ModuleID]
		if !ok {
			continue
		}

		classByName := make(map[string]MemberClassification, len(mc.Members))
		for _, member := range mc.Members {
			classByName[member.Name] = member
		}

		info := EntryPointModuleInfo{
			ModuleID:   mc.ModuleID,
			Name:       cand.Name,
			FullPath:   cand.FullPath,
			Reason:     mc.Reason,
			Confidence: mc.Confidence,
		}
		for _, member := range cand.Members {
			class, classified := classByName[member.Name]
			if !classified {
				continue
			}
			info.Members = append(info.Members, EntryPointMember{
				DefID:        member.DefID,
				Name:         member.Name,
				IsEntryPoint: class.IsEntryPoint,
				ActionType:   class.ActionType,
				TargetEntity: class.TargetEntity,
				Stakeholder:  class.Stakeholder,
				Via:          class.Via,
			})
		}
		if len(info.Members) == 0 {
			continue
		}
		modules = append(modules, info)
	}
	return modules
}
