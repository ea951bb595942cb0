package flows

import (
	"strings"
	"unicode"

	"github.com/ahertel/flowatlas/internal/entrypoints"
	"github.com/ahertel/flowatlas/internal/store"
)

// actionVerbs maps action types to the verb used in generated flow names.
var actionVerbs = map[store.ActionType]string{
	store.ActionView:    "View",
	store.ActionCreate:  "Create",
	store.ActionUpdate:  "Update",
	store.ActionDelete:  "Delete",
	store.ActionProcess: "Process",
}

// flowName derives a flow name from a classified entry-point member.
// With both an action type and a target entity the name is
// <ActionVerb><CapitalizedEntity>Flow; otherwise the member name is
// cleaned up (handler prefixes/suffixes stripped), prefixed with the
// action verb when known, and suffixed with Flow.
func flowName(member entrypoints.EntryPointMember) string {
	verb := actionVerbs[member.ActionType]

	if verb != "" && member.TargetEntity != "" {
		return verb + capitalizeWords(member.TargetEntity) + "Flow"
	}

	base := member.Name
	if strings.HasPrefix(base, "handle") {
		base = base[len("handle"):]
	}
	base = strings.TrimSuffix(base, "Handler")
	base = strings.TrimSuffix(base, "Controller")
	if strings.HasPrefix(base, "on") && len(base) > 2 && unicode.IsUpper(rune(base[2])) {
		base = base[2:]
	}
	base = capitalize(base)
	if verb != "" && !strings.HasPrefix(base, verb) {
		base = verb + base
	}
	if !strings.HasSuffix(base, "Flow") {
		base += "Flow"
	}
	return base
}

// slugify converts a camel-case flow name to its kebab-case slug:
// a hyphen at every camel boundary, everything lowercased.
func slugify(name string) string {
	var b strings.Builder
	for i, r := range name {
		if unicode.IsUpper(r) && i > 0 {
			b.WriteByte('-')
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}

// stakeholderForPath infers who triggers flows from a module by its path.
func stakeholderForPath(fullPath string) store.Stakeholder {
	lower := strings.ToLower(fullPath)
	switch {
	case strings.Contains(lower, "admin"):
		return store.StakeholderAdmin
	case strings.Contains(lower, "api"), strings.Contains(lower, "route"):
		return store.StakeholderExternal
	case strings.Contains(lower, "cron"), strings.Contains(lower, "job"), strings.Contains(lower, "worker"):
		return store.StakeholderSystem
	case strings.Contains(lower, "cli"), strings.Contains(lower, "command"):
		return store.StakeholderDeveloper
	default:
		return store.StakeholderUser
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// capitalizeWords capitalizes each space-, hyphen-, or underscore-separated
// word and joins them, so "order item" becomes "OrderItem".
func capitalizeWords(s string) string {
	words := strings.FieldsFunc(s, func(r rune) bool {
		return r == ' ' || r == '-' || r == '_'
	})
	var b strings.Builder
	for _, w := range words {
		b.WriteString(capitalize(w))
	}
	return b.String()
}
