package store

// DefID is a type-safe identifier for definitions.
type DefID int64

// ModuleID is a type-safe identifier for modules.
type ModuleID int64

// InteractionID is a type-safe identifier for module interactions.
type InteractionID int64

// DefKind represents the kind of a definition.
type DefKind string

const (
	DefKindFunction  DefKind = "function"
	DefKindClass     DefKind = "class"
	DefKindMethod    DefKind = "method"
	DefKindConst     DefKind = "const"
	DefKindVariable  DefKind = "variable"
	DefKindInterface DefKind = "interface"
	DefKindType      DefKind = "type"
	DefKindEnum      DefKind = "enum"
)

// Callable reports whether definitions of this kind can appear as the
// source of a call edge. Interfaces, type aliases, and enums cannot.
func (k DefKind) Callable() bool {
	switch k {
	case DefKindInterface, DefKindType, DefKindEnum:
		return false
	}
	return true
}

// InteractionOrigin tags how a module interaction was derived.
type InteractionOrigin string

const (
	OriginAST      InteractionOrigin = "ast"
	OriginInferred InteractionOrigin = "llm-inferred"
)

// ActionType categorizes what an entry-point member does to its target entity.
type ActionType string

const (
	ActionView    ActionType = "view"
	ActionCreate  ActionType = "create"
	ActionUpdate  ActionType = "update"
	ActionDelete  ActionType = "delete"
	ActionProcess ActionType = "process"
	ActionNone    ActionType = ""
)

// Stakeholder identifies who triggers an entry point.
type Stakeholder string

const (
	StakeholderUser      Stakeholder = "user"
	StakeholderAdmin     Stakeholder = "admin"
	StakeholderSystem    Stakeholder = "system"
	StakeholderDeveloper Stakeholder = "developer"
	StakeholderExternal  Stakeholder = "external"
)

// Definition represents a named code symbol produced by the external indexer.
// Definitions are immutable once ingested; aspect metadata is attached
// separately and may change over time.
type Definition struct {
	ID       DefID   `json:"id"`
	Name     string  `json:"name"`
	Kind     DefKind `json:"kind"`
	File     string  `json:"file"`
	Exported bool    `json:"exported"`
	IsTest   bool    `json:"is_test"`
}

// Module is a grouping node in the module tree. ParentID is 0 for roots.
type Module struct {
	ID          ModuleID `json:"id"`
	ParentID    ModuleID `json:"parent_id,omitempty"`
	Name        string   `json:"name"`
	FullPath    string   `json:"full_path"` // dotted, e.g. "app.orders.api"
	Depth       int      `json:"depth"`
	Description string   `json:"description,omitempty"`
	IsTest      bool     `json:"is_test"`
}

// ModuleMember links a definition into a module. Position preserves the
// stored member order, which downstream engines treat as significant.
type ModuleMember struct {
	DefID    DefID   `json:"definition_id"`
	Name     string  `json:"name"`
	Kind     DefKind `json:"kind"`
	Position int     `json:"position"`
}

// ModuleWithMembers is a module plus its ordered member definitions.
type ModuleWithMembers struct {
	Module
	Members []ModuleMember `json:"members"`
}

// CallEdge is a directed definition-level call: From calls To.
type CallEdge struct {
	FromDefID DefID `json:"from_definition_id"`
	ToDefID   DefID `json:"to_definition_id"`
}

// Interaction is an aggregated module-to-module edge with provenance.
// Many call edges may roll up into one interaction; inferred interactions
// exist where the static call graph has no edge at all.
type Interaction struct {
	ID           InteractionID     `json:"id"`
	FromModuleID ModuleID          `json:"from_module_id"`
	ToModuleID   ModuleID          `json:"to_module_id"`
	Origin       InteractionOrigin `json:"origin"`
	Weight       int               `json:"weight"`
	Semantic     string            `json:"semantic,omitempty"`
}

// AspectEntry is one key/value annotation on a definition.
type AspectEntry struct {
	DefID DefID  `json:"definition_id"`
	Key   string `json:"key"`
	Value string `json:"value"`
}
