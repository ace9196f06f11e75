package errors

// ErrorTemplate defines a registered error type.
type ErrorTemplate struct {
	Category   Category
	Message    string
	Suggestion string
}

// registry maps error codes to their templates.
var registry = map[string]ErrorTemplate{
	// ============================================
	// Construction errors (L001-L099)
	// ============================================

	"L001": {
		Category:   CategoryConstruction,
		Message:    "template segment and value counts do not line up",
		Suggestion: "a fragment needs exactly one more literal segment than interpolated values",
	},
	"L002": {
		Category:   CategoryConstruction,
		Message:    "list directive bound to a non-collection source",
		Suggestion: "pass a *reactive.Collection or a Derived that resolves to one",
	},
	"L003": {
		Category:   CategoryConstruction,
		Message:    "directive configuration missing a required field",
		Suggestion: "the list directive requires both `list` and `compose`",
	},
	"L004": {
		Category:   CategoryConstruction,
		Message:    "conditional block has no preceding group",
		Suggestion: "chained and terminal blocks must follow a sibling carrying the establishing condition",
	},
	"L005": {
		Category: CategoryConstruction,
		Message:  "markup did not parse to a well-formed element tree",
	},
	"L006": {
		Category:   CategoryConstruction,
		Message:    "compose produced a multi-node fragment for one item",
		Suggestion: "wrap the item's markup in a single root element",
	},
	"L007": {
		Category:   CategoryConstruction,
		Message:    "directive name is reserved",
		Suggestion: "built-in directives cannot be replaced; pick another attribute name",
	},

	// ============================================
	// Binding errors (L101-L199)
	// ============================================

	"L101": {
		Category:   CategoryBinding,
		Message:    "directive handler failed while wiring a node",
		Suggestion: "the node is left unbound; sibling nodes render normally",
	},
	"L102": {
		Category:   CategoryBinding,
		Message:    "unknown event preset",
		Suggestion: "register the preset in the engine's event table before use",
	},
	"L103": {
		Category: CategoryBinding,
		Message:  "interpolated value index out of range",
	},

	// ============================================
	// Structure errors (L201-L299)
	// ============================================

	"L201": {
		Category:   CategoryStructure,
		Message:    "node type not permitted inside this container",
		Suggestion: "structurally constrained containers (table, select, ...) accept only specific children",
	},

	// ============================================
	// Config errors (L301-L399)
	// ============================================

	"L301": {
		Category: CategoryConfig,
		Message:  "configuration file is invalid",
	},
	"L302": {
		Category: CategoryConfig,
		Message:  "configuration file not found",
	},

	// ============================================
	// Protocol errors (L401-L499)
	// ============================================

	"L401": {
		Category: CategoryProtocol,
		Message:  "malformed frame",
	},
	"L402": {
		Category: CategoryProtocol,
		Message:  "unknown callback target",
	},
}
