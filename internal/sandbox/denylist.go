package sandbox

// Identifiers that may never be referenced, accessed or called.
var deniedIdentifiers = map[string]struct{}{
	"window":      {},
	"globalThis":  {},
	"self":        {},
	"document":    {},
	"Function":    {},
	"eval":        {},
	"setTimeout":  {},
	"setInterval": {},
	"fetch":       {},
}

// Syntax kinds that are rejected wherever they appear in the tree.
const (
	KindFunctionExpression      = "FunctionExpression"
	KindArrowFunctionExpression = "ArrowFunctionExpression"
	KindFunctionDeclaration     = "FunctionDeclaration"
	KindImportExpression        = "ImportExpression"
	KindMetaProperty            = "MetaProperty"
	KindNewExpression           = "NewExpression"
	KindUpdateExpression        = "UpdateExpression"
	KindWithStatement           = "WithStatement"
	KindYieldExpression         = "YieldExpression"
	KindAwaitExpression         = "AwaitExpression"
	KindThisExpression          = "ThisExpression"
	KindSuper                   = "Super"
)

var deniedKinds = map[string]struct{}{
	KindFunctionExpression:      {},
	KindArrowFunctionExpression: {},
	KindFunctionDeclaration:     {},
	KindImportExpression:        {},
	KindMetaProperty:            {},
	KindNewExpression:           {},
	KindUpdateExpression:        {},
	KindWithStatement:           {},
	KindYieldExpression:         {},
	KindAwaitExpression:         {},
	KindThisExpression:          {},
	KindSuper:                   {},
}

// IsDeniedIdentifier reports whether name is on the identifier denylist.
// The comparison is exact and case-sensitive.
func IsDeniedIdentifier(name string) bool {
	_, ok := deniedIdentifiers[name]
	return ok
}

// IsDeniedKind reports whether kind is on the syntax-kind denylist.
func IsDeniedKind(kind string) bool {
	_, ok := deniedKinds[kind]
	return ok
}

// DeniedIdentifiers returns a copy of the identifier denylist.
func DeniedIdentifiers() []string {
	return keys(deniedIdentifiers)
}

// DeniedKinds returns a copy of the syntax-kind denylist.
func DeniedKinds() []string {
	return keys(deniedKinds)
}
