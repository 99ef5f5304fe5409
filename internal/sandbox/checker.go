package sandbox

import (
	"github.com/dop251/goja/ast"
)

// Check rejects a parsed tree that references a denied identifier or contains
// a denied syntax kind. Both passes cover the whole tree, including code that
// could never run; the first violation found is returned as an
// *UnsafeExpressionError.
//
// Only the immediate object or callee of a member access or call is
// inspected. Longer property chains are not followed.
func Check(root ast.Node) error {
	if err := Walk(root, identifierVisitors); err != nil {
		return err
	}
	return Walk(root, syntaxVisitors)
}

var identifierVisitors = Visitors{
	"Identifier": func(n ast.Node) error {
		name := n.(*ast.Identifier).Name.String()
		if IsDeniedIdentifier(name) {
			return identifierViolation(name, "identifier %q is not allowed inside expressions")
		}
		return nil
	},
	"MemberExpression": func(n ast.Node) error {
		if name, ok := deniedRoot(memberObject(n)); ok {
			return identifierViolation(name, "accessing %q is not permitted inside expressions")
		}
		return nil
	},
	"CallExpression": func(n ast.Node) error {
		callee := n.(*ast.CallExpression).Callee
		if name, ok := deniedRoot(callee); ok {
			return identifierViolation(name, "calling %q is not permitted")
		}
		if obj := memberObject(unwrapOptional(callee)); obj != nil {
			if name, ok := deniedRoot(obj); ok {
				return identifierViolation(name, "calling methods on %q is not permitted")
			}
		}
		return nil
	},
}

var syntaxVisitors = func() Visitors {
	v := make(Visitors, len(deniedKinds))
	for kind := range deniedKinds {
		kind := kind
		v[kind] = func(ast.Node) error {
			return syntaxViolation(kind)
		}
	}
	return v
}()

// memberObject returns the object side of a member access, or nil when n is
// not a member access.
func memberObject(n ast.Node) ast.Expression {
	switch m := n.(type) {
	case *ast.DotExpression:
		return m.Left
	case *ast.BracketExpression:
		return m.Left
	case *ast.PrivateDotExpression:
		return m.Left
	}
	return nil
}

// deniedRoot reports whether e is a denied identifier, looking through the
// optional-chaining wrappers goja adds around `a?.b`.
func deniedRoot(e ast.Expression) (string, bool) {
	id, ok := unwrapOptional(e).(*ast.Identifier)
	if !ok || id == nil {
		return "", false
	}
	name := id.Name.String()
	return name, IsDeniedIdentifier(name)
}

func unwrapOptional(e ast.Expression) ast.Expression {
	for {
		switch o := e.(type) {
		case *ast.Optional:
			e = o.Expression
		case *ast.OptionalChain:
			e = o.Expression
		default:
			return e
		}
	}
}
