package sandbox

import (
	"reflect"

	"github.com/dop251/goja/ast"
	"github.com/dop251/goja/token"
)

// Visitors maps a node kind (see KindOf) to a callback. A callback that
// returns an error stops the walk and the error is returned from Walk.
type Visitors map[string]func(node ast.Node) error

// Walk visits every node under root exactly once, children before parents,
// calling the visitor registered for the node's kind. Identifiers are visited
// in reference and binding positions only: non-computed member names, object
// keys, labels and meta-property parts are names, not references.
func Walk(root ast.Node, visitors Visitors) error {
	w := walker{visitors: visitors}
	return w.walk(root)
}

// KindOf returns the ESTree-style kind name for a goja AST node.
func KindOf(n ast.Node) string {
	switch n := n.(type) {
	case *ast.Program:
		return "Program"
	case *ast.Identifier:
		return "Identifier"
	case *ast.DotExpression, *ast.BracketExpression, *ast.PrivateDotExpression:
		return "MemberExpression"
	case *ast.CallExpression:
		return "CallExpression"
	case *ast.FunctionLiteral:
		return KindFunctionExpression
	case *ast.FunctionDeclaration:
		return KindFunctionDeclaration
	case *ast.ArrowFunctionLiteral:
		return KindArrowFunctionExpression
	case *ast.NewExpression:
		return KindNewExpression
	case *ast.MetaProperty:
		return KindMetaProperty
	case *ast.UnaryExpression:
		if n.Operator == token.INCREMENT || n.Operator == token.DECREMENT {
			return KindUpdateExpression
		}
		return "UnaryExpression"
	case *ast.WithStatement:
		return KindWithStatement
	case *ast.YieldExpression:
		return KindYieldExpression
	case *ast.AwaitExpression:
		return KindAwaitExpression
	case *ast.ThisExpression:
		return KindThisExpression
	case *ast.SuperExpression:
		return KindSuper
	case *ast.PrivateIdentifier:
		return "PrivateIdentifier"
	case *ast.BinaryExpression:
		switch n.Operator {
		case token.LOGICAL_AND, token.LOGICAL_OR, token.COALESCE:
			return "LogicalExpression"
		}
		return "BinaryExpression"
	case *ast.AssignExpression:
		return "AssignmentExpression"
	case *ast.ConditionalExpression:
		return "ConditionalExpression"
	case *ast.SequenceExpression:
		return "SequenceExpression"
	case *ast.ArrayLiteral:
		return "ArrayExpression"
	case *ast.ArrayPattern:
		return "ArrayPattern"
	case *ast.ObjectLiteral:
		return "ObjectExpression"
	case *ast.ObjectPattern:
		return "ObjectPattern"
	case *ast.PropertyShort, *ast.PropertyKeyed:
		return "Property"
	case *ast.SpreadElement:
		return "SpreadElement"
	case *ast.TemplateLiteral:
		if n.Tag != nil {
			return "TaggedTemplateExpression"
		}
		return "TemplateLiteral"
	case *ast.TemplateElement:
		return "TemplateElement"
	case *ast.OptionalChain:
		return "ChainExpression"
	case *ast.Optional:
		return "Optional"
	case *ast.ClassLiteral:
		return "ClassExpression"
	case *ast.ClassDeclaration:
		return "ClassDeclaration"
	case *ast.FieldDefinition:
		return "PropertyDefinition"
	case *ast.MethodDefinition:
		return "MethodDefinition"
	case *ast.ClassStaticBlock:
		return "StaticBlock"
	case *ast.BooleanLiteral, *ast.NullLiteral, *ast.NumberLiteral,
		*ast.StringLiteral, *ast.RegExpLiteral:
		return "Literal"
	case *ast.Binding:
		return "VariableDeclarator"
	case *ast.ParameterList:
		return "ParameterList"
	case *ast.ExpressionBody:
		return "ExpressionBody"
	case *ast.ExpressionStatement:
		return "ExpressionStatement"
	case *ast.BlockStatement:
		return "BlockStatement"
	case *ast.EmptyStatement:
		return "EmptyStatement"
	case *ast.DebuggerStatement:
		return "DebuggerStatement"
	case *ast.BranchStatement:
		if n.Token == token.BREAK {
			return "BreakStatement"
		}
		return "ContinueStatement"
	case *ast.IfStatement:
		return "IfStatement"
	case *ast.LabelledStatement:
		return "LabeledStatement"
	case *ast.ReturnStatement:
		return "ReturnStatement"
	case *ast.ThrowStatement:
		return "ThrowStatement"
	case *ast.TryStatement:
		return "TryStatement"
	case *ast.CatchStatement:
		return "CatchClause"
	case *ast.WhileStatement:
		return "WhileStatement"
	case *ast.DoWhileStatement:
		return "DoWhileStatement"
	case *ast.ForStatement:
		return "ForStatement"
	case *ast.ForInStatement:
		return "ForInStatement"
	case *ast.ForOfStatement:
		return "ForOfStatement"
	case *ast.SwitchStatement:
		return "SwitchStatement"
	case *ast.CaseStatement:
		return "SwitchCase"
	case *ast.VariableStatement, *ast.LexicalDeclaration:
		return "VariableDeclaration"
	case *ast.BadExpression, *ast.BadStatement:
		return "Bad"
	}
	return reflect.TypeOf(n).String()
}

type walker struct {
	visitors Visitors
}

func (w *walker) walk(n ast.Node) error {
	if isNil(n) {
		return nil
	}
	if err := w.children(n); err != nil {
		return err
	}
	if visit, ok := w.visitors[KindOf(n)]; ok {
		return visit(n)
	}
	return nil
}

func (w *walker) all(nodes ...ast.Node) error {
	for _, n := range nodes {
		if err := w.walk(n); err != nil {
			return err
		}
	}
	return nil
}

func (w *walker) expressions(list []ast.Expression) error {
	for _, e := range list {
		if err := w.walk(e); err != nil {
			return err
		}
	}
	return nil
}

func (w *walker) statements(list []ast.Statement) error {
	for _, s := range list {
		if err := w.walk(s); err != nil {
			return err
		}
	}
	return nil
}

func (w *walker) bindings(list []*ast.Binding) error {
	for _, b := range list {
		if err := w.walk(b); err != nil {
			return err
		}
	}
	return nil
}

func (w *walker) children(n ast.Node) error {
	switch n := n.(type) {
	case *ast.Program:
		return w.statements(n.Body)

	// Statements
	case *ast.ExpressionStatement:
		return w.walk(n.Expression)
	case *ast.BlockStatement:
		return w.statements(n.List)
	case *ast.IfStatement:
		return w.all(n.Test, n.Consequent, n.Alternate)
	case *ast.WithStatement:
		return w.all(n.Object, n.Body)
	case *ast.LabelledStatement:
		return w.walk(n.Statement)
	case *ast.ReturnStatement:
		return w.walk(n.Argument)
	case *ast.ThrowStatement:
		return w.walk(n.Argument)
	case *ast.TryStatement:
		return w.all(n.Body, n.Catch, n.Finally)
	case *ast.CatchStatement:
		return w.all(n.Parameter, n.Body)
	case *ast.WhileStatement:
		return w.all(n.Test, n.Body)
	case *ast.DoWhileStatement:
		return w.all(n.Body, n.Test)
	case *ast.ForStatement:
		if err := w.forInitializer(n.Initializer); err != nil {
			return err
		}
		return w.all(n.Test, n.Update, n.Body)
	case *ast.ForInStatement:
		if err := w.forInto(n.Into); err != nil {
			return err
		}
		return w.all(n.Source, n.Body)
	case *ast.ForOfStatement:
		if err := w.forInto(n.Into); err != nil {
			return err
		}
		return w.all(n.Source, n.Body)
	case *ast.SwitchStatement:
		if err := w.walk(n.Discriminant); err != nil {
			return err
		}
		for _, c := range n.Body {
			if err := w.walk(c); err != nil {
				return err
			}
		}
	case *ast.CaseStatement:
		if err := w.walk(n.Test); err != nil {
			return err
		}
		return w.statements(n.Consequent)
	case *ast.VariableStatement:
		return w.bindings(n.List)
	case *ast.LexicalDeclaration:
		return w.bindings(n.List)
	case *ast.FunctionDeclaration:
		// The declaration stands in for its literal; the literal itself is
		// not reported as a separate function expression.
		return w.function(n.Function)
	case *ast.ClassDeclaration:
		return w.class(n.Class)
	case *ast.Binding:
		return w.all(n.Target, n.Initializer)

	// Expressions
	case *ast.ArrayLiteral:
		return w.expressions(n.Value)
	case *ast.ArrayPattern:
		if err := w.expressions(n.Elements); err != nil {
			return err
		}
		return w.walk(n.Rest)
	case *ast.ObjectLiteral:
		for _, p := range n.Value {
			if err := w.walk(p); err != nil {
				return err
			}
		}
	case *ast.ObjectPattern:
		for _, p := range n.Properties {
			if err := w.walk(p); err != nil {
				return err
			}
		}
		return w.walk(n.Rest)
	case *ast.PropertyShort:
		// Shorthand {x} references x.
		return w.all(&n.Name, n.Initializer)
	case *ast.PropertyKeyed:
		if n.Computed {
			if err := w.walk(n.Key); err != nil {
				return err
			}
		}
		return w.walk(n.Value)
	case *ast.SpreadElement:
		return w.walk(n.Expression)
	case *ast.AssignExpression:
		return w.all(n.Left, n.Right)
	case *ast.BinaryExpression:
		return w.all(n.Left, n.Right)
	case *ast.UnaryExpression:
		return w.walk(n.Operand)
	case *ast.ConditionalExpression:
		return w.all(n.Test, n.Consequent, n.Alternate)
	case *ast.SequenceExpression:
		return w.expressions(n.Sequence)
	case *ast.DotExpression:
		return w.walk(n.Left)
	case *ast.PrivateDotExpression:
		return w.walk(n.Left)
	case *ast.BracketExpression:
		return w.all(n.Left, n.Member)
	case *ast.CallExpression:
		if err := w.walk(n.Callee); err != nil {
			return err
		}
		return w.expressions(n.ArgumentList)
	case *ast.NewExpression:
		if err := w.walk(n.Callee); err != nil {
			return err
		}
		return w.expressions(n.ArgumentList)
	case *ast.OptionalChain:
		return w.walk(n.Expression)
	case *ast.Optional:
		return w.walk(n.Expression)
	case *ast.FunctionLiteral:
		return w.function(n)
	case *ast.ArrowFunctionLiteral:
		return w.all(n.ParameterList, n.Body)
	case *ast.ExpressionBody:
		return w.walk(n.Expression)
	case *ast.ParameterList:
		if err := w.bindings(n.List); err != nil {
			return err
		}
		return w.walk(n.Rest)
	case *ast.ClassLiteral:
		return w.class(n)
	case *ast.FieldDefinition:
		if n.Computed {
			if err := w.walk(n.Key); err != nil {
				return err
			}
		}
		return w.walk(n.Initializer)
	case *ast.MethodDefinition:
		if n.Computed {
			if err := w.walk(n.Key); err != nil {
				return err
			}
		}
		return w.walk(n.Body)
	case *ast.ClassStaticBlock:
		return w.walk(n.Block)
	case *ast.TemplateLiteral:
		if err := w.walk(n.Tag); err != nil {
			return err
		}
		return w.expressions(n.Expressions)
	case *ast.YieldExpression:
		return w.walk(n.Argument)
	case *ast.AwaitExpression:
		return w.walk(n.Argument)
	}
	return nil
}

func (w *walker) function(f *ast.FunctionLiteral) error {
	if f == nil {
		return nil
	}
	return w.all(f.Name, f.ParameterList, f.Body)
}

func (w *walker) class(c *ast.ClassLiteral) error {
	if c == nil {
		return nil
	}
	if err := w.all(c.Name, c.SuperClass); err != nil {
		return err
	}
	for _, el := range c.Body {
		if err := w.walk(el); err != nil {
			return err
		}
	}
	return nil
}

func (w *walker) forInitializer(init ast.ForLoopInitializer) error {
	switch init := init.(type) {
	case *ast.ForLoopInitializerExpression:
		return w.walk(init.Expression)
	case *ast.ForLoopInitializerVarDeclList:
		return w.bindings(init.List)
	case *ast.ForLoopInitializerLexicalDecl:
		return w.bindings(init.LexicalDeclaration.List)
	}
	return nil
}

func (w *walker) forInto(into ast.ForInto) error {
	switch into := into.(type) {
	case *ast.ForIntoVar:
		return w.walk(into.Binding)
	case *ast.ForDeclaration:
		return w.walk(into.Target)
	case *ast.ForIntoExpression:
		return w.walk(into.Expression)
	}
	return nil
}

// isNil catches both untyped nil and typed nil pointers stored in interfaces,
// which the parser leaves behind for optional children.
func isNil(n ast.Node) bool {
	if n == nil {
		return true
	}
	v := reflect.ValueOf(n)
	return v.Kind() == reflect.Ptr && v.IsNil()
}
