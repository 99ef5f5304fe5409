package sandbox

import (
	"errors"
	"testing"

	"github.com/dop251/goja/ast"
	"github.com/dop251/goja/parser"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parse(t *testing.T, src string) *ast.Program {
	t.Helper()
	prog, err := parser.ParseFile(nil, "", src, 0)
	require.NoError(t, err)
	return prog
}

func TestWalkIsPostOrder(t *testing.T) {
	var seen []string
	record := func(n ast.Node) error {
		kind := KindOf(n)
		if id, ok := n.(*ast.Identifier); ok {
			kind += ":" + id.Name.String()
		}
		seen = append(seen, kind)
		return nil
	}

	err := Walk(parse(t, "f(x)"), Visitors{
		"Identifier":          record,
		"CallExpression":      record,
		"ExpressionStatement": record,
		"Program":             record,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{
		"Identifier:f",
		"Identifier:x",
		"CallExpression",
		"ExpressionStatement",
		"Program",
	}, seen)
}

func TestWalkIdentifierPositions(t *testing.T) {
	tests := []struct {
		src  string
		want []string
	}{
		{src: "a + b.c + d[e]", want: []string{"a", "b", "d", "e"}},
		{src: "({k: v, s})", want: []string{"v", "s"}},
		{src: "({[k]: v})", want: []string{"k", "v"}},
		{src: "o?.p", want: []string{"o"}},
		{src: "(p) => q", want: []string{"p", "q"}},
		{src: "`${t}`", want: []string{"t"}},
	}

	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			var names []string
			err := Walk(parse(t, tt.src), Visitors{
				"Identifier": func(n ast.Node) error {
					names = append(names, n.(*ast.Identifier).Name.String())
					return nil
				},
			})
			require.NoError(t, err)
			assert.ElementsMatch(t, tt.want, names)
		})
	}
}

func TestWalkStopsOnError(t *testing.T) {
	stop := errors.New("stop")
	count := 0

	err := Walk(parse(t, "a + b + c"), Visitors{
		"Identifier": func(ast.Node) error {
			count++
			if count == 2 {
				return stop
			}
			return nil
		},
	})
	assert.ErrorIs(t, err, stop)
	assert.Equal(t, 2, count)
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		src  string
		want string
	}{
		{src: "a.b", want: "MemberExpression"},
		{src: "a[b]", want: "MemberExpression"},
		{src: "x++", want: KindUpdateExpression},
		{src: "-x", want: "UnaryExpression"},
		{src: "a && b", want: "LogicalExpression"},
		{src: "a ?? b", want: "LogicalExpression"},
		{src: "'s'", want: "Literal"},
		{src: "new A", want: KindNewExpression},
		{src: "this", want: KindThisExpression},
	}

	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			stmt, ok := parse(t, tt.src).Body[0].(*ast.ExpressionStatement)
			require.True(t, ok)
			assert.Equal(t, tt.want, KindOf(stmt.Expression))
		})
	}
}
