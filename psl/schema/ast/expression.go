package ast

import (
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2/lexer"
)

// Expression is a value in an attribute argument or config property.
type Expression interface {
	isExpression()
	String() string
}

// StringValue is a quoted string literal. Value holds the unquoted text.
type StringValue struct {
	Pos   lexer.Position
	Value string `@String`
}

func (*StringValue) isExpression() {}

// String returns the quoted literal.
func (s *StringValue) String() string { return strconv.Quote(s.Value) }

// NumericValue is an integer or float literal.
type NumericValue struct {
	Pos   lexer.Position
	Value string `@Number`
}

func (*NumericValue) isExpression() {}

// String returns the literal text.
func (n *NumericValue) String() string { return n.Value }

// ConstantValue is a bare identifier: true, false, enum values, field references.
type ConstantValue struct {
	Pos   lexer.Position
	Value string `@Ident`
}

func (*ConstantValue) isExpression() {}

// String returns the identifier.
func (c *ConstantValue) String() string { return c.Value }

// Bool returns the boolean value of true/false constants.
func (c *ConstantValue) Bool() (value, ok bool) {
	switch c.Value {
	case "true":
		return true, true
	case "false":
		return false, true
	}
	return false, false
}

// FunctionCall is a call such as env("DATABASE_URL") or autoincrement().
type FunctionCall struct {
	Pos       lexer.Position
	Name      string      `@Ident`
	Arguments []*Argument `"(" (@@ ("," @@)*)? ")"`
}

func (*FunctionCall) isExpression() {}

// String returns the call as written in the schema.
func (f *FunctionCall) String() string {
	return f.Name + "(" + strings.TrimSuffix(strings.TrimPrefix(formatArguments(f.Arguments), "("), ")") + ")"
}

// ArrayExpression is a list literal such as [id, email].
type ArrayExpression struct {
	Pos      lexer.Position
	Elements []Expression `"[" (@@ ("," @@)*)? "]"`
}

func (*ArrayExpression) isExpression() {}

// String returns the list as written in the schema.
func (a *ArrayExpression) String() string {
	parts := make([]string, len(a.Elements))
	for i, e := range a.Elements {
		parts[i] = e.String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
