package ast

import (
	"strings"

	"github.com/alecthomas/participle/v2/lexer"
)

// Attribute is a field attribute such as @id or @db.VarChar(255).
type Attribute struct {
	Pos       lexer.Position
	Name      string      `"@" @(Ident | Keyword) (@"." @(Ident | Keyword))*`
	Arguments []*Argument `("(" (@@ ("," @@)*)? ","? ")")?`
}

// String returns the attribute as written in the schema.
func (a *Attribute) String() string {
	return "@" + a.Name + formatArguments(a.Arguments)
}

// Argument returns the named argument, or nil.
func (a *Attribute) Argument(name string) *Argument {
	return findArgument(a.Arguments, name)
}

// FirstStringArgument returns the first positional string argument.
func (a *Attribute) FirstStringArgument() (string, bool) {
	return firstString(a.Arguments)
}

// BlockAttribute is a model-level attribute such as @@index([a, b]).
type BlockAttribute struct {
	Pos       lexer.Position
	Name      string      `"@@" @(Ident | Keyword) (@"." @(Ident | Keyword))*`
	Arguments []*Argument `("(" (@@ ("," @@)*)? ","? ")")?`
}

// Kind returns MemberAttribute.
func (b *BlockAttribute) Kind() MemberKind { return MemberAttribute }

// Position returns the position of the attribute.
func (b *BlockAttribute) Position() lexer.Position { return b.Pos }

// String returns the attribute as written in the schema.
func (b *BlockAttribute) String() string {
	return "@@" + b.Name + formatArguments(b.Arguments)
}

// Argument returns the named argument, or nil.
func (b *BlockAttribute) Argument(name string) *Argument {
	return findArgument(b.Arguments, name)
}

// FirstStringArgument returns the first positional string argument.
func (b *BlockAttribute) FirstStringArgument() (string, bool) {
	return firstString(b.Arguments)
}

// Argument is a positional or named argument.
type Argument struct {
	Pos   lexer.Position
	Name  string     `(@(Ident | Keyword) ":")?`
	Value Expression `@@`
}

// IsNamed reports whether the argument has a name.
func (a *Argument) IsNamed() bool { return a.Name != "" }

// String returns the argument as written in the schema.
func (a *Argument) String() string {
	if a.Name != "" {
		return a.Name + ": " + a.Value.String()
	}
	return a.Value.String()
}

func formatArguments(args []*Argument) string {
	if len(args) == 0 {
		return ""
	}
	parts := make([]string, len(args))
	for i, arg := range args {
		parts[i] = arg.String()
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

func findArgument(args []*Argument, name string) *Argument {
	for _, arg := range args {
		if arg.Name == name {
			return arg
		}
	}
	return nil
}

func firstString(args []*Argument) (string, bool) {
	for _, arg := range args {
		if arg.IsNamed() && arg.Name != "name" && arg.Name != "map" {
			continue
		}
		if s, ok := arg.Value.(*StringValue); ok {
			return s.Value, true
		}
	}
	return "", false
}
