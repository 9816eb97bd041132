package ast

import (
	"github.com/alecthomas/participle/v2/lexer"
)

// Enum is an enum declaration.
type Enum struct {
	Pos     lexer.Position
	Keyword string        `@"enum"`
	Name    string        `@(Ident | Keyword)`
	Body    []*enumMember `"{" @@* "}"`

	docs   []*Comment
	values []*EnumValue
}

type enumMember struct {
	Comment   *Comment        `  @@`
	Attribute *BlockAttribute `| @@`
	Value     *EnumValue      `| @@`
}

// Kind returns KindEnum.
func (e *Enum) Kind() DeclarationKind { return KindEnum }

// GetName returns the enum name.
func (e *Enum) GetName() string { return e.Name }

// GetDocumentation returns the doc comments preceding the enum.
func (e *Enum) GetDocumentation() string { return joinComments(e.docs) }

// Position returns the position of the enum keyword.
func (e *Enum) Position() lexer.Position { return e.Pos }

// Values returns the enum values in source order.
func (e *Enum) Values() []*EnumValue { return e.values }

func (e *Enum) resolve(docs []*Comment) {
	e.docs = docs
	var attacher docAttacher
	for _, item := range e.Body {
		switch {
		case item.Comment != nil:
			attacher.comment(item.Comment)
		case item.Value != nil:
			v := item.Value
			v.docs = attacher.take(v.Pos, nil)
			e.values = append(e.values, v)
		default:
			attacher.reset()
		}
	}
}

// EnumValue is a single enum value.
type EnumValue struct {
	Pos        lexer.Position
	Name       string       `@(Ident | Keyword)`
	Attributes []*Attribute `@@*`

	docs []*Comment
}

// GetDocumentation returns the doc comments preceding the value.
func (v *EnumValue) GetDocumentation() string { return joinComments(v.docs) }
