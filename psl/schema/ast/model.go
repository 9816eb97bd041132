package ast

import (
	"strings"

	"github.com/alecthomas/participle/v2/lexer"
)

// MemberKind identifies the kind of a model member.
type MemberKind string

const (
	MemberField     MemberKind = "field"
	MemberAttribute MemberKind = "attribute"
)

// Member is an entry in a model body: a field or a block attribute.
type Member interface {
	Kind() MemberKind
	Position() lexer.Position
}

// Model is a model or view declaration.
type Model struct {
	Pos     lexer.Position
	Keyword string         `@("model" | "view")`
	Name    string         `@(Ident | Keyword)`
	Body    []*modelMember `"{" @@* "}"`

	docs    []*Comment
	members []Member
}

type modelMember struct {
	Comment   *Comment        `  @@`
	Attribute *BlockAttribute `| @@`
	Field     *Field          `| @@`
}

// Kind returns KindModel or KindView.
func (m *Model) Kind() DeclarationKind {
	if m.Keyword == "view" {
		return KindView
	}
	return KindModel
}

// GetName returns the model name.
func (m *Model) GetName() string { return m.Name }

// GetDocumentation returns the doc comments preceding the model.
func (m *Model) GetDocumentation() string { return joinComments(m.docs) }

// Position returns the position of the model keyword.
func (m *Model) Position() lexer.Position { return m.Pos }

// IsView reports whether the declaration is a view.
func (m *Model) IsView() bool { return m.Keyword == "view" }

// Members returns fields and block attributes in source order.
func (m *Model) Members() []Member { return m.members }

// Fields returns the model fields in source order.
func (m *Model) Fields() []*Field {
	var result []*Field
	for _, member := range m.members {
		if f, ok := member.(*Field); ok {
			result = append(result, f)
		}
	}
	return result
}

// BlockAttributes returns the @@ attributes of the model.
func (m *Model) BlockAttributes() []*BlockAttribute {
	var result []*BlockAttribute
	for _, member := range m.members {
		if a, ok := member.(*BlockAttribute); ok {
			result = append(result, a)
		}
	}
	return result
}

// FindField returns the field with the given name.
func (m *Model) FindField(name string) *Field {
	for _, f := range m.Fields() {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// DatabaseName returns the @@map name of the model, or its name.
func (m *Model) DatabaseName() string {
	for _, attr := range m.BlockAttributes() {
		if attr.Name == "map" {
			if v, ok := attr.FirstStringArgument(); ok {
				return v
			}
		}
	}
	return m.Name
}

func (m *Model) resolve(docs []*Comment) {
	m.docs = docs
	m.members = resolveMembers(m.Body)
}

func resolveMembers(body []*modelMember) []Member {
	var (
		members  []Member
		attacher docAttacher
	)
	for _, item := range body {
		switch {
		case item.Comment != nil:
			attacher.comment(item.Comment)
		case item.Field != nil:
			f := item.Field
			f.docs = attacher.take(f.Pos, func(c *Comment) { f.trailing = append(f.trailing, c) })
			members = append(members, f)
		case item.Attribute != nil:
			attacher.reset()
			members = append(members, item.Attribute)
		}
	}
	return members
}

// FieldType is the type of a field, including Unsupported("...") types.
type FieldType struct {
	Pos  lexer.Position
	Name string  `@(Ident | Keyword)`
	Raw  *string `("(" @String ")")?`
}

// String returns the type as written in the schema.
func (t *FieldType) String() string {
	if t == nil {
		return ""
	}
	if t.Raw != nil {
		return t.Name + `("` + *t.Raw + `")`
	}
	return t.Name
}

// IsUnsupported reports whether the type is Unsupported("...").
func (t *FieldType) IsUnsupported() bool {
	return t != nil && t.Name == "Unsupported"
}

// Field is a model or composite type field.
type Field struct {
	Pos        lexer.Position
	Name       string       `@(Ident | Keyword)`
	Type       *FieldType   `@@`
	List       bool         `@("[" "]")?`
	Optional   bool         `@"?"?`
	Attributes []*Attribute `@@*`

	docs     []*Comment
	trailing []*Comment
}

// Kind returns MemberField.
func (f *Field) Kind() MemberKind { return MemberField }

// Position returns the position of the field name.
func (f *Field) Position() lexer.Position { return f.Pos }

// GetName returns the field name.
func (f *Field) GetName() string { return f.Name }

// GetDocumentation returns the /// lines preceding the field.
func (f *Field) GetDocumentation() string { return joinComments(f.docs) }

// TrailingComment returns the /// or // comment on the same line as the field.
func (f *Field) TrailingComment() string { return joinComments(f.trailing) }

// Comment returns the whole comment attached to the field: the preceding
// doc lines followed by the trailing comment.
func (f *Field) Comment() string {
	all := make([]*Comment, 0, len(f.docs)+len(f.trailing))
	all = append(all, f.docs...)
	all = append(all, f.trailing...)
	return joinComments(all)
}

// HasComment reports whether any comment is attached to the field.
func (f *Field) HasComment() bool {
	return len(f.docs) > 0 || len(f.trailing) > 0
}

// Attribute returns the field attribute with the given name.
func (f *Field) Attribute(name string) *Attribute {
	for _, attr := range f.Attributes {
		if attr.Name == name {
			return attr
		}
	}
	return nil
}

// DatabaseName returns the @map name of the field, or its name.
func (f *Field) DatabaseName() string {
	if attr := f.Attribute("map"); attr != nil {
		if v, ok := attr.FirstStringArgument(); ok {
			return v
		}
	}
	return f.Name
}

// String returns a compact "name Type?" representation.
func (f *Field) String() string {
	var b strings.Builder
	b.WriteString(f.Name)
	b.WriteString(" ")
	b.WriteString(f.Type.String())
	if f.List {
		b.WriteString("[]")
	}
	if f.Optional {
		b.WriteString("?")
	}
	return b.String()
}

// CompositeType is a type declaration (MongoDB composite type).
type CompositeType struct {
	Pos     lexer.Position
	Keyword string         `@"type"`
	Name    string         `@(Ident | Keyword)`
	Body    []*modelMember `"{" @@* "}"`

	docs    []*Comment
	members []Member
}

// Kind returns KindCompositeType.
func (c *CompositeType) Kind() DeclarationKind { return KindCompositeType }

// GetName returns the type name.
func (c *CompositeType) GetName() string { return c.Name }

// GetDocumentation returns the doc comments preceding the type.
func (c *CompositeType) GetDocumentation() string { return joinComments(c.docs) }

// Position returns the position of the type keyword.
func (c *CompositeType) Position() lexer.Position { return c.Pos }

// Fields returns the fields of the composite type.
func (c *CompositeType) Fields() []*Field {
	var result []*Field
	for _, member := range c.members {
		if f, ok := member.(*Field); ok {
			result = append(result, f)
		}
	}
	return result
}

func (c *CompositeType) resolve(docs []*Comment) {
	c.docs = docs
	c.members = resolveMembers(c.Body)
}
