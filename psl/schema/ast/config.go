package ast

import (
	"github.com/alecthomas/participle/v2/lexer"
)

// ConfigBlock is a datasource or generator block.
type ConfigBlock struct {
	Pos     lexer.Position
	Keyword string          `@("datasource" | "generator")`
	Name    string          `@(Ident | Keyword)`
	Body    []*configMember `"{" @@* "}"`

	docs []*Comment
}

type configMember struct {
	Comment  *Comment  `  @@`
	Property *Property `| @@`
}

// Property is a key = value entry of a config block.
type Property struct {
	Pos   lexer.Position
	Name  string     `@(Ident | Keyword)`
	Value Expression `"=" @@`
}

// Kind returns KindDatasource or KindGenerator.
func (c *ConfigBlock) Kind() DeclarationKind {
	if c.Keyword == "generator" {
		return KindGenerator
	}
	return KindDatasource
}

// GetName returns the block name.
func (c *ConfigBlock) GetName() string { return c.Name }

// GetDocumentation returns the doc comments preceding the block.
func (c *ConfigBlock) GetDocumentation() string { return joinComments(c.docs) }

// Position returns the position of the block keyword.
func (c *ConfigBlock) Position() lexer.Position { return c.Pos }

// Properties returns the key/value entries in source order.
func (c *ConfigBlock) Properties() []*Property {
	var result []*Property
	for _, item := range c.Body {
		if item.Property != nil {
			result = append(result, item.Property)
		}
	}
	return result
}

// GetProperty returns the property with the given name, or nil.
func (c *ConfigBlock) GetProperty(name string) *Property {
	for _, prop := range c.Properties() {
		if prop.Name == name {
			return prop
		}
	}
	return nil
}
