// Package ast defines the syntax tree produced by the Prisma schema parser.
package ast

import (
	"github.com/alecthomas/participle/v2/lexer"
)

// DeclarationKind identifies the kind of a top-level declaration.
type DeclarationKind string

const (
	KindDatasource    DeclarationKind = "datasource"
	KindGenerator     DeclarationKind = "generator"
	KindModel         DeclarationKind = "model"
	KindView          DeclarationKind = "view"
	KindEnum          DeclarationKind = "enum"
	KindCompositeType DeclarationKind = "type"
)

// Declaration is a top-level block in a schema file.
type Declaration interface {
	Kind() DeclarationKind
	GetName() string
	GetDocumentation() string
	Position() lexer.Position
}

// Schema is a parsed Prisma schema.
type Schema struct {
	Filename     string
	declarations []Declaration
}

// NewSchema creates a schema from declarations in source order.
func NewSchema(filename string, decls []Declaration) *Schema {
	return &Schema{Filename: filename, declarations: decls}
}

// Declarations returns all top-level declarations in source order.
func (s *Schema) Declarations() []Declaration {
	if s == nil {
		return nil
	}
	return s.declarations
}

// Models returns the model declarations. Views are not included.
func (s *Schema) Models() []*Model {
	var result []*Model
	for _, decl := range s.Declarations() {
		if decl.Kind() != KindModel {
			continue
		}
		result = append(result, decl.(*Model))
	}
	return result
}

// Views returns the view declarations.
func (s *Schema) Views() []*Model {
	var result []*Model
	for _, decl := range s.Declarations() {
		if decl.Kind() == KindView {
			result = append(result, decl.(*Model))
		}
	}
	return result
}

// Enums returns the enum declarations.
func (s *Schema) Enums() []*Enum {
	var result []*Enum
	for _, decl := range s.Declarations() {
		if e, ok := decl.(*Enum); ok {
			result = append(result, e)
		}
	}
	return result
}

// Datasources returns the datasource blocks.
func (s *Schema) Datasources() []*ConfigBlock {
	return s.configBlocks(KindDatasource)
}

// Generators returns the generator blocks.
func (s *Schema) Generators() []*ConfigBlock {
	return s.configBlocks(KindGenerator)
}

func (s *Schema) configBlocks(kind DeclarationKind) []*ConfigBlock {
	var result []*ConfigBlock
	for _, decl := range s.Declarations() {
		if decl.Kind() == kind {
			result = append(result, decl.(*ConfigBlock))
		}
	}
	return result
}

// FindModel returns the model with the given name.
func (s *Schema) FindModel(name string) *Model {
	for _, m := range s.Models() {
		if m.GetName() == name {
			return m
		}
	}
	return nil
}

// Provider returns the provider of the first datasource, or "" when the
// schema declares none.
func (s *Schema) Provider() string {
	for _, ds := range s.Datasources() {
		if prop := ds.GetProperty("provider"); prop != nil {
			if str, ok := prop.Value.(*StringValue); ok {
				return str.Value
			}
		}
	}
	return ""
}

// DatasourceURL returns the url of the first datasource. A literal is
// returned as value; for env("NAME") the variable name is returned as env.
func (s *Schema) DatasourceURL() (value, env string) {
	for _, ds := range s.Datasources() {
		prop := ds.GetProperty("url")
		if prop == nil {
			continue
		}
		switch v := prop.Value.(type) {
		case *StringValue:
			return v.Value, ""
		case *FunctionCall:
			if v.Name == "env" && len(v.Arguments) > 0 {
				if str, ok := v.Arguments[0].Value.(*StringValue); ok {
					return "", str.Value
				}
			}
		}
	}
	return "", ""
}
