package ast

import (
	"github.com/alecthomas/participle/v2/lexer"
)

// File is the raw parse tree of a schema file. Schema() turns it into the
// resolved tree with comments attached to their declarations.
type File struct {
	Pos   lexer.Position
	Items []*topItem `@@*`
}

type topItem struct {
	Comment       *Comment       `  @@`
	Model         *Model         `| @@`
	Enum          *Enum          `| @@`
	CompositeType *CompositeType `| @@`
	Config        *ConfigBlock   `| @@`
}

// Schema resolves comments and returns the declarations in source order.
func (f *File) Schema(filename string) *Schema {
	var (
		decls    []Declaration
		attacher docAttacher
	)
	for _, item := range f.Items {
		switch {
		case item.Comment != nil:
			attacher.comment(item.Comment)
		case item.Model != nil:
			item.Model.resolve(attacher.take(item.Model.Pos, nil))
			decls = append(decls, item.Model)
		case item.Enum != nil:
			item.Enum.resolve(attacher.take(item.Enum.Pos, nil))
			decls = append(decls, item.Enum)
		case item.CompositeType != nil:
			item.CompositeType.resolve(attacher.take(item.CompositeType.Pos, nil))
			decls = append(decls, item.CompositeType)
		case item.Config != nil:
			item.Config.docs = attacher.take(item.Config.Pos, nil)
			decls = append(decls, item.Config)
		}
	}
	return NewSchema(filename, decls)
}
