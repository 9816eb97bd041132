// Package schema parses Prisma schema files using Participle.
package schema

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"

	"github.com/satishbabariya/prisma-rls/psl/schema/ast"
)

var parser = participle.MustBuild[ast.File](
	participle.Lexer(Lexer),
	participle.Elide("Whitespace", "Newline", "MultiLineComment"),
	participle.Unquote("String"),
	participle.UseLookahead(10),
	participle.Union[ast.Expression](
		&ast.FunctionCall{},
		&ast.ArrayExpression{},
		&ast.StringValue{},
		&ast.NumericValue{},
		&ast.ConstantValue{},
	),
)

// ParseError is returned when the schema text does not match the grammar.
type ParseError struct {
	Pos     lexer.Position
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s:%d:%d: %s", e.Pos.Filename, e.Pos.Line, e.Pos.Column, e.Message)
}

// Parse parses a Prisma schema from r.
func Parse(filename string, r io.Reader) (*ast.Schema, error) {
	file, err := parser.Parse(filename, r)
	if err != nil {
		return nil, toParseError(filename, err)
	}
	return file.Schema(filename), nil
}

// ParseString parses a Prisma schema from a string.
func ParseString(filename, input string) (*ast.Schema, error) {
	return Parse(filename, strings.NewReader(input))
}

// MustParseString parses a Prisma schema from a string, panicking on error.
func MustParseString(filename, input string) *ast.Schema {
	s, err := ParseString(filename, input)
	if err != nil {
		panic(err)
	}
	return s
}

func toParseError(filename string, err error) error {
	var perr participle.Error
	if errors.As(err, &perr) {
		pos := perr.Position()
		if pos.Filename == "" {
			pos.Filename = filename
		}
		return &ParseError{Pos: pos, Message: perr.Message()}
	}
	// Reader failures are not grammar errors.
	return err
}
