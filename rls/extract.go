// Package rls derives PostgreSQL row-level-security statements from @RLS
// annotations in a Prisma schema and appends them to migration scripts.
package rls

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/spf13/afero"

	"github.com/satishbabariya/prisma-rls/psl/schema"
	"github.com/satishbabariya/prisma-rls/psl/schema/ast"
)

// Marker is the annotation that opts a field into row-level security.
const Marker = "@RLS"

var (
	// ErrFileAccess wraps failures to read or write schema and migration files.
	ErrFileAccess = errors.New("file access error")
	// ErrParse wraps schema grammar errors.
	ErrParse = errors.New("schema parse error")
)

// Model identifies one table/column pair that needs an RLS policy.
type Model struct {
	Table  string
	Column string
}

// Annotation holds the overrides found in an @RLS comment. Empty values
// mean "not given".
type Annotation struct {
	Table  string
	Column string
}

// AnnotationParser reads an @RLS annotation from a field comment.
type AnnotationParser interface {
	Parse(comment string) (Annotation, bool)
}

var (
	tableOverride  = regexp.MustCompile(`table: "([^"]+)"`)
	columnOverride = regexp.MustCompile(`column: "([^"]+)"`)
)

// CommentParser recognises the @RLS marker anywhere in a comment and the
// optional table: "X" and column: "Y" hints.
type CommentParser struct{}

// Parse implements AnnotationParser.
func (CommentParser) Parse(comment string) (Annotation, bool) {
	if !strings.Contains(comment, Marker) {
		return Annotation{}, false
	}
	var a Annotation
	if m := tableOverride.FindStringSubmatch(comment); m != nil {
		a.Table = m[1]
	}
	if m := columnOverride.FindStringSubmatch(comment); m != nil {
		a.Column = m[1]
	}
	return a, true
}

// Extractor collects RLS models from a parsed schema.
type Extractor struct {
	Parser AnnotationParser
}

// NewExtractor returns an extractor using CommentParser.
func NewExtractor() *Extractor {
	return &Extractor{Parser: CommentParser{}}
}

// Extract walks the models of s in declaration order and returns one Model
// per annotated field. The table defaults to the model name and the column
// to the field name.
func (e *Extractor) Extract(s *ast.Schema) []Model {
	var result []Model
	for _, model := range s.Models() {
		for _, field := range model.Fields() {
			if !field.HasComment() {
				continue
			}
			a, ok := e.Parser.Parse(field.Comment())
			if !ok {
				continue
			}
			m := Model{Table: model.GetName(), Column: field.GetName()}
			if a.Table != "" {
				m.Table = a.Table
			}
			if a.Column != "" {
				m.Column = a.Column
			}
			result = append(result, m)
		}
	}
	return result
}

// ExtractFile reads and parses the schema at path and extracts its models.
func (e *Extractor) ExtractFile(fs afero.Fs, path string) ([]Model, error) {
	s, err := ParseSchemaFile(fs, path)
	if err != nil {
		return nil, err
	}
	return e.Extract(s), nil
}

// ParseSchemaFile reads and parses the schema at path. Errors wrap
// ErrFileAccess or ErrParse.
func ParseSchemaFile(fs afero.Fs, path string) (*ast.Schema, error) {
	content, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read schema file: %w", ErrFileAccess, err)
	}
	s, err := schema.ParseString(path, string(content))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrParse, err)
	}
	return s, nil
}

// Extract extracts models from s with the default comment parser.
func Extract(s *ast.Schema) []Model {
	return NewExtractor().Extract(s)
}

// ExtractFile extracts models from the schema file at path with the
// default comment parser.
func ExtractFile(fs afero.Fs, path string) ([]Model, error) {
	return NewExtractor().ExtractFile(fs, path)
}
