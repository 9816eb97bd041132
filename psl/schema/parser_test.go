package schema

import (
	"errors"
	"testing"

	"github.com/satishbabariya/prisma-rls/psl/schema/ast"
)

func TestParseBasicModel(t *testing.T) {
	input := `
model User {
  id    Int    @id @default(autoincrement())
  email String @unique
  name  String?
  posts Post[]
}
`
	s, err := ParseString("test.prisma", input)
	if err != nil {
		t.Fatalf("Failed to parse schema: %v", err)
	}

	models := s.Models()
	if len(models) != 1 {
		t.Fatalf("Expected 1 model, got %d", len(models))
	}

	model := models[0]
	if model.GetName() != "User" {
		t.Errorf("Expected model name 'User', got '%s'", model.GetName())
	}

	fields := model.Fields()
	if len(fields) != 4 {
		t.Fatalf("Expected 4 fields, got %d", len(fields))
	}
	if !fields[2].Optional {
		t.Errorf("Expected 'name' to be optional")
	}
	if !fields[3].List {
		t.Errorf("Expected 'posts' to be a list")
	}
	if got := fields[0].Attributes[1].String(); got != "@default(autoincrement())" {
		t.Errorf("Unexpected attribute rendering: %s", got)
	}
}

func TestParseDeclarationKinds(t *testing.T) {
	input := `
datasource db {
  provider = "postgresql"
  url      = env("DATABASE_URL")
}

generator client {
  provider        = "prisma-client-js"
  previewFeatures = ["views"]
}

enum Role {
  USER
  ADMIN
  MODERATOR @map("mod")
}

model User {
  id   Int  @id
  role Role @default(USER)
}

view UserInfo {
  id Int @unique
}

type Address {
  street String
}
`
	s, err := ParseString("test.prisma", input)
	if err != nil {
		t.Fatalf("Failed to parse schema: %v", err)
	}

	want := []ast.DeclarationKind{
		ast.KindDatasource, ast.KindGenerator, ast.KindEnum,
		ast.KindModel, ast.KindView, ast.KindCompositeType,
	}
	decls := s.Declarations()
	if len(decls) != len(want) {
		t.Fatalf("Expected %d declarations, got %d", len(want), len(decls))
	}
	for i, kind := range want {
		if decls[i].Kind() != kind {
			t.Errorf("Declaration %d: expected kind %s, got %s", i, kind, decls[i].Kind())
		}
	}

	if len(s.Models()) != 1 {
		t.Errorf("Views must not be reported as models, got %d models", len(s.Models()))
	}
	if s.Provider() != "postgresql" {
		t.Errorf("Expected provider 'postgresql', got '%s'", s.Provider())
	}
	if n := len(s.Enums()[0].Values()); n != 3 {
		t.Errorf("Expected 3 enum values, got %d", n)
	}
}

func TestParseDocComments(t *testing.T) {
	input := `
/// A tenant-owned record.
model Post {
  id       Int    @id
  /// Owning tenant.
  /// @RLS
  tenantId String
  authorId Int    /// @RLS column: "author_id"
  // plain comments are dropped
  title    String

  @@index([tenantId])
}
`
	s, err := ParseString("test.prisma", input)
	if err != nil {
		t.Fatalf("Failed to parse schema: %v", err)
	}

	model := s.FindModel("Post")
	if model == nil {
		t.Fatal("Model Post not found")
	}
	if model.GetDocumentation() != " A tenant-owned record." {
		t.Errorf("Unexpected model documentation: %q", model.GetDocumentation())
	}

	tenant := model.FindField("tenantId")
	if got := tenant.Comment(); got != " Owning tenant.\n @RLS" {
		t.Errorf("Unexpected tenantId comment: %q", got)
	}

	author := model.FindField("authorId")
	if got := author.TrailingComment(); got != ` @RLS column: "author_id"` {
		t.Errorf("Unexpected authorId trailing comment: %q", got)
	}
	if author.GetDocumentation() != "" {
		t.Errorf("Trailing comment must not be documentation: %q", author.GetDocumentation())
	}

	title := model.FindField("title")
	if title.HasComment() {
		t.Errorf("Expected no comment on title, got %q", title.Comment())
	}

	members := model.Members()
	if len(members) != 5 {
		t.Fatalf("Expected 5 members, got %d", len(members))
	}
	if members[4].Kind() != ast.MemberAttribute {
		t.Errorf("Expected last member to be a block attribute, got %s", members[4].Kind())
	}
}

func TestParseTrailingCommentOnLastField(t *testing.T) {
	input := `
model Account {
  id  Int    @id
  org String /// @RLS
}
`
	s, err := ParseString("test.prisma", input)
	if err != nil {
		t.Fatalf("Failed to parse schema: %v", err)
	}
	org := s.FindModel("Account").FindField("org")
	if org.Comment() != " @RLS" {
		t.Errorf("Unexpected comment: %q", org.Comment())
	}
}

func TestParsePlainTrailingComment(t *testing.T) {
	input := `
// plain comments do not document the model
model Account {
  id       Int    @id // primary key
  // not attached to org
  org      String
  tenantId String @default("t") // @RLS column: "tenant_id"
}
`
	s, err := ParseString("test.prisma", input)
	if err != nil {
		t.Fatalf("Failed to parse schema: %v", err)
	}
	model := s.FindModel("Account")
	if model.GetDocumentation() != "" {
		t.Errorf("Plain comment must not be documentation: %q", model.GetDocumentation())
	}
	if got := model.FindField("id").TrailingComment(); got != " primary key" {
		t.Errorf("Unexpected id trailing comment: %q", got)
	}
	if org := model.FindField("org"); org.HasComment() {
		t.Errorf("Expected no comment on org, got %q", org.Comment())
	}
	if got := model.FindField("tenantId").Comment(); got != ` @RLS column: "tenant_id"` {
		t.Errorf("Unexpected tenantId comment: %q", got)
	}
}

func TestParseCRLFComments(t *testing.T) {
	input := "model User {\r\n  id Int @id\r\n  /// Owning tenant.\r\n  tenantId String /// @RLS\r\n  org String // note\r\n}\r\n"
	s, err := ParseString("test.prisma", input)
	if err != nil {
		t.Fatalf("Failed to parse schema: %v", err)
	}
	user := s.FindModel("User")
	if got := user.FindField("tenantId").Comment(); got != " Owning tenant.\n @RLS" {
		t.Errorf("Unexpected tenantId comment: %q", got)
	}
	if got := user.FindField("org").Comment(); got != " note" {
		t.Errorf("Unexpected org comment: %q", got)
	}
}

func TestParseMappedNames(t *testing.T) {
	input := `
model User {
  id       Int    @id
  tenantId String @map("tenant_id") @db.Uuid

  @@map("users")
}
`
	s, err := ParseString("test.prisma", input)
	if err != nil {
		t.Fatalf("Failed to parse schema: %v", err)
	}
	user := s.FindModel("User")
	if user.DatabaseName() != "users" {
		t.Errorf("Expected database name 'users', got '%s'", user.DatabaseName())
	}
	field := user.FindField("tenantId")
	if field.DatabaseName() != "tenant_id" {
		t.Errorf("Expected column 'tenant_id', got '%s'", field.DatabaseName())
	}
	if field.Attribute("db.Uuid") == nil {
		t.Errorf("Expected @db.Uuid attribute")
	}
}

func TestParseUnsupportedType(t *testing.T) {
	input := `
model Location {
  id    Int                                  @id
  point Unsupported("geography(Point,4326)")?
}
`
	s, err := ParseString("test.prisma", input)
	if err != nil {
		t.Fatalf("Failed to parse schema: %v", err)
	}
	point := s.FindModel("Location").FindField("point")
	if !point.Type.IsUnsupported() {
		t.Errorf("Expected Unsupported type, got %s", point.Type)
	}
	if !point.Optional {
		t.Errorf("Expected optional field")
	}
}

func TestParseKeywordFieldName(t *testing.T) {
	input := `
model Event {
  id   Int    @id
  type String
}
`
	s, err := ParseString("test.prisma", input)
	if err != nil {
		t.Fatalf("Failed to parse schema: %v", err)
	}
	if s.FindModel("Event").FindField("type") == nil {
		t.Errorf("Expected field named 'type'")
	}
}

func TestParseError(t *testing.T) {
	_, err := ParseString("broken.prisma", "model User {\n  id Int @id\n")
	if err == nil {
		t.Fatal("Expected parse error")
	}
	var perr *ParseError
	if !errors.As(err, &perr) {
		t.Fatalf("Expected *ParseError, got %T", err)
	}
	if perr.Pos.Filename != "broken.prisma" {
		t.Errorf("Expected filename in position, got %q", perr.Pos.Filename)
	}
}

func TestDatasourceURL(t *testing.T) {
	s := MustParseString("test.prisma", `
datasource db {
  provider = "postgresql"
  url      = env("DATABASE_URL")
}
`)
	value, env := s.DatasourceURL()
	if value != "" || env != "DATABASE_URL" {
		t.Errorf("expected env DATABASE_URL, got value=%q env=%q", value, env)
	}

	s = MustParseString("test.prisma", `
datasource db {
  provider = "postgresql"
  url      = "postgres://localhost/app"
}
`)
	value, env = s.DatasourceURL()
	if value != "postgres://localhost/app" || env != "" {
		t.Errorf("expected literal url, got value=%q env=%q", value, env)
	}

	value, env = MustParseString("test.prisma", "model A {\n  id Int @id\n}\n").DatasourceURL()
	if value != "" || env != "" {
		t.Errorf("expected no url, got value=%q env=%q", value, env)
	}
}
