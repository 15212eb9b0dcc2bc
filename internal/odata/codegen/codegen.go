// Package codegen emits typed Go wrappers over model records.
//
// Each entity or complex type becomes a struct embedding *model.Record with
// one accessor per flattened property. Enum types become string types with
// one constant per member. The generated code relies on the registry at run
// time: it only narrows the record API, it does not duplicate the schema.
package codegen

import (
	"bytes"
	"fmt"
	"go/ast"
	"go/format"
	"go/token"
	"sort"

	"golang.org/x/tools/imports"

	"github.com/custodia-labs/msgraph-cli/internal/core/domain"
	"github.com/custodia-labs/msgraph-cli/internal/odata/model"
)

// DefaultModelImport is the import path of the record runtime.
const DefaultModelImport = "github.com/custodia-labs/msgraph-cli/internal/odata/model"

// Header marks generated files.
const Header = "// Code generated by msgraph generate. DO NOT EDIT."

// File collects schema types and renders them as one Go source file.
type File struct {
	pkg         string
	modelImport string
	fileSet     *token.FileSet
	types       map[string]*model.Descriptor
	goNames     map[string]string
}

// NewFile creates an empty file for the named package.
func NewFile(packageName string) *File {
	return &File{
		pkg:         packageName,
		modelImport: DefaultModelImport,
		fileSet:     token.NewFileSet(),
		types:       make(map[string]*model.Descriptor),
		goNames:     make(map[string]string),
	}
}

// SetModelImport overrides the import path of the model package.
func (f *File) SetModelImport(path string) {
	f.modelImport = path
}

// Len returns the number of queued types.
func (f *File) Len() int {
	return len(f.types)
}

// AddType queues a type for generation. Adding a type twice is a no-op.
// Two schema types whose Go names collide are rejected.
func (f *File) AddType(d *model.Descriptor) error {
	if d == nil {
		return fmt.Errorf("nil type: %w", domain.ErrInvalidInput)
	}
	if _, ok := f.types[d.Name]; ok {
		return nil
	}
	goName := TypeName(d.Name)
	if other, ok := f.goNames[goName]; ok {
		return fmt.Errorf("types %s and %s both generate %s: %w", other, d.Name, goName, domain.ErrInvalidInput)
	}
	f.types[d.Name] = d
	f.goNames[goName] = d.Name
	return nil
}

// declaration is a top-level node with its doc comment.
type declaration struct {
	doc  string
	node ast.Node
}

// Flush renders every queued type in name order and returns gofmt'ed
// source with unused imports removed.
func (f *File) Flush() ([]byte, error) {
	names := make([]string, 0, len(f.types))
	for name := range f.types {
		names = append(names, name)
	}
	sort.Strings(names)

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "%s\n\npackage %s\n\n", Header, f.pkg)
	fmt.Fprintf(&buf, "import (\n\t\"time\"\n\n\tmodel %q\n)\n", f.modelImport)

	for _, name := range names {
		d := f.types[name]
		var decls []declaration
		if d.Kind == domain.KindEnum {
			decls = f.enumDecls(d)
		} else {
			decls = f.structDecls(d)
		}
		for _, decl := range decls {
			buf.WriteString("\n")
			if decl.doc != "" {
				buf.WriteString("// " + decl.doc + "\n")
			}
			if err := format.Node(&buf, f.fileSet, decl.node); err != nil {
				return nil, fmt.Errorf("format %s: %w", name, err)
			}
			buf.WriteString("\n")
		}
	}

	out, err := imports.Process(f.pkg+".go", buf.Bytes(), &imports.Options{
		Comments:  true,
		TabIndent: true,
		TabWidth:  8,
	})
	if err != nil {
		return nil, fmt.Errorf("tidy generated source: %w", err)
	}
	return out, nil
}

func (f *File) enumDecls(d *model.Descriptor) []declaration {
	goName := TypeName(d.Name)
	consts := &ast.GenDecl{Tok: token.CONST}
	for _, m := range d.Members {
		consts.Specs = append(consts.Specs, &ast.ValueSpec{
			Names:  []*ast.Ident{ast.NewIdent(goName + ExportName(m.Name))},
			Type:   ast.NewIdent(goName),
			Values: []ast.Expr{str(m.Name)},
		})
	}

	decls := []declaration{{
		doc: fmt.Sprintf("%s is the %s enumeration.", goName, d.Name),
		node: &ast.GenDecl{Tok: token.TYPE, Specs: []ast.Spec{&ast.TypeSpec{
			Name: ast.NewIdent(goName),
			Type: ast.NewIdent("string"),
		}}},
	}}
	if len(consts.Specs) > 0 {
		decls = append(decls, declaration{
			doc:  fmt.Sprintf("Members of %s.", goName),
			node: consts,
		})
	}
	return decls
}

func (f *File) structDecls(d *model.Descriptor) []declaration {
	goName := TypeName(d.Name)
	typeConst := "Type" + goName
	zero := &ast.CompositeLit{Type: ast.NewIdent(goName)}

	decls := []declaration{
		{
			doc: fmt.Sprintf("%s is the schema name of %s.", typeConst, goName),
			node: &ast.GenDecl{Tok: token.CONST, Specs: []ast.Spec{&ast.ValueSpec{
				Names:  []*ast.Ident{ast.NewIdent(typeConst)},
				Values: []ast.Expr{str(d.Name)},
			}}},
		},
		{
			doc: fmt.Sprintf("%s is a %s record.", goName, d.QualifiedName()),
			node: &ast.GenDecl{Tok: token.TYPE, Specs: []ast.Spec{&ast.TypeSpec{
				Name: ast.NewIdent(goName),
				Type: &ast.StructType{Fields: &ast.FieldList{List: []*ast.Field{
					{Type: &ast.StarExpr{X: sel("model", "Record")}},
				}}},
			}}},
		},
		{
			doc: fmt.Sprintf("As%s returns rec as a %s if its type is or derives from %s.", goName, goName, d.Name),
			node: &ast.FuncDecl{
				Name: ast.NewIdent("As" + goName),
				Type: &ast.FuncType{
					Params:  fields(field("rec", &ast.StarExpr{X: sel("model", "Record")})),
					Results: fields(field("", ast.NewIdent(goName)), field("", ast.NewIdent("bool"))),
				},
				Body: block(
					&ast.IfStmt{
						Cond: &ast.BinaryExpr{
							X:  &ast.BinaryExpr{X: ast.NewIdent("rec"), Op: token.EQL, Y: ast.NewIdent("nil")},
							Op: token.LOR,
							Y:  &ast.UnaryExpr{Op: token.NOT, X: call(sel("rec", "Is"), ast.NewIdent(typeConst))},
						},
						Body: block(ret(zero, ast.NewIdent("false"))),
					},
					ret(&ast.CompositeLit{Type: ast.NewIdent(goName), Elts: []ast.Expr{ast.NewIdent("rec")}}, ast.NewIdent("true")),
				),
			},
		},
	}

	used := reservedMethods()
	props := append(append([]domain.Property(nil), d.Properties...), d.Navigation...)
	for _, p := range props {
		name := uniqueName(ExportName(p.Name), used)
		results, body := f.accessor(p)
		decls = append(decls, declaration{
			doc: fmt.Sprintf("%s returns the %s field.", name, p.Name),
			node: &ast.FuncDecl{
				Recv: fields(field("x", ast.NewIdent(goName))),
				Name: ast.NewIdent(name),
				Type: &ast.FuncType{Params: &ast.FieldList{}, Results: results},
				Body: block(body...),
			},
		})
	}
	return decls
}

// accessor returns the result list and body of the getter for p.
func (f *File) accessor(p domain.Property) (*ast.FieldList, []ast.Stmt) {
	recv := sel("x", "Record")
	errType := ast.NewIdent("error")
	delegate := func(method string, result ast.Expr) (*ast.FieldList, []ast.Stmt) {
		return fields(field("", result), field("", errType)),
			[]ast.Stmt{ret(call(&ast.SelectorExpr{X: recv, Sel: ast.NewIdent(method)}, str(p.Name)))}
	}

	t := p.Type
	if t.Collection {
		switch t.Category {
		case domain.CategoryText, domain.CategoryEnum:
			return delegate("Strings", &ast.ArrayType{Elt: ast.NewIdent("string")})
		case domain.CategoryStructured:
			if target, ok := f.generated(t.Name); ok {
				return f.wrapList(p.Name, target)
			}
			return delegate("NestedList", &ast.ArrayType{Elt: &ast.StarExpr{X: sel("model", "Record")}})
		}
		return fields(field("", ast.NewIdent("any")), field("", ast.NewIdent("bool"))),
			[]ast.Stmt{ret(call(&ast.SelectorExpr{X: recv, Sel: ast.NewIdent("Get")}, str(p.Name)))}
	}

	switch t.Category {
	case domain.CategoryInteger:
		return delegate("Int64", ast.NewIdent("int64"))
	case domain.CategoryFloat:
		return delegate("Float64", ast.NewIdent("float64"))
	case domain.CategoryBoolean:
		return delegate("Bool", ast.NewIdent("bool"))
	case domain.CategoryDate:
		return delegate("Date", sel("time", "Time"))
	case domain.CategoryDateTime:
		return delegate("Time", sel("time", "Time"))
	case domain.CategoryDuration:
		return delegate("Duration", sel("time", "Duration"))
	case domain.CategoryBinary:
		return delegate("Bytes", &ast.ArrayType{Elt: ast.NewIdent("byte")})
	case domain.CategoryEnum:
		target, ok := f.generated(t.Name)
		if !ok {
			return delegate("String", ast.NewIdent("string"))
		}
		return fields(field("", ast.NewIdent(target)), field("", errType)), []ast.Stmt{
			define([]string{"v", "err"}, call(&ast.SelectorExpr{X: recv, Sel: ast.NewIdent("String")}, str(p.Name))),
			ret(call(ast.NewIdent(target), ast.NewIdent("v")), ast.NewIdent("err")),
		}
	case domain.CategoryStructured:
		target, ok := f.generated(t.Name)
		if !ok {
			return delegate("Nested", &ast.StarExpr{X: sel("model", "Record")})
		}
		return fields(field("", ast.NewIdent(target)), field("", errType)), []ast.Stmt{
			define([]string{"rec", "err"}, call(&ast.SelectorExpr{X: recv, Sel: ast.NewIdent("Nested")}, str(p.Name))),
			ifErr(&ast.CompositeLit{Type: ast.NewIdent(target)}),
			ret(&ast.CompositeLit{Type: ast.NewIdent(target), Elts: []ast.Expr{ast.NewIdent("rec")}}, ast.NewIdent("nil")),
		}
	}
	return delegate("String", ast.NewIdent("string"))
}

// wrapList converts NestedList's records into generated wrappers.
func (f *File) wrapList(name, target string) (*ast.FieldList, []ast.Stmt) {
	slice := &ast.ArrayType{Elt: ast.NewIdent(target)}
	return fields(field("", slice), field("", ast.NewIdent("error"))), []ast.Stmt{
		define([]string{"recs", "err"}, call(&ast.SelectorExpr{X: sel("x", "Record"), Sel: ast.NewIdent("NestedList")}, str(name))),
		ifErr(ast.NewIdent("nil")),
		define([]string{"out"}, call(ast.NewIdent("make"), slice, call(ast.NewIdent("len"), ast.NewIdent("recs")))),
		&ast.RangeStmt{
			Key:   ast.NewIdent("i"),
			Value: ast.NewIdent("rec"),
			Tok:   token.DEFINE,
			X:     ast.NewIdent("recs"),
			Body: block(&ast.AssignStmt{
				Lhs: []ast.Expr{&ast.IndexExpr{X: ast.NewIdent("out"), Index: ast.NewIdent("i")}},
				Tok: token.ASSIGN,
				Rhs: []ast.Expr{&ast.CompositeLit{Type: ast.NewIdent(target), Elts: []ast.Expr{ast.NewIdent("rec")}}},
			}),
		},
		ret(ast.NewIdent("out"), ast.NewIdent("nil")),
	}
}

// generated returns the Go name of a schema type queued in this file.
func (f *File) generated(schemaName string) (string, bool) {
	if _, ok := f.types[schemaName]; !ok {
		return "", false
	}
	return TypeName(schemaName), true
}
