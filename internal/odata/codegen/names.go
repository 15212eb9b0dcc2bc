package codegen

import (
	"go/ast"
	"go/token"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// TypeName converts a canonical schema name to an exported Go identifier:
// "user" becomes "User", "callRecords.session" becomes "CallRecordsSession".
func TypeName(canonical string) string {
	var b strings.Builder
	for _, part := range strings.Split(canonical, ".") {
		b.WriteString(ExportName(part))
	}
	return b.String()
}

// ExportName upper-cases the first letter of a CSDL simple identifier.
func ExportName(name string) string {
	r, size := utf8.DecodeRuneInString(name)
	if r == utf8.RuneError || !unicode.IsLetter(r) {
		return "X" + name
	}
	return string(unicode.ToUpper(r)) + name[size:]
}

// reservedMethods are the names promoted from the embedded *model.Record.
// Accessors must not shadow them.
func reservedMethods() map[string]bool {
	used := make(map[string]bool)
	for _, name := range []string{
		"Record", "Type", "Is", "Get", "Has", "Fields", "Annotation", "ID", "Set", "MarshalJSON",
		"String", "Int64", "Float64", "Bool", "Time", "Date", "Duration", "Bytes", "Strings",
		"Nested", "NestedList",
	} {
		used[name] = true
	}
	return used
}

// uniqueName returns name, or name with a "Field" suffix (and a counter if
// needed) when it is already taken, and marks the result used.
func uniqueName(name string, used map[string]bool) string {
	candidate := name
	if used[candidate] {
		candidate = name + "Field"
		for i := 2; used[candidate]; i++ {
			candidate = name + "Field" + strconv.Itoa(i)
		}
	}
	used[candidate] = true
	return candidate
}

func str(s string) *ast.BasicLit {
	return &ast.BasicLit{Kind: token.STRING, Value: strconv.Quote(s)}
}

func sel(x, name string) *ast.SelectorExpr {
	return &ast.SelectorExpr{X: ast.NewIdent(x), Sel: ast.NewIdent(name)}
}

func call(fun ast.Expr, args ...ast.Expr) *ast.CallExpr {
	return &ast.CallExpr{Fun: fun, Args: args}
}

func field(name string, typ ast.Expr) *ast.Field {
	f := &ast.Field{Type: typ}
	if name != "" {
		f.Names = []*ast.Ident{ast.NewIdent(name)}
	}
	return f
}

func fields(list ...*ast.Field) *ast.FieldList {
	return &ast.FieldList{List: list}
}

func block(stmts ...ast.Stmt) *ast.BlockStmt {
	return &ast.BlockStmt{List: stmts}
}

func ret(results ...ast.Expr) *ast.ReturnStmt {
	return &ast.ReturnStmt{Results: results}
}

func define(names []string, value ast.Expr) *ast.AssignStmt {
	lhs := make([]ast.Expr, len(names))
	for i, n := range names {
		lhs[i] = ast.NewIdent(n)
	}
	return &ast.AssignStmt{Lhs: lhs, Tok: token.DEFINE, Rhs: []ast.Expr{value}}
}

// ifErr is `if err != nil { return zero, err }`.
func ifErr(zero ast.Expr) *ast.IfStmt {
	return &ast.IfStmt{
		Cond: &ast.BinaryExpr{X: ast.NewIdent("err"), Op: token.NEQ, Y: ast.NewIdent("nil")},
		Body: block(ret(zero, ast.NewIdent("err"))),
	}
}
