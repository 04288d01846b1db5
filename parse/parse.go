// Package parse is the host front end of the generator: it scans Go source
// for //mproxy:export directives and turns each annotated property binding
// into a PropertyDescriptor for classification and synthesis. Scanning is
// purely syntactic; no type checking of the target package is performed.
package parse

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"go/types"

	"github.com/variantkit/proxygen/codegen"
	"github.com/variantkit/proxygen/diag"
)

// Options configures a scan.
type Options struct {
	// EnginePkg is the import path under which scanned source refers to
	// the engine's variant runtime. Types imported from it are normalized
	// to their bare names for classification.
	EnginePkg string
}

func (o Options) enginePkg() string {
	if o.EnginePkg == "" {
		return codegen.DefaultEnginePkg
	}
	return o.EnginePkg
}

// File is the scan result for one source file. Descriptors appear in
// declaration order; structural errors found during scanning (dangling
// directives, directives on storage-less declarations) are collected
// alongside, anchored to their source positions.
type File struct {
	Path     string
	Package  string
	Descs    []*codegen.PropertyDescriptor
	Errors   []*codegen.GenerationError
	Warnings []diag.Diagnostic
}

// ParseFile scans one Go source file. src follows the contract of
// go/parser.ParseFile (nil reads from path).
func ParseFile(path string, src any, opts Options) (*File, error) {
	fset := token.NewFileSet()
	astFile, err := parser.ParseFile(fset, path, src, parser.ParseComments)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	p := &fileParser{
		fset:   fset,
		opts:   opts,
		out:    &File{Path: path, Package: astFile.Name.Name},
		seen:   make(map[*ast.CommentGroup]bool),
		locals: engineLocals(astFile, opts.enginePkg()),
		ipaths: importPaths(astFile),
	}
	p.file(astFile)
	return p.out, nil
}

type fileParser struct {
	fset   *token.FileSet
	opts   Options
	out    *File
	seen   map[*ast.CommentGroup]bool
	locals map[string]bool   // local names bound to the engine package
	ipaths map[string]string // local import name -> import path
}

func (p *fileParser) pos(n ast.Node) diag.Pos {
	position := p.fset.Position(n.Pos())
	return diag.Pos{File: position.Filename, Line: position.Line, Column: position.Column}
}

func (p *fileParser) file(f *ast.File) {
	for _, decl := range f.Decls {
		switch d := decl.(type) {
		case *ast.GenDecl:
			p.genDecl(d)
		case *ast.FuncDecl:
			p.funcDecl(d)
		}
	}

	// Directives on nothing at all: any comment group carrying the
	// directive that no declaration consumed has no bindings to proxy.
	for _, cg := range f.Comments {
		if p.seen[cg] {
			continue
		}
		if findDirective(cg) != nil {
			p.out.Errors = append(p.out.Errors, &codegen.GenerationError{
				Kind: codegen.NoBindingsFound,
				Pos:  p.pos(cg),
			})
		}
	}
}

func (p *fileParser) take(cg *ast.CommentGroup) *directive {
	dir := findDirective(cg)
	if dir == nil {
		return nil
	}
	p.seen[cg] = true
	for _, arg := range dir.unknown {
		p.out.Warnings = append(p.out.Warnings, diag.Diagnostic{
			Severity: diag.SeverityWarning,
			Pos:      p.pos(cg),
			Message:  fmt.Sprintf("unknown directive argument %q ignored", arg),
		})
	}
	return dir
}

func (p *fileParser) genDecl(d *ast.GenDecl) {
	// Import declarations never consume a directive; one placed there is
	// reported as dangling.
	var declDir *directive
	switch d.Tok {
	case token.TYPE, token.VAR, token.CONST:
		declDir = p.take(d.Doc)
	}

	switch d.Tok {
	case token.TYPE:
		for _, spec := range d.Specs {
			ts, ok := spec.(*ast.TypeSpec)
			if !ok {
				continue
			}
			specDir := p.take(ts.Doc)
			if dir := firstDirective(specDir, declDir); dir != nil {
				// A type declaration itself has no storage to proxy.
				p.out.Errors = append(p.out.Errors, &codegen.GenerationError{
					Kind:     codegen.RequiresStorageBackedProperty,
					Property: ts.Name.Name,
					Pos:      p.pos(ts),
				})
			}
			if st, ok := ts.Type.(*ast.StructType); ok {
				p.structFields(ts.Name.Name, st)
			}
		}

	case token.VAR:
		for _, spec := range d.Specs {
			vs, ok := spec.(*ast.ValueSpec)
			if !ok {
				continue
			}
			dir := firstDirective(p.take(vs.Doc), p.take(vs.Comment), declDir)
			if dir == nil {
				continue
			}
			// Package-level properties: one descriptor per binding,
			// processed independently in declaration order.
			for _, name := range vs.Names {
				p.out.Descs = append(p.out.Descs, p.descriptor("", name.Name, vs.Type, dir, p.pos(name)))
			}
		}

	case token.CONST:
		for _, spec := range d.Specs {
			vs, ok := spec.(*ast.ValueSpec)
			if !ok {
				continue
			}
			dir := firstDirective(p.take(vs.Doc), p.take(vs.Comment), declDir)
			if dir == nil {
				continue
			}
			for _, name := range vs.Names {
				p.out.Errors = append(p.out.Errors, &codegen.GenerationError{
					Kind:     codegen.RequiresStorageBackedProperty,
					Property: name.Name,
					Pos:      p.pos(name),
					Detail:   "constants cannot be proxied",
				})
			}
		}
	}
}

func (p *fileParser) structFields(recv string, st *ast.StructType) {
	for _, field := range st.Fields.List {
		dir := firstDirective(p.take(field.Doc), p.take(field.Comment))
		if dir == nil {
			continue
		}

		if len(field.Names) == 0 {
			// Embedded field: not a simple identifier pattern.
			d := p.descriptor(recv, "", field.Type, dir, p.pos(field))
			p.out.Descs = append(p.out.Descs, d)
			continue
		}
		for _, name := range field.Names {
			p.out.Descs = append(p.out.Descs, p.descriptor(recv, name.Name, field.Type, dir, p.pos(name)))
		}
	}
}

// funcDecl handles a directive placed on a method: that is a computed
// accessor with no storage behind it.
func (p *fileParser) funcDecl(d *ast.FuncDecl) {
	dir := p.take(d.Doc)
	if dir == nil {
		return
	}

	desc := &codegen.PropertyDescriptor{
		Name:  d.Name.Name,
		Shape: codegen.ShapeComputedGetSet,
		Pos:   p.pos(d.Name),
	}
	if d.Recv != nil && len(d.Recv.List) > 0 {
		desc.Recv = recvTypeName(d.Recv.List[0].Type)
	}
	p.out.Descs = append(p.out.Descs, desc)
}

// descriptor builds the property descriptor for one binding.
func (p *fileParser) descriptor(recv, name string, typ ast.Expr, dir *directive, pos diag.Pos) *codegen.PropertyDescriptor {
	d := &codegen.PropertyDescriptor{
		Name: name,
		Recv: recv,
		Enum: dir.enum,
		Pos:  pos,
	}

	switch {
	case dir.getter != "" || dir.setter != "":
		d.Shape = codegen.ShapeExplicitGetSet
		d.Getter = dir.getter
		d.Setter = dir.setter
	case dir.willSet != "" || dir.didSet != "":
		d.Shape = codegen.ShapeObserved
		d.WillSet = dir.willSet
		d.DidSet = dir.didSet
	}

	if typ != nil {
		p.analyzeType(typ, d, false)
	}

	// `required` marks a pointer-typed reference that a failed downcast
	// must not clear. Primitives, engine value types, and value-typed
	// fields have no nil state for it to guard.
	if dir.required {
		applicable := d.Optional && !d.Collection &&
			!codegen.IsBridgeablePrimitive(d.DeclaredType) &&
			!(d.TypePkgPath == "" && d.DeclaredType == codegen.VariantTypeName)
		if applicable {
			d.Required = true
		} else {
			p.out.Warnings = append(p.out.Warnings, diag.Diagnostic{
				Severity: diag.SeverityWarning,
				Pos:      pos,
				Property: name,
				Message:  "`required` applies to pointer-typed reference properties only",
			})
		}
	}
	return d
}

// analyzeType fills the type fields of a descriptor from a declared type
// expression. Unrecognized forms keep their printed representation so the
// classifier's diagnostic names what it saw.
func (p *fileParser) analyzeType(expr ast.Expr, d *codegen.PropertyDescriptor, deref bool) {
	switch t := expr.(type) {
	case *ast.StarExpr:
		if deref {
			// A pointer to a pointer is not a simple named type.
			d.DeclaredType = types.ExprString(expr)
			return
		}
		d.Optional = true
		p.analyzeType(t.X, d, true)

	case *ast.Ident:
		d.DeclaredType = t.Name

	case *ast.SelectorExpr:
		pkg, ok := t.X.(*ast.Ident)
		if !ok {
			d.DeclaredType = types.ExprString(expr)
			return
		}
		if p.locals[pkg.Name] {
			switch t.Sel.Name {
			case codegen.CollectionTypeName:
				// Bare TypedArray without an element instantiation;
				// the classifier rejects the missing element type.
				d.Collection = true
				d.DeclaredType = codegen.CollectionTypeName
			default:
				d.DeclaredType = t.Sel.Name
			}
			return
		}
		d.DeclaredType = t.Sel.Name
		d.TypePkgPath = p.ipaths[pkg.Name]

	case *ast.IndexExpr:
		sel, ok := t.X.(*ast.SelectorExpr)
		if !ok {
			d.DeclaredType = types.ExprString(expr)
			return
		}
		pkg, ok := sel.X.(*ast.Ident)
		if !ok || !p.locals[pkg.Name] || sel.Sel.Name != codegen.CollectionTypeName {
			d.DeclaredType = types.ExprString(expr)
			return
		}
		d.Collection = true
		d.DeclaredType = codegen.CollectionTypeName
		switch elem := t.Index.(type) {
		case *ast.Ident:
			d.ElementType = elem.Name
		case *ast.SelectorExpr:
			if epkg, ok := elem.X.(*ast.Ident); ok {
				d.ElementType = elem.Sel.Name
				d.ElemPkgPath = p.ipaths[epkg.Name]
			} else {
				d.ElementType = types.ExprString(elem)
			}
		default:
			d.ElementType = types.ExprString(elem)
		}

	default:
		// map, chan, func, slice, anonymous struct: compound forms the
		// generator does not recognize.
		d.DeclaredType = types.ExprString(expr)
	}
}

func firstDirective(dirs ...*directive) *directive {
	for _, d := range dirs {
		if d != nil {
			return d
		}
	}
	return nil
}

func recvTypeName(expr ast.Expr) string {
	switch t := expr.(type) {
	case *ast.StarExpr:
		return recvTypeName(t.X)
	case *ast.Ident:
		return t.Name
	case *ast.IndexExpr:
		return recvTypeName(t.X)
	}
	return ""
}

// engineLocals maps the local import names a file binds to the engine
// runtime package.
func engineLocals(f *ast.File, enginePath string) map[string]bool {
	locals := make(map[string]bool)
	for _, imp := range f.Imports {
		path := importPath(imp)
		if path != enginePath {
			continue
		}
		locals[importName(imp, path)] = true
	}
	return locals
}

func importPaths(f *ast.File) map[string]string {
	paths := make(map[string]string)
	for _, imp := range f.Imports {
		path := importPath(imp)
		paths[importName(imp, path)] = path
	}
	return paths
}

func importPath(imp *ast.ImportSpec) string {
	s := imp.Path.Value
	if len(s) >= 2 && s[0] == '"' {
		s = s[1 : len(s)-1]
	}
	return s
}

func importName(imp *ast.ImportSpec, path string) string {
	if imp.Name != nil {
		return imp.Name.Name
	}
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == '/' {
			return path[i+1:]
		}
	}
	return path
}
