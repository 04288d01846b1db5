package codegen

import (
	"fmt"

	"github.com/dave/jennifer/jen"
)

// DefaultEnginePkg is the import path of the engine's variant runtime. The
// generated accessors reference it by path only; this module never imports
// it (building runtime bridging code is out of scope).
const DefaultEnginePkg = "github.com/variantkit/engine/variant"

// Config parameterizes synthesis for one generation run.
type Config struct {
	// EnginePkg overrides the import path of the engine runtime package
	// referenced by the emitted accessors.
	EnginePkg string
}

func (c Config) enginePkg() string {
	if c.EnginePkg == "" {
		return DefaultEnginePkg
	}
	return c.EnginePkg
}

// GetterName and SetterName are the fixed proxy naming convention the
// engine's reflection system resolves against.
func GetterName(property string) string { return "_mproxy_get_" + property }
func SetterName(property string) string { return "_mproxy_set_" + property }

// synthesizer emits the two accessor declarations for one classified
// descriptor. It is scoped to a single property and holds no global state,
// so independent declarations can be synthesized concurrently.
type synthesizer struct {
	d      *PropertyDescriptor
	engine string
}

// self is the receiver identifier of emitted methods.
const self = "p"

func (g *synthesizer) eng(name string) *jen.Statement {
	return jen.Qual(g.engine, name)
}

// declaredTypeRef renders the property's base named type.
func (g *synthesizer) declaredTypeRef() *jen.Statement {
	if g.d.TypePkgPath != "" {
		return jen.Qual(g.d.TypePkgPath, g.d.DeclaredType)
	}
	return jen.Id(g.d.DeclaredType)
}

// elementTypeRef renders a collection's declared element type.
func (g *synthesizer) elementTypeRef() *jen.Statement {
	if g.d.ElemPkgPath != "" {
		return jen.Qual(g.d.ElemPkgPath, g.d.ElementType)
	}
	return jen.Id(g.d.ElementType)
}

// read renders the storage-read expression, routed through the explicit
// getter when the declaration has one.
func (g *synthesizer) read() *jen.Statement {
	if g.d.Shape == ShapeExplicitGetSet && g.d.Getter != "" {
		return g.storage(g.d.Getter).Call()
	}
	return g.storage(g.d.Name)
}

func (g *synthesizer) storage(name string) *jen.Statement {
	if g.d.Recv == "" {
		return jen.Id(name)
	}
	return jen.Id(self).Dot(name)
}

// write renders the storage mutation, honoring explicit setters and
// willSet/didSet observer hooks.
func (g *synthesizer) write(val jen.Code) []jen.Code {
	if g.d.Shape == ShapeExplicitGetSet && g.d.Setter != "" {
		return []jen.Code{g.storage(g.d.Setter).Call(val)}
	}

	assign := g.storage(g.d.Name).Op("=").Add(val)
	if g.d.Shape != ShapeObserved {
		return []jen.Code{assign}
	}

	var stmts []jen.Code
	if g.d.WillSet != "" {
		stmts = append(stmts, g.storage(g.d.WillSet).Call())
	}
	stmts = append(stmts, assign)
	if g.d.DidSet != "" {
		stmts = append(stmts, g.storage(g.d.DidSet).Call())
	}
	return stmts
}

// funcDecl opens an accessor declaration: a method on the receiver type, or
// a plain function for package-level properties.
func (g *synthesizer) funcDecl(name, argsName string) *jen.Statement {
	fn := jen.Func()
	if g.d.Recv != "" {
		fn = fn.Params(jen.Id(self).Op("*").Id(g.d.Recv))
	}
	return fn.Id(name).
		Params(jen.Id(argsName).Index().Add(g.eng("Variant"))).
		Op("*").Add(g.eng("Variant"))
}

// wrapReturn emits `v := <expr>; return &v`.
func (g *synthesizer) wrapReturn(expr jen.Code) []jen.Code {
	return []jen.Code{
		jen.Id("v").Op(":=").Add(expr),
		jen.Return(jen.Op("&").Id("v")),
	}
}

func (g *synthesizer) getter(strategy Strategy) *jen.Statement {
	var body []jen.Code

	switch strategy {
	case StrategyEnum:
		body = g.wrapReturn(g.eng("New").Call(jen.Id("int64").Call(g.read())))

	case StrategyPassthrough:
		body = g.wrapReturn(g.read())

	case StrategyCollection:
		body = g.wrapReturn(g.eng("New").Call(g.read().Dot("Array").Call()))

	case StrategyPrimitive:
		if g.d.Optional {
			body = append(body,
				jen.If(g.read().Op("==").Nil()).Block(jen.Return(jen.Nil())),
			)
			body = append(body, g.wrapReturn(g.eng("New").Call(jen.Op("*").Add(g.read())))...)
		} else {
			body = g.wrapReturn(g.eng("New").Call(g.read()))
		}

	default: // StrategyReference
		if g.d.Optional {
			body = append(body,
				jen.If(g.read().Op("==").Nil()).Block(jen.Return(jen.Nil())),
			)
		}
		body = append(body, g.wrapReturn(g.eng("New").Call(g.read()))...)
	}

	return g.funcDecl(GetterName(g.d.Name), "_").Block(body...)
}

func (g *synthesizer) setter(strategy Strategy) *jen.Statement {
	guard := jen.If(jen.Len(jen.Id("args")).Op("==").Lit(0)).Block(jen.Return(jen.Nil()))

	var body []jen.Code
	body = append(body, guard)

	switch strategy {
	case StrategyEnum:
		body = append(body,
			jen.List(jen.Id("raw"), jen.Id("ok")).Op(":=").Add(g.eng("AsInt")).Call(jen.Id("args").Index(jen.Lit(0))),
			// Conversion failure leaves the property unchanged; no error
			// is raised at runtime.
			jen.If(jen.Op("!").Id("ok")).Block(jen.Return(jen.Nil())),
		)
		body = append(body, g.write(g.declaredTypeRef().Call(jen.Id("raw")))...)

	case StrategyPassthrough:
		body = append(body, g.write(jen.Id("args").Index(jen.Lit(0)))...)

	case StrategyCollection:
		body = append(body,
			jen.List(jen.Id("arr"), jen.Id("ok")).Op(":=").Add(g.eng("AsArray")).Call(jen.Id("args").Index(jen.Lit(0))),
			jen.If(
				jen.Op("!").Id("ok").
					Op("||").Op("!").Id("arr").Dot("IsTyped").Call().
					Op("||").Id("arr").Dot("ElementTypeName").Call().Op("!=").Lit(g.d.ElementType),
			).Block(jen.Return(jen.Nil())),
		)
		body = append(body, g.write(
			g.eng("NewTypedArray").Index(g.elementTypeRef()).Call(jen.Id("arr")),
		)...)

	case StrategyPrimitive:
		body = append(body, g.primitiveSetterBody()...)

	default: // StrategyReference
		body = append(body, g.referenceSetterBody()...)
	}

	body = append(body, jen.Return(jen.Nil()))
	return g.funcDecl(SetterName(g.d.Name), "args").Block(body...)
}

// primConv maps a bridgeable primitive to its dynamic-value conversion.
type primConv struct {
	fn   string
	cast bool
}

func primitiveConv(typeName string) (primConv, error) {
	switch typeName {
	case "bool":
		return primConv{fn: "AsBool"}, nil
	case "string":
		return primConv{fn: "AsString"}, nil
	case "int64":
		return primConv{fn: "AsInt"}, nil
	case "float64":
		return primConv{fn: "AsFloat"}, nil
	case "float32":
		return primConv{fn: "AsFloat", cast: true}, nil
	case "int", "int8", "int16", "int32",
		"uint", "uint8", "uint16", "uint32", "uint64":
		return primConv{fn: "AsInt", cast: true}, nil
	}
	return primConv{}, fmt.Errorf("no dynamic-value conversion for %q", typeName)
}

func (g *synthesizer) primitiveSetterBody() []jen.Code {
	conv, err := primitiveConv(g.d.DeclaredType)
	if err != nil {
		// Unreachable after classification; keep the template total.
		conv = primConv{fn: "AsInt", cast: true}
	}

	converted := func() jen.Code {
		if conv.cast {
			return jen.Id(g.d.DeclaredType).Call(jen.Id("v"))
		}
		return jen.Id("v")
	}

	if g.d.Optional {
		// A failed conversion assigns the absent value; there is no
		// failure path for optional primitives.
		okBranch := []jen.Code{jen.Id("val").Op(":=").Add(converted())}
		okBranch = append(okBranch, g.write(jen.Op("&").Id("val"))...)

		return []jen.Code{
			jen.If(
				jen.List(jen.Id("v"), jen.Id("ok")).Op(":=").Add(g.eng(conv.fn)).Call(jen.Id("args").Index(jen.Lit(0))),
				jen.Id("ok"),
			).Block(okBranch...).Else().Block(
				g.write(jen.Nil())...,
			),
		}
	}

	stmts := []jen.Code{
		jen.List(jen.Id("v"), jen.Id("ok")).Op(":=").Add(g.eng(conv.fn)).Call(jen.Id("args").Index(jen.Lit(0))),
		jen.If(jen.Op("!").Id("ok")).Block(
			g.eng("PushError").Call(jen.Lit(fmt.Sprintf(
				"%s: cannot convert argument to %s, value unchanged",
				g.d.Name, g.d.DeclaredType,
			))),
			jen.Return(jen.Nil()),
		),
	}
	return append(stmts, g.write(converted())...)
}

func (g *synthesizer) referenceSetterBody() []jen.Code {
	if !g.d.Optional {
		// Value-typed reference: a by-value downcast and a guarded
		// assignment. Values are not reference counted and have no nil
		// state, so there is no retain/release dance.
		stmts := []jen.Code{
			jen.List(jen.Id("next"), jen.Id("ok")).Op(":=").
				Add(g.eng("As").Index(g.declaredTypeRef()).Call(jen.Id("args").Index(jen.Lit(0)))),
		}
		return append(stmts, jen.If(jen.Id("ok")).Block(g.write(jen.Id("next"))...))
	}

	downcast := g.eng("As").Index(jen.Op("*").Add(g.declaredTypeRef())).
		Call(jen.Id("args").Index(jen.Lit(0)))

	retain := jen.If(
		jen.List(jen.Id("rc"), jen.Id("hasRC")).Op(":=").Id("any").Call(jen.Id("next")).Assert(g.eng("RefCounted")),
		jen.Id("hasRC").Op("&&").Id("next").Op("!=").Nil(),
	).Block(jen.Id("rc").Dot("Retain").Call())

	release := jen.If(
		jen.List(jen.Id("rc"), jen.Id("hasRC")).Op(":=").Id("any").Call(jen.Id("prev")).Assert(g.eng("RefCounted")),
		jen.Id("hasRC").Op("&&").Id("prev").Op("!=").Nil(),
	).Block(jen.Id("rc").Dot("Release").Call())

	if g.d.Required {
		// A required pointer must not be cleared: a failed downcast skips
		// the assignment, but the old value's count is still adjusted.
		stmts := []jen.Code{
			jen.List(jen.Id("next"), jen.Id("ok")).Op(":=").Add(downcast),
			retain,
			jen.Id("prev").Op(":=").Add(g.read()),
			jen.If(jen.Id("ok")).Block(g.write(jen.Id("next"))...),
		}
		return append(stmts, release)
	}

	// Failed downcasts clear the property; the retain is a no-op on nil
	// and the old value is still released exactly once.
	stmts := []jen.Code{
		jen.List(jen.Id("next"), jen.Id("_")).Op(":=").Add(downcast),
		retain,
		jen.Id("prev").Op(":=").Add(g.read()),
	}
	stmts = append(stmts, g.write(jen.Id("next"))...)
	return append(stmts, release)
}
