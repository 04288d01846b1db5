package codegen

import "github.com/variantkit/proxygen/diag"

// AccessorShape describes the accessor block attached to a property
// declaration. Only storage-backed shapes can be proxied.
type AccessorShape int

const (
	// ShapeNone is a plain stored property with no accessor block.
	ShapeNone AccessorShape = iota
	// ShapeComputedGetSet is a pure computed get/set pair. There is no
	// storage behind it, so it cannot be proxied.
	ShapeComputedGetSet
	// ShapeObserved is a stored property with willSet/didSet hook methods.
	ShapeObserved
	// ShapeExplicitGetSet is a stored property whose reads and writes are
	// routed through explicitly named accessor methods.
	ShapeExplicitGetSet
	// ShapeNoStorage marks a declaration that has no storage at all
	// (a constant or a type declaration carrying the directive).
	ShapeNoStorage
)

func (s AccessorShape) String() string {
	switch s {
	case ShapeNone:
		return "none"
	case ShapeComputedGetSet:
		return "computed get/set"
	case ShapeObserved:
		return "observed"
	case ShapeExplicitGetSet:
		return "explicit get/set"
	case ShapeNoStorage:
		return "no storage"
	}
	return "unknown"
}

// PropertyDescriptor is the immutable input to one generation call. It is a
// syntactic description of a single property binding; multiple bindings in
// one declaration produce one descriptor each, in declaration order.
type PropertyDescriptor struct {
	// Name is the property identifier. Blank or empty names are rejected
	// by the classifier.
	Name string

	// Recv is the receiver type the accessors are attached to. Empty for
	// package-level properties.
	Recv string

	// DeclaredType is the base named type, with any optional marker
	// stripped. For engine types it is normalized to the bare name
	// ("Variant", "TypedArray"). Empty when the declaration carries no
	// type annotation. Unrecognized compound forms keep their printed
	// representation so diagnostics stay readable.
	DeclaredType string

	// TypePkgPath is the import path qualifying DeclaredType, when the
	// type comes from another package. Empty for local and builtin types.
	TypePkgPath string

	// Optional marks a nil-able property (a pointer-typed declaration).
	Optional bool

	// Required marks a pointer-typed reference that a failed downcast must
	// not clear. Supplied by the directive; meaningless without Optional.
	Required bool

	// Enum marks the property as semantically an enumeration. Supplied by
	// the directive, not inferred from the type.
	Enum bool

	// Collection marks a typed-element collection wrapper.
	Collection bool

	// ElementType is the declared element type of a collection, with
	// ElemPkgPath qualifying it when imported.
	ElementType string
	ElemPkgPath string

	// Shape is the accessor block shape.
	Shape AccessorShape

	// WillSet and DidSet are observer hook method names (ShapeObserved).
	WillSet string
	DidSet  string

	// Getter and Setter are explicit accessor method names
	// (ShapeExplicitGetSet).
	Getter string
	Setter string

	// Pos anchors diagnostics to the source declaration.
	Pos diag.Pos
}
