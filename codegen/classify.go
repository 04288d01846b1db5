package codegen

// Strategy selects the synthesis template for a property.
type Strategy int

const (
	// StrategyCollection proxies a typed-element collection wrapper
	// through its dynamic-array representation.
	StrategyCollection Strategy = iota
	// StrategyEnum proxies an enumeration through its raw integer value.
	StrategyEnum
	// StrategyPrimitive proxies a bridgeable primitive through the
	// engine's dynamic-value conversions.
	StrategyPrimitive
	// StrategyPassthrough proxies the universal dynamic-value type with
	// no conversion at all.
	StrategyPassthrough
	// StrategyReference proxies an object type with reference-count
	// bookkeeping around reassignment.
	StrategyReference
)

func (s Strategy) String() string {
	switch s {
	case StrategyCollection:
		return "collection"
	case StrategyEnum:
		return "enum"
	case StrategyPrimitive:
		return "primitive"
	case StrategyPassthrough:
		return "passthrough"
	case StrategyReference:
		return "reference"
	}
	return "unknown"
}

// VariantTypeName is the universal dynamic-value type of the engine
// runtime, and CollectionTypeName its typed-element array wrapper. The parse
// front end normalizes engine-qualified types to these bare names.
const (
	VariantTypeName    = "Variant"
	CollectionTypeName = "TypedArray"
)

// bridgeablePrimitives is the fixed set of type names the engine's
// dynamic-value initializers can convert directly.
var bridgeablePrimitives = map[string]bool{
	"bool":    true,
	"int":     true,
	"int8":    true,
	"int16":   true,
	"int32":   true,
	"int64":   true,
	"uint":    true,
	"uint8":   true,
	"uint16":  true,
	"uint32":  true,
	"uint64":  true,
	"float32": true,
	"float64": true,
	"string":  true,
}

// IsBridgeablePrimitive reports whether a type name belongs to the fixed
// bridgeable primitive set.
func IsBridgeablePrimitive(name string) bool {
	return bridgeablePrimitives[name]
}

// Classify validates a descriptor against the structural rules and, when it
// is legal to proxy, picks the synthesis strategy. Rules are checked in
// order and the first violation wins; no partial classification is returned.
func Classify(d *PropertyDescriptor) (Strategy, *GenerationError) {
	// Rule 1: the property must have storage behind it.
	switch d.Shape {
	case ShapeComputedGetSet:
		return 0, errorf(d, ComputedPropertyNotSupported,
			"a computed get/set pair has no storage to proxy")
	case ShapeNoStorage:
		return 0, errorf(d, RequiresStorageBackedProperty,
			"the export directive applies to stored properties only")
	}

	// Rule 2: one simple identifier per binding.
	if !isSimpleIdentifier(d.Name) {
		return 0, errorf(d, ExpectedSimpleIdentifierPattern,
			"got %q", d.Name)
	}

	// Rule 3: a type annotation must be present.
	if d.DeclaredType == "" {
		return 0, errorf(d, MissingTypeAnnotation,
			"the declared type cannot be inferred for proxying")
	}

	// Rule 4: collections must not be optional.
	if d.Collection && d.Optional {
		return 0, errorf(d, CollectionTypeMustNotBeOptional,
			"declare the property as a non-optional %s", CollectionTypeName)
	}

	// Rule 5: otherwise the type must be a simple named type.
	if d.Collection {
		if !isSimpleIdentifier(d.ElementType) {
			return 0, errorf(d, UnsupportedType,
				"collection element type %q is not a simple named type", d.ElementType)
		}
	} else if !isSimpleIdentifier(d.DeclaredType) {
		return 0, errorf(d, UnsupportedType,
			"%q is not a simple named type", d.DeclaredType)
	}

	// Rule 6: enumerations must not be optional.
	if d.Enum && d.Optional {
		return 0, errorf(d, EnumTypeMustNotBeOptional,
			"declare the property as a non-optional %s", d.DeclaredType)
	}

	// Rule 7: strategy selection, by priority.
	switch {
	case d.Collection:
		return StrategyCollection, nil
	case d.Enum:
		return StrategyEnum, nil
	case d.TypePkgPath == "" && bridgeablePrimitives[d.DeclaredType]:
		return StrategyPrimitive, nil
	case d.TypePkgPath == "" && d.DeclaredType == VariantTypeName:
		return StrategyPassthrough, nil
	default:
		return StrategyReference, nil
	}
}

// isSimpleIdentifier reports whether s is a plain Go identifier: one
// non-blank name with no qualifiers, operators, or type structure.
func isSimpleIdentifier(s string) bool {
	if s == "" || s == "_" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z'):
		case r >= '0' && r <= '9':
			if i == 0 {
				return false
			}
		default:
			return false
		}
	}
	return true
}
