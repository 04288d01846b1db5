package codegen

import (
	"fmt"

	"github.com/variantkit/proxygen/diag"
)

// ErrorKind classifies why a property declaration cannot be proxied. Every
// kind stems from a structural property of the source declaration, so none
// of them are retryable.
type ErrorKind int

const (
	RequiresStorageBackedProperty ErrorKind = iota
	NoBindingsFound
	MissingTypeAnnotation
	UnsupportedType
	CollectionTypeMustNotBeOptional
	EnumTypeMustNotBeOptional
	ExpectedSimpleIdentifierPattern
	ComputedPropertyNotSupported
)

func (k ErrorKind) String() string {
	switch k {
	case RequiresStorageBackedProperty:
		return "requires a storage-backed property"
	case NoBindingsFound:
		return "no bindings found"
	case MissingTypeAnnotation:
		return "missing type annotation"
	case UnsupportedType:
		return "unsupported type"
	case CollectionTypeMustNotBeOptional:
		return "collection type must not be optional"
	case EnumTypeMustNotBeOptional:
		return "enum type must not be optional"
	case ExpectedSimpleIdentifierPattern:
		return "expected a simple identifier pattern"
	case ComputedPropertyNotSupported:
		return "computed properties are not supported"
	}
	return "unknown generation error"
}

// GenerationError is a structural violation detected before synthesis. It
// carries enough context to produce a source-attached diagnostic.
type GenerationError struct {
	Kind     ErrorKind
	Property string
	Pos      diag.Pos
	Detail   string
}

func (e *GenerationError) Error() string {
	msg := e.Kind.String()
	if e.Detail != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Detail)
	}
	if e.Property != "" {
		return fmt.Sprintf("property %q: %s", e.Property, msg)
	}
	return msg
}

// Diagnostic converts the error into a reportable diagnostic.
func (e *GenerationError) Diagnostic() diag.Diagnostic {
	msg := e.Kind.String()
	if e.Detail != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Detail)
	}
	return diag.Diagnostic{
		Severity: diag.SeverityError,
		Pos:      e.Pos,
		Property: e.Property,
		Message:  msg,
	}
}

func errorf(d *PropertyDescriptor, kind ErrorKind, format string, args ...any) *GenerationError {
	return &GenerationError{
		Kind:     kind,
		Property: d.Name,
		Pos:      d.Pos,
		Detail:   fmt.Sprintf(format, args...),
	}
}
