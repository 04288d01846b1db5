// Package codegen synthesizes proxy accessors bridging strongly-typed
// native properties to the engine's dynamically-typed reflection calling
// convention. For every exportable property it emits a getter and a setter
// declaration (`_mproxy_get_<name>` / `_mproxy_set_<name>`), each taking an
// ordered sequence of dynamic values and returning an optional dynamic
// value. Classification and synthesis are pure: the same descriptor always
// yields the same output text.
package codegen

import (
	"github.com/dave/jennifer/jen"
	"github.com/variantkit/proxygen/diag"
)

// Accessors is the result of one generation call: the two synthesized
// declarations, ready to be added to an output file.
type Accessors struct {
	Property   string
	Strategy   Strategy
	GetterName string
	SetterName string
	Getter     *jen.Statement
	Setter     *jen.Statement
}

// Generate classifies one property descriptor and synthesizes its proxy
// accessors. On a structural violation it returns the generation error and
// no output; a property never produces partial output.
func Generate(d *PropertyDescriptor, cfg Config) (*Accessors, *GenerationError) {
	strategy, genErr := Classify(d)
	if genErr != nil {
		return nil, genErr
	}

	g := &synthesizer{d: d, engine: cfg.enginePkg()}
	return &Accessors{
		Property:   d.Name,
		Strategy:   strategy,
		GetterName: GetterName(d.Name),
		SetterName: SetterName(d.Name),
		Getter:     g.getter(strategy),
		Setter:     g.setter(strategy),
	}, nil
}

// GenerateAll processes descriptors independently, in declaration order.
// Violations are reported through the reporter and skip only the offending
// property; results for the remaining properties are concatenated.
func GenerateAll(descs []*PropertyDescriptor, cfg Config, reporter *diag.Reporter) []*Accessors {
	out := make([]*Accessors, 0, len(descs))
	for _, d := range descs {
		acc, genErr := Generate(d, cfg)
		if genErr != nil {
			reporter.Report(genErr.Diagnostic())
			continue
		}
		out = append(out, acc)
	}
	return out
}

// MakeFile creates the output file the accessors are committed into. The
// package path keeps jennifer's import resolution correct for types that
// live in the target package itself.
func MakeFile(pkgPath, pkgName string) *jen.File {
	f := jen.NewFilePathName(pkgPath, pkgName)
	f.HeaderComment("Code generated by proxygen. DO NOT EDIT.")
	return f
}

// AddAccessors appends the generated declarations to the file, getter before
// setter, preserving declaration order across properties.
func AddAccessors(f *jen.File, accs []*Accessors) {
	for _, acc := range accs {
		f.Add(acc.Getter)
		f.Add(acc.Setter)
	}
}

// Commit renders the file to disk.
func Commit(f *jen.File, path string) error {
	return f.Save(path)
}
