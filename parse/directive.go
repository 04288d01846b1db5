package parse

import (
	"go/ast"
	"strings"
)

// Directive is the export marker attached to a property declaration:
//
//	//mproxy:export [enum] [required] [willset=M] [didset=M] [get=M] [set=M]
//
// Collection-ness and optionality are not directive arguments; they come
// from the declared type itself (TypedArray instantiation, pointer marker).
const DirectivePrefix = "mproxy:export"

type directive struct {
	enum     bool
	required bool
	willSet  string
	didSet   string
	getter   string
	setter   string
	unknown  []string
}

// findDirective scans a comment group for the export directive. It returns
// nil when the group carries none.
func findDirective(cg *ast.CommentGroup) *directive {
	if cg == nil {
		return nil
	}
	for _, c := range cg.List {
		text, ok := strings.CutPrefix(c.Text, "//"+DirectivePrefix)
		if !ok {
			continue
		}
		if text != "" && text[0] != ' ' && text[0] != '\t' {
			continue
		}
		return parseDirectiveArgs(text)
	}
	return nil
}

func parseDirectiveArgs(text string) *directive {
	d := &directive{}
	for _, arg := range strings.Fields(text) {
		key, value, _ := strings.Cut(arg, "=")
		switch key {
		case "enum":
			d.enum = true
		case "required":
			d.required = true
		case "willset":
			d.willSet = value
		case "didset":
			d.didSet = value
		case "get":
			d.getter = value
		case "set":
			d.setter = value
		default:
			d.unknown = append(d.unknown, arg)
		}
	}
	return d
}
