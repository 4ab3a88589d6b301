package codegen

import (
	"fmt"
	"strings"

	"github.com/pipebase/pipebase/internal/manifest"
)

// FieldDecl is one generated struct field.
type FieldDecl struct {
	GoName string
	GoType string
	Meta   map[string]string
}

// ObjectDecl is one generated struct type, lowered from a manifest Object.
type ObjectDecl struct {
	Name    string // original manifest object name
	GoName  string
	Fields  []FieldDecl
	Methods []string
}

// objectGoNames maps every declared object's manifest name to its
// generated Go type name, computed up front so goType can resolve object
// references regardless of declaration order.
func objectGoNames(m *manifest.Manifest) map[string]string {
	names := make(map[string]string, len(m.Objects))
	for _, o := range m.Objects {
		names[o.Name] = goIdent(o.Name)
	}
	return names
}

func buildObjectDecls(m *manifest.Manifest, names map[string]string) ([]ObjectDecl, error) {
	decls := make([]ObjectDecl, 0, len(m.Objects))
	for _, o := range m.Objects {
		fields := make([]FieldDecl, 0, len(o.Fields))
		for _, f := range o.Fields {
			gt, err := goType(f.Resolved, names)
			if err != nil {
				return nil, fmt.Errorf("object %s field %s: %w", o.Name, f.Name, err)
			}
			fields = append(fields, FieldDecl{GoName: goIdent(f.Name), GoType: gt, Meta: f.Meta})
		}
		decl := ObjectDecl{Name: o.Name, GoName: names[o.Name], Fields: fields}
		decl.Methods = deriveMethods(decl)
		decls = append(decls, decl)
	}
	return decls, nil
}

// deriveMethods lowers field derive hints into methods on the generated
// struct: `render` fields feed a String(), `hash` fields a HashKey()
// usable as a fan-out group key, `equal` fields an Equal(), and `order`
// fields a Less(). Hints with no Go-side consumer (aggregate, group,
// convert, visit, left/right accessors) are carried in the model for
// component implementations to read but lower to nothing here.
func deriveMethods(o ObjectDecl) []string {
	var methods []string

	if fields := fieldsWithMeta(o, "render"); len(fields) > 0 {
		var verbs, args []string
		for _, f := range fields {
			verbs = append(verbs, "%v")
			args = append(args, "o."+f.GoName)
		}
		methods = append(methods, fmt.Sprintf(
			"func (o %s) String() string {\n\treturn fmt.Sprintf(%q, %s)\n}",
			o.GoName, strings.Join(verbs, " "), strings.Join(args, ", ")))
	}

	if fields := fieldsWithMeta(o, "hash"); len(fields) > 0 {
		var verbs, args []string
		for _, f := range fields {
			verbs = append(verbs, "%v")
			args = append(args, "o."+f.GoName)
		}
		methods = append(methods, fmt.Sprintf(
			"func (o %s) HashKey() []byte {\n\treturn fmt.Appendf(nil, %q, %s)\n}",
			o.GoName, strings.Join(verbs, "|"), strings.Join(args, ", ")))
	}

	if fields := fieldsWithMeta(o, "equal"); len(fields) > 0 {
		var terms []string
		for _, f := range fields {
			terms = append(terms, fmt.Sprintf("o.%s == other.%s", f.GoName, f.GoName))
		}
		methods = append(methods, fmt.Sprintf(
			"func (o %s) Equal(other %s) bool {\n\treturn %s\n}",
			o.GoName, o.GoName, strings.Join(terms, " && ")))
	}

	if fields := fieldsWithMeta(o, "order"); len(fields) > 0 {
		var b strings.Builder
		fmt.Fprintf(&b, "func (o %s) Less(other %s) bool {\n", o.GoName, o.GoName)
		for _, f := range fields {
			fmt.Fprintf(&b, "\tif o.%s != other.%s {\n\t\treturn o.%s < other.%s\n\t}\n",
				f.GoName, f.GoName, f.GoName, f.GoName)
		}
		b.WriteString("\treturn false\n}")
		methods = append(methods, b.String())
	}

	return methods
}

func fieldsWithMeta(o ObjectDecl, key string) []FieldDecl {
	var out []FieldDecl
	for _, f := range o.Fields {
		if _, ok := f.Meta[key]; ok {
			out = append(out, f)
		}
	}
	return out
}
