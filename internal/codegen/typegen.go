// Package codegen lowers a validated manifest into a generated Go
// program: one struct per declared object, one component constructor and
// runtime.PipeSpec literal per pipe, plus the go.mod and main.go that
// make the output directory a buildable module.
package codegen

import (
	"fmt"
	"strings"

	"github.com/pipebase/pipebase/internal/manifest"
)

// goType renders dt as Go source syntax, resolving object references
// against objectGoNames (object name -> generated Go type name).
func goType(dt *manifest.DataType, objectGoNames map[string]string) (string, error) {
	if dt == nil {
		return "", fmt.Errorf("nil data type")
	}
	switch dt.Composite {
	case manifest.CompositeNone:
		return scalarGoType(dt.Scalar)
	case manifest.CompositeArray:
		elem, err := goType(dt.Elem, objectGoNames)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("[%d]%s", dt.Len, elem), nil
	case manifest.CompositeSequence:
		elem, err := goType(dt.Elem, objectGoNames)
		if err != nil {
			return "", err
		}
		return "[]" + elem, nil
	case manifest.CompositeMap:
		k, err := goType(dt.Key, objectGoNames)
		if err != nil {
			return "", err
		}
		v, err := goType(dt.Value, objectGoNames)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("map[%s]%s", k, v), nil
	case manifest.CompositeOption:
		elem, err := goType(dt.Elem, objectGoNames)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("runtime.Option[%s]", elem), nil
	case manifest.CompositePair:
		l, err := goType(dt.Left, objectGoNames)
		if err != nil {
			return "", err
		}
		r, err := goType(dt.Right, objectGoNames)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("runtime.Pair[%s, %s]", l, r), nil
	case manifest.CompositeObject:
		name, ok := objectGoNames[dt.ObjectRef]
		if !ok {
			return "", fmt.Errorf("unresolved object reference %q", dt.ObjectRef)
		}
		return name, nil
	default:
		return "", fmt.Errorf("unhandled composite kind %q", dt.Composite)
	}
}

func scalarGoType(s manifest.ScalarKind) (string, error) {
	switch s {
	case manifest.Bool:
		return "bool", nil
	case manifest.I8:
		return "int8", nil
	case manifest.I16:
		return "int16", nil
	case manifest.I32:
		return "int32", nil
	case manifest.I64, manifest.I128:
		// int128 has no native Go type; int64 is the pragmatic rendering,
		// matching the same u128->uint64 trade-off made for Context
		// counters (runtime/kernel/context.go).
		return "int64", nil
	case manifest.U8:
		return "uint8", nil
	case manifest.U16:
		return "uint16", nil
	case manifest.U32:
		return "uint32", nil
	case manifest.U64, manifest.U128:
		return "uint64", nil
	case manifest.F32:
		return "float32", nil
	case manifest.F64:
		return "float64", nil
	case manifest.Char:
		return "rune", nil
	case manifest.String:
		return "string", nil
	case manifest.Bytes:
		return "[]byte", nil
	case manifest.Null:
		return "struct{}", nil
	default:
		return "", fmt.Errorf("unknown scalar kind %q", s)
	}
}

// goIdent converts a manifest name (pipebase_name-validated: lowercase,
// digits, underscores) into an exported Go identifier, e.g. "sensor_event"
// -> "SensorEvent".
func goIdent(name string) string {
	parts := strings.Split(name, "_")
	var b strings.Builder
	for _, p := range parts {
		if p == "" {
			continue
		}
		b.WriteString(strings.ToUpper(p[:1]))
		b.WriteString(p[1:])
	}
	if b.Len() == 0 {
		return "X"
	}
	return b.String()
}
