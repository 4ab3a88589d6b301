package codegen

import (
	"fmt"

	"github.com/pipebase/pipebase/internal/manifest"
)

// componentExpr renders the Go expression materializing a pipe's component
// from its config reference. Built-in config types map to their direct
// constructors in runtime/components; anything else goes through the
// component registry, keyed by config type name, which the user's own
// package populates from init(). Every expression evaluates to
// (component, error).
func componentExpr(p manifest.Pipe, inType, outType string) (string, error) {
	path := p.Config.Path
	switch p.Config.Type {
	case "Timer":
		return fmt.Sprintf("components.NewTimerPoller(%q)", path), nil
	case "Printer":
		return fmt.Sprintf("components.NewPrintExporter[%s](%q)", inType, path), nil
	case "TextCollector":
		return fmt.Sprintf("components.NewTextCollector(%q)", path), nil
	case "SplitStreamer":
		return fmt.Sprintf("components.NewSplitStreamer(%q)", path), nil
	case "Identity":
		return fmt.Sprintf("components.NewIdentityMapper[%s](%q)", inType, path), nil
	case "Echo":
		return fmt.Sprintf("components.NewEchoMapper[%s](%q)", inType, path), nil
	case "Selector":
		return fmt.Sprintf("components.NewSelector[%s](%q)", inType, path), nil
	}

	switch p.Kind {
	case manifest.KindListener:
		return fmt.Sprintf("components.BuildListener[%s](%q, %q, %q)", outType, p.Name, p.Config.Type, path), nil
	case manifest.KindPoller:
		return fmt.Sprintf("components.BuildPoller[%s](%q, %q, %q)", outType, p.Name, p.Config.Type, path), nil
	case manifest.KindMapper:
		return fmt.Sprintf("components.BuildMapper[%s, %s](%q, %q, %q)", inType, outType, p.Name, p.Config.Type, path), nil
	case manifest.KindCollector:
		return fmt.Sprintf("components.BuildCollector[%s, %s](%q, %q, %q)", inType, outType, p.Name, p.Config.Type, path), nil
	case manifest.KindStreamer:
		return fmt.Sprintf("components.BuildStreamer[%s, %s](%q, %q, %q)", inType, outType, p.Name, p.Config.Type, path), nil
	case manifest.KindSelector:
		return fmt.Sprintf("components.BuildSelector[%s](%q, %q, %q)", inType, p.Name, p.Config.Type, path), nil
	case manifest.KindExporter:
		return fmt.Sprintf("components.BuildExporter[%s](%q, %q, %q)", inType, p.Name, p.Config.Type, path), nil
	default:
		return "", fmt.Errorf("unknown pipe kind %q", p.Kind)
	}
}
