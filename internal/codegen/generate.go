package codegen

import (
	"bytes"
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"text/template"

	"gopkg.in/yaml.v3"

	"github.com/pipebase/pipebase/internal/manifest"
	pberrors "github.com/pipebase/pipebase/pkg/errors"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.tmpl"))

// pipebaseModule is the runtime base package every generated go.mod
// requires.
const pipebaseModule = "github.com/pipebase/pipebase"

// Options steer one Generate run.
type Options struct {
	// OutDir is the app directory artifacts are written into.
	OutDir string
	// AppName names the generated app; also the default module path.
	AppName string
	// Module overrides the generated go.mod module path.
	Module string
	// PipebaseVersion is the runtime base package version to require.
	PipebaseVersion string
	// PipebasePath, when set, adds a replace directive pointing the
	// runtime base package at a local checkout.
	PipebasePath string
	// OnlyPipe restricts generation to the named pipe and its transitive
	// upstreams (the CLI's `generate -l PIPE`).
	OnlyPipe string
	// MetricsAddr, when set, has the generated app serve Prometheus
	// counters alongside the Context Store.
	MetricsAddr string
}

type pipeDecl struct {
	Name string
	Var  string
	Ctor string
	Spec string
}

type requireDecl struct {
	Package string
	Version string
}

type replaceDecl struct {
	Package string
	Path    string
}

type appData struct {
	AppName             string
	CStoreMode          string
	CStoreRefreshMillis int
	MetricsAddr         string
	NeedsFmt            bool
	Objects             []ObjectDecl
	Pipes               []pipeDecl
	ExtraImports        []string
}

type mainData struct {
	AppName         string
	HasErrorHandler bool
	ErrConfigType   string
	ErrConfigPath   string
}

type modData struct {
	Module          string
	PipebaseVersion string
	PipebasePath    string
	Requires        []requireDecl
	Replaces        []replaceDecl
}

// Generate lowers a validated manifest into the three artifacts of a
// runnable app directory: go.mod (the build descriptor), main.go (the
// entry point) and app_gen.go (object structs plus the App constructor).
// The lowering is mechanical; every type decision was already made by the
// validator and arrives here as resolved DataTypes.
func Generate(vm *manifest.ValidatedManifest, opts Options) error {
	m := vm.Manifest()

	pipes := topoSort(m)
	if opts.OnlyPipe != "" {
		var err error
		pipes, err = upstreamClosure(pipes, opts.OnlyPipe)
		if err != nil {
			return pberrors.NewCodegenError("select", err)
		}
	}

	goNames := objectGoNames(m)
	objects, err := buildObjectDecls(m, goNames)
	if err != nil {
		return pberrors.NewCodegenError("objects", err)
	}

	decls := make([]pipeDecl, 0, len(pipes))
	for _, p := range pipes {
		decl, err := lowerPipe(vm, m, p, goNames)
		if err != nil {
			return pberrors.NewCodegenError("pipes", err)
		}
		decls = append(decls, decl)
	}

	mode, refreshMillis := contextStoreSettings(m)

	needsFmt := false
	for _, o := range objects {
		for _, m := range o.Methods {
			if strings.Contains(m, "fmt.") {
				needsFmt = true
			}
		}
	}

	app := appData{
		NeedsFmt:            needsFmt,
		AppName:             opts.AppName,
		CStoreMode:          mode,
		CStoreRefreshMillis: refreshMillis,
		MetricsAddr:         opts.MetricsAddr,
		Objects:             objects,
		Pipes:               decls,
		ExtraImports:        moduleImports(m),
	}

	entry := mainData{AppName: opts.AppName}
	if m.Error != nil {
		entry.HasErrorHandler = true
		entry.ErrConfigType = m.Error.Config.Type
		entry.ErrConfigPath = m.Error.Config.Path
	}

	module := opts.Module
	if module == "" {
		module = opts.AppName
	}
	version := opts.PipebaseVersion
	if version == "" {
		version = "v0.0.0"
	}
	mod := modData{
		Module:          module,
		PipebaseVersion: version,
		PipebasePath:    opts.PipebasePath,
	}
	mod.Requires, mod.Replaces = lowerDependencies(m.Dependencies)

	if err := os.MkdirAll(opts.OutDir, 0o755); err != nil {
		return pberrors.NewCodegenError("outdir", err)
	}
	if err := renderTo(opts.OutDir, "app_gen.go", "app.go.tmpl", app); err != nil {
		return err
	}
	if err := renderTo(opts.OutDir, "main.go", "main.go.tmpl", entry); err != nil {
		return err
	}
	return renderTo(opts.OutDir, "go.mod", "go.mod.tmpl", mod)
}

func renderTo(dir, name, tmpl string, data any) error {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, tmpl, data); err != nil {
		return pberrors.NewCodegenError(name, err)
	}
	if err := os.WriteFile(filepath.Join(dir, name), buf.Bytes(), 0o644); err != nil {
		return pberrors.NewCodegenError(name, err)
	}
	return nil
}

// lowerPipe renders one manifest pipe into its component constructor and
// PipeSpec literal.
func lowerPipe(vm *manifest.ValidatedManifest, m *manifest.Manifest, p manifest.Pipe, goNames map[string]string) (pipeDecl, error) {
	varName := "c" + goIdent(p.Name)

	inType, err := pipeInputGoType(vm, p, goNames)
	if err != nil {
		return pipeDecl{}, err
	}
	outType, err := pipeOutputGoType(vm, p, goNames)
	if err != nil {
		return pipeDecl{}, err
	}

	ctor, err := componentExpr(p, inType, outType)
	if err != nil {
		return pipeDecl{}, err
	}

	consumers := consumersOf(m, p.Name)
	consumer := ""
	if len(consumers) > 0 {
		consumer = consumers[0]
	}

	var spec string
	switch p.Kind {
	case manifest.KindListener:
		spec = fmt.Sprintf("runtime.ListenerSpec[%s]{PipeName: %q, Consumer: %q, Buffer: %d, Component: %s}", outType, p.Name, consumer, p.Buffer, varName)
	case manifest.KindPoller:
		spec = fmt.Sprintf("runtime.PollerSpec[%s]{PipeName: %q, Consumer: %q, Buffer: %d, Component: %s}", outType, p.Name, consumer, p.Buffer, varName)
	case manifest.KindMapper:
		spec = fmt.Sprintf("runtime.MapperSpec[%s, %s]{PipeName: %q, Consumer: %q, Buffer: %d, Component: %s}", inType, outType, p.Name, consumer, p.Buffer, varName)
	case manifest.KindCollector:
		spec = fmt.Sprintf("runtime.CollectorSpec[%s, %s]{PipeName: %q, Consumer: %q, Buffer: %d, Component: %s}", inType, outType, p.Name, consumer, p.Buffer, varName)
	case manifest.KindStreamer:
		spec = fmt.Sprintf("runtime.StreamerSpec[%s, %s]{PipeName: %q, Consumer: %q, Buffer: %d, Component: %s}", inType, outType, p.Name, consumer, p.Buffer, varName)
	case manifest.KindSelector:
		spec = fmt.Sprintf("runtime.SelectorSpec[%s]{PipeName: %q, Consumers: %s, Buffer: %d, Component: %s}", inType, p.Name, stringSliceLiteral(consumers), p.Buffer, varName)
	case manifest.KindExporter:
		spec = fmt.Sprintf("runtime.ExporterSpec[%s]{PipeName: %q, Component: %s}", inType, p.Name, varName)
	default:
		return pipeDecl{}, fmt.Errorf("pipe %q: unknown kind %q", p.Name, p.Kind)
	}

	return pipeDecl{Name: p.Name, Var: varName, Ctor: ctor, Spec: spec}, nil
}

// pipeInputGoType resolves a pipe's input record type: the effective
// output type of its first upstream (all upstreams agree, validated).
// Sources have no input; they get the empty string and never reference it.
func pipeInputGoType(vm *manifest.ValidatedManifest, p manifest.Pipe, goNames map[string]string) (string, error) {
	if len(p.Upstream) == 0 {
		return "", nil
	}
	dt := vm.EffectiveOutputType(p.Upstream[0])
	if dt == nil {
		return "", fmt.Errorf("pipe %q: upstream %q has no resolvable output type", p.Name, p.Upstream[0])
	}
	return goType(dt, goNames)
}

func pipeOutputGoType(vm *manifest.ValidatedManifest, p manifest.Pipe, goNames map[string]string) (string, error) {
	if p.Kind == manifest.KindExporter {
		return "", nil
	}
	dt := vm.EffectiveOutputType(p.Name)
	if dt == nil {
		return "", fmt.Errorf("pipe %q: no resolvable output type", p.Name)
	}
	return goType(dt, goNames)
}

func stringSliceLiteral(values []string) string {
	var buf bytes.Buffer
	buf.WriteString("[]string{")
	for i, v := range values {
		if i > 0 {
			buf.WriteString(", ")
		}
		fmt.Fprintf(&buf, "%q", v)
	}
	buf.WriteString("}")
	return buf.String()
}

// contextStoreSettings maps the first declared cstore onto the generated
// App's mode and refresh. A manifest with no cstores gets the print mode
// at the default refresh.
func contextStoreSettings(m *manifest.Manifest) (mode string, refreshMillis int) {
	mode, refreshMillis = "print", 1000
	if len(m.ContextStores) == 0 {
		return mode, refreshMillis
	}
	cfg := m.ContextStores[0].Config
	if cfg.Type == "TUI" {
		mode = "tui"
	}
	if cfg.Path != "" {
		var parsed struct {
			RefreshMillis int `yaml:"refresh_ms"`
		}
		if err := readYAML(cfg.Path, &parsed); err == nil && parsed.RefreshMillis > 0 {
			refreshMillis = parsed.RefreshMillis
		}
	}
	return mode, refreshMillis
}

// moduleImports collects the deduplicated union of every dependency's
// declared module import paths, emitted as blank imports so user component
// packages get their init-time registrations run.
func moduleImports(m *manifest.Manifest) []string {
	seen := make(map[string]bool)
	var out []string
	for _, d := range m.Dependencies {
		for _, mod := range d.Modules {
			if !seen[mod] {
				seen[mod] = true
				out = append(out, mod)
			}
		}
	}
	sort.Strings(out)
	return out
}

// lowerDependencies dedups declared package dependencies by package name,
// first declaration wins, and splits them into require and replace lines.
func lowerDependencies(deps []manifest.PackageDependency) ([]requireDecl, []replaceDecl) {
	seen := make(map[string]bool)
	var requires []requireDecl
	var replaces []replaceDecl
	for _, d := range deps {
		if d.Package == pipebaseModule || seen[d.Package] {
			continue
		}
		seen[d.Package] = true
		version := d.Version
		if version == "" {
			// A tagged git dependency's tag doubles as its module version.
			version = d.Tag
		}
		if version == "" {
			version = "v0.0.0"
		}
		requires = append(requires, requireDecl{Package: d.Package, Version: version})
		if d.Path != "" {
			replaces = append(replaces, replaceDecl{Package: d.Package, Path: d.Path})
		}
	}
	return requires, replaces
}

func readYAML(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, out)
}

// upstreamClosure filters an already topologically ordered pipe list down
// to name plus its transitive upstreams.
func upstreamClosure(ordered []manifest.Pipe, name string) ([]manifest.Pipe, error) {
	byName := make(map[string]manifest.Pipe, len(ordered))
	for _, p := range ordered {
		byName[p.Name] = p
	}
	if _, ok := byName[name]; !ok {
		return nil, fmt.Errorf("unknown pipe %q", name)
	}

	keep := map[string]bool{}
	var visit func(string)
	visit = func(n string) {
		if keep[n] {
			return
		}
		keep[n] = true
		for _, up := range byName[n].Upstream {
			visit(up)
		}
	}
	visit(name)

	var out []manifest.Pipe
	for _, p := range ordered {
		if keep[p.Name] {
			out = append(out, p)
		}
	}
	return out, nil
}
