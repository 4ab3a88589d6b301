package manifest

import (
	"fmt"
	"os"
	"sort"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Diagnostic is a single validator finding. Category is one of "pipe",
// "object", "cstore" so the CLI's `check` command can filter.
type Diagnostic struct {
	Category string
	Subject  string
	Message  string
}

func (d Diagnostic) String() string {
	if d.Subject == "" {
		return fmt.Sprintf("[%s] %s", d.Category, d.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", d.Category, d.Subject, d.Message)
}

// Scope selects which diagnostic categories Validate should run, mirroring
// the CLI's `check -p -o` / `validate` split.
type Scope struct {
	Pipes   bool
	Objects bool
	CStores bool
}

// FullScope runs every check category; used by `validate`.
func FullScope() Scope { return Scope{Pipes: true, Objects: true, CStores: true} }

var structTagValidator = validator.New()

// Validate runs every static check against m and returns either a
// ValidatedManifest (when no diagnostics were raised in the requested
// scope) or the full ordered list of diagnostics. Unlike a fail-fast
// validator, every check always runs; each produces diagnostics but never
// stops the remaining checks.
func Validate(m *Manifest, scope Scope) (*ValidatedManifest, []Diagnostic) {
	var diags []Diagnostic

	if err := structTagValidator.Struct(m); err != nil {
		diags = append(diags, Diagnostic{Category: "pipe", Message: fmt.Sprintf("struct validation: %v", err)})
	}

	pipeNames := make(map[string]int, len(m.Pipes)) // name -> occurrence count
	for _, p := range m.Pipes {
		pipeNames[p.Name]++
	}
	objectNames := make(map[string]int, len(m.Objects))
	for _, o := range m.Objects {
		objectNames[o.Name]++
	}
	cstoreNames := make(map[string]int, len(m.ContextStores))
	for _, c := range m.ContextStores {
		cstoreNames[c.Name]++
	}

	if scope.Pipes {
		diags = append(diags, checkDuplicateNames("pipe", pipeNames)...)
		diags = append(diags, checkUnknownUpstream(m)...)
		diags = append(diags, checkArity(m)...)
		diags = append(diags, checkSingleConsumer(m)...)
		diags = append(diags, checkCycle(m)...)
		diags = append(diags, checkBufferSizes(m)...)
		diags = append(diags, checkConfigRefs("pipe", pipeConfigRefs(m))...)
	}
	if scope.Objects {
		diags = append(diags, checkDuplicateNames("object", objectNames)...)
		diags = append(diags, checkFieldTypes(m)...)
	}
	if scope.CStores {
		diags = append(diags, checkDuplicateNames("cstore", cstoreNames)...)
		diags = append(diags, checkConfigRefs("cstore", cstoreConfigRefs(m))...)
	}
	// Type agreement crosses pipe and object checks; run it whenever pipes
	// are in scope, since it is meaningless without the pipe graph.
	if scope.Pipes {
		diags = append(diags, checkTypeAgreement(m)...)
	}

	if len(diags) > 0 {
		sortDiagnostics(diags)
		return nil, diags
	}

	resolveOutputTypes(m)
	resolved, _ := resolvedPipeOutputs(m)
	return &ValidatedManifest{m: m, outputs: resolved, pipes: m.PipeMap()}, nil
}

func sortDiagnostics(diags []Diagnostic) {
	sort.SliceStable(diags, func(i, j int) bool {
		if diags[i].Category != diags[j].Category {
			return diags[i].Category < diags[j].Category
		}
		return diags[i].Subject < diags[j].Subject
	})
}

// (a) duplicate names.
func checkDuplicateNames(category string, counts map[string]int) []Diagnostic {
	names := make([]string, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}
	sort.Strings(names)

	var diags []Diagnostic
	for _, name := range names {
		if counts[name] > 1 {
			diags = append(diags, Diagnostic{Category: category, Subject: name, Message: fmt.Sprintf("duplicate %s name %q", category, name)})
		}
	}
	return diags
}

// (b) unknown upstream names.
func checkUnknownUpstream(m *Manifest) []Diagnostic {
	known := m.PipeMap()
	var diags []Diagnostic
	for _, p := range m.Pipes {
		for _, up := range p.Upstream {
			if _, ok := known[up]; !ok {
				diags = append(diags, Diagnostic{Category: "pipe", Subject: p.Name, Message: fmt.Sprintf("unknown upstream %q", up)})
			}
		}
	}
	return diags
}

// (c) kind/upstream arity: sources (listener, poller) must have zero
// upstreams; every other kind must have at least one.
func checkArity(m *Manifest) []Diagnostic {
	var diags []Diagnostic
	for _, p := range m.Pipes {
		isSource := p.Kind == KindListener || p.Kind == KindPoller
		switch {
		case isSource && len(p.Upstream) != 0:
			diags = append(diags, Diagnostic{Category: "pipe", Subject: p.Name, Message: fmt.Sprintf("%s pipes must have no upstream", p.Kind)})
		case !isSource && len(p.Upstream) == 0:
			diags = append(diags, Diagnostic{Category: "pipe", Subject: p.Name, Message: fmt.Sprintf("%s pipes require at least one upstream", p.Kind)})
		case !p.Kind.valid():
			diags = append(diags, Diagnostic{Category: "pipe", Subject: p.Name, Message: fmt.Sprintf("unknown pipe kind %q", p.Kind)})
		}
	}
	return diags
}

// checkSingleConsumer enforces that only a Selector pipe may be named as
// upstream by more than one other pipe: a plain pipe's output channel has
// exactly one receiver in the kernel's wiring (runtime/kernel/fanin.go), so
// a manifest wanting more than one consumer of the same producer must
// route through an explicit fan-out Selector rather than
// relying on an implicit broadcast the kernel does not provide.
func checkSingleConsumer(m *Manifest) []Diagnostic {
	pipes := m.PipeMap()
	consumers := make(map[string]int, len(m.Pipes))
	for _, p := range m.Pipes {
		for _, up := range p.Upstream {
			consumers[up]++
		}
	}

	names := make([]string, 0, len(consumers))
	for name := range consumers {
		names = append(names, name)
	}
	sort.Strings(names)

	var diags []Diagnostic
	for _, name := range names {
		if consumers[name] <= 1 {
			continue
		}
		up, ok := pipes[name]
		if ok && up.Kind == KindSelector {
			continue
		}
		diags = append(diags, Diagnostic{
			Category: "pipe",
			Subject:  name,
			Message:  fmt.Sprintf("pipe %q has %d consumers but is not a selector; insert an explicit selector pipe to fan out", name, consumers[name]),
		})
	}
	return diags
}

// (d) cycle detection; one diagnostic per discovered back edge, naming
// every pipe on the loop.
func checkCycle(m *Manifest) []Diagnostic {
	var diags []Diagnostic
	for _, cycle := range detectCycles(m.Pipes) {
		diags = append(diags, Diagnostic{
			Category: "pipe",
			Subject:  cycle[0],
			Message:  fmt.Sprintf("cycle detected: %v", cycle),
		})
	}
	return diags
}

// (e) field-type resolution: built-in or declared object.
func checkFieldTypes(m *Manifest) []Diagnostic {
	objects := m.ObjectMap()
	var diags []Diagnostic
	for oi := range m.Objects {
		obj := &m.Objects[oi]
		for fi := range obj.Fields {
			field := &obj.Fields[fi]
			dt, err := ParseDataType(field.DataTy)
			if err != nil {
				diags = append(diags, Diagnostic{Category: "object", Subject: obj.Name + "." + field.Name, Message: err.Error()})
				continue
			}
			if unresolved := firstUnresolvedRef(dt, objects); unresolved != "" {
				diags = append(diags, Diagnostic{Category: "object", Subject: obj.Name + "." + field.Name, Message: fmt.Sprintf("unresolved type reference %q", unresolved)})
				continue
			}
			field.Resolved = dt
		}
	}
	return diags
}

func firstUnresolvedRef(dt *DataType, objects map[string]*Object) string {
	if dt == nil {
		return ""
	}
	switch dt.Composite {
	case CompositeObject:
		if _, ok := objects[dt.ObjectRef]; !ok {
			return dt.ObjectRef
		}
	case CompositeArray, CompositeSequence, CompositeOption:
		return firstUnresolvedRef(dt.Elem, objects)
	case CompositeMap:
		if r := firstUnresolvedRef(dt.Key, objects); r != "" {
			return r
		}
		return firstUnresolvedRef(dt.Value, objects)
	case CompositePair:
		if r := firstUnresolvedRef(dt.Left, objects); r != "" {
			return r
		}
		return firstUnresolvedRef(dt.Right, objects)
	}
	return ""
}

// resolvedPipeOutputs parses and resolves every pipe's declared Output type
// (excluding exporters, which have none), reporting a diagnostic per
// unparseable or unresolved one.
func resolvedPipeOutputs(m *Manifest) (map[string]*DataType, []Diagnostic) {
	objects := m.ObjectMap()
	resolved := make(map[string]*DataType, len(m.Pipes))
	var diags []Diagnostic
	for _, p := range m.Pipes {
		if p.Kind == KindExporter || p.Output == "" {
			continue
		}
		dt, err := ParseDataType(p.Output)
		if err != nil {
			diags = append(diags, Diagnostic{Category: "pipe", Subject: p.Name, Message: fmt.Sprintf("invalid output type: %v", err)})
			continue
		}
		if unresolved := firstUnresolvedRef(dt, objects); unresolved != "" {
			diags = append(diags, Diagnostic{Category: "pipe", Subject: p.Name, Message: fmt.Sprintf("output references unresolved type %q", unresolved)})
			continue
		}
		resolved[p.Name] = dt
	}
	return resolved, diags
}

// (f) type agreement between producer.output and each downstream's expected
// input, with pass-through through selectors.
func checkTypeAgreement(m *Manifest) []Diagnostic {
	pipes := m.PipeMap()
	resolved, diags := resolvedPipeOutputs(m)

	effectiveOutput := func(name string) *DataType {
		return effectiveOutputType(pipes, resolved, name)
	}

	// The manifest format has no separate "input type" field on a pipe —
	// its input type is defined to be whatever type its upstream(s) agree
	// on. With a single upstream that is just the upstream's
	// output type; with fan-in (multiple upstreams) every upstream
	// must agree with every other, since they all feed the same channel.
	for _, p := range m.Pipes {
		if p.Kind == KindSelector || len(p.Upstream) == 0 {
			continue
		}
		var first *DataType
		var firstName string
		for _, up := range p.Upstream {
			upType := effectiveOutput(up)
			if upType == nil {
				continue // reported elsewhere (unknown upstream / bad output)
			}
			if first == nil {
				first, firstName = upType, up
				continue
			}
			if !first.Equal(upType) {
				diags = append(diags, Diagnostic{
					Category: "pipe",
					Subject:  p.Name,
					Message:  fmt.Sprintf("upstream type mismatch: %q produces %s but %q produces %s", firstName, first, up, upType),
				})
			}
		}
	}
	return diags
}

func pipeConfigRefs(m *Manifest) map[string]ConfigRef {
	out := make(map[string]ConfigRef, len(m.Pipes))
	for _, p := range m.Pipes {
		out[p.Name] = p.Config
	}
	return out
}

func cstoreConfigRefs(m *Manifest) map[string]ConfigRef {
	out := make(map[string]ConfigRef, len(m.ContextStores))
	for _, c := range m.ContextStores {
		out[c.Name] = c.Config
	}
	return out
}

// (g) per-pipe config reference must have a type name and, if a file path
// is given, the file must exist and parse as a mapping.
func checkConfigRefs(category string, refs map[string]ConfigRef) []Diagnostic {
	names := make([]string, 0, len(refs))
	for name := range refs {
		names = append(names, name)
	}
	sort.Strings(names)

	var diags []Diagnostic
	for _, name := range names {
		ref := refs[name]
		if ref.Type == "" {
			diags = append(diags, Diagnostic{Category: category, Subject: name, Message: "config type name is required"})
			continue
		}
		if ref.Path == "" {
			continue
		}
		data, err := os.ReadFile(ref.Path)
		if err != nil {
			diags = append(diags, Diagnostic{Category: category, Subject: name, Message: fmt.Sprintf("config file %q: %v", ref.Path, err)})
			continue
		}
		var asMap map[string]interface{}
		if err := yaml.Unmarshal(data, &asMap); err != nil {
			diags = append(diags, Diagnostic{Category: category, Subject: name, Message: fmt.Sprintf("config file %q does not parse as a mapping: %v", ref.Path, err)})
		}
	}
	return diags
}

// (h) buffer size, with the default applied if absent. By the
// time Validate runs, Load/Parse has already defaulted zero buffers, so
// this check only ever fires for manifests built by hand (e.g. in tests)
// with a negative or explicit zero value.
func checkBufferSizes(m *Manifest) []Diagnostic {
	var diags []Diagnostic
	for i := range m.Pipes {
		p := &m.Pipes[i]
		if p.Buffer <= 0 {
			p.Buffer = DefaultBuffer
		}
	}
	return diags
}

// effectiveOutputType is a selector's "input type" is whatever type its
// single upstream produces; selectors pass the value through unchanged
//, so resolving one walks
// upstream until it hits a non-selector pipe.
func effectiveOutputType(pipes map[string]*Pipe, resolved map[string]*DataType, name string) *DataType {
	seen := map[string]bool{}
	for {
		if seen[name] {
			return nil // a cycle; already reported by checkCycle
		}
		seen[name] = true
		p, ok := pipes[name]
		if !ok {
			return nil
		}
		if p.Kind != KindSelector {
			return resolved[name]
		}
		if len(p.Upstream) == 0 {
			return nil
		}
		name = p.Upstream[0]
	}
}

func resolveOutputTypes(m *Manifest) {
	for i := range m.Pipes {
		p := &m.Pipes[i]
		if p.Output == "" {
			continue
		}
		if dt, err := ParseDataType(p.Output); err == nil {
			p.OutputType = dt
		}
	}
}
