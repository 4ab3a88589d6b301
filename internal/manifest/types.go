// Package manifest holds the in-memory, immutable-after-load representation
// of a pipeline manifest and the static validator that reduces it to a
// ValidatedManifest. Types here are decoded from YAML with gopkg.in/yaml.v3
// and struct-tag validated with go-playground/validator/v10: mechanical tag
// checks first, then the hand-written graph checks the tag language cannot
// express.
package manifest

import (
	"gopkg.in/yaml.v3"
)

// PipeKind enumerates the seven task kinds of the pipe kernel.
type PipeKind string

const (
	KindListener  PipeKind = "listener"
	KindPoller    PipeKind = "poller"
	KindMapper    PipeKind = "mapper"
	KindCollector PipeKind = "collector"
	KindStreamer  PipeKind = "streamer"
	KindSelector  PipeKind = "selector"
	KindExporter  PipeKind = "exporter"
)

var validKinds = map[PipeKind]bool{
	KindListener: true, KindPoller: true, KindMapper: true, KindCollector: true,
	KindStreamer: true, KindSelector: true, KindExporter: true,
}

// DefaultBuffer is applied to a pipe whose manifest entry omits `buffer`.
const DefaultBuffer = 1024

// ConfigRef names a component's config type and, optionally, a file it
// should be loaded from. Config materialization is always the two-step
// "load from file or defaults, then construct" sequence.
type ConfigRef struct {
	Type string `yaml:"ty" validate:"required"`
	Path string `yaml:"path,omitempty"`
}

// Pipe is a single named vertex of the manifest graph.
type Pipe struct {
	Name     string   `yaml:"name" validate:"required,pipebase_name"`
	Kind     PipeKind `yaml:"ty" validate:"required"`
	Upstream []string `yaml:"upstream,omitempty"`
	Config   ConfigRef `yaml:"config" validate:"required"`
	Output   string   `yaml:"output,omitempty"`
	Buffer   int      `yaml:"-"`

	// OutputType is resolved from Output by Validator.resolveTypes; nil for
	// exporter pipes, which have no output type.
	OutputType *DataType `yaml:"-"`
}

// DataField is a single named, typed member of an Object.
type DataField struct {
	Name     string            `yaml:"name" validate:"required"`
	DataTy   string            `yaml:"data_ty" validate:"required"`
	Meta     map[string]string `yaml:"meta,omitempty"`
	Resolved *DataType         `yaml:"-"`
}

// Object is a record type declaration referenced by pipe Output/input types
// and by other Object fields.
type Object struct {
	Name   string      `yaml:"ty" validate:"required"`
	Fields []DataField `yaml:"fields" validate:"required,min=1,dive"`
}

// ContextStore names the component that aggregates per-pipe Context
// snapshots.
type ContextStore struct {
	Name   string    `yaml:"name" validate:"required,pipebase_name"`
	Config ConfigRef `yaml:"config" validate:"required"`
}

// ErrorHandler is the optional process-wide PipeError sink.
type ErrorHandler struct {
	Config ConfigRef `yaml:"config" validate:"required"`
}

// PackageDependency names a Go module pulled in by a pipe's component
// implementation, unioned by codegen into the generated program's go.mod.
type PackageDependency struct {
	Package  string   `yaml:"package" validate:"required"`
	Version  string   `yaml:"version,omitempty"`
	Path     string   `yaml:"path,omitempty"`
	Git      string   `yaml:"git,omitempty"`
	Branch   string   `yaml:"branch,omitempty"`
	Tag      string   `yaml:"tag,omitempty"`
	Features []string `yaml:"features,omitempty"`
	Modules  []string `yaml:"modules,omitempty" validate:"required,min=1"`
}

// Manifest is the full parsed pipeline document.
type Manifest struct {
	Pipes        []Pipe              `yaml:"pipes" validate:"required,min=1,dive"`
	Objects      []Object            `yaml:"objects,omitempty" validate:"omitempty,dive"`
	ContextStores []ContextStore     `yaml:"cstores,omitempty" validate:"omitempty,dive"`
	Error        *ErrorHandler       `yaml:"error,omitempty"`
	Dependencies []PackageDependency `yaml:"dependencies,omitempty" validate:"omitempty,dive"`
}

// ObjectMap indexes Objects by name.
func (m *Manifest) ObjectMap() map[string]*Object {
	out := make(map[string]*Object, len(m.Objects))
	for i := range m.Objects {
		out[m.Objects[i].Name] = &m.Objects[i]
	}
	return out
}

// PipeMap indexes Pipes by name.
func (m *Manifest) PipeMap() map[string]*Pipe {
	out := make(map[string]*Pipe, len(m.Pipes))
	for i := range m.Pipes {
		out[m.Pipes[i].Name] = &m.Pipes[i]
	}
	return out
}

// UnmarshalYAML applies the buffer default: an absent `buffer` key becomes
// DefaultBuffer, an explicit value is kept as written. The decoded Pipe
// does not record which of the two happened.
func (p *Pipe) UnmarshalYAML(value *yaml.Node) error {
	type rawPipe Pipe
	var raw struct {
		rawPipe `yaml:",inline"`
		Buffer  *int `yaml:"buffer"`
	}
	if err := value.Decode(&raw); err != nil {
		return err
	}
	*p = Pipe(raw.rawPipe)
	if raw.Buffer != nil {
		p.Buffer = *raw.Buffer
	} else {
		p.Buffer = DefaultBuffer
	}
	return nil
}

// ValidatedManifest wraps a Manifest that passed every check in
// internal/manifest/validator.go. Codegen only ever accepts this type,
// never a raw Manifest, so a skipped validation step is a compile error at
// the call site rather than a runtime surprise.
type ValidatedManifest struct {
	m       *Manifest
	outputs map[string]*DataType
	pipes   map[string]*Pipe
}

// Manifest returns the wrapped, now read-only manifest.
func (v *ValidatedManifest) Manifest() *Manifest {
	return v.m
}

// EffectiveOutputType returns the resolved type a pipe's records carry,
// passing through selector pipes to whatever their upstream produces.
// Used by internal/codegen to pick the Go type
// parameters for each generated PipeSpec; nil for exporters and for any
// name not present in the manifest.
func (v *ValidatedManifest) EffectiveOutputType(name string) *DataType {
	return effectiveOutputType(v.pipes, v.outputs, name)
}

func (k PipeKind) valid() bool { return validKinds[k] }

func (k PipeKind) String() string { return string(k) }
