package manifest

import (
	"os"

	pipebaseerrors "github.com/pipebase/pipebase/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Load reads and decodes a manifest file from disk. It performs no
// validation beyond what the YAML struct tags enforce during decode; the
// graph-shaped checks live in Validate (validator.go).
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, pipebaseerrors.NewManifestParseError(path, err)
	}
	return Parse(data, path)
}

// Parse decodes manifest bytes already read from somewhere (a file, an
// embedded default, a test fixture).
func Parse(data []byte, sourcePath string) (*Manifest, error) {
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, pipebaseerrors.NewManifestParseError(sourcePath, err)
	}
	applyDefaults(&m)
	return &m, nil
}

// applyDefaults replaces every zero or negative buffer with DefaultBuffer.
// Pipe.UnmarshalYAML already defaults an absent `buffer` key but keeps an
// explicit `buffer: 0` or negative value as written; this pass catches
// those. A Manifest built in code without going through Parse is not
// touched here.
func applyDefaults(m *Manifest) {
	for i := range m.Pipes {
		if m.Pipes[i].Buffer <= 0 {
			m.Pipes[i].Buffer = DefaultBuffer
		}
	}
}
