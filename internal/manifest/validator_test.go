package manifest

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func mustParseManifest(t *testing.T, contents string) *Manifest {
	t.Helper()
	m, err := Parse([]byte(contents), "pipe.yml")
	require.NoError(t, err)
	return m
}

func diagMessages(diags []Diagnostic) string {
	parts := make([]string, len(diags))
	for i, d := range diags {
		parts[i] = d.String()
	}
	return strings.Join(parts, "\n")
}

func TestValidateAccepts(t *testing.T) {
	t.Parallel()

	vm, diags := Validate(mustParseManifest(t, validManifest), FullScope())
	require.Empty(t, diags)
	require.NotNil(t, vm)

	out := vm.EffectiveOutputType("timer")
	require.NotNil(t, out)
	require.Equal(t, "u64", out.String())
	require.Nil(t, vm.EffectiveOutputType("printer"))
}

func TestValidateDiagnostics(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name     string
		contents string
		want     []string // substrings that must appear in the diagnostics
	}{
		{
			name: "duplicate pipe names",
			contents: `pipes:
  - name: timer
    ty: poller
    config:
      ty: Timer
    output: u64
  - name: timer
    ty: poller
    config:
      ty: Timer
    output: u64
`,
			want: []string{`duplicate pipe name "timer"`},
		},
		{
			name: "unknown upstream",
			contents: `pipes:
  - name: printer
    ty: exporter
    upstream:
      - ghost
    config:
      ty: Printer
`,
			want: []string{`unknown upstream "ghost"`},
		},
		{
			name: "source with upstream and sink without",
			contents: `pipes:
  - name: timer
    ty: poller
    upstream:
      - printer
    config:
      ty: Timer
    output: u64
  - name: printer
    ty: exporter
    config:
      ty: Printer
`,
			want: []string{
				"poller pipes must have no upstream",
				"exporter pipes require at least one upstream",
			},
		},
		{
			name: "cycle names every pipe on the back edge",
			contents: `pipes:
  - name: a
    ty: mapper
    upstream:
      - b
    config:
      ty: Identity
    output: u64
  - name: b
    ty: mapper
    upstream:
      - a
    config:
      ty: Identity
    output: u64
`,
			want: []string{"cycle detected", "a", "b"},
		},
		{
			name: "field type must resolve",
			contents: `pipes:
  - name: timer
    ty: poller
    config:
      ty: Timer
    output: u64
objects:
  - ty: record
    fields:
      - name: payload
        data_ty: seq<Ghost>
`,
			want: []string{`unresolved type reference "Ghost"`},
		},
		{
			name: "upstream type mismatch across fan-in",
			contents: `pipes:
  - name: ticks
    ty: poller
    config:
      ty: Timer
    output: u64
  - name: words
    ty: poller
    config:
      ty: WordSource
    output: string
  - name: merge
    ty: mapper
    upstream:
      - ticks
      - words
    config:
      ty: Identity
    output: u64
`,
			want: []string{"upstream type mismatch"},
		},
		{
			name: "non selector with two consumers",
			contents: `pipes:
  - name: timer
    ty: poller
    config:
      ty: Timer
    output: u64
  - name: left
    ty: exporter
    upstream:
      - timer
    config:
      ty: Printer
  - name: right
    ty: exporter
    upstream:
      - timer
    config:
      ty: Printer
`,
			want: []string{"is not a selector"},
		},
		{
			name: "missing config type",
			contents: `pipes:
  - name: timer
    ty: poller
    config:
      ty: ""
    output: u64
`,
			want: []string{"config type name is required"},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			vm, diags := Validate(mustParseManifest(t, tc.contents), FullScope())
			require.Nil(t, vm)
			all := diagMessages(diags)
			for _, want := range tc.want {
				require.Contains(t, all, want)
			}
		})
	}
}

func TestValidateReportsEveryCycle(t *testing.T) {
	t.Parallel()

	contents := `pipes:
  - name: a
    ty: mapper
    upstream:
      - b
    config:
      ty: Identity
    output: u64
  - name: b
    ty: mapper
    upstream:
      - a
    config:
      ty: Identity
    output: u64
  - name: c
    ty: mapper
    upstream:
      - d
    config:
      ty: Identity
    output: u64
  - name: d
    ty: mapper
    upstream:
      - c
    config:
      ty: Identity
    output: u64
`
	vm, diags := Validate(mustParseManifest(t, contents), FullScope())
	require.Nil(t, vm)

	var cycleDiags []Diagnostic
	for _, d := range diags {
		if strings.Contains(d.Message, "cycle detected") {
			cycleDiags = append(cycleDiags, d)
		}
	}
	require.Len(t, cycleDiags, 2)
	require.Contains(t, cycleDiags[0].Message, "a")
	require.Contains(t, cycleDiags[0].Message, "b")
	require.Contains(t, cycleDiags[1].Message, "c")
	require.Contains(t, cycleDiags[1].Message, "d")
}

func TestValidateSelectorPassThrough(t *testing.T) {
	t.Parallel()

	contents := `pipes:
  - name: timer
    ty: poller
    config:
      ty: Timer
    output: u64
  - name: split
    ty: selector
    upstream:
      - timer
    config:
      ty: Selector
  - name: left
    ty: exporter
    upstream:
      - split
    config:
      ty: Printer
  - name: right
    ty: exporter
    upstream:
      - split
    config:
      ty: Printer
`
	vm, diags := Validate(mustParseManifest(t, contents), FullScope())
	require.Empty(t, diags)
	require.NotNil(t, vm)

	// The selector carries its upstream's type through unchanged.
	out := vm.EffectiveOutputType("split")
	require.NotNil(t, out)
	require.Equal(t, "u64", out.String())
}

func TestValidateConfigFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	good := filepath.Join(dir, "timer.yml")
	require.NoError(t, os.WriteFile(good, []byte("interval_ms: 100\n"), 0o644))
	bad := filepath.Join(dir, "broken.yml")
	require.NoError(t, os.WriteFile(bad, []byte("- this\n- is\n- a sequence\n"), 0o644))

	contents := `pipes:
  - name: timer
    ty: poller
    config:
      ty: Timer
      path: ` + good + `
    output: u64
  - name: other
    ty: poller
    config:
      ty: Timer
      path: ` + bad + `
    output: u64
  - name: ghost
    ty: poller
    config:
      ty: Timer
      path: ` + filepath.Join(dir, "missing.yml") + `
    output: u64
`
	vm, diags := Validate(mustParseManifest(t, contents), FullScope())
	require.Nil(t, vm)
	all := diagMessages(diags)
	require.Contains(t, all, "does not parse as a mapping")
	require.Contains(t, all, "missing.yml")
	require.NotContains(t, all, good)
}

func TestValidateScopeFiltering(t *testing.T) {
	t.Parallel()

	// Broken object, intact pipes: the pipe-only scope must accept it.
	contents := `pipes:
  - name: timer
    ty: poller
    config:
      ty: Timer
    output: u64
  - name: printer
    ty: exporter
    upstream:
      - timer
    config:
      ty: Printer
objects:
  - ty: record
    fields:
      - name: payload
        data_ty: seq<Ghost>
`
	m := mustParseManifest(t, contents)

	vm, diags := Validate(m, Scope{Pipes: true})
	require.Empty(t, diags)
	require.NotNil(t, vm)

	vm, diags = Validate(mustParseManifest(t, contents), Scope{Objects: true})
	require.Nil(t, vm)
	require.Contains(t, diagMessages(diags), "Ghost")
}
