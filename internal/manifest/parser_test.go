package manifest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	pberrors "github.com/pipebase/pipebase/pkg/errors"
)

const validManifest = `pipes:
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
cstores:
  - name: store
    config:
      ty: Print
`

func TestParse(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name     string
		contents string
		assert   func(t *testing.T, m *Manifest, err error)
	}{
		{
			name:     "valid manifest is parsed",
			contents: validManifest,
			assert: func(t *testing.T, m *Manifest, err error) {
				require.NoError(t, err)
				require.Len(t, m.Pipes, 2)
				require.Equal(t, "timer", m.Pipes[0].Name)
				require.Equal(t, KindPoller, m.Pipes[0].Kind)
				require.Equal(t, []string{"timer"}, m.Pipes[1].Upstream)
				require.Len(t, m.ContextStores, 1)
			},
		},
		{
			name:     "absent buffer gets the default",
			contents: validManifest,
			assert: func(t *testing.T, m *Manifest, err error) {
				require.NoError(t, err)
				require.Equal(t, DefaultBuffer, m.Pipes[0].Buffer)
			},
		},
		{
			name: "explicit buffer is kept",
			contents: `pipes:
  - name: timer
    ty: poller
    config:
      ty: Timer
    output: u64
    buffer: 8
`,
			assert: func(t *testing.T, m *Manifest, err error) {
				require.NoError(t, err)
				require.Equal(t, 8, m.Pipes[0].Buffer)
			},
		},
		{
			name:     "broken yaml reports a parse error",
			contents: "pipes: [not: {closed",
			assert: func(t *testing.T, m *Manifest, err error) {
				require.Error(t, err)
				var parseErr *pberrors.ManifestParseError
				require.ErrorAs(t, err, &parseErr)
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			m, err := Parse([]byte(tc.contents), "pipe.yml")
			tc.assert(t, m, err)
		})
	}
}

func TestLoad(t *testing.T) {
	t.Parallel()

	t.Run("missing file reports a parse error", func(t *testing.T) {
		t.Parallel()
		_, err := Load(filepath.Join(t.TempDir(), "nope.yml"))
		var parseErr *pberrors.ManifestParseError
		require.ErrorAs(t, err, &parseErr)
	})

	t.Run("round trips through disk", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "pipe.yml")
		require.NoError(t, os.WriteFile(path, []byte(validManifest), 0o644))
		m, err := Load(path)
		require.NoError(t, err)
		require.Len(t, m.Pipes, 2)
	})
}
