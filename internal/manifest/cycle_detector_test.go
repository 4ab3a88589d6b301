package manifest

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func pipe(name string, upstream ...string) Pipe {
	return Pipe{Name: name, Kind: KindMapper, Upstream: upstream}
}

func TestDetectCycles(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name  string
		pipes []Pipe
		want  [][]string // one entry per cycle: names that must appear in it
	}{
		{
			name:  "acyclic chain",
			pipes: []Pipe{pipe("a"), pipe("b", "a"), pipe("c", "b")},
		},
		{
			name:  "acyclic diamond",
			pipes: []Pipe{pipe("a"), pipe("b", "a"), pipe("c", "a"), pipe("d", "b", "c")},
		},
		{
			name:  "two node cycle",
			pipes: []Pipe{pipe("a", "b"), pipe("b", "a")},
			want:  [][]string{{"a", "b"}},
		},
		{
			name:  "self loop",
			pipes: []Pipe{pipe("a", "a")},
			want:  [][]string{{"a"}},
		},
		{
			name:  "cycle behind a chain",
			pipes: []Pipe{pipe("a"), pipe("b", "a", "d"), pipe("c", "b"), pipe("d", "c")},
			want:  [][]string{{"b", "c", "d"}},
		},
		{
			name: "two independent cycles are both reported",
			pipes: []Pipe{
				pipe("a", "b"), pipe("b", "a"),
				pipe("c", "d"), pipe("d", "c"),
			},
			want: [][]string{{"a", "b"}, {"c", "d"}},
		},
		{
			name:  "dangling upstream is not a cycle",
			pipes: []Pipe{pipe("a", "ghost"), pipe("b", "a")},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			cycles := detectCycles(tc.pipes)
			require.Len(t, cycles, len(tc.want))
			for i, wantNames := range tc.want {
				for _, name := range wantNames {
					require.Contains(t, cycles[i], name)
				}
				// Each walk closes its loop: first and last entries match.
				require.Equal(t, cycles[i][0], cycles[i][len(cycles[i])-1])
			}
		})
	}
}
