package codegen

import (
	"sort"

	"github.com/pipebase/pipebase/internal/manifest"
)

// topoSort orders pipes so every producer precedes its consumers,
// breaking ties alphabetically for reproducible generated output. The
// manifest has already been validated acyclic (internal/manifest
// checkCycle), so this never has leftover pipes.
func topoSort(m *manifest.Manifest) []manifest.Pipe {
	byName := m.PipeMap()
	inDegree := make(map[string]int, len(m.Pipes))
	dependents := make(map[string][]string, len(m.Pipes))

	for _, p := range m.Pipes {
		inDegree[p.Name] = len(p.Upstream)
		for _, up := range p.Upstream {
			dependents[up] = append(dependents[up], p.Name)
		}
	}

	var ready []string
	for _, p := range m.Pipes {
		if inDegree[p.Name] == 0 {
			ready = append(ready, p.Name)
		}
	}
	sort.Strings(ready)

	order := make([]manifest.Pipe, 0, len(m.Pipes))
	for len(ready) > 0 {
		name := ready[0]
		ready = ready[1:]
		order = append(order, *byName[name])

		next := append([]string(nil), dependents[name]...)
		sort.Strings(next)
		for _, d := range next {
			inDegree[d]--
			if inDegree[d] == 0 {
				i := sort.SearchStrings(ready, d)
				ready = append(ready, "")
				copy(ready[i+1:], ready[i:])
				ready[i] = d
			}
		}
	}
	return order
}

// consumersOf returns the names of every pipe that lists name as an
// upstream, in manifest declaration order.
func consumersOf(m *manifest.Manifest, name string) []string {
	var out []string
	for _, p := range m.Pipes {
		for _, up := range p.Upstream {
			if up == name {
				out = append(out, p.Name)
				break
			}
		}
	}
	return out
}
