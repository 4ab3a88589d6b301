package manifest

import "sort"

// detectCycles performs a grey/black colored DFS over the pipe graph's
// upstream edges and returns one name list per back edge discovered, each
// closing the loop (first and last entries match), or nil if the graph is
// acyclic. A traversal that found a back edge resumes from the next
// unvisited root rather than stopping, so independent cycles are all
// reported.
func detectCycles(pipes []Pipe) [][]string {
	graph := make(map[string][]string, len(pipes))
	names := make([]string, 0, len(pipes))
	for _, p := range pipes {
		graph[p.Name] = append([]string(nil), p.Upstream...)
		names = append(names, p.Name)
	}
	sort.Strings(names)

	const (
		white = 0
		grey  = 1
		black = 2
	)
	color := make(map[string]int, len(pipes))
	var stack []string
	var cycles [][]string

	var dfs func(string) bool
	dfs = func(node string) bool {
		color[node] = grey
		stack = append(stack, node)

		for _, dep := range graph[node] {
			if _, known := graph[dep]; !known {
				// Unknown upstream names are reported by the separate
				// "unknown upstream" check; skip them here so a dangling
				// reference does not also manifest as a false cycle.
				continue
			}
			switch color[dep] {
			case white:
				if dfs(dep) {
					return true
				}
			case grey:
				idx := indexOf(stack, dep)
				if idx >= 0 {
					cycle := append([]string{}, stack[idx:]...)
					cycles = append(cycles, append(cycle, dep))
				}
				return true
			}
		}

		color[node] = black
		stack = stack[:len(stack)-1]
		return false
	}

	for _, name := range names {
		if color[name] == white {
			if dfs(name) {
				// The aborted walk left grey nodes on the stack; mark them
				// black so a later root does not re-report the same loop,
				// then clear the stack for the next traversal.
				for _, n := range stack {
					color[n] = black
				}
				stack = stack[:0]
			}
		}
	}

	return cycles
}

func indexOf(haystack []string, needle string) int {
	for i, v := range haystack {
		if v == needle {
			return i
		}
	}
	return -1
}
