package config

import "sort"

// detectCycle reports a dependency cycle among projects, as the sequence of
// ids that form it, or nil if the dependency graph is acyclic.
func detectCycle(projects []ProjectSpec) []string {
	graph := make(map[string][]string, len(projects))
	for _, p := range projects {
		graph[p.ID] = p.DependsOn
	}

	visiting := make(map[string]bool, len(projects))
	visited := make(map[string]bool, len(projects))
	var stack []string

	var cycle []string
	var dfs func(string) bool
	dfs = func(node string) bool {
		visiting[node] = true
		stack = append(stack, node)

		for _, dep := range graph[node] {
			if !visited[dep] {
				if visiting[dep] {
					idx := indexOf(stack, dep)
					if idx >= 0 {
						cycle = append([]string{}, stack[idx:]...)
						cycle = append(cycle, dep)
					}
					return true
				}
				if dfs(dep) {
					return true
				}
			}
		}

		visiting[node] = false
		visited[node] = true
		stack = stack[:len(stack)-1]
		return false
	}

	// Deterministic traversal order so repeated runs report the same cycle.
	ids := make([]string, 0, len(graph))
	for id := range graph {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		if visited[id] {
			continue
		}
		if dfs(id) {
			break
		}
	}

	return cycle
}

func indexOf(slice []string, target string) int {
	for i, v := range slice {
		if v == target {
			return i
		}
	}
	return -1
}
