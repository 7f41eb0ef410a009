package config

import (
	"fmt"
	"sort"

	"github.com/bloop-build/compilesched/internal/project"
)

// BuildDag converts a validated Document into the Dag[struct{}] shape the
// traversal engine walks: every ProjectSpec becomes a project.Project, and
// depends_on edges become Dag children, so a project's dependencies compute
// before the project itself (SPEC_FULL.md §4.5.1). A single root with no
// dependents is returned as is; when there are several, they are fanned out
// under a single Aggregate so one call to Engine.Traverse covers the whole
// document.
//
// BuildDag assumes doc has already passed ValidateDocument: it does not
// re-check for duplicate ids, dangling references, or cycles.
func BuildDag(doc *Document) (*project.Dag[struct{}], error) {
	specs := ProjectMap(doc.Projects)

	nodes := make(map[string]*project.Dag[struct{}], len(doc.Projects))
	hasParent := make(map[string]bool, len(doc.Projects))

	var build func(id string) (*project.Dag[struct{}], error)
	build = func(id string) (*project.Dag[struct{}], error) {
		if n, ok := nodes[id]; ok {
			return n, nil
		}
		spec, ok := specs[id]
		if !ok {
			return nil, fmt.Errorf("config: project %q not found", id)
		}

		children := make([]*project.Dag[struct{}], 0, len(spec.DependsOn))
		for _, dep := range spec.DependsOn {
			child, err := build(dep)
			if err != nil {
				return nil, err
			}
			children = append(children, child)
			hasParent[dep] = true
		}

		name := spec.Name
		if name == "" {
			name = spec.ID
		}
		p := &project.Project{UniqueID: spec.ID, Name: name}

		var n *project.Dag[struct{}]
		if len(children) == 0 {
			n = project.Leaf[struct{}](p, struct{}{})
		} else {
			n = project.Parent[struct{}](p, struct{}{}, children)
		}
		nodes[id] = n
		return n, nil
	}

	ids := make([]string, 0, len(doc.Projects))
	for _, p := range doc.Projects {
		ids = append(ids, p.ID)
	}
	sort.Strings(ids)

	for _, id := range ids {
		if _, err := build(id); err != nil {
			return nil, err
		}
	}

	roots := make([]*project.Dag[struct{}], 0, len(ids))
	for _, id := range ids {
		if !hasParent[id] {
			roots = append(roots, nodes[id])
		}
	}

	if len(roots) == 1 {
		return roots[0], nil
	}
	return project.Aggregate[struct{}](roots), nil
}
