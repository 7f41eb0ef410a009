// Package config parses the demo project-DAG documents the cmd/compilesched
// harness accepts. Grounded on streamy's internal/config package: the same
// gopkg.in/yaml.v3 struct-tag decoding plus go-playground/validator/v10
// schema checks, adapted from pipeline steps to compile projects.
package config

// Document is the top-level YAML document describing one project DAG.
type Document struct {
	Name     string        `yaml:"name" validate:"required,min=1,max=100"`
	Pipeline bool          `yaml:"pipeline,omitempty"`
	Settings Settings      `yaml:"settings,omitempty"`
	Projects []ProjectSpec `yaml:"projects" validate:"required,min=1,dive"`
}

// Settings holds engine-level tunables a demo run may override. Only
// ComputeWorkers is applied; DisconnectTimeout is validated but not passed
// to the engine, which reads its timeout from COMPILESCHED_DISCONNECT_TIMEOUT.
type Settings struct {
	ComputeWorkers    int    `yaml:"compute_workers,omitempty" validate:"omitempty,min=1,max=256"`
	DisconnectTimeout string `yaml:"disconnect_timeout,omitempty" validate:"omitempty,duration"`
}

// ProjectSpec describes one node of the DAG: its identity, its dependencies
// by id, and the synthetic behavior the demo compile function uses to
// exercise the engine's deduplication, failure, and stall paths.
type ProjectSpec struct {
	ID          string   `yaml:"id" validate:"required,project_id"`
	Name        string   `yaml:"name,omitempty"`
	DependsOn   []string `yaml:"depends_on,omitempty"`
	Fingerprint string   `yaml:"fingerprint,omitempty"`
	FailWith    string   `yaml:"fail_with,omitempty"`
	StallFor    string   `yaml:"stall_for,omitempty" validate:"omitempty,duration"`
}

// ProjectMap builds a lookup table for project specs by id.
func ProjectMap(projects []ProjectSpec) map[string]ProjectSpec {
	out := make(map[string]ProjectSpec, len(projects))
	for _, p := range projects {
		out[p.ID] = p
	}
	return out
}
