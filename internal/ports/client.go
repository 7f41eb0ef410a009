package ports

import "github.com/bloop-build/compilesched/internal/project"

// ClientInfo identifies the caller driving one Traverse call and provides
// the per-(client, project) classes directory external I/O writes into.
type ClientInfo interface {
	// ID is a stable identifier for this client across its lifetime.
	ID() string

	// UniqueClassesDirFor returns the path a compilation for p should write
	// its output to on behalf of this client. Stable per (client, project).
	UniqueClassesDirFor(p *project.Project) string
}
