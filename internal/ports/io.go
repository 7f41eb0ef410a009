package ports

import "context"

// DirDeleter deletes a superseded classes directory from disk. It is the
// external collaborator the engine calls once a directory's refcount
// reaches zero (SPEC_FULL.md §4.5.5); file I/O itself is out of scope for
// the scheduler core.
type DirDeleter func(ctx context.Context, dir string) error

// DirExists reports whether a classes directory is still present on disk,
// used by scheduleCompilation's last-successful validity override
// (SPEC_FULL.md §4.5.4).
type DirExists func(dir string) bool
