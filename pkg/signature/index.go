package signature

// CommitIndex records which window signatures have fully committed. The
// engine consults it before scheduling a window; the storage engine behind it
// is the caller's concern.
type CommitIndex interface {
	// IsCommitted reports whether the signature was recorded as committed.
	IsCommitted(sig string) bool

	// Commit records the signature as committed.
	Commit(sig string)
}

// MemoryIndex is a process-local CommitIndex. It follows the engine's
// single-writer discipline and is not safe for concurrent use.
type MemoryIndex struct {
	committed map[string]struct{}
}

// NewMemoryIndex creates an empty in-memory commit index.
func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{committed: make(map[string]struct{})}
}

// IsCommitted reports whether the signature was committed in this process.
func (m *MemoryIndex) IsCommitted(sig string) bool {
	_, ok := m.committed[sig]
	return ok
}

// Commit records the signature.
func (m *MemoryIndex) Commit(sig string) {
	m.committed[sig] = struct{}{}
}
