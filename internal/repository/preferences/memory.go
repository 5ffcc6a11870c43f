package preferences

import (
	"context"
	"maps"
	"sync"
)

// MemoryRepository keeps preferences in a map. It never touches the disk.
type MemoryRepository struct {
	// values is the committed state.
	values Values
	// commitErr, when set, makes every Commit fail without applying anything.
	commitErr error
	// commits counts successful commits.
	commits int
	// closed marks the repository as unusable.
	closed bool
	// mu protects all fields.
	mu sync.Mutex
}

// NewMemoryRepository creates an empty in-memory repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		values: make(Values),
	}
}

// Load returns a copy of the committed values.
func (r *MemoryRepository) Load(context.Context) (Values, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil, ErrClosed
	}

	return maps.Clone(r.values), nil
}

// Edit starts a batch of changes.
func (r *MemoryRepository) Edit() Editor {
	return newEditor(r.apply)
}

// Close marks the repository closed.
func (r *MemoryRepository) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.closed = true

	return nil
}

// FailCommits makes subsequent commits fail with err; nil restores normal behaviour.
func (r *MemoryRepository) FailCommits(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.commitErr = err
}

// Commits returns the number of successful commits so far.
func (r *MemoryRepository) Commits() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.commits
}

func (r *MemoryRepository) apply(_ context.Context, changes *Changes) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return ErrClosed
	}

	if r.commitErr != nil {
		return r.commitErr
	}

	r.values = changes.Apply(r.values)
	r.commits++

	return nil
}
