package contact

import (
	"context"
	"sync"
)

// Store persists the full contact collection. There is no partial update:
// callers read everything, compute, and write everything back. Concurrent
// writers are not coordinated; the last ReplaceAll wins.
type Store interface {
	// LoadAll returns every stored contact in stored order.
	LoadAll(ctx context.Context) ([]Contact, error)
	// ReplaceAll swaps the stored collection for contacts.
	ReplaceAll(ctx context.Context, contacts []Contact) error
}

type memory struct {
	mu       sync.RWMutex
	contacts []Contact
}

// NewMemory creates a process-local Store. Reads and writes copy the
// collection so no caller shares record state with another.
func NewMemory(seed ...Contact) Store {
	return &memory{contacts: CloneAll(seed)}
}

func (m *memory) LoadAll(ctx context.Context) ([]Contact, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	return CloneAll(m.contacts), nil
}

func (m *memory) ReplaceAll(ctx context.Context, contacts []Contact) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.contacts = CloneAll(contacts)
	return nil
}
