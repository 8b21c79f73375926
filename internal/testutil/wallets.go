package testutil

import (
	"sort"
	"sync"

	"github.com/roach88/gifboard/internal/ir"
)

// Wallets maps human-readable wallet names to their derived identities.
//
// Scenarios and golden files refer to callers and owners by name ("alice")
// rather than base58 keys. Wallets derives the key once with
// ir.WalletIdentity and remembers the reverse mapping so reports can print
// names again.
//
// Thread-safety: all methods are safe for concurrent use.
type Wallets struct {
	mu     sync.Mutex
	byName map[string]ir.Identity
	byID   map[ir.Identity]string
}

// NewWallets creates an empty wallet directory.
func NewWallets() *Wallets {
	return &Wallets{
		byName: make(map[string]ir.Identity),
		byID:   make(map[ir.Identity]string),
	}
}

// Identity returns the identity for name, registering it on first use.
func (w *Wallets) Identity(name string) ir.Identity {
	w.mu.Lock()
	defer w.mu.Unlock()
	if id, ok := w.byName[name]; ok {
		return id
	}
	id := ir.WalletIdentity(name)
	w.byName[name] = id
	w.byID[id] = name
	return id
}

// Name returns the registered name for id. Unknown identities render as
// their base58 form.
func (w *Wallets) Name(id ir.Identity) string {
	w.mu.Lock()
	defer w.mu.Unlock()
	if name, ok := w.byID[id]; ok {
		return name
	}
	return id.String()
}

// Names returns all registered names in sorted order.
func (w *Wallets) Names() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	names := make([]string, 0, len(w.byName))
	for name := range w.byName {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
