// Package history persists finished repository operations.
package history

import (
	"sync"

	"github.com/huangsam/publisher/internal/contract"
)

// StoreManager holds the history store shared by the CLI and the MCP server.
type StoreManager struct {
	sync.RWMutex // Protects the store pointer during initialization
	store        contract.HistoryStore
}

var _ contract.HistoryManager = &StoreManager{} // Compile-time check

// GetHistoryStore returns the HistoryStore, or nil before InitStore.
func (mgr *StoreManager) GetHistoryStore() contract.HistoryStore {
	mgr.RLock()
	defer mgr.RUnlock()
	return mgr.store
}
