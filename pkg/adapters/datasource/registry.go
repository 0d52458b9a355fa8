package datasource

import (
	"context"
	"sort"
	"sync"

	"go.uber.org/zap"
)

// Options configure an adapter when a connection is opened.
type Options struct {
	// Schema restricts discovery; empty selects the adapter default.
	Schema string
	// MaxConns caps the pool size. Zero leaves the driver default.
	MaxConns int
	Logger   *zap.Logger
}

// AdapterInfo describes a registered adapter.
type AdapterInfo struct {
	Type        string   // "postgres", "mssql", "sqlite"
	DisplayName string   // "PostgreSQL", "Microsoft SQL Server"
	Schemes     []string // URL schemes the adapter accepts
	// Local adapters read files; their URLs are never rewritten for Docker.
	Local bool
}

// OpenFunc opens a connection. dsn is the URL with any "+driver" suffix
// removed from its scheme.
type OpenFunc func(ctx context.Context, dsn string, opts Options) (Connection, error)

// AdapterRegistration contains info + the function that opens connections.
type AdapterRegistration struct {
	Info AdapterInfo
	Open OpenFunc
}

var (
	registryMu sync.RWMutex
	registry   = make(map[string]AdapterRegistration) // keyed by scheme
)

// Register is called by each adapter's init() function.
// Thread-safe for concurrent init() calls.
func Register(reg AdapterRegistration) {
	registryMu.Lock()
	defer registryMu.Unlock()
	for _, scheme := range reg.Info.Schemes {
		registry[scheme] = reg
	}
}

// RegisteredAdapters returns info for all registered adapters, sorted by type.
func RegisteredAdapters() []AdapterInfo {
	registryMu.RLock()
	defer registryMu.RUnlock()

	seen := make(map[string]bool)
	result := make([]AdapterInfo, 0, len(registry))
	for _, reg := range registry {
		if seen[reg.Info.Type] {
			continue
		}
		seen[reg.Info.Type] = true
		result = append(result, reg.Info)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Type < result[j].Type })
	return result
}

// lookup returns the registration for a URL scheme.
func lookup(scheme string) (AdapterRegistration, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	reg, ok := registry[scheme]
	return reg, ok
}

// IsRegistered checks if a URL scheme is served by a compiled-in adapter.
func IsRegistered(scheme string) bool {
	_, ok := lookup(scheme)
	return ok
}
