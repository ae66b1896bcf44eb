package blocks

import (
	"fmt"
	"sort"
	"sync"

	"github.com/BurntSushi/toml"

	"gitlab.com/tinyland/lab/pulsebar/pkg/config"
)

var (
	mu           sync.RWMutex
	constructors = map[string]Constructor{}
)

// Register adds a block constructor under the given kind. Implementations
// call this from init; a duplicate kind panics since it is a programming
// error, not a runtime condition.
func Register(kind string, c Constructor) {
	mu.Lock()
	defer mu.Unlock()

	if _, exists := constructors[kind]; exists {
		panic(fmt.Sprintf("blocks: %q already registered", kind))
	}
	constructors[kind] = c
}

// New constructs a block of the given kind from its raw config table.
func New(kind string, id int, md *toml.MetaData, prim toml.Primitive, shared *config.Shared, tasks chan<- Task) (Block, error) {
	mu.RLock()
	c, ok := constructors[kind]
	mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("blocks: unknown block kind %q (known: %v)", kind, Kinds())
	}
	b, err := c(id, md, prim, shared, tasks)
	if err != nil {
		return nil, fmt.Errorf("blocks: construct %q: %w", kind, err)
	}
	return b, nil
}

// Kinds returns the sorted list of registered block kinds.
func Kinds() []string {
	mu.RLock()
	defer mu.RUnlock()

	kinds := make([]string, 0, len(constructors))
	for k := range constructors {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}
