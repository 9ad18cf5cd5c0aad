// pkg/masstree/config.go
package masstree

// Config holds the tunables a caller may want to vary per tree, following
// the teacher's Config/DefaultConfig struct-literal convention
// (pkg/cowbtree/cowbtree.go's NodeConfig/DefaultNodeConfig) rather than a
// functional-options API.
type Config struct {
	// RetireBatchHint is advisory: callers driving GCPrepare/GCRun in a
	// loop can use it to decide how often to call GCPrepare, but nothing
	// in this package enforces it.
	RetireBatchHint int
}

// DefaultConfig returns the configuration Create would use if it took one.
func DefaultConfig() Config {
	return Config{RetireBatchHint: 256}
}
