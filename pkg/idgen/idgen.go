// Package idgen allocates tool-call IDs. §9's id discipline requires an id
// to be allocated exactly once, at ToolInputStart, and reused verbatim for
// every subsequent ToolInputDelta, ToolInputEnd, and ToolCall for that call.
package idgen

import (
	"sync/atomic"

	"github.com/google/uuid"
)

// Generator allocates opaque tool-call ids.
type Generator interface {
	Next() string
}

// UUIDGenerator allocates RFC 4122 ids, matching the teacher's
// pkg/agent/toolloop.go use of google/uuid for run ids.
type UUIDGenerator struct{}

// NewUUIDGenerator returns a Generator backed by google/uuid.
func NewUUIDGenerator() *UUIDGenerator { return &UUIDGenerator{} }

func (UUIDGenerator) Next() string { return uuid.NewString() }

// CounterGenerator allocates short, deterministic, monotonically increasing
// ids, mirroring pkg/mcp/jsonrpc.go's IDGenerator. Useful for golden-file
// tests where a UUID's non-determinism would make expected output unstable.
type CounterGenerator struct {
	prefix  string
	counter uint64
}

// NewCounterGenerator returns a Generator that yields "<prefix><n>",
// n starting at 1.
func NewCounterGenerator(prefix string) *CounterGenerator {
	return &CounterGenerator{prefix: prefix}
}

func (g *CounterGenerator) Next() string {
	n := atomic.AddUint64(&g.counter, 1)
	return g.prefix + uitoa(n)
}

func uitoa(n uint64) string {
	if n == 0 {
		return "0"
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	return string(buf[i:])
}
