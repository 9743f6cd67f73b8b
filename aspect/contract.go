package aspect

import (
	"context"
	"time"
)

// DefaultTTL applies to Cacheable contracts that leave TTL unset.
const DefaultTTL = 300 * time.Second

// Method identifies a wrapped operation. It prefixes default keys and the
// default eviction pattern.
type Method struct {
	Class string
	Name  string
}

func (m Method) String() string {
	return m.Class + "." + m.Name
}

// Func is the shape of every wrappable operation.
type Func[A, R any] func(ctx context.Context, args A) (R, error)

// Cacheable describes a cache-through read.
//
// The key is resolved from Key when set, else from KeyGenerator, else
// derived as class:method[:userID]:argsHash.
type Cacheable[A any] struct {
	TTL          time.Duration
	Key          string
	KeyGenerator func(args A) (string, error)
	// Condition must hold for the cache to be consulted.
	Condition func(args A) bool
	// Unless skips the cache when it returns true.
	Unless func(args A) bool
}

// Evict describes cache invalidation around a mutating call. Every declared
// target is evicted independently. With no target the default pattern
// class:method:* is used.
type Evict[A any] struct {
	Key              string
	KeyGenerator     func(args A) (string, error)
	Pattern          string
	PatternGenerator func(args A) (string, error)
	Condition        func(args A) bool
	// AllEntries clears the whole cache and ignores the other targets.
	AllEntries bool
	// BeforeInvocation evicts before the call runs, whatever its outcome.
	// By default eviction happens only after the call succeeded.
	BeforeInvocation bool
}

func (c Cacheable[A]) applies(args A) bool {
	if c.Condition != nil && !c.Condition(args) {
		return false
	}
	if c.Unless != nil && c.Unless(args) {
		return false
	}
	return true
}

func (c Evict[A]) applies(args A) bool {
	return c.Condition == nil || c.Condition(args)
}

func (c Evict[A]) hasTarget() bool {
	return c.Key != "" || c.Pattern != "" || c.KeyGenerator != nil || c.PatternGenerator != nil
}
