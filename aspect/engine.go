package aspect

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ElMansouri-cpu/ShelfLinkbackend-sub000/cache"
)

// Engine enforces contracts against a cache store.
type Engine struct {
	store      *cache.Store
	keys       cache.KeySerializer
	logger     *zap.Logger
	defaultTTL time.Duration
}

// EngineOption customises an Engine.
type EngineOption func(*Engine)

// WithKeySerializer replaces the serializer used for default keys.
func WithKeySerializer(s cache.KeySerializer) EngineOption {
	return func(e *Engine) {
		if s != nil {
			e.keys = s
		}
	}
}

// WithDefaultTTL overrides DefaultTTL for contracts without a TTL.
func WithDefaultTTL(ttl time.Duration) EngineOption {
	return func(e *Engine) {
		if ttl > 0 {
			e.defaultTTL = ttl
		}
	}
}

// NewEngine creates an engine over store.
func NewEngine(store *cache.Store, logger *zap.Logger, opts ...EngineOption) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	e := &Engine{
		store:      store,
		keys:       cache.NewDefaultKeySerializer(),
		logger:     logger.Named("aspect"),
		defaultTTL: DefaultTTL,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Store returns the underlying cache store.
func (e *Engine) Store() *cache.Store {
	return e.store
}

// DefaultKey derives the key used when a contract names none.
func (e *Engine) DefaultKey(ctx context.Context, m Method, args any) string {
	return e.keys.DefaultKey(m.Class, m.Name, UserIDFromContext(ctx), cache.ArgumentsOf(args)...)
}

func resolveKey[A any](ctx context.Context, e *Engine, m Method, c Cacheable[A], args A) (string, error) {
	switch {
	case c.Key != "":
		return c.Key, nil
	case c.KeyGenerator != nil:
		return generate(c.KeyGenerator, args)
	default:
		return e.DefaultKey(ctx, m, args), nil
	}
}

// generate runs caller supplied key code, turning a panic into an error.
func generate[A any](fn func(A) (string, error), args A) (key string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("key generator panicked: %v", r)
		}
	}()
	key, err = fn(args)
	if err == nil && key == "" {
		err = fmt.Errorf("key generator returned an empty key")
	}
	return key, err
}

// CacheThrough wraps fn with a read-through cache described by c.
func CacheThrough[A, R any](e *Engine, m Method, c Cacheable[A], fn Func[A, R]) Func[A, R] {
	ttl := c.TTL
	if ttl <= 0 {
		ttl = e.defaultTTL
	}

	return func(ctx context.Context, args A) (R, error) {
		if !c.applies(args) {
			return fn(ctx, args)
		}

		key, err := resolveKey(ctx, e, m, c, args)
		if err != nil {
			e.logger.Warn("cache key generation failed, calling through",
				zap.Stringer("method", m), zap.Error(err))
			return fn(ctx, args)
		}

		var cached R
		if e.store.Get(ctx, key, &cached) {
			return cached, nil
		}

		result, err := fn(ctx, args)
		if err != nil {
			return result, err
		}

		e.store.Set(ctx, key, result, ttl)
		return result, nil
	}
}

// EvictAround wraps fn with the given eviction contracts. Contracts marked
// BeforeInvocation run before fn; the rest run only when fn succeeds.
func EvictAround[A, R any](e *Engine, m Method, fn Func[A, R], contracts ...Evict[A]) Func[A, R] {
	before, after := splitEvictions(contracts)

	return func(ctx context.Context, args A) (R, error) {
		evictAll(ctx, e, m, args, before)

		result, err := fn(ctx, args)
		if err != nil {
			return result, err
		}

		evictAll(ctx, e, m, args, after)
		return result, nil
	}
}

func splitEvictions[A any](contracts []Evict[A]) (before, after []Evict[A]) {
	for _, c := range contracts {
		if c.BeforeInvocation {
			before = append(before, c)
		} else {
			after = append(after, c)
		}
	}
	return before, after
}

func evictAll[A any](ctx context.Context, e *Engine, m Method, args A, contracts []Evict[A]) {
	for _, c := range contracts {
		evictOne(ctx, e, m, args, c)
	}
}

func evictOne[A any](ctx context.Context, e *Engine, m Method, args A, c Evict[A]) {
	if !c.applies(args) {
		return
	}

	if c.AllEntries {
		e.store.Reset(ctx)
		return
	}

	if !c.hasTarget() {
		e.store.InvalidatePattern(ctx, m.Class+cache.KeySeparator+m.Name+cache.KeySeparator+"*")
		return
	}

	if c.Key != "" {
		e.store.Del(ctx, c.Key)
	}
	if c.Pattern != "" {
		e.store.InvalidatePattern(ctx, c.Pattern)
	}
	if c.KeyGenerator != nil {
		if key, err := generate(c.KeyGenerator, args); err != nil {
			e.logger.Warn("eviction key generation failed, skipping",
				zap.Stringer("method", m), zap.Error(err))
		} else {
			e.store.Del(ctx, key)
		}
	}
	if c.PatternGenerator != nil {
		if pattern, err := generate(c.PatternGenerator, args); err != nil {
			e.logger.Warn("eviction pattern generation failed, skipping",
				zap.Stringer("method", m), zap.Error(err))
		} else {
			e.store.InvalidatePattern(ctx, pattern)
		}
	}
}

// Option attaches a contract to Wrap.
type Option[A any] func(*contracts[A])

type contracts[A any] struct {
	cacheable *Cacheable[A]
	evicts    []Evict[A]
}

// WithCacheable makes the wrapped call cache-through.
func WithCacheable[A any](c Cacheable[A]) Option[A] {
	return func(cs *contracts[A]) {
		cs.cacheable = &c
	}
}

// WithEvict adds eviction contracts.
func WithEvict[A any](c ...Evict[A]) Option[A] {
	return func(cs *contracts[A]) {
		cs.evicts = append(cs.evicts, c...)
	}
}

// Wrap composes eviction-before, cache-through and eviction-after around fn.
func Wrap[A, R any](e *Engine, m Method, fn Func[A, R], opts ...Option[A]) Func[A, R] {
	var cs contracts[A]
	for _, opt := range opts {
		opt(&cs)
	}

	inner := fn
	if cs.cacheable != nil {
		inner = CacheThrough(e, m, *cs.cacheable, fn)
	}
	if len(cs.evicts) == 0 {
		return inner
	}
	return EvictAround(e, m, inner, cs.evicts...)
}
