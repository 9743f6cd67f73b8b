// Package aspect attaches declarative caching behaviour to ordinary functions.
//
// A contract is a plain struct handed to a wrapper at construction time;
// nothing is discovered through reflection at call time.
//
//	list := aspect.Wrap(engine, aspect.Method{Class: "BrandService", Name: "ListByStore"},
//		svc.listByStore,
//		aspect.WithCacheable(aspect.Cacheable[string]{
//			TTL:          5 * time.Minute,
//			KeyGenerator: func(storeID string) (string, error) { return cache.StoreKey(storeID, "brands"), nil },
//		}),
//	)
//
//	create := aspect.Wrap(engine, aspect.Method{Class: "BrandService", Name: "Create"},
//		svc.create,
//		aspect.WithEvict(aspect.Evict[CreateBrand]{
//			PatternGenerator: func(in CreateBrand) (string, error) {
//				return cache.StoreDataPattern(in.StoreID, "brands"), nil
//			},
//		}),
//	)
//
// Wrap composes, from the outside in: evictions marked BeforeInvocation, the
// cache-through read, then the remaining evictions which only run after the
// wrapped call succeeded. Cache failures never stop the wrapped function from
// running and never replace its result.
package aspect
