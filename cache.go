package courier

import (
	"context"
)

// withCache wraps op so a successful result is memoized under fc.Key for
// fc.TTL and served from the store on subsequent invocations. Failures are
// never memoized: the cache is strictly additive. Store read/write errors are
// treated as misses so a degraded backend cannot fail the request itself.
func (c *Client) withCache(op Operation, fc *CacheConfig, store Store, method, endpoint string) Operation {
	if store == nil {
		// Nothing to memoize into; leave the operation untouched.
		return op
	}
	return func(ctx context.Context) (*Response, error) {
		if cached, ok, err := store.Get(ctx, fc.Key); err == nil && ok {
			if c.metrics != nil {
				c.metrics.RecordCacheHit(method, endpoint)
			}
			c.debugLog(c.debug.LogCache, "Cache hit", "cacheKey", fc.Key)
			return cached, nil
		} else if err != nil {
			c.debugLog(c.debug.LogCache, "Cache read failed", "cacheKey", fc.Key, "error", err.Error())
		}

		if c.metrics != nil {
			c.metrics.RecordCacheMiss(method, endpoint)
		}
		c.debugLog(c.debug.LogCache, "Cache miss", "cacheKey", fc.Key)

		resp, err := op(ctx)
		if err != nil {
			return nil, err
		}

		if serr := store.Set(ctx, fc.Key, resp, fc.TTL); serr != nil {
			c.debugLog(c.debug.LogCache, "Cache write failed", "cacheKey", fc.Key, "error", serr.Error())
		} else {
			c.debugLog(c.debug.LogCache, "Response cached", "cacheKey", fc.Key, "ttl", fc.TTL)
		}
		return resp, nil
	}
}
