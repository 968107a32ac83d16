package courier

import (
	"context"
	"sync"
)

// pendingCall is one in-flight execution shared between every caller using
// the same idempotency key. Fields are written once by the owner before done
// is closed; the channel close publishes them to waiters.
type pendingCall struct {
	done chan struct{}
	resp *Response
	err  error
}

func (p *pendingCall) wait(ctx context.Context) (*Response, error) {
	select {
	case <-p.done:
		return p.resp, p.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// pendingRegistry tracks in-flight executions by idempotency key. One
// registry is shared by every request built from the same Client, so two
// call sites issuing logically identical requests deduplicate against each
// other.
type pendingRegistry struct {
	mu    sync.Mutex
	calls map[string]*pendingCall
}

func newPendingRegistry() *pendingRegistry {
	return &pendingRegistry{calls: make(map[string]*pendingCall)}
}

// getOrCreate returns the in-flight call for key, or registers a new one.
// The miss check and the insert happen under one lock acquisition: a second
// caller arriving before the owner's first suspension point must observe the
// entry, or both would execute.
func (r *pendingRegistry) getOrCreate(key string) (*pendingCall, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if call, ok := r.calls[key]; ok {
		return call, false
	}
	call := &pendingCall{done: make(chan struct{})}
	r.calls[key] = call
	return call, true
}

func (r *pendingRegistry) remove(key string) {
	r.mu.Lock()
	delete(r.calls, key)
	r.mu.Unlock()
}

// withIdempotent wraps op so concurrent and TTL-bounded repeat invocations
// under fc.Key collapse onto a single execution. The owner first consults the
// store for a still-valid completed result, otherwise executes op and stores
// a successful result for fc.TTL. Failures propagate to every sharing caller,
// are never stored, and clear the registry entry so a later call can retry.
func (c *Client) withIdempotent(op Operation, fc *CacheConfig, store Store, method, endpoint string) Operation {
	return func(ctx context.Context) (*Response, error) {
		call, owner := c.pending.getOrCreate(fc.Key)
		if !owner {
			if c.metrics != nil {
				c.metrics.RecordDedupHit(method, endpoint)
			}
			c.debugLog(c.debug.LogDedup, "Deduplication hit", "idempotencyKey", fc.Key)
			return call.wait(ctx)
		}

		resp, err := c.runIdempotentOwner(ctx, op, fc, store)

		call.resp = resp
		call.err = err
		close(call.done)
		c.pending.remove(fc.Key)

		return resp, err
	}
}

func (c *Client) runIdempotentOwner(ctx context.Context, op Operation, fc *CacheConfig, store Store) (*Response, error) {
	if store != nil {
		if cached, ok, err := store.Get(ctx, fc.Key); err == nil && ok {
			c.debugLog(c.debug.LogDedup, "Idempotent result served from store", "idempotencyKey", fc.Key)
			return cached, nil
		}
	}

	resp, err := op(ctx)
	if err != nil {
		return nil, err
	}

	if store != nil {
		if serr := store.Set(ctx, fc.Key, resp, fc.TTL); serr != nil {
			c.debugLog(c.debug.LogDedup, "Idempotent result store failed", "idempotencyKey", fc.Key, "error", serr.Error())
		}
	}
	return resp, nil
}
