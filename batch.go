package courier

import (
	"context"
	"sync"
	"sync/atomic"
)

// BatchError pairs a failure with the input index of the request producing it.
type BatchError struct {
	Index int
	Err   error
}

func (e BatchError) Error() string {
	return e.Err.Error()
}

func (e BatchError) Unwrap() error {
	return e.Err
}

type batchOptions struct {
	failFast  bool
	onSuccess func([]*Response)
	onError   func([]BatchError)
}

// BatchOption configures a Parallel or Serial group.
type BatchOption func(*batchOptions)

// WithFailFast controls the parallel aggregation policy. When true (the
// default) any failure makes Send raise the first failure after all requests
// settle; when false Send never raises and reports only successful results.
func WithFailFast(failFast bool) BatchOption {
	return func(o *batchOptions) {
		o.failFast = failFast
	}
}

// WithBatchSuccessHook observes aggregate results in input order.
func WithBatchSuccessHook(fn func([]*Response)) BatchOption {
	return func(o *batchOptions) {
		o.onSuccess = fn
	}
}

// WithBatchErrorHook observes aggregate failures with their input indexes.
func WithBatchErrorHook(fn func([]BatchError)) BatchOption {
	return func(o *batchOptions) {
		o.onError = fn
	}
}

func newBatchOptions(opts []BatchOption) batchOptions {
	o := batchOptions{failFast: true}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Parallel sends every request concurrently and aggregates the settlements.
// Start order matches input order; completion order is unconstrained; results
// are always reported in input order.
type Parallel struct {
	requests []*Request
	opts     batchOptions
	canceled atomic.Bool
}

// NewParallel builds a parallel group over requests.
func NewParallel(requests []*Request, opts ...BatchOption) *Parallel {
	return &Parallel{requests: requests, opts: newBatchOptions(opts)}
}

// Send awaits every settlement; it never short-circuits on the first
// rejection. Under failFast the error hook receives all failures and the
// first failure (by input order) is returned; otherwise Send never fails and
// returns the successful results only, in input order, even if empty.
func (p *Parallel) Send(ctx context.Context) ([]*Response, error) {
	n := len(p.requests)
	responses := make([]*Response, n)
	errs := make([]error, n)

	var wg sync.WaitGroup
	wg.Add(n)
	for i, req := range p.requests {
		go func(i int, req *Request) {
			defer wg.Done()
			if p.canceled.Load() {
				errs[i] = cancellationError(nil, "")
				return
			}
			responses[i], errs[i] = req.Send(ctx)
		}(i, req)
	}
	wg.Wait()

	var failures []BatchError
	for i, err := range errs {
		if err != nil {
			failures = append(failures, BatchError{Index: i, Err: err})
		}
	}

	if len(failures) > 0 && p.opts.onError != nil {
		p.opts.onError(failures)
	}

	if p.opts.failFast {
		if len(failures) > 0 {
			return nil, failures[0].Err
		}
		if p.opts.onSuccess != nil {
			p.opts.onSuccess(responses)
		}
		return responses, nil
	}

	succeeded := make([]*Response, 0, n)
	for i, err := range errs {
		if err == nil {
			succeeded = append(succeeded, responses[i])
		}
	}
	if p.opts.onSuccess != nil {
		p.opts.onSuccess(succeeded)
	}
	return succeeded, nil
}

// Cancel cancels every constituent request. Requests not yet started observe
// a group-level flag and fail fast with a cancellation error.
func (p *Parallel) Cancel() {
	p.canceled.Store(true)
	for _, req := range p.requests {
		req.Cancel()
	}
}

// Serial sends requests one at a time, strictly in input order, awaiting each
// before starting the next.
type Serial struct {
	requests []*Request
	opts     batchOptions
	canceled atomic.Bool
}

// NewSerial builds a serial group over requests.
func NewSerial(requests []*Request, opts ...BatchOption) *Serial {
	return &Serial{requests: requests, opts: newBatchOptions(opts)}
}

// Send stops at the first failure without starting subsequent requests. The
// error hook receives the failure with its index; the failure itself is
// returned unchanged.
func (s *Serial) Send(ctx context.Context) ([]*Response, error) {
	results := make([]*Response, 0, len(s.requests))
	for i, req := range s.requests {
		if s.canceled.Load() {
			err := error(cancellationError(nil, ""))
			if s.opts.onError != nil {
				s.opts.onError([]BatchError{{Index: i, Err: err}})
			}
			return nil, err
		}
		resp, err := req.Send(ctx)
		if err != nil {
			if s.opts.onError != nil {
				s.opts.onError([]BatchError{{Index: i, Err: err}})
			}
			return nil, err
		}
		results = append(results, resp)
	}
	if s.opts.onSuccess != nil {
		s.opts.onSuccess(results)
	}
	return results, nil
}

// Cancel cancels every constituent request, including ones not yet started;
// the group-level flag keeps them from starting at all.
func (s *Serial) Cancel() {
	s.canceled.Store(true)
	for _, req := range s.requests {
		req.Cancel()
	}
}
