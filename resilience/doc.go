// Package resilience provides the bulkhead pattern used to bound the
// number of cache operations the dispatcher runs concurrently.
//
// # Usage
//
//	pool := resilience.NewBulkhead(resilience.BulkheadConfig{MaxConcurrent: 20})
//
//	err := pool.Execute(ctx, func(ctx context.Context) error {
//	    return dispatchRequest(ctx, req)
//	})
package resilience
