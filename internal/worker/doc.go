// Package worker provides the fixed-size goroutine pool that runs flood
// workers.
//
// The flood engine sizes the pool to its worker count and submits one job
// per flood worker. Close stops accepting jobs, runs everything already
// queued and joins the goroutines, so it doubles as the engine's barrier:
//
//	pool := worker.NewPool(n)
//	pool.Start(ctx)
//	for i := range n {
//	    if err := pool.Submit(job(i)); err != nil {
//	        // record a scheduling failure for worker i
//	    }
//	}
//	pool.Close()
package worker
