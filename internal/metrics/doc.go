// Package metrics records per-worker request statistics for a flood run.
//
// Each flood worker owns exactly one Metrics value and is its only writer.
// Counters are atomic so that observers such as the live monitor can read a
// Snapshot while the worker is running; nothing is ever merged across
// workers.
//
// # Basic Usage
//
//	m := metrics.New()
//	m.MarkStart()
//
//	start := time.Now()
//	// ... write a batch, read the reply ...
//	m.RecordRequest(len(batch), n, time.Since(start))
//
//	m.MarkFinish()
//	snap := m.Snapshot()
//	fmt.Printf("sent %d bytes, waited %v\n", snap.BytesSent, snap.ResponseWait)
//
// # Configuration
//
// Use NewWithConfig for custom settings:
//
//	m := metrics.NewWithConfig(metrics.Config{
//	    MaxLatencySamples: 5000, // More samples for P99 accuracy
//	})
package metrics
