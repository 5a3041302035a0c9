// Package flood drives synthetic load against a RESP server.
//
// A run starts Config.Workers independent workers. Each worker opens its
// own TCP connection, then performs exactly Config.Requests requests. A
// request is a batch of Config.CommandsPerRequest pseudo commands encoded
// into one buffer, written in one go, followed by a single bounded read
// whose wait time is recorded. Workers never share sockets, buffers,
// generators or statistics; the coordinator only starts and joins them.
//
// # Basic Usage
//
//	cfg := flood.DefaultConfig()
//	cfg.Addr = "127.0.0.1:9527"
//	cfg.Workers = 8
//
//	engine := flood.New(cfg)
//	stats, err := engine.Run(ctx)
//	fmt.Println(flood.Report(cfg, stats))
//	if err != nil {
//	    // one or more workers hit a connection error
//	}
//
// # Presets
//
// GetPreset returns ready-made configurations (quick, default, write-heavy,
// pipeline, stress); fields can be overridden afterwards.
//
// # Failure Model
//
// There are no retries. A dial, write or read error ends that worker only;
// the error is logged, published on the event bus and returned from Run
// joined with the errors of any other failed workers.
package flood
