// Package logger provides a simple, thread-safe logging facility.
//
// The logger supports four levels: Debug, Info, Warn, and Error.
// Each log entry includes a timestamp, level, optional component tag, and
// message. The default logger writes to stderr so that it never interleaves
// with replies printed by the interactive session.
//
// # Basic Usage
//
//	logger.Info("", "Flood started")
//	logger.Info("worker-1", "Connected to %s", addr)
//	logger.Error("worker-1", "Failed: %v", err)
//
// # Log Levels
//
// Messages below the configured level are filtered:
//   - LevelDebug: all messages
//   - LevelInfo: Info, Warn, Error
//   - LevelWarn: Warn, Error
//   - LevelError: Error only
//
// The --debug flag switches the default logger to LevelDebug.
package logger
