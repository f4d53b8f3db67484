// Package logging provides structured logging for printscout.
//
// This package wraps a zap logger with convenience functions for the events
// the discovery pipeline produces: feed sightings, plugin lifecycle changes,
// count notifications and presentation-layer connections.
//
// # Log Levels
//
//   - Debug: Per-sighting detail, expiry sweeps, source start/stop
//   - Info: Plugin lifecycle, count changes, server connections
//   - Warn: Failed browse rounds, plugins dropped at start
//   - Error: Stop failures, listener errors
//
// # Configuration
//
// Logging is silent unless a level is given explicitly or through the
// PRINTSCOUT_LOG_LEVEL environment variable:
//
//	if err := logging.Initialize("debug"); err != nil {
//	    log.Fatal(err)
//	}
//	defer logging.Sync()
//
// Logs go to stderr; level colours are only used when stderr is a terminal.
//
// # Specialized Logging
//
//	logging.LogPluginState("Mopria", "started")
//	logging.LogCountChanged("Mopria", 3)
//	logging.LogDeviceEvent("found", "HP3C52A1", "_ipp._tcp", "192.168.1.20")
//	logging.LogConnection(remoteAddr, "websocket_upgraded")
//
// # Thread Safety
//
// All logging functions are safe for concurrent use. Initialize should be
// called once from main before any goroutines log.
package logging
