// Package server publishes live plugin counts over HTTP.
//
// # Endpoints
//
//	GET /plugins      JSON snapshot of the plugins that see printers, most printers first
//	GET /plugins?all=true  every plugin, including those with no printers
//	GET /metrics      Prometheus metrics (when a metrics.Metrics is supplied)
//	GET /healthz      liveness and connection counts
//	GET /ws           WebSocket stream of count changes
//
// # WebSocket Stream
//
// On connect the server sends one text frame per plugin in the current
// snapshot, then one frame per count change:
//
//	{"plugin":"Mopria","count":3}
//
// Counts may go down as printers leave the network. Clients that fall more
// than a small number of messages behind are disconnected; they should
// reconnect and rely on the snapshot.
//
// # Usage Example
//
//	srv, err := server.New(&server.Config{Host: "127.0.0.1", Port: 8631}, reg, m)
//	if err != nil {
//	    return err
//	}
//	return srv.Start(ctx) // blocks until ctx is cancelled or SIGINT/SIGTERM
package server
