// Package registry starts, stops and aggregates a set of discovery plugins.
//
// Every plugin registers with the shared feed on its own and keeps its own
// set; the registry only records the counts they report. Snapshot returns
// the plugins that currently see printers, ordered for presentation: most
// printers first, and single-vendor plugins ahead of multi-vendor ones on a
// tie.
//
//	reg := registry.New()
//	for _, p := range plugins {
//	    _ = reg.Add(p)
//	}
//	if err := reg.StartAll(ctx); err != nil {
//	    // the failing plugins were dropped; the rest keep running
//	    logging.Warn("Some plugins failed to start", zap.Error(err))
//	}
//	defer reg.StopAll()
package registry
