// Package plugin implements vendor discovery plugins.
//
// A Plugin registers with a discovery.Feed, classifies every device it is
// told about with a predicate.Predicate, and keeps the identifiers of the
// matching devices in an IDSet. Whenever the size of that set changes the
// new size is handed to a CountSink.
//
// # Lifecycle
//
//	Idle --Start--> Started --Stop--> Stopped --Start--> Started ...
//
// Start resets the set and registers with the feed, which replays the
// devices already visible. Stop deregisters first; once the feed confirms,
// the pending notifications are flushed and the set is discarded.
//
// # Delivery
//
// Each event is handled in one critical section that evaluates the
// predicate, mutates the set, reads its size and queues the count. Counts
// reach the sink in event order and are exact: a sink never sees a value
// that was not the set size at some point. Adding a device already counted,
// or removing one that is not, produces no notification.
//
// By default counts are delivered from a dedicated goroutine through a
// bounded queue (see WithQueueSize). A full queue blocks the feed rather
// than dropping counts. With a queue size of zero the sink runs inline,
// under the plugin lock, and must not call back into the plugin.
//
// # Usage
//
//	feed := discovery.DefaultBroadcaster()
//	p, err := plugin.New("Mopria", predicate.Mopria(), feed)
//	if err != nil {
//	    return err
//	}
//	err = p.Start(plugin.SinkFunc(func(n int) {
//	    fmt.Printf("%d Mopria printers\n", n)
//	}))
//	...
//	defer p.Stop()
package plugin
