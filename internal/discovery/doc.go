// Package discovery provides the mDNS device feed consumed by printer
// discovery plugins.
//
// The package is split into three layers:
//
//   - Browser: repeatedly browses DNS-SD printer services ("_ipp._tcp",
//     "_privet._tcp", ...) with zeroconf and resolves each answer into a
//     Sighting.
//   - Tracker: merges sightings into Device snapshots keyed by the mDNS
//     host label, emits DeviceFound when a device or one of its services
//     appears and DeviceRemoved when it moves address or expires.
//   - Broadcaster: the process-wide Feed. Observers register and receive
//     every transition, plus a replay of devices already visible at
//     registration time.
//
// # Discovery Process
//
//  1. The first observer registration starts the Browser
//  2. Each round browses all services concurrently for RoundTimeout
//  3. Instances not seen within ExpireAfter are dropped
//  4. Rounds are spaced by QueryDelay: 1, 1, 2, 3, 5 ... seconds, then
//     every minute
//  5. The last deregistration stops the Browser and forgets all devices
//
// # Usage Example
//
//	feed := discovery.DefaultBroadcaster()
//	if err := feed.Register(observer); err != nil {
//	    log.Fatal(err)
//	}
//	defer feed.Deregister(observer)
//
// # Ordering
//
// Fan-out and (de)registration are serialized. When Deregister returns the
// observer receives nothing further, so callers can use it as a shutdown
// boundary. Observers must not call back into the feed from an event
// handler.
//
// # Network Requirements
//
// - Requires multicast support on the network interface
// - Printers must be on the same local network segment
// - Firewall must allow mDNS (UDP port 5353)
package discovery
