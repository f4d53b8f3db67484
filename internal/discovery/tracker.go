package discovery

import (
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/muurk/printscout/internal/logging"
	"go.uber.org/zap"
)

// DefaultExpireAfter is how long an instance survives without being seen
// again before it is dropped.
const DefaultExpireAfter = 3 * time.Minute

// Sighting is one resolved service instance as reported by the network.
type Sighting struct {
	ID       string
	Hostname string
	Address  string
	Instance ServiceInstance
}

type trackedInstance struct {
	instance ServiceInstance
	lastSeen time.Time
}

type trackedDevice struct {
	hostname  string
	address   string
	instances []*trackedInstance
}

// Tracker merges sightings into devices and turns them into DeviceFound /
// DeviceRemoved transitions on its sink.
type Tracker struct {
	mu          sync.Mutex
	clock       clock.Clock
	expireAfter time.Duration
	sink        DeviceObserver
	devices     map[string]*trackedDevice
}

// NewTracker creates a tracker that reports to sink.
func NewTracker(sink DeviceObserver, clk clock.Clock, expireAfter time.Duration) *Tracker {
	if clk == nil {
		clk = clock.New()
	}
	if expireAfter <= 0 {
		expireAfter = DefaultExpireAfter
	}
	return &Tracker{
		clock:       clk,
		expireAfter: expireAfter,
		sink:        sink,
		devices:     make(map[string]*trackedDevice),
	}
}

// Observe records a sighting. A new device, or a new service on a known
// device, produces DeviceFound. A device that moved to another address, or
// whose instance changed its attributes or port, is removed with its
// previous snapshot and found again.
func (t *Tracker) Observe(s Sighting) {
	if s.ID == "" || s.Instance.Service == "" {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.clock.Now()
	dev, ok := t.devices[s.ID]
	if ok && dev.address != s.Address {
		logging.Debug("Device changed address",
			zap.String("device", s.ID),
			zap.String("old_addr", dev.address),
			zap.String("new_addr", s.Address),
		)
		t.sink.DeviceRemoved(t.snapshot(s.ID, dev, now))
		delete(t.devices, s.ID)
		ok = false
	}

	if !ok {
		dev = &trackedDevice{hostname: s.Hostname, address: s.Address}
		t.devices[s.ID] = dev
	}

	for _, ti := range dev.instances {
		if ti.instance.Service == s.Instance.Service && ti.instance.Instance == s.Instance.Instance {
			ti.lastSeen = now
			if sameAttributes(ti.instance.Attributes, s.Instance.Attributes) && ti.instance.Port == s.Instance.Port {
				return
			}
			prev := t.snapshot(s.ID, dev, now)
			ti.instance = s.Instance
			t.refind(prev, s.ID, dev, now)
			return
		}
	}

	dev.instances = append(dev.instances, &trackedInstance{instance: s.Instance, lastSeen: now})
	t.sink.DeviceFound(t.snapshot(s.ID, dev, now))
}

// Expire drops instances older than the expiry window. A device that lost
// only some instances is removed with its previous snapshot and found again
// with the rest. Returns the number of devices that disappeared entirely.
func (t *Tracker) Expire() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.clock.Now()
	cutoff := now.Add(-t.expireAfter)
	removed := 0

	for id, dev := range t.devices {
		var kept []*trackedInstance
		for _, ti := range dev.instances {
			if ti.lastSeen.After(cutoff) {
				kept = append(kept, ti)
			}
		}
		if len(kept) == len(dev.instances) {
			continue
		}

		prev := t.snapshot(id, dev, now)
		if len(kept) == 0 {
			delete(t.devices, id)
			t.sink.DeviceRemoved(prev)
			removed++
			continue
		}

		dev.instances = kept
		t.refind(prev, id, dev, now)
	}

	return removed
}

// refind reports prev as removed, then the current state of dev as found.
// Observers that matched the old snapshot see it leave even when the new
// one no longer matches.
func (t *Tracker) refind(prev Device, id string, dev *trackedDevice, now time.Time) {
	t.sink.DeviceRemoved(prev)
	t.sink.DeviceFound(t.snapshot(id, dev, now))
}

// Reset forgets every device without emitting events.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.devices = make(map[string]*trackedDevice)
}

// Len returns the number of tracked devices.
func (t *Tracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.devices)
}

func (t *Tracker) snapshot(id string, dev *trackedDevice, now time.Time) Device {
	instances := make([]ServiceInstance, 0, len(dev.instances))
	for _, ti := range dev.instances {
		attrs := make(map[string]string, len(ti.instance.Attributes))
		for k, v := range ti.instance.Attributes {
			attrs[k] = v
		}
		inst := ti.instance
		inst.Attributes = attrs
		instances = append(instances, inst)
	}
	return Device{
		ID:        id,
		Hostname:  dev.hostname,
		Address:   dev.address,
		Instances: instances,
		SeenAt:    now,
	}
}

func sameAttributes(a, b map[string]string) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		if bv, ok := b[k]; !ok || bv != v {
			return false
		}
	}
	return true
}
