package plugin

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/muurk/printscout/internal/discovery"
	"github.com/muurk/printscout/internal/logging"
	"github.com/muurk/printscout/internal/predicate"
	"go.uber.org/zap"
)

// DefaultQueueSize is the number of pending count notifications buffered
// between the feed and the sink.
const DefaultQueueSize = 64

// State is the lifecycle state of a plugin
type State int

const (
	// StateIdle is the state of a plugin that was never started
	StateIdle State = iota
	// StateStarted means the plugin is registered with the feed
	StateStarted
	// StateStopped means the plugin deregistered; it may be started again
	StateStopped
)

// String returns a human-readable name for the state
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateStarted:
		return "started"
	case StateStopped:
		return "stopped"
	default:
		return fmt.Sprintf("State(%d)", s)
	}
}

// CountSink receives the number of matching devices whenever it changes.
// The count may rise and fall.
type CountSink interface {
	CountChanged(count int)
}

// SinkFunc adapts an ordinary function to a CountSink.
type SinkFunc func(count int)

// CountChanged calls f(count)
func (f SinkFunc) CountChanged(count int) {
	f(count)
}

// Option configures a Plugin
type Option func(*Plugin)

// WithQueueSize sets the notification queue length. Zero delivers counts
// inline while the plugin lock is held.
func WithQueueSize(n int) Option {
	return func(p *Plugin) {
		if n < 0 {
			n = 0
		}
		p.queueSize = n
	}
}

// WithInstallRef sets the install reference reported for the plugin
func WithInstallRef(ref string) Option {
	return func(p *Plugin) {
		p.installRef = ref
	}
}

// WithMultiVendor marks the plugin as serving printers of many vendors
func WithMultiVendor(multi bool) Option {
	return func(p *Plugin) {
		p.multiVendor = multi
	}
}

// Plugin counts the devices on a feed that match one predicate.
//
// Each found/removed event is handled in one critical section: evaluate the
// predicate, mutate the set, read its size and queue the notification. The
// sink therefore sees exact counts in event order.
type Plugin struct {
	id          uuid.UUID
	name        string
	pred        predicate.Predicate
	feed        discovery.Feed
	installRef  string
	multiVendor bool
	queueSize   int

	// lifecycle serializes Start and Stop; never held by event handlers
	lifecycle sync.Mutex

	// mu guards set and queue and orders state transitions
	mu    sync.Mutex
	set   *IDSet
	queue *dispatcher

	// state and count are readable without mu so sinks may query them
	state atomic.Int32
	count atomic.Int64
}

// New creates an idle plugin. It fails with a configuration error when
// name is empty or pred or feed is nil, and validates Rule predicates.
func New(name string, pred predicate.Predicate, feed discovery.Feed, opts ...Option) (*Plugin, error) {
	if name == "" {
		return nil, NewError(ErrTypeConfig, "", "new", errors.New("name must not be empty"))
	}
	if pred == nil {
		return nil, NewError(ErrTypeConfig, name, "new", errors.New("predicate must not be nil"))
	}
	if rule, ok := pred.(predicate.Rule); ok {
		if err := rule.Validate(); err != nil {
			return nil, NewError(ErrTypeConfig, name, "new", err)
		}
	}
	if feed == nil {
		return nil, NewError(ErrTypeConfig, name, "new", errors.New("feed must not be nil"))
	}

	p := &Plugin{
		id:        uuid.New(),
		name:      name,
		pred:      pred,
		feed:      feed,
		queueSize: DefaultQueueSize,
		set:       NewIDSet(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// ID returns the unique plugin instance identifier
func (p *Plugin) ID() uuid.UUID { return p.id }

// Name returns the vendor name of the plugin
func (p *Plugin) Name() string { return p.name }

// InstallRef returns the install reference, empty if none was configured
func (p *Plugin) InstallRef() string { return p.installRef }

// MultiVendor reports whether the plugin serves printers of many vendors
func (p *Plugin) MultiVendor() bool { return p.multiVendor }

// String returns a human-readable description
func (p *Plugin) String() string {
	return fmt.Sprintf("Plugin %s (%s)", p.name, p.id)
}

// State returns the current lifecycle state
func (p *Plugin) State() State {
	return State(p.state.Load())
}

// Count returns the last count queued for the sink. With a queue the sink
// may not have received it yet; Flush waits until it has. It is zero
// before Start and after Stop.
func (p *Plugin) Count() int {
	return int(p.count.Load())
}

// Flush blocks until every count queued before the call has been handed to
// the sink. It returns at once when the plugin is not started or delivers
// inline. It must not be called from the sink.
func (p *Plugin) Flush() {
	p.mu.Lock()
	if p.State() != StateStarted || p.queue == nil {
		p.mu.Unlock()
		return
	}
	ack := p.queue.mark()
	p.mu.Unlock()
	<-ack
}

// Members returns the identifiers currently counted, sorted
func (p *Plugin) Members() []string {
	p.mu.Lock()
	set := p.set
	p.mu.Unlock()
	return set.Members()
}

// Start registers the plugin with its feed and begins reporting counts to
// sink. The feed replays devices already visible, so the first counts
// arrive during Start. A rejected registration returns a registration error
// and leaves the plugin in its previous state.
func (p *Plugin) Start(sink CountSink) error {
	if sink == nil {
		return NewError(ErrTypeConfig, p.name, "start", errors.New("sink must not be nil"))
	}

	p.lifecycle.Lock()
	defer p.lifecycle.Unlock()

	p.mu.Lock()
	prev := p.State()
	if prev == StateStarted {
		p.mu.Unlock()
		return NewError(ErrTypeRegistration, p.name, "start", ErrAlreadyStarted)
	}
	p.set = NewIDSet()
	p.queue = newDispatcher(p.name, sink, p.queueSize)
	p.count.Store(0)
	p.state.Store(int32(StateStarted))
	p.mu.Unlock()

	// Register replays visible devices into DeviceFound, so mu must be free.
	if err := p.feed.Register(p); err != nil {
		p.mu.Lock()
		p.state.Store(int32(prev))
		q := p.queue
		p.queue = nil
		p.set = NewIDSet()
		p.mu.Unlock()

		q.abort()
		p.count.Store(0)

		logging.LogPluginState(p.name, "start_failed", zap.Error(err))
		return NewError(ErrTypeRegistration, p.name, "start", err)
	}

	logging.LogPluginState(p.name, StateStarted.String(), zap.String("plugin_id", p.id.String()))
	return nil
}

// Stop deregisters the plugin. Every notification triggered before the
// feed confirmed deregistration is delivered before Stop returns; nothing
// is delivered afterwards. A deregistration error is returned, but the
// plugin stops reporting regardless.
func (p *Plugin) Stop() error {
	p.lifecycle.Lock()
	defer p.lifecycle.Unlock()

	p.mu.Lock()
	if p.State() != StateStarted {
		p.mu.Unlock()
		return NewError(ErrTypeRegistration, p.name, "stop", ErrNotStarted)
	}
	p.mu.Unlock()

	deregErr := p.feed.Deregister(p)

	p.mu.Lock()
	p.state.Store(int32(StateStopped))
	q := p.queue
	p.queue = nil
	p.set = NewIDSet()
	p.mu.Unlock()

	q.close()
	p.count.Store(0)

	if deregErr != nil {
		logging.LogPluginState(p.name, "stop_failed", zap.Error(deregErr))
		return NewError(ErrTypeRegistration, p.name, "stop", deregErr)
	}

	logging.LogPluginState(p.name, StateStopped.String())
	return nil
}

// DeviceFound counts device if it matches and was not counted yet.
func (p *Plugin) DeviceFound(device discovery.Device) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.State() != StateStarted || !p.pred.Matches(device) {
		return
	}
	if p.set.Add(device.ID) {
		p.notify(device, "found")
	}
}

// DeviceRemoved uncounts device if it matches and was counted.
func (p *Plugin) DeviceRemoved(device discovery.Device) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.State() != StateStarted || !p.pred.Matches(device) {
		return
	}
	if p.set.Remove(device.ID) {
		p.notify(device, "removed")
	}
}

// notify must be called with mu held.
func (p *Plugin) notify(device discovery.Device, event string) {
	n := p.set.Len()
	p.count.Store(int64(n))
	logging.Debug("Plugin matched device",
		zap.String("plugin", p.name),
		zap.String("event", event),
		zap.String("device", device.ID),
		zap.Int("count", n),
	)
	p.queue.push(n)
}
