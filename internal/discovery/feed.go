package discovery

//go:generate mockgen -destination=mock_discovery.go -package=discovery github.com/muurk/printscout/internal/discovery Feed,DeviceObserver

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/muurk/printscout/internal/logging"
	"go.uber.org/zap"
)

var (
	// ErrAlreadyRegistered is returned when an observer registers twice
	ErrAlreadyRegistered = errors.New("discovery: observer already registered")

	// ErrNotRegistered is returned when deregistering an unknown observer
	ErrNotRegistered = errors.New("discovery: observer not registered")

	// ErrNilObserver is returned for a nil observer
	ErrNilObserver = errors.New("discovery: observer is nil")
)

// DeviceObserver receives device transitions from a Feed.
type DeviceObserver interface {
	DeviceFound(device Device)
	DeviceRemoved(device Device)
}

// Feed is the registration side of a discovery feed.
//
// After Deregister returns, the feed delivers no further events to the
// observer. Observers must not call Register or Deregister from inside
// DeviceFound or DeviceRemoved.
type Feed interface {
	Register(observer DeviceObserver) error
	Deregister(observer DeviceObserver) error
}

// Source produces device transitions for a Broadcaster. It is started when
// the first observer registers and stopped when the last one leaves.
type Source interface {
	Start(ctx context.Context, sink DeviceObserver) error
	Stop() error
}

// Broadcaster fans every device transition out to all registered
// observers and replays currently visible devices to new ones.
type Broadcaster struct {
	// lifecycle serializes source start/stop; always taken before mu
	lifecycle sync.Mutex

	mu        sync.Mutex
	observers []DeviceObserver
	visible   map[string]Device
	order     []string

	source Source
	cancel context.CancelFunc
}

var (
	defaultBroadcaster     *Broadcaster
	defaultBroadcasterOnce sync.Once
)

// NewBroadcaster creates a broadcaster. source may be nil, in which case
// devices are only published through DeviceFound and DeviceRemoved.
func NewBroadcaster(source Source) *Broadcaster {
	return &Broadcaster{
		visible: make(map[string]Device),
		source:  source,
	}
}

// DefaultBroadcaster returns the process-wide broadcaster, backed by an
// mDNS Browser with default settings.
func DefaultBroadcaster() *Broadcaster {
	defaultBroadcasterOnce.Do(func() {
		defaultBroadcaster = NewBroadcaster(NewBrowser())
	})
	return defaultBroadcaster
}

// Register adds observer and synchronously delivers DeviceFound for every
// device currently visible.
func (b *Broadcaster) Register(observer DeviceObserver) error {
	if observer == nil {
		return ErrNilObserver
	}

	b.lifecycle.Lock()
	defer b.lifecycle.Unlock()

	b.mu.Lock()
	if b.indexOf(observer) >= 0 {
		b.mu.Unlock()
		return ErrAlreadyRegistered
	}
	b.observers = append(b.observers, observer)
	first := len(b.observers) == 1
	for _, id := range b.order {
		observer.DeviceFound(b.visible[id])
	}
	b.mu.Unlock()

	if first && b.source != nil {
		ctx, cancel := context.WithCancel(context.Background())
		if err := b.source.Start(ctx, publisher{b}); err != nil {
			cancel()
			b.mu.Lock()
			b.remove(observer)
			b.mu.Unlock()
			return fmt.Errorf("failed to start discovery source: %w", err)
		}
		b.cancel = cancel
		logging.Debug("Discovery source started")
	}

	return nil
}

// Deregister removes observer. Once it returns no further events reach the
// observer.
func (b *Broadcaster) Deregister(observer DeviceObserver) error {
	if observer == nil {
		return ErrNilObserver
	}

	b.lifecycle.Lock()
	defer b.lifecycle.Unlock()

	b.mu.Lock()
	if !b.remove(observer) {
		b.mu.Unlock()
		return ErrNotRegistered
	}
	last := len(b.observers) == 0
	b.mu.Unlock()

	if !last || b.source == nil || b.cancel == nil {
		return nil
	}

	// The source may be blocked publishing, so stop it without holding mu.
	b.cancel()
	b.cancel = nil
	err := b.source.Stop()

	b.mu.Lock()
	b.visible = make(map[string]Device)
	b.order = nil
	b.mu.Unlock()

	logging.Debug("Discovery source stopped", zap.Error(err))
	if err != nil {
		return fmt.Errorf("failed to stop discovery source: %w", err)
	}
	return nil
}

// DeviceFound records device as visible and notifies every observer.
func (b *Broadcaster) DeviceFound(device Device) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.visible[device.ID]; !ok {
		b.order = append(b.order, device.ID)
	}
	b.visible[device.ID] = device

	for _, o := range b.observers {
		o.DeviceFound(device)
	}
}

// DeviceRemoved forgets device and notifies every observer. Observers get
// the snapshot last published through DeviceFound, so they see the device
// as it was when they counted it.
func (b *Broadcaster) DeviceRemoved(device Device) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if last, ok := b.visible[device.ID]; ok {
		device = last
		delete(b.visible, device.ID)
		for i, id := range b.order {
			if id == device.ID {
				b.order = append(b.order[:i], b.order[i+1:]...)
				break
			}
		}
	}

	for _, o := range b.observers {
		o.DeviceRemoved(device)
	}
}

// Visible returns the devices currently visible, in discovery order.
func (b *Broadcaster) Visible() []Device {
	b.mu.Lock()
	defer b.mu.Unlock()

	devices := make([]Device, 0, len(b.order))
	for _, id := range b.order {
		devices = append(devices, b.visible[id])
	}
	return devices
}

// Observers returns the number of registered observers.
func (b *Broadcaster) Observers() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.observers)
}

func (b *Broadcaster) indexOf(observer DeviceObserver) int {
	for i, o := range b.observers {
		if o == observer {
			return i
		}
	}
	return -1
}

func (b *Broadcaster) remove(observer DeviceObserver) bool {
	i := b.indexOf(observer)
	if i < 0 {
		return false
	}
	b.observers = append(b.observers[:i], b.observers[i+1:]...)
	return true
}

// publisher hides Register/Deregister from sources.
type publisher struct {
	b *Broadcaster
}

func (p publisher) DeviceFound(device Device)   { p.b.DeviceFound(device) }
func (p publisher) DeviceRemoved(device Device) { p.b.DeviceRemoved(device) }
