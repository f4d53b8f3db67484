package discovery

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/grandcat/zeroconf"
	"github.com/miekg/dns"
	"github.com/muurk/printscout/internal/logging"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	// ServiceDomain is the mDNS domain (typically "local.")
	ServiceDomain = "local."

	// DefaultRoundTimeout bounds a single browse pass over all services
	DefaultRoundTimeout = 5 * time.Second

	// maxActiveQueries is the number of queries sent on the fast schedule
	maxActiveQueries = 10

	// maxQueryDelay caps the pause between browse rounds
	maxQueryDelay = 60 * time.Second
)

// DefaultServices are the printer service types browsed by default.
var DefaultServices = []string{
	"_ipp._tcp",
	"_ipps._tcp",
	"_privet._tcp",
	"_pdl-datastream._tcp",
	"_printer._tcp",
}

// ErrBrowserRunning is returned by Start on a running browser
var ErrBrowserRunning = errors.New("discovery: browser already running")

// browseFunc matches zeroconf.Resolver.Browse
type browseFunc func(ctx context.Context, service, domain string, entries chan<- *zeroconf.ServiceEntry) error

// Browser is a Source that repeatedly browses DNS-SD printer services with
// zeroconf and reports device transitions through a Tracker.
type Browser struct {
	// Services is the list of service types to browse
	Services []string

	// Domain is the browse domain
	Domain string

	// RoundTimeout is the maximum duration of one browse round
	RoundTimeout time.Duration

	// ExpireAfter drops instances not seen for this long
	ExpireAfter time.Duration

	// Clock drives the query schedule and instance expiry
	Clock clock.Clock

	browse browseFunc

	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	tracker *Tracker
}

// NewBrowser creates a browser with default settings
func NewBrowser() *Browser {
	return &Browser{
		Services:     append([]string(nil), DefaultServices...),
		Domain:       ServiceDomain,
		RoundTimeout: DefaultRoundTimeout,
		ExpireAfter:  DefaultExpireAfter,
		Clock:        clock.New(),
		browse:       zeroconfBrowse,
	}
}

func zeroconfBrowse(ctx context.Context, service, domain string, entries chan<- *zeroconf.ServiceEntry) error {
	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return fmt.Errorf("failed to create mDNS resolver: %w", err)
	}
	return resolver.Browse(ctx, service, domain, entries)
}

// Start launches the browse loop in the background.
func (b *Browser) Start(ctx context.Context, sink DeviceObserver) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.cancel != nil {
		return ErrBrowserRunning
	}
	if len(b.Services) == 0 {
		return fmt.Errorf("discovery: no services to browse")
	}
	if b.Clock == nil {
		b.Clock = clock.New()
	}
	if b.browse == nil {
		b.browse = zeroconfBrowse
	}

	ctx, cancel := context.WithCancel(ctx)
	b.cancel = cancel
	b.done = make(chan struct{})
	b.tracker = NewTracker(sink, b.Clock, b.ExpireAfter)

	logging.Info("Starting mDNS browser",
		zap.Strings("services", b.Services),
		zap.String("domain", b.Domain),
	)

	go b.run(ctx, b.tracker, b.done)
	return nil
}

// Stop ends the browse loop and waits for it to exit.
func (b *Browser) Stop() error {
	b.mu.Lock()
	cancel, done := b.cancel, b.done
	b.cancel, b.done = nil, nil
	b.mu.Unlock()

	if cancel == nil {
		return nil
	}
	cancel()
	<-done
	logging.Info("mDNS browser stopped")
	return nil
}

func (b *Browser) run(ctx context.Context, tracker *Tracker, done chan struct{}) {
	defer close(done)

	queries := 0
	for {
		if err := b.round(ctx, tracker); err != nil && ctx.Err() == nil {
			logging.Warn("mDNS browse round failed", zap.Error(err))
		}
		if ctx.Err() != nil {
			return
		}
		if n := tracker.Expire(); n > 0 {
			logging.Debug("Expired devices", zap.Int("count", n))
		}

		queries++
		select {
		case <-ctx.Done():
			return
		case <-b.Clock.After(QueryDelay(queries)):
		}
	}
}

// round browses every service concurrently until the round times out or
// every resolver has finished.
func (b *Browser) round(ctx context.Context, tracker *Tracker) error {
	timeout := b.RoundTimeout
	if timeout <= 0 {
		timeout = DefaultRoundTimeout
	}
	roundCtx, cancel := b.Clock.WithTimeout(ctx, timeout)
	defer cancel()

	g, gctx := errgroup.WithContext(roundCtx)
	for _, service := range b.Services {
		service := service
		g.Go(func() error {
			return b.browseService(gctx, service, tracker)
		})
	}
	return g.Wait()
}

func (b *Browser) browseService(ctx context.Context, service string, tracker *Tracker) error {
	entries := make(chan *zeroconf.ServiceEntry, 16)
	if err := b.browse(ctx, service, b.Domain, entries); err != nil {
		return fmt.Errorf("failed to browse for %s: %w", service, err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case entry, ok := <-entries:
			if !ok {
				return nil
			}
			sighting, ok := parseServiceEntry(entry)
			if !ok {
				continue
			}
			logging.LogDeviceEvent("sighting", sighting.ID, sighting.Instance.Service, sighting.Address)
			tracker.Observe(sighting)
		}
	}
}

// QueryDelay returns the pause after the given number of queries: a
// Fibonacci progression in seconds while discovery is active, capped at
// one minute once more than ten queries were sent.
func QueryDelay(queriesSent int) time.Duration {
	if queriesSent > maxActiveQueries {
		return maxQueryDelay
	}

	delay, first, second := 1, 1, 1
	for i := 1; i < queriesSent; i++ {
		if i <= 1 {
			delay = i
			continue
		}
		delay = first + second
		first, second = second, delay
	}

	d := time.Duration(delay) * time.Second
	if d >= maxQueryDelay {
		return maxQueryDelay
	}
	return d
}

// serviceType reduces a service name to its "_name._proto" pair, dropping
// subtypes and domain labels.
func serviceType(name string) string {
	labels := dns.SplitDomainName(name)
	var kept []string
	for _, l := range labels {
		if strings.EqualFold(l, "local") || strings.EqualFold(l, "_sub") {
			continue
		}
		kept = append(kept, l)
	}
	if len(kept) > 2 {
		kept = kept[len(kept)-2:]
	}
	return strings.Join(kept, ".")
}

// hostLabel returns the first label of an mDNS hostname.
func hostLabel(hostname string) string {
	labels := dns.SplitDomainName(hostname)
	if len(labels) == 0 {
		return ""
	}
	return labels[0]
}

// parseServiceEntry converts a zeroconf service entry to a Sighting.
// Returns false if the entry lacks a hostname, service or address.
func parseServiceEntry(entry *zeroconf.ServiceEntry) (Sighting, bool) {
	if entry == nil || entry.HostName == "" {
		return Sighting{}, false
	}

	id := hostLabel(entry.HostName)
	service := serviceType(entry.Service)
	if id == "" || service == "" {
		return Sighting{}, false
	}

	// Get IP address (prefer IPv4)
	var ip string
	if len(entry.AddrIPv4) > 0 {
		ip = entry.AddrIPv4[0].String()
	}
	if ip == "" && len(entry.AddrIPv6) > 0 {
		ip = entry.AddrIPv6[0].String()
	}
	if ip == "" {
		return Sighting{}, false
	}

	// TXT records are in "key=value" format
	attrs := make(map[string]string, len(entry.Text))
	for _, txt := range entry.Text {
		parts := strings.SplitN(txt, "=", 2)
		if parts[0] == "" {
			continue
		}
		if len(parts) == 2 {
			attrs[parts[0]] = parts[1]
		} else {
			attrs[parts[0]] = ""
		}
	}

	return Sighting{
		ID:       id,
		Hostname: entry.HostName,
		Address:  ip,
		Instance: ServiceInstance{
			Instance:   entry.Instance,
			Service:    service,
			Port:       entry.Port,
			Attributes: attrs,
		},
	}, true
}
