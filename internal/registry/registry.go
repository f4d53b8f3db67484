package registry

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/muurk/printscout/internal/logging"
	"github.com/muurk/printscout/internal/plugin"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// ErrDuplicatePlugin is returned when a plugin is added twice
var ErrDuplicatePlugin = errors.New("registry: plugin already added")

// Entry is the presentation view of one plugin.
type Entry struct {
	Name        string `json:"plugin"`
	ID          string `json:"id"`
	Count       int    `json:"count"`
	MultiVendor bool   `json:"multi_vendor"`
	InstallRef  string `json:"install_ref,omitempty"`
	State       string `json:"state"`
}

// SinkFactory returns an extra sink that receives every count of p, or nil.
type SinkFactory func(p *plugin.Plugin) plugin.CountSink

// Option configures a Registry
type Option func(*Registry)

// WithSinkFactory attaches extra sinks (metrics, logs) to every plugin
// started by the registry.
func WithSinkFactory(f SinkFactory) Option {
	return func(r *Registry) {
		r.sinkFactory = f
	}
}

// Registry owns a set of plugins, starts and stops them together, and
// aggregates their counts for presentation.
type Registry struct {
	sinkFactory SinkFactory

	mu          sync.Mutex
	plugins     []*plugin.Plugin
	counts      map[*plugin.Plugin]int
	subscribers []func(Entry)
}

// New creates an empty registry
func New(opts ...Option) *Registry {
	r := &Registry{counts: make(map[*plugin.Plugin]int)}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Add appends p. Plugins are started by the next StartAll.
func (r *Registry) Add(p *plugin.Plugin) error {
	if p == nil {
		return errors.New("registry: plugin is nil")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.plugins {
		if existing == p {
			return fmt.Errorf("%w: %s", ErrDuplicatePlugin, p.Name())
		}
	}
	r.plugins = append(r.plugins, p)
	return nil
}

// Subscribe registers fn to receive an Entry whenever a plugin count
// changes. fn may be called concurrently for different plugins.
func (r *Registry) Subscribe(fn func(Entry)) {
	if fn == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.subscribers = append(r.subscribers, fn)
}

// StartAll starts every plugin that is not running. Plugins that fail to
// start are dropped from the registry; their errors are combined in the
// returned error.
func (r *Registry) StartAll(ctx context.Context) error {
	r.mu.Lock()
	plugins := append([]*plugin.Plugin(nil), r.plugins...)
	r.mu.Unlock()

	var errs error
	var failed []*plugin.Plugin

	for _, p := range plugins {
		if err := ctx.Err(); err != nil {
			return multierr.Append(errs, err)
		}
		if p.State() == plugin.StateStarted {
			continue
		}

		if err := p.Start(r.sinkFor(p)); err != nil {
			logging.Warn("Dropping plugin that failed to start",
				zap.String("plugin", p.Name()),
				zap.Error(err),
			)
			failed = append(failed, p)
			errs = multierr.Append(errs, err)
		}
	}

	if len(failed) > 0 {
		r.drop(failed)
	}
	return errs
}

// StopAll stops every running plugin and resets its count to zero. It
// keeps going after a failure and returns all errors combined.
func (r *Registry) StopAll() error {
	r.mu.Lock()
	plugins := append([]*plugin.Plugin(nil), r.plugins...)
	r.mu.Unlock()

	var errs error
	for _, p := range plugins {
		if p.State() != plugin.StateStarted {
			continue
		}
		errs = multierr.Append(errs, p.Stop())
		r.record(p, 0)
	}
	return errs
}

// Flush waits until every running plugin has delivered the counts it
// queued so far, so a following Snapshot reflects them.
func (r *Registry) Flush() {
	r.mu.Lock()
	plugins := append([]*plugin.Plugin(nil), r.plugins...)
	r.mu.Unlock()

	for _, p := range plugins {
		p.Flush()
	}
}

// Snapshot returns the plugins that currently see at least one printer,
// most printers first. On equal counts single-vendor plugins come before
// multi-vendor ones.
func (r *Registry) Snapshot() []Entry {
	var entries []Entry
	for _, e := range r.All() {
		if e.Count > 0 {
			entries = append(entries, e)
		}
	}

	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		if a.MultiVendor != b.MultiVendor {
			return !a.MultiVendor
		}
		return a.Name < b.Name
	})
	return entries
}

// All returns an entry for every plugin, in the order they were added.
func (r *Registry) All() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()

	entries := make([]Entry, 0, len(r.plugins))
	for _, p := range r.plugins {
		entries = append(entries, r.entryLocked(p))
	}
	return entries
}

// Len returns the number of plugins in the registry
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.plugins)
}

// Total returns the sum of all plugin counts. A printer matched by
// several plugins is counted once per plugin.
func (r *Registry) Total() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	total := 0
	for _, n := range r.counts {
		total += n
	}
	return total
}

func (r *Registry) sinkFor(p *plugin.Plugin) plugin.CountSink {
	var extra plugin.CountSink
	if r.sinkFactory != nil {
		extra = r.sinkFactory(p)
	}
	return plugin.SinkFunc(func(count int) {
		logging.LogCountChanged(p.Name(), count)
		if extra != nil {
			extra.CountChanged(count)
		}
		r.record(p, count)
	})
}

func (r *Registry) record(p *plugin.Plugin, count int) {
	r.mu.Lock()
	if _, ok := r.counts[p]; !ok && count == 0 {
		r.mu.Unlock()
		return
	}
	r.counts[p] = count
	entry := r.entryLocked(p)
	subs := append(([]func(Entry))(nil), r.subscribers...)
	r.mu.Unlock()

	for _, fn := range subs {
		fn(entry)
	}
}

func (r *Registry) drop(failed []*plugin.Plugin) {
	r.mu.Lock()
	defer r.mu.Unlock()

	kept := r.plugins[:0]
	for _, p := range r.plugins {
		dropped := false
		for _, f := range failed {
			if p == f {
				dropped = true
				break
			}
		}
		if dropped {
			delete(r.counts, p)
			continue
		}
		kept = append(kept, p)
	}
	r.plugins = kept
}

func (r *Registry) entryLocked(p *plugin.Plugin) Entry {
	return Entry{
		Name:        p.Name(),
		ID:          p.ID().String(),
		Count:       r.counts[p],
		MultiVendor: p.MultiVendor(),
		InstallRef:  p.InstallRef(),
		State:       p.State().String(),
	}
}
