package config

import (
	"errors"
	"fmt"

	"github.com/muurk/printscout/internal/discovery"
	"github.com/muurk/printscout/internal/logging"
	"github.com/muurk/printscout/internal/plugin"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// ErrConfigUnavailable is returned when vendor configuration cannot be
// resolved: unknown vendor, no package, or an unreadable config file.
var ErrConfigUnavailable = errors.New("config: vendor configuration unavailable")

// installURIPrefix is the store link used for plugin install references
const installURIPrefix = "market://details?id="

// Lookup resolves the install package of a vendor plugin.
type Lookup interface {
	PackageName(vendor string) (string, error)
}

// PackageName returns the install package configured for vendor.
func (c *Catalogue) PackageName(vendor string) (string, error) {
	v := c.Vendor(vendor)
	if v == nil {
		return "", fmt.Errorf("%w: unknown vendor %q", ErrConfigUnavailable, vendor)
	}
	if v.Package == "" {
		return "", fmt.Errorf("%w: vendor %q has no package", ErrConfigUnavailable, vendor)
	}
	return v.Package, nil
}

// fileLookup consults the global catalogue on every call.
type fileLookup struct{}

// DefaultLookup returns a Lookup backed by the global catalogue file.
func DefaultLookup() Lookup {
	return fileLookup{}
}

func (fileLookup) PackageName(vendor string) (string, error) {
	c, err := LoadCatalogue()
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrConfigUnavailable, err)
	}
	return c.PackageName(vendor)
}

// InstallURI returns the store link for an install package.
func InstallURI(pkg string) string {
	if pkg == "" {
		return ""
	}
	return installURIPrefix + pkg
}

// ResolveInstallRef looks up the package of vendor through l and returns
// its store link. Failures are lookup errors wrapping ErrConfigUnavailable.
func ResolveInstallRef(l Lookup, vendor string) (string, error) {
	pkg, err := l.PackageName(vendor)
	if err != nil {
		return "", plugin.NewError(plugin.ErrTypeLookup, vendor, "lookup", err)
	}
	return InstallURI(pkg), nil
}

// Plugins builds one plugin per vendor, all listening on feed. A vendor
// that cannot be built is skipped; its error is included in the combined
// error while the remaining plugins are still returned. A vendor without a
// package still gets a plugin, with an empty install reference.
func (c *Catalogue) Plugins(feed discovery.Feed, opts ...plugin.Option) ([]*plugin.Plugin, error) {
	var plugins []*plugin.Plugin
	var errs error

	for _, v := range c.Vendors {
		if v == nil {
			continue
		}

		pred, err := v.Predicate()
		if err != nil {
			errs = multierr.Append(errs, plugin.NewError(plugin.ErrTypeConfig, v.Name, "new", err))
			continue
		}

		ref := ""
		if pkg, err := c.PackageName(v.Name); err != nil {
			logging.Debug("Vendor has no install package", zap.String("vendor", v.Name), zap.Error(err))
		} else {
			ref = InstallURI(pkg)
		}

		vendorOpts := append([]plugin.Option{
			plugin.WithInstallRef(ref),
			plugin.WithMultiVendor(v.MultiVendor),
		}, opts...)

		p, err := plugin.New(v.Name, pred, feed, vendorOpts...)
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		plugins = append(plugins, p)
	}

	return plugins, errs
}
