package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/muurk/printscout/internal/predicate"
)

// Catalogue represents the entire vendor configuration file.
type Catalogue struct {
	Version     int          `yaml:"version"`
	Vendors     []*Vendor    `yaml:"vendors"`
	Preferences *Preferences `yaml:"preferences,omitempty"`
}

// Vendor describes one print plugin and how to recognise its printers.
// At least one of MDNSNames, VendorNames or Attribute must be set.
type Vendor struct {
	Name        string         `yaml:"name"`                   // Display name (e.g., "Mopria")
	Package     string         `yaml:"package,omitempty"`      // Install package of the print plugin
	MDNSNames   []string       `yaml:"mdns_names,omitempty"`   // Service names that identify the vendor
	VendorNames []string       `yaml:"vendor_names,omitempty"` // Manufacturer names matched against TXT records
	Attribute   *AttributeRule `yaml:"attribute,omitempty"`    // TXT attribute test
	MultiVendor bool           `yaml:"multi_vendor,omitempty"` // Plugin serves printers of many vendors
}

// AttributeRule matches a TXT attribute of one service against substrings.
type AttributeRule struct {
	Service  string   `yaml:"service"`
	Key      string   `yaml:"key"`
	Contains []string `yaml:"contains"`
}

// Preferences represents discovery settings.
type Preferences struct {
	BrowseTimeout int      `yaml:"browse_timeout"`     // Length of one browse round in seconds
	ExpireAfter   int      `yaml:"expire_after"`       // Seconds before an unseen service is dropped
	Services      []string `yaml:"services,omitempty"` // Service types to browse
}

// BrowseTimeoutDuration returns BrowseTimeout as a duration
func (p *Preferences) BrowseTimeoutDuration() time.Duration {
	return time.Duration(p.BrowseTimeout) * time.Second
}

// ExpireAfterDuration returns ExpireAfter as a duration
func (p *Preferences) ExpireAfterDuration() time.Duration {
	return time.Duration(p.ExpireAfter) * time.Second
}

// Well-known plugin packages.
const (
	PackageCloudPrint = "com.google.android.apps.cloudprint"
	PackageMopria     = "org.mopria.printplugin"
)

// NewCatalogue creates a new Catalogue with the built-in vendors.
func NewCatalogue() *Catalogue {
	return &Catalogue{
		Version:     1,
		Vendors:     builtinVendors(),
		Preferences: defaultPreferences(),
	}
}

func defaultPreferences() *Preferences {
	return &Preferences{
		BrowseTimeout: 5,
		ExpireAfter:   180,
		Services: []string{
			"_ipp._tcp",
			"_ipps._tcp",
			"_privet._tcp",
			"_pdl-datastream._tcp",
			"_printer._tcp",
		},
	}
}

func builtinVendors() []*Vendor {
	cloud, mopria := predicate.CloudPrint(), predicate.Mopria()
	return []*Vendor{
		{
			Name:    "Google Cloud Print",
			Package: PackageCloudPrint,
			Attribute: &AttributeRule{
				Service:  cloud.Service,
				Key:      cloud.Key,
				Contains: cloud.Accept,
			},
			MultiVendor: true,
		},
		{
			Name:    "Mopria",
			Package: PackageMopria,
			Attribute: &AttributeRule{
				Service:  mopria.Service,
				Key:      mopria.Key,
				Contains: mopria.Accept,
			},
			MultiVendor: true,
		},
		{Name: "HP", Package: "com.hp.android.printservice", VendorNames: []string{"HP", "Hewlett-Packard"}},
		{Name: "Brother", Package: "com.brother.printservice", VendorNames: []string{"Brother"}},
		{Name: "Canon", Package: "jp.co.canon.android.printservice.plugin", VendorNames: []string{"Canon"}},
		{Name: "Epson", Package: "com.epson.mobilephone.android.epsonprintserviceplugin", VendorNames: []string{"Epson"}},
		{Name: "Samsung", Package: "com.sec.app.samsungprintservice", VendorNames: []string{"Samsung"}},
		{Name: "Xerox", Package: "com.xerox.printservice", VendorNames: []string{"Xerox", "Fuji Xerox"}},
	}
}

// Vendor retrieves a vendor by name, ignoring case.
// Returns nil if the vendor doesn't exist in the catalogue.
func (c *Catalogue) Vendor(name string) *Vendor {
	for _, v := range c.Vendors {
		if v != nil && strings.EqualFold(v.Name, name) {
			return v
		}
	}
	return nil
}

// Validate checks the catalogue version and that every vendor can be
// turned into a predicate.
func (c *Catalogue) Validate() error {
	if c.Version != 1 {
		return fmt.Errorf("unsupported config version: %d (expected 1)", c.Version)
	}
	seen := make(map[string]bool, len(c.Vendors))
	for i, v := range c.Vendors {
		if v == nil {
			return fmt.Errorf("vendors[%d] is empty", i)
		}
		key := strings.ToLower(v.Name)
		if seen[key] {
			return fmt.Errorf("vendor %q listed twice", v.Name)
		}
		seen[key] = true
		if _, err := v.Predicate(); err != nil {
			return fmt.Errorf("vendor %q: %w", v.Name, err)
		}
	}
	return nil
}

// Predicate builds the classification predicate described by the vendor.
// Several configured tests are combined with a logical OR.
func (v *Vendor) Predicate() (predicate.Predicate, error) {
	if v.Name == "" {
		return nil, fmt.Errorf("%w: vendor name must not be empty", predicate.ErrInvalidConfig)
	}

	var rules []predicate.Predicate
	if len(v.MDNSNames) > 0 {
		r, err := predicate.NameList(v.MDNSNames...)
		if err != nil {
			return nil, err
		}
		rules = append(rules, r)
	}
	if len(v.VendorNames) > 0 {
		r, err := predicate.VendorNames(v.VendorNames...)
		if err != nil {
			return nil, err
		}
		rules = append(rules, r)
	}
	if v.Attribute != nil {
		r, err := predicate.AttributeContains(v.Attribute.Service, v.Attribute.Key, v.Attribute.Contains...)
		if err != nil {
			return nil, err
		}
		rules = append(rules, r)
	}

	switch len(rules) {
	case 0:
		return nil, fmt.Errorf("%w: vendor %q has no matching rule", predicate.ErrInvalidConfig, v.Name)
	case 1:
		return rules[0], nil
	default:
		return predicate.Any(rules...), nil
	}
}
