package predicate

import (
	"errors"
	"fmt"
	"strings"

	"github.com/muurk/printscout/internal/discovery"
)

// ErrInvalidConfig is returned when a rule cannot be built from the given
// configuration.
var ErrInvalidConfig = errors.New("predicate: invalid configuration")

// Predicate decides whether a device is a printer of one vendor.
// Implementations are pure and never panic; a missing service or attribute
// is a non-match.
type Predicate interface {
	Matches(device discovery.Device) bool
}

// Func adapts an ordinary function to a Predicate.
type Func func(device discovery.Device) bool

// Matches calls f(device)
func (f Func) Matches(device discovery.Device) bool {
	return f(device)
}

// Kind selects how a Rule tests a device.
type Kind int

const (
	// KindServiceName matches when any service name equals or ends with an accepted name
	KindServiceName Kind = iota
	// KindAttributeContains matches when the attribute value of one service contains an accepted substring
	KindAttributeContains
	// KindVendorName matches vendor names against the manufacturer TXT attributes of any service
	KindVendorName
)

// String returns a human-readable name for the rule kind
func (k Kind) String() string {
	switch k {
	case KindServiceName:
		return "service-name"
	case KindAttributeContains:
		return "attribute-contains"
	case KindVendorName:
		return "vendor-name"
	default:
		return fmt.Sprintf("Kind(%d)", k)
	}
}

// Manufacturer TXT attributes consulted by vendor-name rules.
const (
	AttrTy      = "ty"
	AttrProduct = "product"
	AttrUSBMfg  = "usb_MFG"
	AttrMfg     = "mfg"
	AttrPDL     = "pdl"
	AttrType    = "type"
)

var vendorAttributes = []string{AttrProduct, AttrTy, AttrUSBMfg, AttrMfg}

// Rule is a data-described classification: look up at most one attribute
// by service name, then test it against Accept.
type Rule struct {
	Kind Kind

	// Service is the service type consulted by attribute rules
	Service string

	// Key is the TXT attribute tested by attribute rules
	Key string

	// Accept is the non-empty list of accepted names or substrings
	Accept []string
}

// NameList builds a rule matching devices that advertise any of names.
// A name matches a service name it equals or is a suffix of, so "_ipp._tcp"
// also accepts "_universal._sub._ipp._tcp".
func NameList(names ...string) (Rule, error) {
	if err := validateAccept("names", names); err != nil {
		return Rule{}, err
	}
	return Rule{Kind: KindServiceName, Accept: clone(names)}, nil
}

// AttributeContains builds a rule matching devices whose service instance
// carries attribute key containing any of substrings.
func AttributeContains(service, key string, substrings ...string) (Rule, error) {
	if service == "" {
		return Rule{}, fmt.Errorf("%w: service must not be empty", ErrInvalidConfig)
	}
	if key == "" {
		return Rule{}, fmt.Errorf("%w: attribute key must not be empty", ErrInvalidConfig)
	}
	if err := validateAccept("substrings", substrings); err != nil {
		return Rule{}, err
	}
	return Rule{Kind: KindAttributeContains, Service: service, Key: key, Accept: clone(substrings)}, nil
}

// VendorNames builds a rule matching devices whose manufacturer attributes
// (product, ty, usb_MFG, mfg) name one of vendors.
func VendorNames(vendors ...string) (Rule, error) {
	if err := validateAccept("vendor names", vendors); err != nil {
		return Rule{}, err
	}
	return Rule{Kind: KindVendorName, Accept: clone(vendors)}, nil
}

// Validate checks that r could have been built by one of the constructors.
func (r Rule) Validate() error {
	var err error
	switch r.Kind {
	case KindServiceName:
		_, err = NameList(r.Accept...)
	case KindAttributeContains:
		_, err = AttributeContains(r.Service, r.Key, r.Accept...)
	case KindVendorName:
		_, err = VendorNames(r.Accept...)
	default:
		err = fmt.Errorf("%w: unknown rule kind %v", ErrInvalidConfig, r.Kind)
	}
	return err
}

// Matches evaluates the rule against device
func (r Rule) Matches(device discovery.Device) bool {
	switch r.Kind {
	case KindServiceName:
		for _, name := range device.ServiceNames() {
			if r.acceptsName(name) {
				return true
			}
		}
		return false

	case KindAttributeContains:
		if !device.HasService(r.Service) {
			return false
		}
		value := device.Attribute(r.Service, r.Key)
		if value == "" {
			return false
		}
		for _, s := range r.Accept {
			if strings.Contains(value, s) {
				return true
			}
		}
		return false

	case KindVendorName:
		for _, inst := range device.Instances {
			for _, attr := range vendorAttributes {
				if containsVendor(inst.Attributes[attr], r.Accept) {
					return true
				}
			}
		}
		return false

	default:
		return false
	}
}

// String describes the rule for logs
func (r Rule) String() string {
	switch r.Kind {
	case KindAttributeContains:
		return fmt.Sprintf("%s(%s %s ~ %s)", r.Kind, r.Service, r.Key, strings.Join(r.Accept, "|"))
	default:
		return fmt.Sprintf("%s(%s)", r.Kind, strings.Join(r.Accept, "|"))
	}
}

func (r Rule) acceptsName(service string) bool {
	for _, name := range r.Accept {
		if service == name || strings.HasSuffix(service, "."+name) {
			return true
		}
	}
	return false
}

// containsVendor reports whether attr names any vendor: equal ignoring
// case, or containing "vendor " as-is, lower-cased or upper-cased.
func containsVendor(attr string, vendors []string) bool {
	if attr == "" {
		return false
	}
	lower, upper := strings.ToLower(attr), strings.ToUpper(attr)
	for _, v := range vendors {
		if strings.EqualFold(attr, v) ||
			strings.Contains(attr, v+" ") ||
			strings.Contains(lower, strings.ToLower(v)+" ") ||
			strings.Contains(upper, strings.ToUpper(v)+" ") {
			return true
		}
	}
	return false
}

// Any matches when at least one of preds matches.
func Any(preds ...Predicate) Predicate {
	preds = append([]Predicate(nil), preds...)
	return Func(func(device discovery.Device) bool {
		for _, p := range preds {
			if p != nil && p.Matches(device) {
				return true
			}
		}
		return false
	})
}

func validateAccept(field string, values []string) error {
	if len(values) == 0 {
		return fmt.Errorf("%w: %s must not be empty", ErrInvalidConfig, field)
	}
	for i, v := range values {
		if v == "" {
			return fmt.Errorf("%w: %s[%d] is empty", ErrInvalidConfig, field, i)
		}
	}
	return nil
}

func clone(values []string) []string {
	return append([]string(nil), values...)
}
