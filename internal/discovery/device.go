package discovery

import (
	"fmt"
	"strings"
	"time"
)

// ServiceInstance is one DNS-SD service advertisement from a device.
type ServiceInstance struct {
	// Instance is the human-readable instance label (e.g., "HP LaserJet 400")
	Instance string

	// Service is the service type without domain (e.g., "_ipp._tcp")
	Service string

	// Port is the advertised service port
	Port int

	// Attributes contains the TXT record key/value pairs
	// Common IPP fields: "ty", "pdl", "product", "usb_MFG"
	Attributes map[string]string
}

// Device is an immutable snapshot of one physical device seen on the
// network, grouping every service instance it advertises.
type Device struct {
	// ID is the stable device key (the mDNS host label, e.g., "HP3C52A1")
	ID string

	// Hostname is the mDNS hostname (e.g., "HP3C52A1.local.")
	Hostname string

	// Address is the device IP address, IPv4 preferred
	Address string

	// Instances holds one entry per advertised service, in discovery order
	Instances []ServiceInstance

	// SeenAt is when the snapshot was taken
	SeenAt time.Time
}

// String returns a human-readable string representation of the device
func (d Device) String() string {
	return fmt.Sprintf("Device %s (%s) at %s [%s]", d.ID, d.Hostname, d.Address, strings.Join(d.ServiceNames(), ","))
}

// ServiceNames returns the service type of every instance, in order.
func (d Device) ServiceNames() []string {
	names := make([]string, 0, len(d.Instances))
	for _, inst := range d.Instances {
		names = append(names, inst.Service)
	}
	return names
}

// HasService reports whether the device advertises the given service type.
func (d Device) HasService(service string) bool {
	for _, inst := range d.Instances {
		if inst.Service == service {
			return true
		}
	}
	return false
}

// Attributes returns the TXT attributes of the first instance advertising
// service. The result is never nil; an absent service yields an empty map.
func (d Device) Attributes(service string) map[string]string {
	for _, inst := range d.Instances {
		if inst.Service == service && inst.Attributes != nil {
			return inst.Attributes
		}
	}
	return map[string]string{}
}

// Attribute retrieves one TXT value for service, or returns empty string if not found
func (d Device) Attribute(service, key string) string {
	return d.Attributes(service)[key]
}
