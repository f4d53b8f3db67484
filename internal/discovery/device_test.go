package discovery

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func testDevice() Device {
	return Device{
		ID:       "HP3C52A1",
		Hostname: "HP3C52A1.local.",
		Address:  "192.168.1.20",
		Instances: []ServiceInstance{
			{Instance: "HP LaserJet", Service: "_http._tcp", Port: 80},
			{Instance: "HP LaserJet", Service: "_ipp._tcp", Port: 631, Attributes: map[string]string{"ty": "HP LaserJet 400", "pdl": "application/pdf"}},
			{Instance: "HP LaserJet (2)", Service: "_ipp._tcp", Port: 631, Attributes: map[string]string{"ty": "second"}},
		},
	}
}

func TestDevice_ServiceNames(t *testing.T) {
	assert.Equal(t, []string{"_http._tcp", "_ipp._tcp", "_ipp._tcp"}, testDevice().ServiceNames())
	assert.Empty(t, Device{}.ServiceNames())
}

func TestDevice_HasService(t *testing.T) {
	d := testDevice()
	assert.True(t, d.HasService("_ipp._tcp"))
	assert.True(t, d.HasService("_http._tcp"))
	assert.False(t, d.HasService("_privet._tcp"))
}

func TestDevice_Attributes(t *testing.T) {
	d := testDevice()

	tests := []struct {
		name    string
		service string
		want    map[string]string
	}{
		{name: "first matching instance wins", service: "_ipp._tcp", want: map[string]string{"ty": "HP LaserJet 400", "pdl": "application/pdf"}},
		{name: "instance without attributes", service: "_http._tcp", want: map[string]string{}},
		{name: "absent service", service: "_privet._tcp", want: map[string]string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := d.Attributes(tt.service)
			assert.NotNil(t, got)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDevice_Attribute(t *testing.T) {
	d := testDevice()
	assert.Equal(t, "HP LaserJet 400", d.Attribute("_ipp._tcp", "ty"))
	assert.Equal(t, "", d.Attribute("_ipp._tcp", "missing"))
	assert.Equal(t, "", d.Attribute("_privet._tcp", "type"))
}

func TestDevice_String(t *testing.T) {
	s := testDevice().String()
	assert.Contains(t, s, "HP3C52A1")
	assert.Contains(t, s, "192.168.1.20")
	assert.Contains(t, s, "_ipp._tcp")
}
