package predicate

import (
	"testing"

	"github.com/muurk/printscout/internal/discovery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func device(instances ...discovery.ServiceInstance) discovery.Device {
	return discovery.Device{ID: "dev", Instances: instances}
}

func service(name string, attrs map[string]string) discovery.ServiceInstance {
	return discovery.ServiceInstance{Instance: "printer", Service: name, Attributes: attrs}
}

func TestNameList_Validation(t *testing.T) {
	tests := []struct {
		name    string
		names   []string
		wantErr bool
	}{
		{name: "single name", names: []string{"_ipp._tcp"}},
		{name: "several names", names: []string{"_ipp._tcp", "_printer._tcp"}},
		{name: "empty list", names: nil, wantErr: true},
		{name: "empty entry", names: []string{"_ipp._tcp", ""}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NameList(tt.names...)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidConfig)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestNameList_Matches(t *testing.T) {
	rule, err := NameList("_ipp._tcp")
	require.NoError(t, err)

	tests := []struct {
		name   string
		device discovery.Device
		want   bool
	}{
		{name: "exact service", device: device(service("_ipp._tcp", nil)), want: true},
		{name: "subtype suffix", device: device(service("_universal._sub._ipp._tcp", nil)), want: true},
		{name: "second instance", device: device(service("_http._tcp", nil), service("_ipp._tcp", nil)), want: true},
		{name: "other service", device: device(service("_ipps._tcp", nil)), want: false},
		{name: "no instances", device: device(), want: false},
		{name: "name without dot boundary", device: device(service("x_ipp._tcp", nil)), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, rule.Matches(tt.device))
		})
	}
}

func TestAttributeContains_Validation(t *testing.T) {
	_, err := AttributeContains("", "type", "printer")
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, err = AttributeContains("_privet._tcp", "", "printer")
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, err = AttributeContains("_privet._tcp", "type")
	assert.ErrorIs(t, err, ErrInvalidConfig)

	rule, err := AttributeContains("_privet._tcp", "type", "printer")
	require.NoError(t, err)
	assert.Equal(t, CloudPrint(), rule)
}

func TestCloudPrint_Matches(t *testing.T) {
	rule := CloudPrint()

	tests := []struct {
		name   string
		device discovery.Device
		want   bool
	}{
		{
			name:   "printer cloud type",
			device: device(service(ServicePrivet, map[string]string{"type": "printer cloud"})),
			want:   true,
		},
		{
			name:   "cloud only",
			device: device(service(ServicePrivet, map[string]string{"type": "cloud"})),
			want:   false,
		},
		{
			name:   "missing type",
			device: device(service(ServicePrivet, map[string]string{"ty": "printer"})),
			want:   false,
		},
		{
			name:   "empty type",
			device: device(service(ServicePrivet, map[string]string{"type": ""})),
			want:   false,
		},
		{
			name:   "type on another service",
			device: device(service(ServiceIPP, map[string]string{"type": "printer"})),
			want:   false,
		},
		{
			name:   "nil attributes",
			device: device(service(ServicePrivet, nil)),
			want:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, rule.Matches(tt.device))
		})
	}
}

func TestMopria_Matches(t *testing.T) {
	rule := Mopria()

	tests := []struct {
		name string
		pdl  string
		want bool
	}{
		{name: "pdf", pdl: "application/octet-stream,application/pdf", want: true},
		{name: "pclm", pdl: "application/PCLm", want: true},
		{name: "pwg raster", pdl: "image/urf,image/pwg-raster", want: true},
		{name: "postscript only", pdl: "application/postscript", want: false},
		{name: "empty", pdl: "", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := device(service(ServiceIPP, map[string]string{"pdl": tt.pdl}))
			assert.Equal(t, tt.want, rule.Matches(d))
		})
	}
}

func TestVendorNames_Matches(t *testing.T) {
	rule, err := VendorNames("HP", "Brother")
	require.NoError(t, err)

	tests := []struct {
		name  string
		attrs map[string]string
		want  bool
	}{
		{name: "mfg equal", attrs: map[string]string{"mfg": "HP"}, want: true},
		{name: "mfg equal ignoring case", attrs: map[string]string{"mfg": "hp"}, want: true},
		{name: "ty prefix", attrs: map[string]string{"ty": "HP LaserJet 400"}, want: true},
		{name: "product lower case", attrs: map[string]string{"product": "(brother hl-l2350dw)"}, want: true},
		{name: "vendor inside a word", attrs: map[string]string{"product": "Brotherhood"}, want: false},
		{name: "usb_MFG mixed case", attrs: map[string]string{"usb_MFG": "Brother Industries"}, want: true},
		{name: "usb_MFG upper", attrs: map[string]string{"usb_MFG": "BROTHER INDUSTRIES"}, want: true},
		{name: "partial word", attrs: map[string]string{"mfg": "HPE"}, want: false},
		{name: "unrelated attribute", attrs: map[string]string{"note": "HP office"}, want: false},
		{name: "no attributes", attrs: nil, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := device(service(ServiceIPP, tt.attrs))
			assert.Equal(t, tt.want, rule.Matches(d))
		})
	}
}

func TestVendorNames_Validation(t *testing.T) {
	_, err := VendorNames()
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, err = VendorNames("HP", "")
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestRule_Validate(t *testing.T) {
	assert.NoError(t, Mopria().Validate())
	assert.NoError(t, CloudPrint().Validate())

	assert.ErrorIs(t, Rule{Kind: KindServiceName}.Validate(), ErrInvalidConfig)
	assert.ErrorIs(t, Rule{Kind: Kind(42), Accept: []string{"x"}}.Validate(), ErrInvalidConfig)
}

func TestRule_UnknownKindNeverMatches(t *testing.T) {
	r := Rule{Kind: Kind(42), Accept: []string{"_ipp._tcp"}}
	assert.False(t, r.Matches(device(service("_ipp._tcp", nil))))
}

func TestAny(t *testing.T) {
	names, err := NameList("_printer._tcp")
	require.NoError(t, err)
	vendors, err := VendorNames("Epson")
	require.NoError(t, err)

	p := Any(names, nil, vendors)

	assert.True(t, p.Matches(device(service("_printer._tcp", nil))))
	assert.True(t, p.Matches(device(service("_ipp._tcp", map[string]string{"mfg": "EPSON"}))))
	assert.False(t, p.Matches(device(service("_ipp._tcp", map[string]string{"mfg": "Canon"}))))
	assert.False(t, Any().Matches(device(service("_printer._tcp", nil))))
}

func TestKind_String(t *testing.T) {
	assert.Equal(t, "service-name", KindServiceName.String())
	assert.Equal(t, "attribute-contains", KindAttributeContains.String())
	assert.Equal(t, "vendor-name", KindVendorName.String())
	assert.Equal(t, "Kind(9)", Kind(9).String())
}
