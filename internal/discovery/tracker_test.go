package discovery

import (
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sighting(id, addr, service string, attrs map[string]string) Sighting {
	return Sighting{
		ID:       id,
		Hostname: id + ".local.",
		Address:  addr,
		Instance: ServiceInstance{Instance: id + " printer", Service: service, Port: 631, Attributes: attrs},
	}
}

func TestTracker_MergesInstances(t *testing.T) {
	sink := &collector{}
	tr := NewTracker(sink, clock.NewMock(), time.Minute)

	tr.Observe(sighting("HP1", "10.0.0.2", "_ipp._tcp", map[string]string{"ty": "HP"}))
	tr.Observe(sighting("HP1", "10.0.0.2", "_privet._tcp", map[string]string{"type": "printer"}))

	found := sink.Found()
	require.Len(t, found, 2)
	assert.Equal(t, []string{"_ipp._tcp"}, found[0].ServiceNames())
	assert.Equal(t, []string{"_ipp._tcp", "_privet._tcp"}, found[1].ServiceNames())
	assert.Equal(t, "HP1.local.", found[1].Hostname)
	assert.Equal(t, 1, tr.Len())
}

func TestTracker_RepeatedSightingIsSilent(t *testing.T) {
	sink := &collector{}
	tr := NewTracker(sink, clock.NewMock(), time.Minute)

	s := sighting("HP1", "10.0.0.2", "_ipp._tcp", map[string]string{"ty": "HP"})
	tr.Observe(s)
	tr.Observe(s)

	assert.Len(t, sink.Found(), 1)
}

func TestTracker_ChangedAttributesRemovesThenFinds(t *testing.T) {
	sink := &collector{}
	tr := NewTracker(sink, clock.NewMock(), time.Minute)

	tr.Observe(sighting("HP1", "10.0.0.2", "_ipp._tcp", map[string]string{"ty": "HP", "pdl": "application/pdf"}))
	tr.Observe(sighting("HP1", "10.0.0.2", "_ipp._tcp", map[string]string{"ty": "HP", "pdl": "application/postscript"}))

	removed := sink.Removed()
	require.Len(t, removed, 1)
	assert.Equal(t, "application/pdf", removed[0].Attribute("_ipp._tcp", "pdl"))

	found := sink.Found()
	require.Len(t, found, 2)
	assert.Equal(t, "application/postscript", found[1].Attribute("_ipp._tcp", "pdl"))
	assert.Equal(t, 1, tr.Len())
}

func TestTracker_ChangedPortRemovesThenFinds(t *testing.T) {
	sink := &collector{}
	tr := NewTracker(sink, clock.NewMock(), time.Minute)

	s := sighting("HP1", "10.0.0.2", "_ipp._tcp", nil)
	tr.Observe(s)
	s.Instance.Port = 8631
	tr.Observe(s)

	removed := sink.Removed()
	require.Len(t, removed, 1)
	assert.Equal(t, 631, removed[0].Instances[0].Port)
	assert.Len(t, sink.Found(), 2)
}

func TestTracker_AddressChangeRemovesThenFinds(t *testing.T) {
	sink := &collector{}
	tr := NewTracker(sink, clock.NewMock(), time.Minute)

	tr.Observe(sighting("HP1", "10.0.0.2", "_ipp._tcp", nil))
	tr.Observe(sighting("HP1", "10.0.0.9", "_ipp._tcp", nil))

	removed := sink.Removed()
	require.Len(t, removed, 1)
	assert.Equal(t, "10.0.0.2", removed[0].Address)

	found := sink.Found()
	require.Len(t, found, 2)
	assert.Equal(t, "10.0.0.9", found[1].Address)
	assert.Equal(t, 1, tr.Len())
}

func TestTracker_Expire(t *testing.T) {
	mock := clock.NewMock()
	sink := &collector{}
	tr := NewTracker(sink, mock, time.Minute)

	tr.Observe(sighting("HP1", "10.0.0.2", "_ipp._tcp", nil))
	tr.Observe(sighting("HP1", "10.0.0.2", "_privet._tcp", nil))
	tr.Observe(sighting("EP1", "10.0.0.3", "_ipp._tcp", nil))

	mock.Add(30 * time.Second)
	assert.Equal(t, 0, tr.Expire())
	assert.Empty(t, sink.Removed())

	// Refresh only HP1's IPP instance.
	tr.Observe(sighting("HP1", "10.0.0.2", "_ipp._tcp", nil))
	mock.Add(30 * time.Second)

	assert.Equal(t, 1, tr.Expire())

	// EP1 is gone; HP1 lost its privet instance and is reported with the
	// snapshot it had before, then found again with what is left.
	removed := make(map[string]Device)
	for _, d := range sink.Removed() {
		removed[d.ID] = d
	}
	require.Len(t, removed, 2)
	assert.Equal(t, []string{"_ipp._tcp"}, removed["EP1"].ServiceNames())
	assert.Equal(t, []string{"_ipp._tcp", "_privet._tcp"}, removed["HP1"].ServiceNames())

	found := sink.Found()
	last := found[len(found)-1]
	assert.Equal(t, "HP1", last.ID)
	assert.Equal(t, []string{"_ipp._tcp"}, last.ServiceNames())
	assert.Equal(t, 1, tr.Len())

	mock.Add(time.Minute)
	assert.Equal(t, 1, tr.Expire())
	assert.Equal(t, 0, tr.Len())
}

func TestTracker_SnapshotsAreIndependent(t *testing.T) {
	sink := &collector{}
	tr := NewTracker(sink, clock.NewMock(), time.Minute)

	attrs := map[string]string{"ty": "HP"}
	tr.Observe(sighting("HP1", "10.0.0.2", "_ipp._tcp", attrs))
	sink.Found()[0].Instances[0].Attributes["ty"] = "changed"

	tr.Observe(sighting("HP1", "10.0.0.2", "_privet._tcp", nil))
	assert.Equal(t, "HP", sink.Found()[1].Attribute("_ipp._tcp", "ty"))
}

func TestTracker_IgnoresIncompleteSightings(t *testing.T) {
	sink := &collector{}
	tr := NewTracker(sink, nil, 0)

	tr.Observe(Sighting{Address: "10.0.0.2", Instance: ServiceInstance{Service: "_ipp._tcp"}})
	tr.Observe(Sighting{ID: "HP1", Address: "10.0.0.2"})

	assert.Empty(t, sink.Found())
	assert.Equal(t, DefaultExpireAfter, tr.expireAfter)
}

func TestTracker_Reset(t *testing.T) {
	sink := &collector{}
	tr := NewTracker(sink, clock.NewMock(), time.Minute)
	tr.Observe(sighting("HP1", "10.0.0.2", "_ipp._tcp", nil))

	tr.Reset()
	assert.Equal(t, 0, tr.Len())
	assert.Empty(t, sink.Removed())
}
