package metrics

import (
	"strings"
	"testing"

	"github.com/muurk/printscout/internal/discovery"
	"github.com/muurk/printscout/internal/plugin"
	"github.com/muurk/printscout/internal/predicate"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSink_SetsGauge(t *testing.T) {
	m := New()
	sink := m.Sink("Mopria")

	assert.Equal(t, 0.0, testutil.ToFloat64(m.printers.WithLabelValues("Mopria")))

	sink.CountChanged(3)
	sink.CountChanged(2)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.printers.WithLabelValues("Mopria")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.changesTotal.WithLabelValues("Mopria")))
}

func TestSinkFor_PluginName(t *testing.T) {
	m := New()
	feed := discovery.NewBroadcaster(nil)
	p, err := plugin.New("Google Cloud Print", predicate.CloudPrint(), feed, plugin.WithQueueSize(0))
	require.NoError(t, err)

	require.NoError(t, p.Start(m.SinkFor(p)))
	feed.DeviceFound(discovery.Device{ID: "gcp-1", Instances: []discovery.ServiceInstance{{
		Service:    predicate.ServicePrivet,
		Attributes: map[string]string{predicate.AttrType: "printer"},
	}}})
	require.NoError(t, p.Stop())

	expected := `
# HELP printscout_plugin_printers Number of printers currently matched by a plugin
# TYPE printscout_plugin_printers gauge
printscout_plugin_printers{plugin="Google Cloud Print"} 1
`
	err = testutil.GatherAndCompare(m.Registry(), strings.NewReader(expected), "printscout_plugin_printers")
	assert.NoError(t, err)
}
