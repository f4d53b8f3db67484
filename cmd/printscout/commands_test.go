package main

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/muurk/printscout/internal/config"
	"github.com/muurk/printscout/internal/discovery"
	"github.com/muurk/printscout/internal/metrics"
	"github.com/muurk/printscout/internal/predicate"
	"github.com/muurk/printscout/internal/registry"
)

func resetFlags(t *testing.T) {
	t.Helper()
	t.Cleanup(func() {
		services = nil
		browseRound = 0
		queueSize = 0
		outputFormat = formatText
	})
}

func TestNewBrowser(t *testing.T) {
	resetFlags(t)

	prefs := &config.Preferences{BrowseTimeout: 7, ExpireAfter: 60, Services: []string{"_ipp._tcp"}}

	b := newBrowser(prefs)
	assert.Equal(t, []string{"_ipp._tcp"}, b.Services)
	assert.Equal(t, 7*time.Second, b.RoundTimeout)
	assert.Equal(t, time.Minute, b.ExpireAfter)

	services = []string{"_privet._tcp"}
	browseRound = 2
	b = newBrowser(prefs)
	assert.Equal(t, []string{"_privet._tcp"}, b.Services)
	assert.Equal(t, 2*time.Second, b.RoundTimeout)

	services = nil
	browseRound = 0
	b = newBrowser(nil)
	assert.Equal(t, discovery.DefaultServices, b.Services)
	assert.Equal(t, discovery.DefaultRoundTimeout, b.RoundTimeout)
}

func TestBuildRegistry(t *testing.T) {
	resetFlags(t)

	cat := config.NewCatalogue()
	feed := discovery.NewBroadcaster(nil)

	reg, err := buildRegistry(cat, feed, metrics.New())
	require.NoError(t, err)
	assert.Equal(t, len(cat.Vendors), reg.Len())

	_, err = buildRegistry(&config.Catalogue{Version: 1}, feed, nil)
	assert.Error(t, err)
}

func TestScanFlow(t *testing.T) {
	resetFlags(t)
	queueSize = 0

	feed := discovery.NewBroadcaster(nil)
	reg, err := buildRegistry(config.NewCatalogue(), feed, nil)
	require.NoError(t, err)

	var changes bytes.Buffer
	outputFormat = formatJSON
	reg.Subscribe(func(e registry.Entry) { printChange(&changes, e) })

	require.NoError(t, startRegistry(t.Context(), reg))
	feed.DeviceFound(discovery.Device{ID: "hp-1", Instances: []discovery.ServiceInstance{{
		Service:    predicate.ServiceIPP,
		Attributes: map[string]string{predicate.AttrPDL: predicate.PDLPDF, predicate.AttrTy: "HP LaserJet"},
	}}})

	entries := reg.Snapshot()
	require.NoError(t, reg.StopAll())

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name)
	}
	assert.Equal(t, []string{"HP", "Mopria"}, names)
	assert.Contains(t, changes.String(), `{"plugin":"HP","count":1}`)
}

func TestPrintEntries(t *testing.T) {
	entries := []registry.Entry{
		{Name: "HP", Count: 2, InstallRef: "market://details?id=com.hp.android.printservice"},
		{Name: "Mopria", Count: 1, MultiVendor: true},
	}

	var buf bytes.Buffer
	require.NoError(t, printEntries(&buf, entries, formatText))
	assert.Contains(t, buf.String(), "HP")
	assert.Contains(t, buf.String(), "Mopria *")
	assert.Contains(t, buf.String(), "market://details?id=com.hp.android.printservice")

	buf.Reset()
	require.NoError(t, printEntries(&buf, nil, formatText))
	assert.Contains(t, buf.String(), "No printers found.")

	buf.Reset()
	require.NoError(t, printEntries(&buf, nil, formatJSON))
	assert.JSONEq(t, `[]`, buf.String())

	buf.Reset()
	require.NoError(t, printEntries(&buf, entries, formatJSON))
	var decoded []registry.Entry
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, entries, decoded)
}

func TestListVendors(t *testing.T) {
	cat := config.NewCatalogue()
	cat.Vendors = append(cat.Vendors, &config.Vendor{Name: "Local", VendorNames: []string{"Local"}})

	rows := listVendors(cat)
	require.Len(t, rows, len(cat.Vendors))

	byName := make(map[string]vendorInfo, len(rows))
	for _, r := range rows {
		byName[r.Name] = r
	}
	assert.True(t, byName["Mopria"].MultiVendor)
	assert.Equal(t, config.InstallURI(config.PackageMopria), byName["Mopria"].InstallRef)
	assert.Empty(t, byName["Local"].InstallRef)

	var buf bytes.Buffer
	require.NoError(t, printVendors(&buf, rows, formatText))
	assert.Contains(t, buf.String(), "Mopria (multi-vendor)")
	assert.Contains(t, buf.String(), "Local (vendor)")
}

func TestVersionCommand(t *testing.T) {
	var buf bytes.Buffer
	versionCmd.SetOut(&buf)
	versionCmd.Run(versionCmd, nil)
	assert.Contains(t, buf.String(), "printscout ")
}
