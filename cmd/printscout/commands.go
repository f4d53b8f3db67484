package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/muurk/printscout/internal/config"
	"github.com/muurk/printscout/internal/discovery"
	"github.com/muurk/printscout/internal/logging"
	"github.com/muurk/printscout/internal/metrics"
	"github.com/muurk/printscout/internal/plugin"
	"github.com/muurk/printscout/internal/registry"
	"github.com/muurk/printscout/internal/server"
)

const (
	formatText = "text"
	formatJSON = "json"
)

// Discovery flags shared by scan and serve
var (
	services    []string
	browseRound int
	queueSize   int
)

// Scan flags
var (
	scanTimeout int
	watch       bool
)

// Serve flags
var (
	host string
	port int
)

// Config flags
var force bool

func init() {
	for _, cmd := range []*cobra.Command{scanCmd, serveCmd} {
		cmd.Flags().StringSliceVar(&services, "services", nil, "Service types to browse (default: catalogue preferences)")
		cmd.Flags().IntVar(&browseRound, "round", 0, "Length of one browse round in seconds (default: catalogue preferences)")
		cmd.Flags().IntVar(&queueSize, "queue-size", plugin.DefaultQueueSize, "Pending count changes per plugin (0 delivers inline)")
	}

	scanCmd.Flags().IntVar(&scanTimeout, "timeout", 10, "Scan timeout in seconds")
	scanCmd.Flags().BoolVar(&watch, "watch", false, "Print every count change as it happens")

	serveCmd.Flags().StringVar(&host, "host", "127.0.0.1", "Listen address (empty = all interfaces)")
	serveCmd.Flags().IntVar(&port, "port", 8631, "Listen port")

	configInitCmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing catalogue")
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configPathCmd)

	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(vendorsCmd)
	rootCmd.AddCommand(configCmd)
}

// scanCmd counts printers for a fixed time and prints the result
var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Count the printers each print plugin can serve",
	Long: `Browse the network for printers and report, per print plugin, how many of
them the plugin recognises. Plugins that see no printer are not listed.`,
	Example: `  # Scan for 10 seconds (default)
  printscout scan

  # Longer scan, printing counts as they change
  printscout scan --timeout 30 --watch

  # Only browse IPP services, JSON output
  printscout scan --services _ipp._tcp,_ipps._tcp --format json`,
	RunE: runScan,
}

func runScan(cmd *cobra.Command, args []string) error {
	if scanTimeout <= 0 {
		return fmt.Errorf("--timeout must be positive")
	}

	cat, err := config.LoadCatalogue()
	if err != nil {
		return err
	}

	feed := discovery.NewBroadcaster(newBrowser(cat.Preferences))
	reg, err := buildRegistry(cat, feed, nil)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if watch {
		reg.Subscribe(func(e registry.Entry) {
			printChange(out, e)
		})
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, time.Duration(scanTimeout)*time.Second)
	defer cancel()

	if outputFormat == formatText {
		fmt.Fprintf(cmd.ErrOrStderr(), "Scanning for printers (timeout: %ds)...\n\n", scanTimeout)
	}

	if err := startRegistry(ctx, reg); err != nil {
		return err
	}

	<-ctx.Done()

	// Snapshot before stopping; stopping resets every count.
	reg.Flush()
	entries := reg.Snapshot()
	if err := reg.StopAll(); err != nil {
		logging.Warn("Failed to stop plugins cleanly", zap.Error(err))
	}
	return printEntries(out, entries, outputFormat)
}

// serveCmd publishes live counts over HTTP
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve live plugin counts over HTTP and WebSocket",
	Long: `Browse the network continuously and publish the plugin counts.

Endpoints:
  GET /plugins   current counts, most printers first (?all=true lists every plugin)
  GET /ws        WebSocket stream of count changes
  GET /metrics   Prometheus metrics
  GET /healthz   liveness`,
	Example: `  # Serve on localhost:8631 (default)
  printscout serve

  # Listen on all interfaces with debug logging
  printscout serve --host "" --port 9000 --log-level debug`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cat, err := config.LoadCatalogue()
	if err != nil {
		return err
	}

	m := metrics.New()
	feed := discovery.NewBroadcaster(newBrowser(cat.Preferences))
	reg, err := buildRegistry(cat, feed, m)
	if err != nil {
		return err
	}

	srv, err := server.New(&server.Config{Host: host, Port: port}, reg, m)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	ctx := cmd.Context()
	if err := startRegistry(ctx, reg); err != nil {
		return err
	}
	defer func() {
		if err := reg.StopAll(); err != nil {
			logging.Warn("Failed to stop plugins cleanly", zap.Error(err))
		}
	}()

	addr, err := srv.Listen()
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Serving plugin counts on http://%s\n", addr)

	return srv.Start(ctx)
}

// vendorsCmd lists the vendor catalogue
var vendorsCmd = &cobra.Command{
	Use:   "vendors",
	Short: "List the vendors in the catalogue",
	RunE:  runVendors,
}

// vendorInfo is one row of the vendors listing
type vendorInfo struct {
	Name        string `json:"name"`
	Package     string `json:"package,omitempty"`
	InstallRef  string `json:"install_ref,omitempty"`
	MultiVendor bool   `json:"multi_vendor"`
}

func runVendors(cmd *cobra.Command, args []string) error {
	cat, err := config.LoadCatalogue()
	if err != nil {
		return err
	}
	return printVendors(cmd.OutOrStdout(), listVendors(cat), outputFormat)
}

func listVendors(cat *config.Catalogue) []vendorInfo {
	rows := make([]vendorInfo, 0, len(cat.Vendors))
	for _, v := range cat.Vendors {
		row := vendorInfo{Name: v.Name, Package: v.Package, MultiVendor: v.MultiVendor}
		if ref, err := config.ResolveInstallRef(cat, v.Name); err == nil {
			row.InstallRef = ref
		}
		rows = append(rows, row)
	}
	return rows
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the vendor catalogue file",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the built-in vendor catalogue to the config directory",
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := config.CreateDefaultConfig(force)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote vendor catalogue to %s\n", path)
		return nil
	},
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the path of the vendor catalogue",
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := config.GetConfigPath()
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), path)
		return nil
	},
}

// newBrowser builds an mDNS browser from the catalogue preferences,
// overridden by the command line flags.
func newBrowser(prefs *config.Preferences) *discovery.Browser {
	b := discovery.NewBrowser()
	if prefs != nil {
		if len(prefs.Services) > 0 {
			b.Services = append([]string(nil), prefs.Services...)
		}
		if prefs.BrowseTimeout > 0 {
			b.RoundTimeout = prefs.BrowseTimeoutDuration()
		}
		if prefs.ExpireAfter > 0 {
			b.ExpireAfter = prefs.ExpireAfterDuration()
		}
	}
	if len(services) > 0 {
		b.Services = append([]string(nil), services...)
	}
	if browseRound > 0 {
		b.RoundTimeout = time.Duration(browseRound) * time.Second
	}
	return b
}

// buildRegistry creates one plugin per catalogue vendor on feed. Vendors
// that cannot be built are logged and skipped. m may be nil.
func buildRegistry(cat *config.Catalogue, feed discovery.Feed, m *metrics.Metrics) (*registry.Registry, error) {
	var opts []registry.Option
	if m != nil {
		opts = append(opts, registry.WithSinkFactory(m.SinkFor))
	}
	reg := registry.New(opts...)

	plugins, err := cat.Plugins(feed, plugin.WithQueueSize(queueSize))
	if err != nil {
		logging.Warn("Some vendors were skipped", zap.Error(err))
	}
	for _, p := range plugins {
		if err := reg.Add(p); err != nil {
			return nil, err
		}
	}
	if reg.Len() == 0 {
		return nil, fmt.Errorf("no usable vendors in the catalogue")
	}
	return reg, nil
}

// startRegistry starts every plugin. Plugins that fail are logged and
// dropped; it is an error only when none is left.
func startRegistry(ctx context.Context, reg *registry.Registry) error {
	if err := reg.StartAll(ctx); err != nil {
		if ctx.Err() != nil || reg.Len() == 0 {
			_ = reg.StopAll()
			return fmt.Errorf("failed to start plugins: %w", err)
		}
		logging.Warn("Some plugins failed to start", zap.Error(err))
	}
	return nil
}

func printChange(w io.Writer, e registry.Entry) {
	if outputFormat == formatJSON {
		_ = json.NewEncoder(w).Encode(server.CountMessage{Plugin: e.Name, Count: e.Count})
		return
	}
	fmt.Fprintf(w, "%s  %-24s %d\n", time.Now().Format("15:04:05"), e.Name, e.Count)
}

func printEntries(w io.Writer, entries []registry.Entry, format string) error {
	if format == formatJSON {
		if entries == nil {
			entries = []registry.Entry{}
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	}

	if len(entries) == 0 {
		fmt.Fprintln(w, "No printers found.")
		fmt.Fprintln(w, "\nTroubleshooting:")
		fmt.Fprintln(w, "  - Ensure printers are powered on and on the same network")
		fmt.Fprintln(w, "  - Check that multicast (UDP 5353) is not blocked")
		fmt.Fprintln(w, "  - Try increasing --timeout for slower networks")
		return nil
	}

	fmt.Fprintf(w, "%-24s %7s  %s\n", "PLUGIN", "PRINTERS", "INSTALL")
	for _, e := range entries {
		name := e.Name
		if e.MultiVendor {
			name += " *"
		}
		fmt.Fprintf(w, "%-24s %7d  %s\n", name, e.Count, e.InstallRef)
	}
	fmt.Fprintln(w, "\n* serves printers of several vendors")
	return nil
}

func printVendors(w io.Writer, rows []vendorInfo, format string) error {
	if format == formatJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(rows)
	}

	for i, v := range rows {
		kind := "vendor"
		if v.MultiVendor {
			kind = "multi-vendor"
		}
		fmt.Fprintf(w, "%d. %s (%s)\n", i+1, v.Name, kind)
		if v.Package != "" {
			fmt.Fprintf(w, "   Package: %s\n", v.Package)
		}
		if v.InstallRef != "" {
			fmt.Fprintf(w, "   Install: %s\n", v.InstallRef)
		}
	}
	return nil
}
