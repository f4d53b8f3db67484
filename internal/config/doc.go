// Package config manages the printscout vendor catalogue.
//
// The catalogue is a YAML file listing every print plugin vendor, the
// install package of its plugin, and how its printers are recognised on
// the network. Without a file the built-in catalogue is used.
//
// # Configuration File Location
//
// The configuration file is stored in platform-appropriate locations:
//   - Linux: $XDG_CONFIG_HOME/printscout/vendors.yaml or $HOME/.config/printscout/vendors.yaml
//   - macOS: $HOME/.config/printscout/vendors.yaml
//   - Windows: %LOCALAPPDATA%\printscout\vendors.yaml
//
// SetConfigPath overrides the location.
//
// # File Format
//
//	version: 1
//	vendors:
//	  - name: Mopria
//	    package: org.mopria.printplugin
//	    multi_vendor: true
//	    attribute:
//	      service: _ipp._tcp
//	      key: pdl
//	      contains: [application/pdf, application/PCLm, image/pwg-raster]
//	  - name: HP
//	    package: com.hp.android.printservice
//	    vendor_names: [HP, Hewlett-Packard]
//	preferences:
//	  browse_timeout: 5
//	  expire_after: 180
//
// # Usage Example
//
//	catalogue, err := config.LoadCatalogue()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	plugins, err := catalogue.Plugins(discovery.DefaultBroadcaster())
//	// err lists the vendors that could not be built; plugins holds the rest
//
// # Thread Safety
//
// The global catalogue uses sync.Once for safe initialization across goroutines.
// File operations are protected by a mutex to ensure atomic writes.
package config
