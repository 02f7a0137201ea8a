// Package config loads and validates the daemon's YAML settings file.
//
// Settings cover the ambient concerns of the daemon: MQTT client identity
// and credentials, process supervision timeouts, the optional event journal,
// optional telemetry, and logging. The routing table itself (broker address,
// outputs, actions, subscriptions) is a separate line-oriented file parsed
// by internal/bridgecfg.
//
// Loading order is defaults, then file values, then GRAYSWITCH_* environment
// variables. A missing settings file silently yields pure defaults so the
// daemon can run from the bridge file alone.
package config
