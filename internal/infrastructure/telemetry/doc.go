// Package telemetry writes output and action state changes to InfluxDB.
//
// Writes are batched and non-blocking so telemetry can never stall the
// message path. The component is optional and disabled by default.
package telemetry
