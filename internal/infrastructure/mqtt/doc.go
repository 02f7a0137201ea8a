// Package mqtt wraps the Eclipse Paho MQTT client for Gray Switch.
//
// It owns the connection lifecycle: indefinite initial-connect retry with
// exponential backoff, automatic reconnection, re-subscription of tracked
// topics, Last Will and Testament, and a panic-recovering handler wrapper.
package mqtt
