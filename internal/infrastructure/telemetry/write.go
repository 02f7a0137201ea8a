package telemetry

import (
	"strconv"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
)

// Measurement names.
const (
	measurementOutput = "output_state"
	measurementAction = "action_state"
)

// WriteOutputState records a GPIO output state change.
//
// The write is buffered and non-blocking; failures surface through the
// error callback.
func (c *Client) WriteOutputState(id, chip string, pin, value int) {
	if !c.IsConnected() {
		return
	}

	p := influxdb2.NewPoint(
		measurementOutput,
		map[string]string{
			"id":   id,
			"chip": chip,
			"pin":  strconv.Itoa(pin),
		},
		map[string]interface{}{
			"value": value,
		},
		time.Now(),
	)
	c.writeAPI.WritePoint(p)
}

// WriteActionState records an action run-state transition.
func (c *Client) WriteActionState(id string, running bool, pid int) {
	if !c.IsConnected() {
		return
	}

	p := influxdb2.NewPoint(
		measurementAction,
		map[string]string{
			"id": id,
		},
		map[string]interface{}{
			"running": running,
			"pid":     pid,
		},
		time.Now(),
	)
	c.writeAPI.WritePoint(p)
}
