package host

import "context"

// TelemetryHandler handles one code echoed by a learning device.
type TelemetryHandler func(Telemetry)

// RouteEvents calls handler for every event until ctx is canceled.
func RouteEvents(ctx context.Context, events <-chan Telemetry, handler TelemetryHandler) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event := <-events:
			handler(event)
		}
	}
}
