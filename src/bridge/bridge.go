package bridge

import "github.com/orchestra-mcp/relay/src/types"

// Bridge publishes room presence activity to observers outside the process.
// It is write-only: nothing received from the bridge is ever fed back into
// room state.
type Bridge interface {
	// PublishActivity announces a join or departure.
	PublishActivity(a types.Activity) error

	// Start connects the bridge.
	Start() error

	// Stop shuts down the bridge connection.
	Stop() error

	// Available reports whether the bridge is connected and operational.
	Available() bool
}
