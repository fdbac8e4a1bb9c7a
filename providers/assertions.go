package providers

import (
	"github.com/orchestra-mcp/relay/src/bridge"
	"github.com/orchestra-mcp/relay/src/hub"
	"github.com/orchestra-mcp/relay/src/relay"
	"github.com/orchestra-mcp/relay/src/types"
)

// Compile-time interface assertions.
var (
	_ relay.Transport         = (*hub.Hub)(nil)
	_ relay.ActivityPublisher = (*bridge.RedisBridge)(nil)
	_ bridge.Bridge           = (*bridge.RedisBridge)(nil)
	_ types.Conn              = (*fasthttpConn)(nil)
	_ types.Pinger            = (*fasthttpConn)(nil)
)
