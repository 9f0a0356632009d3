package plugin

import (
	"github.com/wippyai/smartie/narrow"
)

// MaxFunctions is the number of function ids a host can route, 1 through
// MaxFunctions.
const MaxFunctions = 20

// HostBuffer is the output storage for one entry point call.
type HostBuffer = narrow.Buffer

// Plugin is the behaviour a display plugin provides.
//
// Hosts call plugins from a single UI thread, so implementations should
// return quickly.
type Plugin interface {
	// Developer is shown in the host's setup window.
	Developer() string
	// Version is shown in the host's setup window.
	Version() string
	// Documentation returns CRLF separated sample lines.
	Documentation() narrow.Short
	// MinimumRefreshIntervalMs is the lower bound on the host's polling period.
	MinimumRefreshIntervalMs() int32
	// FunctionRouter serves $dll(name, fid, param1, param2).
	FunctionRouter(fid uint8, param1, param2 string) (narrow.Short, error)
}

// Closer is implemented by plugins holding resources released on Fini.
type Closer interface {
	Close() error
}

// Factory creates the plugin on Init.
type Factory func() (Plugin, error)
