// Package plugin hosts a display plugin behind the narrow-string entry
// points an LCD host calls.
//
// A Shim owns one Plugin at a time, created by a Factory on Init and
// released on Fini. Every entry point that returns text writes a
// 256-byte short string into a HostBuffer supplied by the caller:
//
//	shim := plugin.NewShim(factory, nil)
//	if err := shim.Init(); err != nil {
//	    return err
//	}
//	defer shim.Fini()
//
//	var out plugin.HostBuffer
//	shim.Function(1, []byte("C:\x00"), nil, &out)
//
// Plugin errors never reach the host as Go errors. They are rendered as
// "[Err: message]", and text that cannot be converted to the host code
// page is replaced with a fixed ASCII placeholder.
package plugin
