// Package wasmplugin runs display plugins compiled to core WebAssembly
// modules and adapts them to plugin.Plugin.
//
// # Guest ABI
//
// A plugin module exports:
//
//	memory                                linear memory
//	smartie_developer() -> i32            pointer to a 256-byte short string
//	smartie_version() -> i32              pointer to a 256-byte short string
//	smartie_demo() -> i32                 pointer to a 256-byte short string
//	smartie_min_refresh() -> i32          minimum refresh interval in ms
//	smartie_params() -> i32               pointer to two consecutive 256-byte slots
//	smartie_function(fid, p1, p2) -> i32  pointer to the 256-byte result
//	smartie_init(), smartie_fini()        optional lifecycle hooks
//
// Short strings are zero terminated and encoded in the engine's code
// page. Before each smartie_function call the host writes both parameters
// into the slots returned by smartie_params and passes their addresses.
//
// A missing export fails loading with a not_found error, and a guest
// pointer whose 256 bytes fall outside memory fails with out_of_bounds.
//
// # Usage
//
//	p, err := wasmplugin.Load(ctx, wasmBytes, &wasmplugin.Config{MemoryLimitPages: 16})
//	if err != nil {
//	    return err
//	}
//	defer p.Close()
//
//	result, err := p.FunctionRouter(1, "C:", "")
package wasmplugin
