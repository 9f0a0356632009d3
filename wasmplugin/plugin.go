package wasmplugin

import (
	"context"
	"sync"

	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"

	"github.com/wippyai/smartie/errors"
	"github.com/wippyai/smartie/narrow"
	"github.com/wippyai/smartie/plugin"
)

// Guest exports.
const (
	ExportMemory     = "memory"
	ExportInit       = "smartie_init"
	ExportFini       = "smartie_fini"
	ExportDeveloper  = "smartie_developer"
	ExportVersion    = "smartie_version"
	ExportDemo       = "smartie_demo"
	ExportMinRefresh = "smartie_min_refresh"
	ExportParams     = "smartie_params"
	ExportFunction   = "smartie_function"
)

var (
	_ plugin.Plugin = (*Plugin)(nil)
	_ plugin.Closer = (*Plugin)(nil)
)

// Plugin is a WebAssembly plugin instance. Metadata is read once when the
// instance is created; FunctionRouter calls into the guest every time.
type Plugin struct {
	ctx      context.Context
	mod      api.Module
	mem      *Memory
	codec    *narrow.Codec
	function api.Function
	fini     api.Function
	engine   *Engine // owned, set by Load

	developer string
	version   string
	doc       narrow.Short
	params    uint32
	refresh   int32

	mu     sync.Mutex
	closed bool
}

type signature struct {
	params  int
	results int
}

var (
	sigVoid     = signature{}
	sigPointer  = signature{results: 1}
	sigFunction = signature{params: 3, results: 1}
)

// bind checks the guest ABI, runs smartie_init and reads the metadata.
func bind(ctx context.Context, mod api.Module, codec *narrow.Codec) (*Plugin, error) {
	mem := WrapMemory(mod.ExportedMemory(ExportMemory))
	if mem == nil {
		return nil, errors.NotFound(errors.PhaseLoad, "memory export", ExportMemory)
	}
	p := &Plugin{ctx: ctx, mod: mod, mem: mem, codec: codec}

	required := map[string]signature{
		ExportDeveloper:  sigPointer,
		ExportVersion:    sigPointer,
		ExportDemo:       sigPointer,
		ExportMinRefresh: sigPointer,
		ExportParams:     sigPointer,
		ExportFunction:   sigFunction,
	}
	fns := make(map[string]api.Function, len(required))
	for name, sig := range required {
		fn, err := lookup(mod, name, sig, false)
		if err != nil {
			return nil, err
		}
		fns[name] = fn
	}
	p.function = fns[ExportFunction]

	initFn, err := lookup(mod, ExportInit, sigVoid, true)
	if err != nil {
		return nil, err
	}
	if p.fini, err = lookup(mod, ExportFini, sigVoid, true); err != nil {
		return nil, err
	}
	if initFn != nil {
		if _, err := initFn.Call(ctx); err != nil {
			return nil, errors.Trap(errors.PhaseLoad, ExportInit, err)
		}
	}

	if p.developer, err = p.readText(fns[ExportDeveloper], ExportDeveloper); err != nil {
		return nil, err
	}
	if p.version, err = p.readText(fns[ExportVersion], ExportVersion); err != nil {
		return nil, err
	}
	if p.doc, err = p.readShort(fns[ExportDemo], ExportDemo); err != nil {
		return nil, err
	}

	refresh, err := p.call(fns[ExportMinRefresh], ExportMinRefresh)
	if err != nil {
		return nil, err
	}
	p.refresh = int32(refresh)

	if p.params, err = p.call(fns[ExportParams], ExportParams); err != nil {
		return nil, err
	}
	if _, err := mem.Read(p.params, 2*narrow.ShortSize); err != nil {
		return nil, errors.Wrap(errors.PhaseLoad, errors.KindOutOfBounds, err, "parameter slots")
	}

	Logger().Debug("plugin bound",
		zap.String("developer", p.developer),
		zap.String("version", p.version),
		zap.Int32("min_refresh_ms", p.refresh),
		zap.Uint32("params", p.params))
	return p, nil
}

func lookup(mod api.Module, name string, sig signature, optional bool) (api.Function, error) {
	fn := mod.ExportedFunction(name)
	if fn == nil {
		if optional {
			return nil, nil
		}
		return nil, errors.NotFound(errors.PhaseLoad, "function export", name)
	}

	def := fn.Definition()
	if !allI32(def.ParamTypes(), sig.params) || !allI32(def.ResultTypes(), sig.results) {
		return nil, errors.New(errors.PhaseLoad, errors.KindInvalidData).
			Value(name).
			Detail("export %q has signature %d -> %d, want %d i32 -> %d i32",
				name, len(def.ParamTypes()), len(def.ResultTypes()), sig.params, sig.results).
			Build()
	}
	return fn, nil
}

func allI32(types []api.ValueType, n int) bool {
	if len(types) != n {
		return false
	}
	for _, t := range types {
		if t != api.ValueTypeI32 {
			return false
		}
	}
	return true
}

func (p *Plugin) call(fn api.Function, name string, args ...uint64) (uint32, error) {
	results, err := fn.Call(p.ctx, args...)
	if err != nil {
		Logger().Debug("guest call failed", zap.String("export", name), zap.Error(err))
		return 0, errors.Trap(errors.PhaseRuntime, name, err)
	}
	return uint32(results[0]), nil
}

func (p *Plugin) readShort(fn api.Function, name string, args ...uint64) (narrow.Short, error) {
	ptr, err := p.call(fn, name, args...)
	if err != nil {
		return narrow.Short{}, err
	}
	buf, err := ReadShort(p.mem, ptr)
	if err != nil {
		return narrow.Short{}, err
	}
	return p.codec.ShortFromHost(buf), nil
}

func (p *Plugin) readText(fn api.Function, name string) (string, error) {
	s, err := p.readShort(fn, name)
	if err != nil {
		return "", err
	}
	return s.Decode()
}

// Developer implements plugin.Plugin.
func (p *Plugin) Developer() string { return p.developer }

// Version implements plugin.Plugin.
func (p *Plugin) Version() string { return p.version }

// Documentation implements plugin.Plugin.
func (p *Plugin) Documentation() narrow.Short { return p.doc }

// MinimumRefreshIntervalMs implements plugin.Plugin.
func (p *Plugin) MinimumRefreshIntervalMs() int32 { return p.refresh }

// Memory returns the guest's linear memory.
func (p *Plugin) Memory() *Memory { return p.mem }

// FunctionRouter encodes both parameters into the guest's parameter slots
// and calls smartie_function. Each slot takes up to 255 narrow bytes.
func (p *Plugin) FunctionRouter(fid uint8, param1, param2 string) (narrow.Short, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return narrow.Short{}, errors.NotInitialized(errors.PhaseRuntime, "plugin instance")
	}

	for i, text := range [2]string{param1, param2} {
		s, err := p.codec.FillShort(text)
		if err != nil {
			return narrow.Short{}, err
		}
		buf := s.Array()
		if err := WriteShort(p.mem, p.params+uint32(i)*narrow.ShortSize, &buf); err != nil {
			return narrow.Short{}, err
		}
	}

	return p.readShort(p.function, ExportFunction,
		uint64(fid), uint64(p.params), uint64(p.params+narrow.ShortSize))
}

// Close runs smartie_fini and releases the instance. It is idempotent.
func (p *Plugin) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	p.closed = true

	var finiErr error
	if p.fini != nil {
		if _, err := p.fini.Call(p.ctx); err != nil {
			finiErr = errors.Trap(errors.PhaseRuntime, ExportFini, err)
		}
	}
	if err := p.mod.Close(p.ctx); err != nil && finiErr == nil {
		finiErr = err
	}
	if p.engine != nil {
		if err := p.engine.Close(p.ctx); err != nil && finiErr == nil {
			finiErr = err
		}
	}
	return finiErr
}
