package wasmplugin

import (
	"context"

	"github.com/tetratelabs/wazero"
	"go.uber.org/zap"

	"github.com/wippyai/smartie/errors"
	"github.com/wippyai/smartie/narrow"
	"github.com/wippyai/smartie/plugin"
)

// Config holds configuration for engine creation
type Config struct {
	// Codec decodes guest short strings and encodes function parameters.
	// Nil means narrow.DefaultCodec().
	Codec *narrow.Codec

	// MemoryLimitPages sets the maximum memory per instance in pages (64KB each).
	// 0 means the wazero default (65536 pages = 4GB).
	MemoryLimitPages uint32
}

// Engine compiles and instantiates plugin modules on one wazero runtime.
type Engine struct {
	runtime wazero.Runtime
	codec   *narrow.Codec
}

// NewEngine creates an engine. A nil cfg uses defaults.
func NewEngine(ctx context.Context, cfg *Config) *Engine {
	runtimeCfg := wazero.NewRuntimeConfig()
	e := &Engine{}

	if cfg != nil {
		if cfg.MemoryLimitPages > 0 {
			runtimeCfg = runtimeCfg.WithMemoryLimitPages(cfg.MemoryLimitPages)
		}
		e.codec = cfg.Codec
	}
	if e.codec == nil {
		e.codec = narrow.DefaultCodec()
	}

	e.runtime = wazero.NewRuntimeWithConfig(ctx, runtimeCfg)
	return e
}

// Codec returns the codec plugins of this engine use.
func (e *Engine) Codec() *narrow.Codec {
	return e.codec
}

// Compile validates and compiles a plugin module.
func (e *Engine) Compile(ctx context.Context, wasmBytes []byte) (*Module, error) {
	compiled, err := e.runtime.CompileModule(ctx, wasmBytes)
	if err != nil {
		Logger().Debug("compile failed", zap.Error(err), zap.Int("size", len(wasmBytes)))
		return nil, errors.Wrap(errors.PhaseLoad, errors.KindInvalidData, err, "compile module")
	}
	return &Module{engine: e, compiled: compiled}, nil
}

// Close releases the runtime and every instance created by it.
func (e *Engine) Close(ctx context.Context) error {
	return e.runtime.Close(ctx)
}

// Module is a compiled plugin that can be instantiated many times.
type Module struct {
	engine   *Engine
	compiled wazero.CompiledModule
}

// Instantiate creates a plugin instance. ctx is kept for every later
// guest call made through the plugin.Plugin methods.
func (m *Module) Instantiate(ctx context.Context) (*Plugin, error) {
	// Anonymous, with no start function, so a module can be instantiated
	// any number of times.
	modCfg := wazero.NewModuleConfig().WithName("").WithStartFunctions()

	mod, err := m.engine.runtime.InstantiateModule(ctx, m.compiled, modCfg)
	if err != nil {
		Logger().Debug("instantiate failed", zap.Error(err))
		return nil, errors.Instantiation(err)
	}

	p, err := bind(ctx, mod, m.engine.codec)
	if err != nil {
		_ = mod.Close(ctx)
		return nil, err
	}
	return p, nil
}

// Factory returns a plugin.Factory creating a fresh instance on every
// host Init.
func (m *Module) Factory(ctx context.Context) plugin.Factory {
	return func() (plugin.Plugin, error) {
		p, err := m.Instantiate(ctx)
		if err != nil {
			return nil, err
		}
		return p, nil
	}
}

// Close releases the compiled module.
func (m *Module) Close(ctx context.Context) error {
	return m.compiled.Close(ctx)
}

// Load compiles and instantiates wasmBytes on a private engine. Closing
// the plugin closes the engine.
func Load(ctx context.Context, wasmBytes []byte, cfg *Config) (*Plugin, error) {
	e := NewEngine(ctx, cfg)
	m, err := e.Compile(ctx, wasmBytes)
	if err != nil {
		_ = e.Close(ctx)
		return nil, err
	}
	p, err := m.Instantiate(ctx)
	if err != nil {
		_ = e.Close(ctx)
		return nil, err
	}
	p.engine = e
	return p, nil
}
