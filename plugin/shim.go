package plugin

import (
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/wippyai/smartie/errors"
	"github.com/wippyai/smartie/narrow"
)

// Fixed ASCII replies, valid in every ANSI code page.
var (
	infoPlaceholder  = mustASCII("[Err: Failed to convert info line]")
	errorPlaceholder = mustASCII("[Err: Failed to display error]")
	notInitialized   = mustASCII("[Err: Plugin not initialized]")
)

func mustASCII(text string) narrow.Short {
	s, err := narrow.ShortFromASCII(text)
	if err != nil {
		panic(err)
	}
	return s
}

// Config holds shim configuration.
type Config struct {
	// Codec converts info lines, error messages and function parameters.
	// Nil means narrow.DefaultCodec().
	Codec *narrow.Codec
}

// Shim adapts a Plugin to the host entry points. All entry points are
// serialised; the host contract is single-threaded.
type Shim struct {
	factory Factory
	codec   *narrow.Codec
	plugin  Plugin
	mu      sync.Mutex
}

// NewShim creates a shim that builds its plugin with factory on Init.
func NewShim(factory Factory, cfg *Config) *Shim {
	s := &Shim{factory: factory}
	if cfg != nil {
		s.codec = cfg.Codec
	}
	if s.codec == nil {
		s.codec = narrow.DefaultCodec()
	}
	return s
}

// Codec returns the codec used for host text.
func (s *Shim) Codec() *narrow.Codec {
	return s.codec
}

// Initialized reports whether a plugin is live.
func (s *Shim) Initialized() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.plugin != nil
}

// Init creates the plugin. A live plugin is released first.
func (s *Shim) Init() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.factory == nil {
		return errors.InvalidInput(errors.PhaseHost, "plugin factory is nil")
	}
	if s.plugin != nil {
		s.releaseLocked()
	}

	var p Plugin
	err := guard(func() error {
		var err error
		p, err = s.factory()
		return err
	})
	if err != nil {
		Logger().Debug("plugin init failed", zap.Error(err))
		return errors.Instantiation(err)
	}
	if p == nil {
		return errors.Instantiation(errors.InvalidData(errors.PhaseLoad, "factory returned no plugin"))
	}

	s.plugin = p
	Logger().Debug("plugin initialized")
	return nil
}

// Fini releases the plugin. It is a no-op when none is live.
func (s *Shim) Fini() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.releaseLocked()
}

func (s *Shim) releaseLocked() {
	if s.plugin == nil {
		return
	}
	if c, ok := s.plugin.(Closer); ok {
		if err := guard(c.Close); err != nil {
			Logger().Warn("plugin close failed", zap.Error(err))
		}
	}
	s.plugin = nil
}

// Info writes "Developer: X\r\nVersion: Y" to out.
func (s *Shim) Info(out *HostBuffer) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.live(out) {
		return
	}

	var line string
	err := guard(func() error {
		line = fmt.Sprintf("Developer: %s\r\nVersion: %s", s.plugin.Developer(), s.plugin.Version())
		return nil
	})
	if err != nil {
		s.writeError(out, err)
		return
	}

	short, err := s.codec.Short(line)
	if err != nil {
		Logger().Debug("info line not convertible", zap.Error(err))
		infoPlaceholder.CopyTo(out)
		return
	}
	short.CopyTo(out)
}

// Demo writes the plugin documentation to out.
func (s *Shim) Demo(out *HostBuffer) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.live(out) {
		return
	}

	var doc narrow.Short
	err := guard(func() error {
		doc = s.plugin.Documentation()
		return nil
	})
	if err != nil {
		s.writeError(out, err)
		return
	}
	doc.CopyTo(out)
}

// MinRefreshInterval returns the plugin's minimum refresh interval in
// milliseconds, or 0 when no plugin is live or the call panics.
func (s *Shim) MinRefreshInterval() int32 {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.plugin == nil {
		return 0
	}
	var ms int32
	err := guard(func() error {
		ms = s.plugin.MinimumRefreshIntervalMs()
		return nil
	})
	if err != nil {
		Logger().Warn("refresh interval call failed", zap.Error(err))
		return 0
	}
	return ms
}

// Function routes host function fid with two C string parameters and
// writes the result, or a rendered error, to out. Parameters are read up
// to their first zero byte.
func (s *Shim) Function(fid uint8, param1, param2 []byte, out *HostBuffer) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.live(out) {
		return
	}
	if fid < 1 || fid > MaxFunctions {
		s.writeError(out, errors.InvalidInput(errors.PhaseHost, fmt.Sprintf("function id %d out of range", fid)))
		return
	}

	p1, err := s.param(param1)
	if err != nil {
		s.writeError(out, err)
		return
	}
	p2, err := s.param(param2)
	if err != nil {
		s.writeError(out, err)
		return
	}

	var result narrow.Short
	err = guard(func() error {
		var err error
		result, err = s.plugin.FunctionRouter(fid, p1, p2)
		return err
	})
	if err != nil {
		s.writeError(out, err)
		return
	}
	result.CopyTo(out)
}

func (s *Shim) param(b []byte) (string, error) {
	short, err := s.codec.ShortFromCString(b)
	if err != nil {
		return "", err
	}
	return short.Decode()
}

func (s *Shim) live(out *HostBuffer) bool {
	if s.plugin != nil {
		return true
	}
	notInitialized.CopyTo(out)
	return false
}

// writeError renders err as "[Err: message]", falling back to a fixed
// placeholder when the message does not fit or convert.
func (s *Shim) writeError(out *HostBuffer, err error) {
	Logger().Debug("plugin call failed", zap.Error(err))

	short, cerr := s.codec.Short(fmt.Sprintf("[Err: %s]", err.Error()))
	if cerr != nil {
		Logger().Debug("error message not convertible", zap.Error(cerr))
		errorPlaceholder.CopyTo(out)
		return
	}
	short.CopyTo(out)
}

// guard runs fn, turning a panic into an error.
func guard(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			Logger().Error("plugin panicked", zap.Any("panic", r), zap.Stack("stack"))
			err = errors.Panic(errors.PhaseRuntime, r)
		}
	}()
	return fn()
}
