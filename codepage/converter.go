package codepage

import (
	"sync"

	"go.uber.org/zap"

	"github.com/wippyai/smartie/errors"
)

// Config holds configuration for converter creation
type Config struct {
	// Provider is the platform service. Nil selects SystemProvider().
	Provider Provider

	// Logger overrides the package logger for this converter.
	Logger *zap.Logger
}

// Converter performs checked conversions through a Provider. The zero
// value converts through the default system provider.
type Converter struct {
	provider Provider
	logger   *zap.Logger
}

var (
	defaultConverter     *Converter
	defaultConverterOnce sync.Once
)

// New creates a converter. A nil cfg uses the system provider.
func New(cfg *Config) *Converter {
	c := &Converter{}
	if cfg != nil {
		c.provider = cfg.Provider
		c.logger = cfg.Logger
	}
	if c.provider == nil {
		c.provider = SystemProvider()
	}
	return c
}

// Default returns the process-wide converter over SystemProvider().
func Default() *Converter {
	defaultConverterOnce.Do(func() {
		defaultConverter = New(nil)
	})
	return defaultConverter
}

// Provider returns the underlying platform service.
func (c *Converter) Provider() Provider {
	return c.platform()
}

// platform lets a zero Converter fall back to the default provider.
func (c *Converter) platform() Provider {
	if c.provider == nil {
		return Default().provider
	}
	return c.provider
}

// ActiveCodePage returns the provider's ANSI code page.
func (c *Converter) ActiveCodePage() uint32 {
	return c.platform().ActiveCodePage()
}

// Resolve maps the pseudo code pages ACP and ThreadACP to the active one.
func (c *Converter) Resolve(codePage uint32) uint32 {
	if codePage == ACP || codePage == ThreadACP {
		return c.platform().ActiveCodePage()
	}
	return codePage
}

// MaxCharSize returns the most narrow bytes one UTF-16 unit can produce in
// codePage, or 1 when the provider does not know the page.
func (c *Converter) MaxCharSize(codePage uint32) int {
	if n, ok := c.platform().MaxCharSize(codePage); ok && n > 0 {
		return n
	}
	return 1
}

func (c *Converter) log() *zap.Logger {
	if c.logger != nil {
		return c.logger
	}
	return Logger()
}

// Encode converts wide into out and returns the number of bytes written.
//
// Best-fit substitution is always suppressed. A conversion that needs the
// default character fails with a lossy_conversion error instead of writing
// an approximation.
func (c *Converter) Encode(codePage uint32, wide []uint16, out []byte) (int, error) {
	if len(wide) == 0 {
		return 0, nil
	}

	flags, track := NoBestFitChars, true
	if c.Resolve(codePage) == UTF8 {
		flags, track = WCErrInvalidChars, false
	}

	res := c.platform().WideToMultiByte(codePage, flags, wide, out, track)
	if res.N == 0 && res.Status != 0 {
		c.log().Debug("wide to multibyte conversion failed",
			zap.Uint32("code_page", codePage),
			zap.Uint32("status", res.Status),
			zap.Int("units", len(wide)),
			zap.Int("capacity", len(out)))
		return 0, errors.OSConversionFailure(errors.PhaseEncode, codePage, res.Status)
	}
	if res.UsedDefault {
		c.log().Debug("lossy conversion rejected",
			zap.Uint32("code_page", codePage),
			zap.Int("units", len(wide)))
		return 0, errors.LossyConversion(errors.PhaseEncode, codePage)
	}
	return res.N, nil
}

// Decode converts exactly len(narrow) bytes into out and returns the number
// of UTF-16 units written. Terminators are not scanned for.
func (c *Converter) Decode(codePage uint32, narrow []byte, out []uint16) (int, error) {
	if len(narrow) == 0 {
		return 0, nil
	}

	res := c.platform().MultiByteToWide(codePage, 0, narrow, out)
	if res.N == 0 && res.Status != 0 {
		c.log().Debug("multibyte to wide conversion failed",
			zap.Uint32("code_page", codePage),
			zap.Uint32("status", res.Status),
			zap.Int("bytes", len(narrow)),
			zap.Int("capacity", len(out)))
		return 0, errors.OSConversionFailure(errors.PhaseDecode, codePage, res.Status)
	}
	return res.N, nil
}
