package wasmplugin

import (
	"context"
	"strings"
	"testing"

	"github.com/wippyai/smartie/codepage"
	"github.com/wippyai/smartie/errors"
	"github.com/wippyai/smartie/narrow"
	"github.com/wippyai/smartie/plugin"
)

func testCodec() *narrow.Codec {
	conv := codepage.New(&codepage.Config{Provider: codepage.NewTableProvider(1252)})
	return narrow.NewCodec(conv, codepage.ACP)
}

func load(t *testing.T, m *guestModule) *Plugin {
	t.Helper()
	p, err := Load(context.Background(), m.encode(), &Config{Codec: testCodec()})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	t.Cleanup(func() { _ = p.Close() })
	return p
}

func TestLoad_Metadata(t *testing.T) {
	p := load(t, standardGuest())

	if got := p.Developer(); got != "Jane Doe" {
		t.Errorf("Developer = %q", got)
	}
	if got := p.Version(); got != "1.0" {
		t.Errorf("Version = %q", got)
	}
	doc := p.Documentation()
	if got := doc.Text(); got != "$dll(demo,1,text,)\r\n$dll(demo,2,,text)" {
		t.Errorf("Documentation = %q", got)
	}
	if got := p.MinimumRefreshIntervalMs(); got != 500 {
		t.Errorf("MinimumRefreshIntervalMs = %d", got)
	}
	if got := p.Memory().Size(); got != 65536 {
		t.Errorf("memory size = %d", got)
	}
}

func TestPlugin_FunctionRouter(t *testing.T) {
	p := load(t, standardGuest())

	tests := []struct {
		name   string
		fid    uint8
		param1 string
		param2 string
		want   string
	}{
		{"echo first", 1, "C:", "free", "C:"},
		{"echo second", 2, "C:", "free", "free"},
		{"western text", 1, "Grüße – 5 €", "", "Grüße – 5 €"},
		{"empty", 1, "", "", ""},
		{"shorter after longer", 1, "x", "", "x"},
		{"full slot", 1, strings.Repeat("a", 255), "", strings.Repeat("a", 255)},
		{"full second slot", 2, "", strings.Repeat("b", 255), strings.Repeat("b", 255)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := p.FunctionRouter(tt.fid, tt.param1, tt.param2)
			if err != nil {
				t.Fatalf("FunctionRouter: %v", err)
			}
			if got := s.Text(); got != tt.want {
				t.Errorf("result = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPlugin_FunctionRouterErrors(t *testing.T) {
	p := load(t, standardGuest())

	tests := []struct {
		name   string
		fid    uint8
		param1 string
		kind   errors.Kind
	}{
		{"wild pointer", 3, "", errors.KindOutOfBounds},
		{"trap", 4, "", errors.KindTrap},
		{"oversized param", 1, strings.Repeat("a", 256), errors.KindCapacityExceeded},
		{"unrepresentable param", 1, "Привет", errors.KindLossyConversion},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := p.FunctionRouter(tt.fid, tt.param1, "")
			if got := errors.KindOf(err); got != tt.kind {
				t.Errorf("kind = %v, want %v (err: %v)", got, tt.kind, err)
			}
		})
	}
}

func TestLoad_MissingExports(t *testing.T) {
	required := []string{
		ExportDeveloper, ExportVersion, ExportDemo,
		ExportMinRefresh, ExportParams, ExportFunction,
	}
	for _, name := range required {
		t.Run(name, func(t *testing.T) {
			_, err := Load(context.Background(), standardGuest().without(name).encode(), &Config{Codec: testCodec()})
			if errors.KindOf(err) != errors.KindNotFound {
				t.Errorf("err = %v, want not_found", err)
			}
		})
	}

	t.Run(ExportMemory, func(t *testing.T) {
		m := standardGuest()
		m.noMemory = true
		m.data = nil
		_, err := Load(context.Background(), m.encode(), &Config{Codec: testCodec()})
		if errors.KindOf(err) != errors.KindNotFound {
			t.Errorf("err = %v, want not_found", err)
		}
	})
}

func TestLoad_BadSignature(t *testing.T) {
	m := standardGuest().with(guestFunc{name: ExportDeveloper, params: 1, results: 1, body: i32Const(devAddr)})
	_, err := Load(context.Background(), m.encode(), &Config{Codec: testCodec()})
	if errors.KindOf(err) != errors.KindInvalidData {
		t.Errorf("err = %v, want invalid_data", err)
	}
}

func TestLoad_PointersOutOfBounds(t *testing.T) {
	tests := []struct {
		name string
		fn   guestFunc
	}{
		{"developer near end", pointerFunc(ExportDeveloper, 65536-100)},
		{"demo past end", pointerFunc(ExportDemo, 70000)},
		{"param slots", pointerFunc(ExportParams, 65536-300)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(context.Background(), standardGuest().with(tt.fn).encode(), &Config{Codec: testCodec()})
			if errors.KindOf(err) != errors.KindOutOfBounds {
				t.Errorf("err = %v, want out_of_bounds", err)
			}
		})
	}
}

func TestLoad_InitRunsFirst(t *testing.T) {
	m := standardGuest().with(guestFunc{name: ExportInit, body: storeByte(devAddr, 'X')})
	p := load(t, m)
	if got := p.Developer(); got != "Xane Doe" {
		t.Errorf("Developer = %q, want init to run before metadata is read", got)
	}
}

func TestLoad_InitTrap(t *testing.T) {
	m := standardGuest().with(guestFunc{name: ExportInit, body: op(opUnreachable)})
	_, err := Load(context.Background(), m.encode(), &Config{Codec: testCodec()})
	if errors.KindOf(err) != errors.KindTrap {
		t.Errorf("err = %v, want trap", err)
	}
}

func TestLoad_InvalidModule(t *testing.T) {
	_, err := Load(context.Background(), []byte("not wasm"), nil)
	if errors.KindOf(err) != errors.KindInvalidData {
		t.Errorf("err = %v, want invalid_data", err)
	}
}

func TestLoad_MemoryLimit(t *testing.T) {
	m := standardGuest()
	m.pages = 4
	if _, err := Load(context.Background(), m.encode(), &Config{Codec: testCodec(), MemoryLimitPages: 2}); err == nil {
		t.Error("Load should fail above the memory limit")
	}
}

func TestPlugin_Close(t *testing.T) {
	p, err := Load(context.Background(), standardGuest().encode(), &Config{Codec: testCodec()})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := p.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := p.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}
	if _, err := p.FunctionRouter(1, "a", ""); errors.KindOf(err) != errors.KindNotInitialized {
		t.Errorf("err = %v, want not_initialized", err)
	}
}

func TestPlugin_FiniTrap(t *testing.T) {
	m := standardGuest().with(guestFunc{name: ExportFini, body: op(opUnreachable)})
	p, err := Load(context.Background(), m.encode(), &Config{Codec: testCodec()})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := p.Close(); errors.KindOf(err) != errors.KindTrap {
		t.Errorf("Close err = %v, want trap", err)
	}
}

func TestEngine_IndependentInstances(t *testing.T) {
	ctx := context.Background()
	e := NewEngine(ctx, &Config{Codec: testCodec()})
	defer e.Close(ctx)

	m, err := e.Compile(ctx, standardGuest().encode())
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}

	a, err := m.Instantiate(ctx)
	if err != nil {
		t.Fatalf("Instantiate a: %v", err)
	}
	b, err := m.Instantiate(ctx)
	if err != nil {
		t.Fatalf("Instantiate b: %v", err)
	}

	if _, err := a.FunctionRouter(1, "only in a", ""); err != nil {
		t.Fatalf("FunctionRouter: %v", err)
	}
	buf, err := ReadShort(b.Memory(), paramsAddr)
	if err != nil {
		t.Fatalf("ReadShort: %v", err)
	}
	if buf[0] != 0 {
		t.Error("instances should not share memory")
	}

	if err := a.Close(); err != nil {
		t.Errorf("Close a: %v", err)
	}
	if _, err := b.FunctionRouter(1, "b", ""); err != nil {
		t.Errorf("b should outlive a: %v", err)
	}
}

func TestModule_FactoryWithShim(t *testing.T) {
	ctx := context.Background()
	codec := testCodec()
	e := NewEngine(ctx, &Config{Codec: codec})
	defer e.Close(ctx)

	m, err := e.Compile(ctx, standardGuest().encode())
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}

	shim := plugin.NewShim(m.Factory(ctx), &plugin.Config{Codec: codec})
	if err := shim.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	defer shim.Fini()

	text := func(out *plugin.HostBuffer) string {
		s := codec.ShortFromHost(*out)
		return s.Text()
	}

	var out plugin.HostBuffer
	shim.Info(&out)
	if got := text(&out); got != "Developer: Jane Doe\r\nVersion: 1.0" {
		t.Errorf("Info = %q", got)
	}

	shim.Function(2, []byte("ignored\x00"), []byte("D:\x00"), &out)
	if got := text(&out); got != "D:" {
		t.Errorf("Function = %q", got)
	}

	full := strings.Repeat("a", 255)
	shim.Function(1, append([]byte(full), 0), []byte{0}, &out)
	if got := text(&out); got != full {
		t.Errorf("Function with a 255-byte param = %q", got)
	}

	shim.Function(4, nil, nil, &out)
	if got := text(&out); !strings.HasPrefix(got, "[Err: ") {
		t.Errorf("trap reply = %q", got)
	}

	if got := shim.MinRefreshInterval(); got != 500 {
		t.Errorf("MinRefreshInterval = %d", got)
	}
}

func TestMemory_Bounds(t *testing.T) {
	p := load(t, standardGuest())
	mem := p.Memory()

	if err := mem.Write(65530, []byte("123456")); err != nil {
		t.Errorf("Write at end: %v", err)
	}
	if err := mem.Write(65531, []byte("123456")); errors.KindOf(err) != errors.KindOutOfBounds {
		t.Errorf("Write past end err = %v", err)
	}
	if _, err := mem.Read(65536, 1); errors.KindOf(err) != errors.KindOutOfBounds {
		t.Errorf("Read past end err = %v", err)
	}
	if _, err := ReadShort(mem, 65536-narrow.ShortSize); err != nil {
		t.Errorf("ReadShort at last slot: %v", err)
	}

	var buf narrow.Buffer
	copy(buf[:], "slot")
	if err := WriteShort(mem, paramsAddr, &buf); err != nil {
		t.Fatalf("WriteShort: %v", err)
	}
	got, err := ReadShort(mem, paramsAddr)
	if err != nil || got != buf {
		t.Errorf("ReadShort = %q, %v", got[:4], err)
	}
}

func TestWrapMemory_Nil(t *testing.T) {
	if WrapMemory(nil) != nil {
		t.Error("WrapMemory(nil) should be nil")
	}
}
