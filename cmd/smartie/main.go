package main

import (
	"context"
	"encoding/hex"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/wippyai/smartie/codepage"
	"github.com/wippyai/smartie/narrow"
	"github.com/wippyai/smartie/plugin"
	"github.com/wippyai/smartie/wasmplugin"
)

const codePageEnv = "SMARTIE_CODEPAGE"

func main() {
	var (
		cpFlag      = flag.String("cp", envOr(codePageEnv, "acp"), "Code page: acp, oem, mac, thread, utf8 or a number (env "+codePageEnv+")")
		tables      = flag.Bool("tables", false, "Use the portable conversion tables even on Windows")
		encodeText  = flag.String("encode", "", "Text to encode")
		decodeHex   = flag.String("decode", "", "Hex bytes to decode")
		short       = flag.Bool("short", false, "Encode into a 256-byte short string")
		wasmFile    = flag.String("wasm", "", "Path to a plugin wasm module")
		memPages    = flag.Uint("mem-pages", 0, "Plugin memory limit in 64KB pages (0 = default)")
		info        = flag.Bool("info", false, "Print plugin info")
		demo        = flag.Bool("demo", false, "Print plugin demo lines")
		fid         = flag.Uint("fid", 0, "Plugin function id to call (1-20)")
		param1      = flag.String("p1", "", "First function parameter")
		param2      = flag.String("p2", "", "Second function parameter")
		verbose     = flag.Bool("v", false, "Debug logging to stderr")
		interactive = flag.Bool("i", false, "Interactive encoder with TUI")
	)
	flag.Parse()

	if *verbose {
		logger, err := zap.NewDevelopment()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer func() { _ = logger.Sync() }()
		codepage.SetLogger(logger.Named("codepage"))
		narrow.SetLogger(logger.Named("narrow"))
		plugin.SetLogger(logger.Named("plugin"))
		wasmplugin.SetLogger(logger.Named("wasmplugin"))
	}

	cp, err := parseCodePage(*cpFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	conv := newConverter(*tables)
	codec := narrow.NewCodec(conv, cp)

	switch {
	case *interactive:
		if !term.IsTerminal(int(os.Stdin.Fd())) {
			fmt.Fprintln(os.Stderr, "Error: -i needs a terminal")
			os.Exit(1)
		}
		err = runInteractive(conv, cp)
	case *encodeText != "":
		err = runEncode(os.Stdout, codec, *encodeText, *short)
	case *decodeHex != "":
		err = runDecode(os.Stdout, codec, *decodeHex, *short)
	case *wasmFile != "":
		err = runPlugin(context.Background(), pluginRequest{
			path:     *wasmFile,
			codec:    codec,
			memPages: uint32(*memPages),
			info:     *info,
			demo:     *demo,
			fid:      *fid,
			param1:   *param1,
			param2:   *param2,
		})
	default:
		fmt.Fprintln(os.Stderr, "Usage: smartie [-cp 1252] -encode <text> [-short]")
		fmt.Fprintln(os.Stderr, "       smartie [-cp 1252] -decode <hex> [-short]")
		fmt.Fprintln(os.Stderr, "       smartie -wasm <plugin.wasm> [-info] [-demo] [-fid n -p1 a -p2 b]")
		fmt.Fprintln(os.Stderr, "       smartie -i  (interactive mode)")
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func newConverter(tables bool) *codepage.Converter {
	if tables {
		return codepage.New(&codepage.Config{Provider: codepage.NewTableProvider(codepage.DefaultActiveCodePage)})
	}
	return codepage.Default()
}

// parseCodePage accepts acp, oem, mac, thread, utf8, a number, or a
// number prefixed with "cp".
func parseCodePage(s string) (uint32, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "acp", "ansi":
		return codepage.ACP, nil
	case "oem":
		return codepage.OEMCP, nil
	case "mac":
		return codepage.MACCP, nil
	case "thread":
		return codepage.ThreadACP, nil
	case "utf8", "utf-8":
		return codepage.UTF8, nil
	}

	num := strings.TrimPrefix(strings.ToLower(strings.TrimSpace(s)), "cp")
	n, err := strconv.ParseUint(num, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid code page %q", s)
	}
	return uint32(n), nil
}

// codePageName renders cp with its resolved number for pseudo pages.
func codePageName(conv *codepage.Converter, cp uint32) string {
	var name string
	switch cp {
	case codepage.ACP:
		name = "ACP"
	case codepage.OEMCP:
		name = "OEMCP"
	case codepage.MACCP:
		name = "MACCP"
	case codepage.ThreadACP:
		name = "THREAD_ACP"
	default:
		return strconv.FormatUint(uint64(cp), 10)
	}
	return fmt.Sprintf("%s (%d)", name, conv.Resolve(cp))
}

func formatBytes(b []byte) string {
	if len(b) == 0 {
		return "(empty)"
	}
	return fmt.Sprintf("% x", b)
}

func parseHex(s string) ([]byte, error) {
	clean := strings.NewReplacer(" ", "", ":", "", "\t", "", "0x", "").Replace(s)
	b, err := hex.DecodeString(clean)
	if err != nil {
		return nil, fmt.Errorf("decode hex: %w", err)
	}
	return b, nil
}

func runEncode(w io.Writer, codec *narrow.Codec, text string, short bool) error {
	if short {
		s, err := codec.Short(text)
		if err != nil {
			return fmt.Errorf("encode: %w", err)
		}
		fmt.Fprintf(w, "%s\n", formatBytes(s.Bytes()))
		fmt.Fprintf(w, "%d/%d bytes\n", s.Len(), narrow.ShortCapacity)
		return nil
	}

	s, err := codec.String(text)
	if err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	fmt.Fprintf(w, "%s\n", formatBytes(s.Bytes()))
	fmt.Fprintf(w, "%d bytes\n", s.Len())
	return nil
}

func runDecode(w io.Writer, codec *narrow.Codec, hexText string, short bool) error {
	data, err := parseHex(hexText)
	if err != nil {
		return err
	}

	var text string
	if short {
		s, cerr := codec.ShortFromCString(data)
		if cerr != nil {
			return fmt.Errorf("decode: %w", cerr)
		}
		text, err = s.Decode()
	} else {
		text, err = codec.StringFromBytes(data).Decode()
	}
	if err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	fmt.Fprintln(w, text)
	return nil
}

type pluginRequest struct {
	codec    *narrow.Codec
	path     string
	param1   string
	param2   string
	fid      uint
	memPages uint32
	info     bool
	demo     bool
}

func runPlugin(ctx context.Context, req pluginRequest) error {
	data, err := os.ReadFile(req.path)
	if err != nil {
		return fmt.Errorf("read file: %w", err)
	}

	engine := wasmplugin.NewEngine(ctx, &wasmplugin.Config{Codec: req.codec, MemoryLimitPages: req.memPages})
	defer engine.Close(ctx)

	mod, err := engine.Compile(ctx, data)
	if err != nil {
		return fmt.Errorf("compile: %w", err)
	}

	shim := plugin.NewShim(mod.Factory(ctx), &plugin.Config{Codec: req.codec})
	if err := shim.Init(); err != nil {
		return fmt.Errorf("init: %w", err)
	}
	defer shim.Fini()

	var out plugin.HostBuffer
	show := func() {
		s := req.codec.ShortFromHost(out)
		fmt.Println(strings.ReplaceAll(s.Text(), "\r\n", "\n"))
	}

	if req.info || (!req.demo && req.fid == 0) {
		shim.Info(&out)
		show()
		fmt.Printf("Minimum refresh: %d ms\n", shim.MinRefreshInterval())
	}
	if req.demo {
		shim.Demo(&out)
		show()
	}
	if req.fid > 0 {
		if req.fid > plugin.MaxFunctions {
			return fmt.Errorf("function id %d out of range 1-%d", req.fid, plugin.MaxFunctions)
		}
		p1, err := hostParam(req.codec, req.param1)
		if err != nil {
			return fmt.Errorf("param 1: %w", err)
		}
		p2, err := hostParam(req.codec, req.param2)
		if err != nil {
			return fmt.Errorf("param 2: %w", err)
		}
		shim.Function(uint8(req.fid), p1, p2, &out)
		show()
	}
	return nil
}

// hostParam encodes text the way a host passes a parameter: a zero
// terminated narrow string.
func hostParam(codec *narrow.Codec, text string) ([]byte, error) {
	s, err := codec.String(text)
	if err != nil {
		return nil, err
	}
	return s.CString()
}
