package wasmplugin

import (
	"bytes"
)

// Minimal core module writer for test guests.

const (
	sectionType     = 1
	sectionFunction = 3
	sectionMemory   = 5
	sectionExport   = 7
	sectionCode     = 10
	sectionData     = 11

	exportKindFunc   = 0x00
	exportKindMemory = 0x02

	funcTypeByte = 0x60
	valI32       = 0x7f

	opUnreachable = 0x00
	opIf          = 0x04
	opElse        = 0x05
	opEnd         = 0x0b
	opLocalGet    = 0x20
	opI32Store8   = 0x3a
	opI32Const    = 0x41
	opI32Eq       = 0x46
)

type guestFunc struct {
	name    string
	params  int
	results int
	body    []byte
}

type dataSegment struct {
	offset uint32
	data   []byte
}

type guestModule struct {
	funcs    []guestFunc
	data     []dataSegment
	pages    uint32
	noMemory bool
}

func writeU32(w *bytes.Buffer, v uint32) {
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if v != 0 {
			b |= 0x80
		}
		w.WriteByte(b)
		if v == 0 {
			return
		}
	}
}

func writeS32(w *bytes.Buffer, v int32) {
	for {
		b := byte(v & 0x7f)
		v >>= 7
		done := (v == 0 && b&0x40 == 0) || (v == -1 && b&0x40 != 0)
		if !done {
			b |= 0x80
		}
		w.WriteByte(b)
		if done {
			return
		}
	}
}

func writeName(w *bytes.Buffer, s string) {
	writeU32(w, uint32(len(s)))
	w.WriteString(s)
}

func writeSection(w *bytes.Buffer, id byte, data []byte) {
	w.WriteByte(id)
	writeU32(w, uint32(len(data)))
	w.Write(data)
}

func (m *guestModule) encode() []byte {
	var w bytes.Buffer
	w.Write([]byte{0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00})

	var sec bytes.Buffer
	writeU32(&sec, uint32(len(m.funcs)))
	for _, f := range m.funcs {
		sec.WriteByte(funcTypeByte)
		writeU32(&sec, uint32(f.params))
		for i := 0; i < f.params; i++ {
			sec.WriteByte(valI32)
		}
		writeU32(&sec, uint32(f.results))
		for i := 0; i < f.results; i++ {
			sec.WriteByte(valI32)
		}
	}
	writeSection(&w, sectionType, sec.Bytes())

	sec.Reset()
	writeU32(&sec, uint32(len(m.funcs)))
	for i := range m.funcs {
		writeU32(&sec, uint32(i))
	}
	writeSection(&w, sectionFunction, sec.Bytes())

	if !m.noMemory {
		sec.Reset()
		writeU32(&sec, 1)
		sec.WriteByte(0x00) // limits: min only
		writeU32(&sec, m.pages)
		writeSection(&w, sectionMemory, sec.Bytes())
	}

	sec.Reset()
	exports := len(m.funcs)
	if !m.noMemory {
		exports++
	}
	writeU32(&sec, uint32(exports))
	if !m.noMemory {
		writeName(&sec, ExportMemory)
		sec.WriteByte(exportKindMemory)
		writeU32(&sec, 0)
	}
	for i, f := range m.funcs {
		writeName(&sec, f.name)
		sec.WriteByte(exportKindFunc)
		writeU32(&sec, uint32(i))
	}
	writeSection(&w, sectionExport, sec.Bytes())

	sec.Reset()
	writeU32(&sec, uint32(len(m.funcs)))
	for _, f := range m.funcs {
		var body bytes.Buffer
		writeU32(&body, 0) // no locals
		body.Write(f.body)
		body.WriteByte(opEnd)
		writeU32(&sec, uint32(body.Len()))
		sec.Write(body.Bytes())
	}
	writeSection(&w, sectionCode, sec.Bytes())

	if len(m.data) > 0 {
		sec.Reset()
		writeU32(&sec, uint32(len(m.data)))
		for _, d := range m.data {
			writeU32(&sec, 0) // active, memory 0
			sec.WriteByte(opI32Const)
			writeS32(&sec, int32(d.offset))
			sec.WriteByte(opEnd)
			writeU32(&sec, uint32(len(d.data)))
			sec.Write(d.data)
		}
		writeSection(&w, sectionData, sec.Bytes())
	}

	return w.Bytes()
}

func code(parts ...[]byte) []byte {
	return bytes.Join(parts, nil)
}

func op(b ...byte) []byte { return b }

func i32Const(v int32) []byte {
	var w bytes.Buffer
	w.WriteByte(opI32Const)
	writeS32(&w, v)
	return w.Bytes()
}

func localGet(i uint32) []byte {
	var w bytes.Buffer
	w.WriteByte(opLocalGet)
	writeU32(&w, i)
	return w.Bytes()
}

// storeByte writes v at addr.
func storeByte(addr int32, v byte) []byte {
	return code(i32Const(addr), i32Const(int32(v)), op(opI32Store8, 0x00, 0x00))
}

func cstr(s string) []byte {
	return append([]byte(s), 0)
}

const (
	devAddr    = 0x100
	verAddr    = 0x200
	demoAddr   = 0x300
	paramsAddr = 0x400
)

// routerBody answers fid 2 with param2, fid 3 with a wild pointer, traps
// on fid 4 and answers everything else with param1.
var routerBody = code(
	localGet(0), i32Const(3), op(opI32Eq, opIf, valI32),
	i32Const(-1),
	op(opElse),
	localGet(0), i32Const(4), op(opI32Eq, opIf, valI32),
	op(opUnreachable),
	op(opElse),
	localGet(0), i32Const(2), op(opI32Eq, opIf, valI32),
	localGet(2),
	op(opElse),
	localGet(1),
	op(opEnd),
	op(opEnd),
	op(opEnd),
)

func pointerFunc(name string, v int32) guestFunc {
	return guestFunc{name: name, results: 1, body: i32Const(v)}
}

func standardGuest() *guestModule {
	return &guestModule{
		pages: 1,
		data: []dataSegment{
			{devAddr, cstr("Jane Doe")},
			{verAddr, cstr("1.0")},
			{demoAddr, cstr("$dll(demo,1,text,)\r\n$dll(demo,2,,text)")},
		},
		funcs: []guestFunc{
			pointerFunc(ExportDeveloper, devAddr),
			pointerFunc(ExportVersion, verAddr),
			pointerFunc(ExportDemo, demoAddr),
			pointerFunc(ExportMinRefresh, 500),
			pointerFunc(ExportParams, paramsAddr),
			{name: ExportFunction, params: 3, results: 1, body: routerBody},
		},
	}
}

func (m *guestModule) without(name string) *guestModule {
	out := *m
	out.funcs = nil
	for _, f := range m.funcs {
		if f.name != name {
			out.funcs = append(out.funcs, f)
		}
	}
	return &out
}

func (m *guestModule) with(f guestFunc) *guestModule {
	out := m.without(f.name)
	out.funcs = append(out.funcs, f)
	return out
}
