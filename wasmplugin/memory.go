package wasmplugin

import (
	"github.com/tetratelabs/wazero/api"

	"github.com/wippyai/smartie"
	"github.com/wippyai/smartie/errors"
	"github.com/wippyai/smartie/narrow"
)

var _ smartie.Memory = (*Memory)(nil)

// Memory adapts a guest's exported linear memory.
type Memory struct {
	mem api.Memory
}

// WrapMemory wraps a wazero memory. It returns nil for a nil memory.
func WrapMemory(mem api.Memory) *Memory {
	if mem == nil {
		return nil
	}
	return &Memory{mem: mem}
}

// Size returns the memory size in bytes.
func (m *Memory) Size() uint32 {
	return m.mem.Size()
}

// Read returns a view of length bytes at offset. The view is invalidated
// when the guest grows its memory.
func (m *Memory) Read(offset uint32, length uint32) ([]byte, error) {
	data, ok := m.mem.Read(offset, length)
	if !ok {
		return nil, errors.OutOfBounds(errors.PhaseRuntime, offset, length)
	}
	return data, nil
}

// Write copies data into memory at offset.
func (m *Memory) Write(offset uint32, data []byte) error {
	if !m.mem.Write(offset, data) {
		return errors.OutOfBounds(errors.PhaseRuntime, offset, uint32(len(data)))
	}
	return nil
}

// ReadShort copies the 256-byte short string at offset.
func ReadShort(m smartie.Memory, offset uint32) (narrow.Buffer, error) {
	var buf narrow.Buffer
	data, err := m.Read(offset, narrow.ShortSize)
	if err != nil {
		return buf, err
	}
	copy(buf[:], data)
	return buf, nil
}

// WriteShort stores a 256-byte short string at offset.
func WriteShort(m smartie.Memory, offset uint32, buf *narrow.Buffer) error {
	return m.Write(offset, buf[:])
}
