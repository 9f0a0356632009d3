package smartie

// Memory is linear memory shared with a plugin.
type Memory interface {
	Read(offset uint32, length uint32) ([]byte, error)
	Write(offset uint32, data []byte) error
}
