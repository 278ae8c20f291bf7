package tifflike

import (
	"encoding/binary"
	"io"
)

// reader provides positional binary reads over a TIFF file with the byte
// order and offset width discovered from the header. Classic TIFF uses
// 4-byte offsets, BigTIFF uses 8-byte offsets.
type reader struct {
	r          io.ReaderAt
	order      binary.ByteOrder
	offsetSize int
	pos        int64
}

func newReader(r io.ReaderAt, order binary.ByteOrder, offsetSize int) *reader {
	return &reader{
		r:          r,
		order:      order,
		offsetSize: offsetSize,
	}
}

// at returns a new reader positioned at the given offset. The new reader
// shares the underlying io.ReaderAt but has independent position.
func (r *reader) at(offset int64) *reader {
	return &reader{
		r:          r.r,
		order:      r.order,
		offsetSize: r.offsetSize,
		pos:        offset,
	}
}

// readBytes reads exactly n bytes from the current position.
func (r *reader) readBytes(n int) ([]byte, error) {
	if n <= 0 {
		return nil, nil
	}
	buf := make([]byte, n)
	if _, err := r.r.ReadAt(buf, r.pos); err != nil {
		return nil, err
	}
	r.pos += int64(n)
	return buf, nil
}

func (r *reader) readUint16() (uint16, error) {
	buf, err := r.readBytes(2)
	if err != nil {
		return 0, err
	}
	return r.order.Uint16(buf), nil
}

func (r *reader) readUint32() (uint32, error) {
	buf, err := r.readBytes(4)
	if err != nil {
		return 0, err
	}
	return r.order.Uint32(buf), nil
}

func (r *reader) readUint64() (uint64, error) {
	buf, err := r.readBytes(8)
	if err != nil {
		return 0, err
	}
	return r.order.Uint64(buf), nil
}

// readOffset reads a file offset using the configured offset size.
func (r *reader) readOffset() (uint64, error) {
	if r.offsetSize == 8 {
		return r.readUint64()
	}
	v, err := r.readUint32()
	return uint64(v), err
}

// readCount reads an IFD entry count: 2 bytes in classic TIFF, 8 in BigTIFF.
func (r *reader) readCount() (uint64, error) {
	if r.offsetSize == 8 {
		return r.readUint64()
	}
	v, err := r.readUint16()
	return uint64(v), err
}
