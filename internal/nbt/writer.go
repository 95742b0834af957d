package nbt

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/klauspost/compress/gzip"
)

// WriteGzip writes a gzip-compressed named root compound, the layout used by
// scoreboard.dat files.
func WriteGzip(w io.Writer, name string, root Compound) error {
	zw := gzip.NewWriter(w)
	if err := Write(zw, name, root); err != nil {
		_ = zw.Close()
		return err
	}
	return zw.Close()
}

// Write writes an uncompressed named root compound. Compound children are
// written in sorted key order so output is deterministic.
func Write(w io.Writer, name string, root Compound) error {
	bw := bufio.NewWriter(w)
	enc := tagEncoder{w: bw}
	if err := enc.writeKind(KindCompound); err != nil {
		return err
	}
	if err := enc.writeString(name); err != nil {
		return err
	}
	if err := enc.writeCompound(root); err != nil {
		return err
	}
	return bw.Flush()
}

type tagEncoder struct {
	w   *bufio.Writer
	buf [8]byte
}

func (e *tagEncoder) writePayload(tag Tag) error {
	switch v := tag.(type) {
	case Byte:
		return e.w.WriteByte(byte(v))
	case Short:
		return e.writeUint16(uint16(v))
	case Int:
		return e.writeUint32(uint32(v))
	case Long:
		return e.writeUint64(uint64(v))
	case Float:
		return e.writeUint32(math.Float32bits(float32(v)))
	case Double:
		return e.writeUint64(math.Float64bits(float64(v)))
	case ByteArray:
		if err := e.writeUint32(uint32(len(v))); err != nil {
			return err
		}
		for _, b := range v {
			if err := e.w.WriteByte(byte(b)); err != nil {
				return err
			}
		}
		return nil
	case String:
		return e.writeString(string(v))
	case List:
		return e.writeList(v)
	case Compound:
		return e.writeCompound(v)
	case IntArray:
		if err := e.writeUint32(uint32(len(v))); err != nil {
			return err
		}
		for _, n := range v {
			if err := e.writeUint32(uint32(n)); err != nil {
				return err
			}
		}
		return nil
	case LongArray:
		if err := e.writeUint32(uint32(len(v))); err != nil {
			return err
		}
		for _, n := range v {
			if err := e.writeUint64(uint64(n)); err != nil {
				return err
			}
		}
		return nil
	default:
		return fmt.Errorf("unsupported tag %T", tag)
	}
}

func (e *tagEncoder) writeList(list List) error {
	elem := list.Elem
	if len(list.Items) == 0 {
		elem = KindEnd
	}
	if err := e.writeKind(elem); err != nil {
		return err
	}
	if err := e.writeUint32(uint32(len(list.Items))); err != nil {
		return err
	}
	for i, item := range list.Items {
		if item == nil || item.Kind() != elem {
			return fmt.Errorf("list item %d is not a %s", i, elem)
		}
		if err := e.writePayload(item); err != nil {
			return err
		}
	}
	return nil
}

func (e *tagEncoder) writeCompound(c Compound) error {
	for _, key := range c.Keys() {
		child := c[key]
		if child == nil {
			return fmt.Errorf("compound child %q is nil", key)
		}
		if err := e.writeKind(child.Kind()); err != nil {
			return err
		}
		if err := e.writeString(key); err != nil {
			return err
		}
		if err := e.writePayload(child); err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
	}
	return e.writeKind(KindEnd)
}

func (e *tagEncoder) writeKind(k Kind) error {
	return e.w.WriteByte(byte(k))
}

func (e *tagEncoder) writeString(s string) error {
	if len(s) > math.MaxUint16 {
		return fmt.Errorf("string of %d bytes exceeds the 65535 byte limit", len(s))
	}
	if err := e.writeUint16(uint16(len(s))); err != nil {
		return err
	}
	_, err := e.w.WriteString(s)
	return err
}

func (e *tagEncoder) writeUint16(v uint16) error {
	binary.BigEndian.PutUint16(e.buf[:2], v)
	_, err := e.w.Write(e.buf[:2])
	return err
}

func (e *tagEncoder) writeUint32(v uint32) error {
	binary.BigEndian.PutUint32(e.buf[:4], v)
	_, err := e.w.Write(e.buf[:4])
	return err
}

func (e *tagEncoder) writeUint64(v uint64) error {
	binary.BigEndian.PutUint64(e.buf[:8], v)
	_, err := e.w.Write(e.buf[:8])
	return err
}
