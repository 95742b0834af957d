package nbt

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zlib"
)

const maxDepth = 512

var (
	// ErrUnknownTag reports a tag id outside the known kinds.
	ErrUnknownTag = errors.New("unknown tag type")
	// ErrNotCompound reports a root tag that is not a compound.
	ErrNotCompound = errors.New("root tag is not a compound")
	// ErrTooDeep reports nesting beyond the supported depth.
	ErrTooDeep = errors.New("tag nesting too deep")
)

// ReadFile reads a tag tree from the file at path.
func ReadFile(path string) (string, Compound, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", nil, err
	}
	defer func() {
		if cerr := file.Close(); cerr != nil {
			// Best-effort close for read-only input.
			_ = cerr
		}
	}()
	return Read(file)
}

// Read decodes a named root compound from r. Gzip and zlib streams are
// detected from their headers and inflated; anything else is read as raw tags.
func Read(r io.Reader) (string, Compound, error) {
	br := bufio.NewReader(r)
	src, closeFn, err := decompress(br)
	if err != nil {
		return "", nil, err
	}
	if closeFn != nil {
		defer func() {
			if cerr := closeFn(); cerr != nil {
				// Checksum errors surface from the reads above.
				_ = cerr
			}
		}()
	}
	dec := tagDecoder{r: bufio.NewReader(src)}
	return dec.readRoot()
}

func decompress(br *bufio.Reader) (io.Reader, func() error, error) {
	head, _ := br.Peek(2)
	if len(head) < 2 {
		return br, nil, nil
	}
	switch {
	case head[0] == 0x1f && head[1] == 0x8b:
		zr, err := gzip.NewReader(br)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open gzip stream: %w", err)
		}
		return zr, zr.Close, nil
	case head[0]&0x0f == 0x08 && (uint16(head[0])<<8|uint16(head[1]))%31 == 0:
		zr, err := zlib.NewReader(br)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open zlib stream: %w", err)
		}
		return zr, zr.Close, nil
	}
	return br, nil, nil
}

type tagDecoder struct {
	r     *bufio.Reader
	depth int
}

func (d *tagDecoder) readRoot() (string, Compound, error) {
	kind, err := d.readKind()
	if err != nil {
		return "", nil, err
	}
	if kind != KindCompound {
		return "", nil, fmt.Errorf("%w: got %s", ErrNotCompound, kind)
	}
	name, err := d.readString()
	if err != nil {
		return "", nil, err
	}
	root, err := d.readCompound()
	if err != nil {
		return "", nil, err
	}
	return name, root, nil
}

func (d *tagDecoder) readPayload(kind Kind) (Tag, error) {
	switch kind {
	case KindByte:
		v, err := d.readInt8()
		if err != nil {
			return nil, err
		}
		return Byte(v), nil
	case KindShort:
		v, err := d.readUint16()
		if err != nil {
			return nil, err
		}
		return Short(int16(v)), nil
	case KindInt:
		v, err := d.readUint32()
		if err != nil {
			return nil, err
		}
		return Int(int32(v)), nil
	case KindLong:
		v, err := d.readUint64()
		if err != nil {
			return nil, err
		}
		return Long(int64(v)), nil
	case KindFloat:
		v, err := d.readUint32()
		if err != nil {
			return nil, err
		}
		return Float(math.Float32frombits(v)), nil
	case KindDouble:
		v, err := d.readUint64()
		if err != nil {
			return nil, err
		}
		return Double(math.Float64frombits(v)), nil
	case KindByteArray:
		n, err := d.readLength()
		if err != nil {
			return nil, err
		}
		raw, err := d.readBytes(n)
		if err != nil {
			return nil, err
		}
		out := make(ByteArray, n)
		for i, b := range raw {
			out[i] = int8(b)
		}
		return out, nil
	case KindString:
		s, err := d.readString()
		if err != nil {
			return nil, err
		}
		return String(s), nil
	case KindList:
		return d.readList()
	case KindCompound:
		return d.readCompound()
	case KindIntArray:
		n, err := d.readLength()
		if err != nil {
			return nil, err
		}
		raw, err := d.readBytes(n * 4)
		if err != nil {
			return nil, err
		}
		out := make(IntArray, n)
		for i := range out {
			out[i] = int32(binary.BigEndian.Uint32(raw[i*4:]))
		}
		return out, nil
	case KindLongArray:
		n, err := d.readLength()
		if err != nil {
			return nil, err
		}
		raw, err := d.readBytes(n * 8)
		if err != nil {
			return nil, err
		}
		out := make(LongArray, n)
		for i := range out {
			out[i] = int64(binary.BigEndian.Uint64(raw[i*8:]))
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w 0x%02x", ErrUnknownTag, byte(kind))
	}
}

func (d *tagDecoder) readList() (List, error) {
	if err := d.enter(); err != nil {
		return List{}, err
	}
	defer d.leave()

	elem, err := d.readKind()
	if err != nil {
		return List{}, err
	}
	n, err := d.readLength()
	if err != nil {
		return List{}, err
	}
	if elem == KindEnd {
		if n != 0 {
			return List{}, fmt.Errorf("list of End tags with length %d", n)
		}
		return List{Elem: KindEnd}, nil
	}
	items := make([]Tag, 0, min(n, 1024))
	for i := 0; i < n; i++ {
		item, err := d.readPayload(elem)
		if err != nil {
			return List{}, err
		}
		items = append(items, item)
	}
	return List{Elem: elem, Items: items}, nil
}

func (d *tagDecoder) readCompound() (Compound, error) {
	if err := d.enter(); err != nil {
		return nil, err
	}
	defer d.leave()

	out := Compound{}
	for {
		kind, err := d.readKind()
		if err != nil {
			return nil, err
		}
		if kind == KindEnd {
			return out, nil
		}
		name, err := d.readString()
		if err != nil {
			return nil, err
		}
		val, err := d.readPayload(kind)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		out[name] = val
	}
}

func (d *tagDecoder) enter() error {
	d.depth++
	if d.depth > maxDepth {
		return ErrTooDeep
	}
	return nil
}

func (d *tagDecoder) leave() {
	d.depth--
}

func (d *tagDecoder) readKind() (Kind, error) {
	b, err := d.r.ReadByte()
	if err != nil {
		return 0, unexpectedEOF(err)
	}
	if Kind(b) > KindLongArray {
		return 0, fmt.Errorf("%w 0x%02x", ErrUnknownTag, b)
	}
	return Kind(b), nil
}

func (d *tagDecoder) readLength() (int, error) {
	v, err := d.readUint32()
	if err != nil {
		return 0, err
	}
	n := int32(v)
	if n < 0 {
		return 0, fmt.Errorf("invalid length %d", n)
	}
	return int(n), nil
}

func (d *tagDecoder) readString() (string, error) {
	n, err := d.readUint16()
	if err != nil {
		return "", err
	}
	data, err := d.readBytes(int(n))
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// readBytes grows with the data actually present so that a forged length
// cannot force a large allocation up front.
func (d *tagDecoder) readBytes(n int) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(d.r, int64(n)))
	if err != nil {
		return nil, err
	}
	if len(data) != n {
		return nil, io.ErrUnexpectedEOF
	}
	return data, nil
}

func (d *tagDecoder) readInt8() (int8, error) {
	b, err := d.r.ReadByte()
	if err != nil {
		return 0, unexpectedEOF(err)
	}
	return int8(b), nil
}

func (d *tagDecoder) readUint16() (uint16, error) {
	var buf [2]byte
	if _, err := io.ReadFull(d.r, buf[:]); err != nil {
		return 0, unexpectedEOF(err)
	}
	return binary.BigEndian.Uint16(buf[:]), nil
}

func (d *tagDecoder) readUint32() (uint32, error) {
	var buf [4]byte
	if _, err := io.ReadFull(d.r, buf[:]); err != nil {
		return 0, unexpectedEOF(err)
	}
	return binary.BigEndian.Uint32(buf[:]), nil
}

func (d *tagDecoder) readUint64() (uint64, error) {
	var buf [8]byte
	if _, err := io.ReadFull(d.r, buf[:]); err != nil {
		return 0, unexpectedEOF(err)
	}
	return binary.BigEndian.Uint64(buf[:]), nil
}

func unexpectedEOF(err error) error {
	if errors.Is(err, io.EOF) {
		return io.ErrUnexpectedEOF
	}
	return err
}
