// Package nbt reads and writes named binary tag trees.
package nbt

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Kind identifies the type of a tag as stored on the wire.
type Kind byte

// Tag kinds in wire order.
const (
	KindEnd Kind = iota
	KindByte
	KindShort
	KindInt
	KindLong
	KindFloat
	KindDouble
	KindByteArray
	KindString
	KindList
	KindCompound
	KindIntArray
	KindLongArray
)

var kindNames = [...]string{
	KindEnd:       "End",
	KindByte:      "Byte",
	KindShort:     "Short",
	KindInt:       "Int",
	KindLong:      "Long",
	KindFloat:     "Float",
	KindDouble:    "Double",
	KindByteArray: "ByteArray",
	KindString:    "String",
	KindList:      "List",
	KindCompound:  "Compound",
	KindIntArray:  "IntArray",
	KindLongArray: "LongArray",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", byte(k))
}

// Tag is a decoded node. The concrete types below are the only implementations.
type Tag interface {
	Kind() Kind
	// String renders the tag as SNBT text.
	String() string
}

type (
	Byte      int8
	Short     int16
	Int       int32
	Long      int64
	Float     float32
	Double    float64
	ByteArray []int8
	String    string
	IntArray  []int32
	LongArray []int64
	// Compound maps child names to tags.
	Compound map[string]Tag
)

// List is a homogeneous sequence of tags of kind Elem.
type List struct {
	Elem  Kind
	Items []Tag
}

// NewList builds a list whose element kind is taken from the first item.
func NewList(items ...Tag) List {
	if len(items) == 0 {
		return List{Elem: KindEnd}
	}
	return List{Elem: items[0].Kind(), Items: items}
}

func (Byte) Kind() Kind      { return KindByte }
func (Short) Kind() Kind     { return KindShort }
func (Int) Kind() Kind       { return KindInt }
func (Long) Kind() Kind      { return KindLong }
func (Float) Kind() Kind     { return KindFloat }
func (Double) Kind() Kind    { return KindDouble }
func (ByteArray) Kind() Kind { return KindByteArray }
func (String) Kind() Kind    { return KindString }
func (List) Kind() Kind      { return KindList }
func (Compound) Kind() Kind  { return KindCompound }
func (IntArray) Kind() Kind  { return KindIntArray }
func (LongArray) Kind() Kind { return KindLongArray }

func (v Byte) String() string  { return strconv.FormatInt(int64(v), 10) + "b" }
func (v Short) String() string { return strconv.FormatInt(int64(v), 10) + "s" }
func (v Int) String() string   { return strconv.FormatInt(int64(v), 10) }
func (v Long) String() string  { return strconv.FormatInt(int64(v), 10) + "L" }

func (v Float) String() string {
	return strconv.FormatFloat(float64(v), 'g', -1, 32) + "f"
}

func (v Double) String() string {
	return strconv.FormatFloat(float64(v), 'g', -1, 64) + "d"
}

func (v String) String() string { return strconv.Quote(string(v)) }

func (v ByteArray) String() string {
	parts := make([]string, len(v))
	for i, b := range v {
		parts[i] = Byte(b).String()
	}
	return "[B;" + strings.Join(parts, ",") + "]"
}

func (v IntArray) String() string {
	parts := make([]string, len(v))
	for i, n := range v {
		parts[i] = Int(n).String()
	}
	return "[I;" + strings.Join(parts, ",") + "]"
}

func (v LongArray) String() string {
	parts := make([]string, len(v))
	for i, n := range v {
		parts[i] = Long(n).String()
	}
	return "[L;" + strings.Join(parts, ",") + "]"
}

func (v List) String() string {
	parts := make([]string, len(v.Items))
	for i, item := range v.Items {
		parts[i] = item.String()
	}
	return "[" + strings.Join(parts, ",") + "]"
}

func (v Compound) String() string {
	keys := v.Keys()
	parts := make([]string, len(keys))
	for i, key := range keys {
		parts[i] = quoteKey(key) + ":" + v[key].String()
	}
	return "{" + strings.Join(parts, ",") + "}"
}

// Keys returns the child names in sorted order.
func (v Compound) Keys() []string {
	keys := make([]string, 0, len(v))
	for key := range v {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Text returns the plain textual value of a tag: strings unquoted, integers in
// decimal, anything else as SNBT.
func Text(tag Tag) string {
	switch v := tag.(type) {
	case nil:
		return ""
	case String:
		return string(v)
	case Byte:
		return strconv.FormatInt(int64(v), 10)
	case Short:
		return strconv.FormatInt(int64(v), 10)
	case Int:
		return strconv.FormatInt(int64(v), 10)
	case Long:
		return strconv.FormatInt(int64(v), 10)
	default:
		return tag.String()
	}
}

func quoteKey(key string) string {
	if key == "" {
		return `""`
	}
	for _, r := range key {
		if !isBareKeyRune(r) {
			return strconv.Quote(key)
		}
	}
	return key
}

func isBareKeyRune(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return true
	case r == '_', r == '-', r == '.', r == '+':
		return true
	}
	return false
}
