package nbt

import (
	"strings"
)

const indentUnit = "  "

// Pretty renders a tag tree across multiple lines with two-space indentation.
// Scalars, arrays and lists of scalars stay on one line.
func Pretty(name string, tag Tag) string {
	var b strings.Builder
	if name != "" {
		b.WriteString(quoteKey(name))
		b.WriteString(": ")
	}
	writePretty(&b, tag, 0)
	b.WriteByte('\n')
	return b.String()
}

func writePretty(b *strings.Builder, tag Tag, depth int) {
	switch v := tag.(type) {
	case Compound:
		if len(v) == 0 {
			b.WriteString("{}")
			return
		}
		b.WriteString("{\n")
		for _, key := range v.Keys() {
			b.WriteString(strings.Repeat(indentUnit, depth+1))
			b.WriteString(quoteKey(key))
			b.WriteString(": ")
			writePretty(b, v[key], depth+1)
			b.WriteByte('\n')
		}
		b.WriteString(strings.Repeat(indentUnit, depth))
		b.WriteByte('}')
	case List:
		if v.Elem != KindCompound && v.Elem != KindList {
			b.WriteString(v.String())
			return
		}
		if len(v.Items) == 0 {
			b.WriteString("[]")
			return
		}
		b.WriteString("[\n")
		for _, item := range v.Items {
			b.WriteString(strings.Repeat(indentUnit, depth+1))
			writePretty(b, item, depth+1)
			b.WriteByte('\n')
		}
		b.WriteString(strings.Repeat(indentUnit, depth))
		b.WriteByte(']')
	default:
		b.WriteString(tag.String())
	}
}
