package definition

import (
	"bytes"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
)

// canonicalize re-serializes a parsed document so that structurally equal
// payloads produce equal bytes. Key order is kept. Strings are re-escaped,
// numbers are re-formatted from their float64 value, and a repeated key keeps
// its first position with its last value, the way a JSON object decoder in a
// browser would see it.
func canonicalize(root gjson.Result) []byte {
	var buf bytes.Buffer
	writeCanonical(&buf, root)
	return buf.Bytes()
}

func writeCanonical(buf *bytes.Buffer, value gjson.Result) {
	switch {
	case value.IsObject():
		var keys []string
		members := make(map[string]gjson.Result)
		value.ForEach(func(key, member gjson.Result) bool {
			name := key.String()
			if _, seen := members[name]; !seen {
				keys = append(keys, name)
			}
			members[name] = member
			return true
		})
		buf.WriteByte('{')
		for i, name := range keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			writeString(buf, name)
			buf.WriteByte(':')
			writeCanonical(buf, members[name])
		}
		buf.WriteByte('}')
	case value.IsArray():
		buf.WriteByte('[')
		i := 0
		value.ForEach(func(_, item gjson.Result) bool {
			if i > 0 {
				buf.WriteByte(',')
			}
			writeCanonical(buf, item)
			i++
			return true
		})
		buf.WriteByte(']')
	default:
		switch value.Type {
		case gjson.String:
			writeString(buf, value.String())
		case gjson.Number:
			buf.WriteString(formatNumber(value.Float()))
		case gjson.True:
			buf.WriteString("true")
		case gjson.False:
			buf.WriteString("false")
		default:
			buf.WriteString("null")
		}
	}
}

// formatNumber prints f the way JSON.stringify does: shortest round-trip
// digits, plain notation between 1e-6 and 1e21, exponent notation outside.
func formatNumber(f float64) string {
	switch {
	case math.IsNaN(f) || math.IsInf(f, 0):
		return "null"
	case f == 0:
		return "0"
	}
	abs := math.Abs(f)
	if abs >= 1e-6 && abs < 1e21 {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	mantissa, exponent, _ := strings.Cut(strconv.FormatFloat(f, 'e', -1, 64), "e")
	sign, digits := exponent[:1], strings.TrimLeft(exponent[1:], "0")
	return mantissa + "e" + sign + digits
}

func writeString(buf *bytes.Buffer, s string) {
	buf.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			buf.WriteString(`\"`)
		case '\\':
			buf.WriteString(`\\`)
		case '\b':
			buf.WriteString(`\b`)
		case '\f':
			buf.WriteString(`\f`)
		case '\n':
			buf.WriteString(`\n`)
		case '\r':
			buf.WriteString(`\r`)
		case '\t':
			buf.WriteString(`\t`)
		default:
			if r < 0x20 {
				fmt.Fprintf(buf, `\u%04x`, r)
				continue
			}
			buf.WriteRune(r)
		}
	}
	buf.WriteByte('"')
}
