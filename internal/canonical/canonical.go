// Package canonical serializes structured messages into the byte form that
// signatures are computed over.
//
// The output is JSON with object keys sorted at every level, ", " between
// items, ": " between a key and its value, and every non-ASCII rune escaped
// as a lowercase \uXXXX sequence. Floats are printed the way Python's repr
// prints them. Verifiers elsewhere rebuild these bytes independently, so any
// change here invalidates existing signatures.
package canonical

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"unicode/utf16"
	"unicode/utf8"
)

// ErrUnsupportedValue is returned for values that have no canonical form.
var ErrUnsupportedValue = errors.New("canonical: unsupported value")

var (
	numberType    = reflect.TypeOf(json.Number(""))
	marshalerType = reflect.TypeOf((*json.Marshaler)(nil)).Elem()
)

const hexDigits = "0123456789abcdef"

// Marshal returns the canonical encoding of v.
//
// Maps must have string keys. Structs and json.Marshaler implementations
// are first rendered with encoding/json and then re-encoded canonically, so
// struct tags are honoured. Byte slices, channels, funcs, complex numbers,
// NaN and infinities are rejected with ErrUnsupportedValue.
func Marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	if err := encode(&buf, reflect.ValueOf(v)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func encode(buf *bytes.Buffer, v reflect.Value) error {
	if !v.IsValid() {
		buf.WriteString("null")
		return nil
	}

	if v.Type() == numberType {
		return encodeNumber(buf, json.Number(v.String()))
	}

	switch v.Kind() {
	case reflect.Interface, reflect.Pointer:
		if v.IsNil() {
			buf.WriteString("null")
			return nil
		}
		if v.Kind() == reflect.Pointer && v.Type().Implements(marshalerType) {
			return encodeViaJSON(buf, v)
		}
		return encode(buf, v.Elem())
	}

	if v.Type().Implements(marshalerType) {
		return encodeViaJSON(buf, v)
	}

	switch v.Kind() {
	case reflect.Bool:
		if v.Bool() {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		buf.WriteString(strconv.FormatInt(v.Int(), 10))
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		buf.WriteString(strconv.FormatUint(v.Uint(), 10))
	case reflect.Float32, reflect.Float64:
		s, err := formatFloat(v.Float())
		if err != nil {
			return err
		}
		buf.WriteString(s)
	case reflect.String:
		return writeString(buf, v.String())
	case reflect.Map:
		return encodeMap(buf, v)
	case reflect.Slice:
		if v.IsNil() {
			buf.WriteString("null")
			return nil
		}
		if v.Type().Elem().Kind() == reflect.Uint8 {
			return fmt.Errorf("%w: byte slice", ErrUnsupportedValue)
		}
		return encodeList(buf, v)
	case reflect.Array:
		return encodeList(buf, v)
	case reflect.Struct:
		return encodeViaJSON(buf, v)
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedValue, v.Type())
	}
	return nil
}

func encodeMap(buf *bytes.Buffer, v reflect.Value) error {
	if v.Type().Key().Kind() != reflect.String {
		return fmt.Errorf("%w: map key type %s", ErrUnsupportedValue, v.Type().Key())
	}
	if v.IsNil() {
		buf.WriteString("null")
		return nil
	}

	keys := make([]string, 0, v.Len())
	values := make(map[string]reflect.Value, v.Len())
	iter := v.MapRange()
	for iter.Next() {
		k := iter.Key().String()
		keys = append(keys, k)
		values[k] = iter.Value()
	}
	// Byte order of UTF-8 equals code point order.
	sort.Strings(keys)

	buf.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			buf.WriteString(", ")
		}
		if err := writeString(buf, k); err != nil {
			return err
		}
		buf.WriteString(": ")
		if err := encode(buf, values[k]); err != nil {
			return fmt.Errorf("key %q: %w", k, err)
		}
	}
	buf.WriteByte('}')
	return nil
}

func encodeList(buf *bytes.Buffer, v reflect.Value) error {
	buf.WriteByte('[')
	for i := 0; i < v.Len(); i++ {
		if i > 0 {
			buf.WriteString(", ")
		}
		if err := encode(buf, v.Index(i)); err != nil {
			return fmt.Errorf("index %d: %w", i, err)
		}
	}
	buf.WriteByte(']')
	return nil
}

// encodeViaJSON renders v with encoding/json and re-encodes the generic
// result, keeping numbers as written.
func encodeViaJSON(buf *bytes.Buffer, v reflect.Value) error {
	// encoding/json replaces invalid UTF-8 in strings with U+FFFD, which
	// would let distinct values share one encoding.
	if err := checkStrings(v, 0); err != nil {
		return err
	}
	raw, err := json.Marshal(v.Interface())
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnsupportedValue, err)
	}
	if !utf8.Valid(raw) {
		return errInvalidUTF8
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var generic any
	if err := dec.Decode(&generic); err != nil {
		return fmt.Errorf("%w: %v", ErrUnsupportedValue, err)
	}
	return encode(buf, reflect.ValueOf(generic))
}

// maxCheckDepth bounds checkStrings on cyclic values; json.Marshal reports
// the cycle itself.
const maxCheckDepth = 1000

var errInvalidUTF8 = fmt.Errorf("%w: invalid UTF-8 in string", ErrUnsupportedValue)

// checkStrings walks v and fails on any string that is not valid UTF-8.
// json.Marshaler implementations are skipped; their output is checked
// after rendering.
func checkStrings(v reflect.Value, depth int) error {
	if !v.IsValid() || depth > maxCheckDepth {
		return nil
	}
	if v.Type().Implements(marshalerType) {
		return nil
	}

	switch v.Kind() {
	case reflect.String:
		if !utf8.ValidString(v.String()) {
			return errInvalidUTF8
		}
	case reflect.Pointer, reflect.Interface:
		if !v.IsNil() {
			return checkStrings(v.Elem(), depth+1)
		}
	case reflect.Struct:
		t := v.Type()
		for i := 0; i < v.NumField(); i++ {
			if f := t.Field(i); !f.IsExported() || f.Tag.Get("json") == "-" {
				continue
			}
			if err := checkStrings(v.Field(i), depth+1); err != nil {
				return err
			}
		}
	case reflect.Slice, reflect.Array:
		if v.Kind() == reflect.Slice && v.Type().Elem().Kind() == reflect.Uint8 {
			return nil
		}
		for i := 0; i < v.Len(); i++ {
			if err := checkStrings(v.Index(i), depth+1); err != nil {
				return err
			}
		}
	case reflect.Map:
		iter := v.MapRange()
		for iter.Next() {
			if err := checkStrings(iter.Key(), depth+1); err != nil {
				return err
			}
			if err := checkStrings(iter.Value(), depth+1); err != nil {
				return err
			}
		}
	}
	return nil
}

func encodeNumber(buf *bytes.Buffer, n json.Number) error {
	s := n.String()
	if s == "" || strings.TrimSpace(s) != s || !json.Valid([]byte(s)) {
		return fmt.Errorf("%w: number %q", ErrUnsupportedValue, s)
	}
	if _, err := n.Int64(); err == nil {
		buf.WriteString(s)
		return nil
	}
	if strings.ContainsAny(s, ".eE") {
		f, err := n.Float64()
		if err != nil {
			return fmt.Errorf("%w: number %q", ErrUnsupportedValue, s)
		}
		out, err := formatFloat(f)
		if err != nil {
			return err
		}
		buf.WriteString(out)
		return nil
	}
	// Integers wider than 64 bits are kept verbatim.
	buf.WriteString(s)
	return nil
}

// formatFloat prints f as Python's float repr does: shortest round-trip
// digits, positional for exponents in [-4, 16), and always with a fraction
// or exponent so the value reads back as a float.
func formatFloat(f float64) (string, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return "", fmt.Errorf("%w: non-finite float", ErrUnsupportedValue)
	}
	if f == 0 {
		if math.Signbit(f) {
			return "-0.0", nil
		}
		return "0.0", nil
	}

	sci := strconv.FormatFloat(f, 'e', -1, 64)
	idx := strings.IndexByte(sci, 'e')
	exp, err := strconv.Atoi(sci[idx+1:])
	if err != nil {
		return "", fmt.Errorf("%w: float %v", ErrUnsupportedValue, f)
	}
	if exp < -4 || exp >= 16 {
		return sci, nil
	}

	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s, nil
}

func writeString(buf *bytes.Buffer, s string) error {
	buf.WriteByte('"')
	for i := 0; i < len(s); {
		c := s[i]
		if c < utf8.RuneSelf {
			switch c {
			case '"':
				buf.WriteString(`\"`)
			case '\\':
				buf.WriteString(`\\`)
			case '\n':
				buf.WriteString(`\n`)
			case '\r':
				buf.WriteString(`\r`)
			case '\t':
				buf.WriteString(`\t`)
			case '\b':
				buf.WriteString(`\b`)
			case '\f':
				buf.WriteString(`\f`)
			default:
				if c < 0x20 || c == 0x7f {
					writeEscape(buf, rune(c))
				} else {
					buf.WriteByte(c)
				}
			}
			i++
			continue
		}

		r, size := utf8.DecodeRuneInString(s[i:])
		if r == utf8.RuneError && size == 1 {
			return errInvalidUTF8
		}
		if r > 0xffff {
			r1, r2 := utf16.EncodeRune(r)
			writeEscape(buf, r1)
			writeEscape(buf, r2)
		} else {
			writeEscape(buf, r)
		}
		i += size
	}
	buf.WriteByte('"')
	return nil
}

func writeEscape(buf *bytes.Buffer, r rune) {
	buf.WriteString(`\u`)
	buf.WriteByte(hexDigits[(r>>12)&0xf])
	buf.WriteByte(hexDigits[(r>>8)&0xf])
	buf.WriteByte(hexDigits[(r>>4)&0xf])
	buf.WriteByte(hexDigits[r&0xf])
}
