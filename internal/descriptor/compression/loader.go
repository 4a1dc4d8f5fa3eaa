package compression

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
)

func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read compression descriptor: %w", err)
	}
	return Parse(data)
}

// Parse decodes a compression descriptor. Syntax and type errors carry the
// line and column they were found at.
func Parse(data []byte) (*Config, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, errors.New("parse compression descriptor JSON: document is empty")
	}
	var c Config
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse compression descriptor JSON: %s", describe(data, err))
	}
	return &c, nil
}

func describe(data []byte, err error) string {
	var frag *fragmentError
	var syn *json.SyntaxError
	var typ *json.UnmarshalTypeError
	switch {
	case errors.As(err, &frag):
		base := fragmentOffset(data, frag.src)
		if base < 0 {
			return frag.err.Error()
		}
		return describeType(data, base+frag.err.Offset, frag.err)
	case errors.As(err, &syn):
		line, col := position(data, syn.Offset)
		return fmt.Sprintf("line %d, column %d: %v", line, col, err)
	case errors.As(err, &typ):
		return describeType(data, typ.Offset, typ)
	default:
		return err.Error()
	}
}

func describeType(data []byte, offset int64, err *json.UnmarshalTypeError) string {
	path, start := valueAt(data, offset)
	if path == "" {
		line, col := position(data, offset)
		return fmt.Sprintf("line %d, column %d: cannot unmarshal %s into a compression descriptor", line, col, err.Value)
	}
	line, col := position(data, start)
	return fmt.Sprintf("line %d, column %d: %s: cannot unmarshal %s into %s", line, col, path, err.Value, err.Type)
}

// fragmentError is a type error whose offset is relative to src, a nested
// value handed to a custom unmarshaler, rather than to the whole document.
type fragmentError struct {
	src []byte
	err *json.UnmarshalTypeError
}

func (e *fragmentError) Error() string { return e.err.Error() }

func (e *fragmentError) Unwrap() error { return e.err }

// locate ties a type error raised while decoding src to src. An error
// already tied to a deeper fragment is passed through.
func locate(src []byte, err error) error {
	var frag *fragmentError
	if errors.As(err, &frag) {
		return err
	}
	var typ *json.UnmarshalTypeError
	if errors.As(err, &typ) {
		return &fragmentError{src: src, err: typ}
	}
	return err
}

// fragmentOffset returns where frag starts inside data, or -1. The decoder
// hands custom unmarshalers sub-slices of the input, so frag normally shares
// data's backing array.
func fragmentOffset(data, frag []byte) int64 {
	if base := cap(data) - cap(frag); base >= 0 && base+len(frag) <= len(data) &&
		bytes.Equal(data[base:base+len(frag)], frag) {
		return int64(base)
	}
	return int64(bytes.Index(data, frag))
}

type pathFrame struct {
	array   bool
	index   int
	key     string
	wantKey bool
}

// valueAt walks the document up to offset and returns the dotted path of the
// value ending there, and the offset the value starts at.
func valueAt(data []byte, offset int64) (string, int64) {
	dec := json.NewDecoder(bytes.NewReader(data))
	var stack []*pathFrame
	for {
		before := dec.InputOffset()
		tok, err := dec.Token()
		if err != nil {
			return "", 0
		}
		if d, ok := tok.(json.Delim); ok && (d == '}' || d == ']') {
			stack = stack[:len(stack)-1]
			advance(stack)
			continue
		}
		if n := len(stack); n > 0 && stack[n-1].wantKey {
			stack[n-1].key, _ = tok.(string)
			stack[n-1].wantKey = false
			continue
		}
		if dec.InputOffset() >= offset {
			return renderPath(stack), skipSeparators(data, before)
		}
		if d, ok := tok.(json.Delim); ok {
			stack = append(stack, &pathFrame{array: d == '[', wantKey: d == '{'})
			continue
		}
		advance(stack)
	}
}

func advance(stack []*pathFrame) {
	if len(stack) == 0 {
		return
	}
	top := stack[len(stack)-1]
	if top.array {
		top.index++
		return
	}
	top.wantKey = true
}

func renderPath(stack []*pathFrame) string {
	var b strings.Builder
	for _, f := range stack {
		if f.array {
			fmt.Fprintf(&b, "[%d]", f.index)
			continue
		}
		if b.Len() > 0 {
			b.WriteByte('.')
		}
		b.WriteString(f.key)
	}
	return b.String()
}

func skipSeparators(data []byte, off int64) int64 {
	for off < int64(len(data)) && strings.IndexByte(" \t\r\n:,", data[off]) >= 0 {
		off++
	}
	return off
}

func position(data []byte, offset int64) (line, col int) {
	if offset > int64(len(data)) {
		offset = int64(len(data))
	}
	line, col = 1, 1
	for _, b := range data[:offset] {
		if b == '\n' {
			line++
			col = 1
			continue
		}
		col++
	}
	return line, col
}
