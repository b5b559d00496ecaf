package proxy

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"unicode/utf8"
)

var (
	errTrailingData = errors.New("unexpected data after top-level JSON value")
	errInvalidUTF8  = errors.New("message is not valid UTF-8")
)

// Normalize parses raw as a single JSON value and re-encodes it. It is the
// validating pass-through applied to every relayed message: the output is
// deep-equal to the input, numbers keep their literal text, and object keys
// come out sorted. Invalid UTF-8 is rejected instead of being replaced.
func Normalize(raw []byte) ([]byte, error) {
	if !utf8.Valid(raw) {
		return nil, errInvalidUTF8
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errTrailingData
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}
