package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrMalformedResult is returned when an analysis payload does not match the
// expected response shape.
var ErrMalformedResult = errors.New("malformed analysis result")

// AnalysisResult is the payload returned by the modal analysis backend.
type AnalysisResult struct {
	Results         []Row     `json:"results"`
	ModalTarget     *string   `json:"modal_target,omitempty"`
	InplaneModes    *ModeList `json:"inplane_modes,omitempty"`
	OutOfPlaneModes *ModeList `json:"out_of_plane_modes,omitempty"`
}

// Columns returns the column names of the result table in the order they
// appear in the first row.
func (r *AnalysisResult) Columns() []string {
	if r == nil || len(r.Results) == 0 {
		return nil
	}
	return r.Results[0].Keys()
}

// HasColumn reports whether the result table carries the named column.
func (r *AnalysisResult) HasColumn(name string) bool {
	for _, c := range r.Columns() {
		if c == name {
			return true
		}
	}
	return false
}

// DecodeAnalysisResult parses a backend response body. Bodies wrapped as
// {"result": {...}} are unwrapped when no top-level "results" field exists.
func DecodeAnalysisResult(data []byte) (*AnalysisResult, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(data, &top); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResult, err)
	}
	if top == nil {
		return nil, fmt.Errorf("%w: body is null", ErrMalformedResult)
	}

	if _, ok := top["results"]; !ok {
		if inner, ok := top["result"]; ok && isJSONObject(inner) {
			return DecodeAnalysisResult(inner)
		}
	}

	var result AnalysisResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResult, err)
	}
	return &result, nil
}

func isJSONObject(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && trimmed[0] == '{'
}

// Row is a single result row. Column order is preserved from the JSON
// document so headers render in the order the backend produced them.
type Row struct {
	keys   []string
	values map[string]any
}

// NewRow builds a row from alternating key/value arguments.
func NewRow(kv ...any) Row {
	r := Row{values: make(map[string]any, len(kv)/2)}
	for i := 0; i+1 < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			continue
		}
		r.Set(key, kv[i+1])
	}
	return r
}

// Set assigns a value, appending the key if it is new.
func (r *Row) Set(key string, value any) {
	if r.values == nil {
		r.values = make(map[string]any)
	}
	if _, exists := r.values[key]; !exists {
		r.keys = append(r.keys, key)
	}
	r.values[key] = value
}

// Keys returns the column names in document order.
func (r Row) Keys() []string {
	out := make([]string, len(r.keys))
	copy(out, r.keys)
	return out
}

// Get returns the value stored under key. A present key holding JSON null
// returns (nil, true).
func (r Row) Get(key string) (any, bool) {
	v, ok := r.values[key]
	return v, ok
}

// Len returns the number of columns in the row.
func (r Row) Len() int {
	return len(r.keys)
}

// UnmarshalJSON decodes a JSON object while keeping key order.
func (r *Row) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("result row must be a JSON object, got %v", tok)
	}

	r.keys = nil
	r.values = make(map[string]any)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("unexpected row key %v", tok)
		}
		var value any
		if err := dec.Decode(&value); err != nil {
			return fmt.Errorf("decoding column %q: %w", key, err)
		}
		r.Set(key, value)
	}

	if _, err := dec.Token(); err != nil {
		return err
	}
	return nil
}

// MarshalJSON encodes the row as an object with keys in document order.
func (r Row) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, key := range r.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(key)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(r.values[key])
		if err != nil {
			return nil, fmt.Errorf("encoding column %q: %w", key, err)
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// ModeList holds inplane / out-of-plane mode identifiers. The backend sends
// either a single value or an array.
type ModeList struct {
	Items []string
	List  bool
}

// UnmarshalJSON accepts a string, a number, or an array of those.
func (m *ModeList) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch v := raw.(type) {
	case []any:
		m.List = true
		m.Items = make([]string, 0, len(v))
		for _, item := range v {
			m.Items = append(m.Items, scalarText(item))
		}
	case nil:
		m.List = false
		m.Items = nil
	default:
		m.List = false
		m.Items = []string{scalarText(v)}
	}
	return nil
}

// MarshalJSON mirrors UnmarshalJSON.
func (m ModeList) MarshalJSON() ([]byte, error) {
	if m.List {
		return json.Marshal(m.Items)
	}
	return json.Marshal(m.String())
}

// String joins sequences with ", " and returns scalars as-is.
func (m ModeList) String() string {
	if m.List {
		return strings.Join(m.Items, ", ")
	}
	if len(m.Items) == 0 {
		return ""
	}
	return m.Items[0]
}

// Present reports whether the value should be displayed at all.
func (m *ModeList) Present() bool {
	if m == nil {
		return false
	}
	return m.List || m.String() != ""
}

func scalarText(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprint(t)
		}
		return string(b)
	}
}
