// Package normalize extracts typed values from loosely shaped feed payloads.
//
// Lookups never panic and never coerce: a field is present only when the JSON
// value has the requested type. Numbers must be finite; numeric strings are
// not accepted where a number is expected.
package normalize

import (
	"errors"
	"math"
	"strings"

	"github.com/tidwall/gjson"
)

var errMalformed = errors.New("malformed json")

// path metacharacters of gjson; keys containing them cannot be looked up literally.
const pathMeta = ".*?|#@\\!:{}[],"

// Payload is a parsed JSON document or a sub-tree of one.
type Payload struct {
	r gjson.Result
}

// Parse validates body and wraps it.
func Parse(body []byte) (Payload, error) {
	if !gjson.ValidBytes(body) {
		return Payload{}, errMalformed
	}
	return Payload{r: gjson.ParseBytes(body)}, nil
}

// Get walks path one key at a time. A missing key or a non-object on the way
// yields an absent payload.
func (p Payload) Get(path ...string) (Payload, bool) {
	r := p.r
	if !r.Exists() {
		return Payload{}, false
	}
	for _, key := range path {
		if key == "" || strings.ContainsAny(key, pathMeta) || !r.IsObject() {
			return Payload{}, false
		}
		r = r.Get(key)
		if !r.Exists() {
			return Payload{}, false
		}
	}
	return Payload{r: r}, true
}

// Exists reports whether path resolves to any value, null included.
func (p Payload) Exists(path ...string) bool {
	_, ok := p.Get(path...)
	return ok
}

// IsObject reports whether the payload is a JSON object.
func (p Payload) IsObject() bool { return p.r.IsObject() }

// Float returns a finite number at path.
func (p Payload) Float(path ...string) (float64, bool) {
	v, ok := p.Get(path...)
	if !ok || v.r.Type != gjson.Number {
		return 0, false
	}
	f := v.r.Num
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// String returns a string at path. Empty strings count as present.
func (p Payload) String(path ...string) (string, bool) {
	v, ok := p.Get(path...)
	if !ok || v.r.Type != gjson.String {
		return "", false
	}
	return v.r.Str, true
}

// Bool returns a JSON boolean at path.
func (p Payload) Bool(path ...string) (bool, bool) {
	v, ok := p.Get(path...)
	if !ok {
		return false, false
	}
	switch v.r.Type {
	case gjson.True:
		return true, true
	case gjson.False:
		return false, true
	default:
		return false, false
	}
}

// Items returns the elements of the array at path.
func (p Payload) Items(path ...string) ([]Payload, bool) {
	v, ok := p.Get(path...)
	if !ok || !v.r.IsArray() {
		return nil, false
	}
	arr := v.r.Array()
	out := make([]Payload, len(arr))
	for i, r := range arr {
		out[i] = Payload{r: r}
	}
	return out, true
}

// Floats returns the array at path when every element is a finite number.
func (p Payload) Floats(path ...string) ([]float64, bool) {
	items, ok := p.Items(path...)
	if !ok {
		return nil, false
	}
	out := make([]float64, 0, len(items))
	for _, it := range items {
		f, ok := it.Float()
		if !ok {
			return nil, false
		}
		out = append(out, f)
	}
	return out, true
}
