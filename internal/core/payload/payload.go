// Package payload flattens webhook bodies into case-insensitive dotted paths
//
// JSON objects flatten to "a.b.c", array elements to "a.0.b". Arrays of
// labeled entries such as [{"label":"pimms_id","value":"x"}] are also exposed
// as "a.pimms_id". Form bodies map "data[pimms_id]" to "data.pimms_id".
package payload

import (
	"bytes"
	"encoding/json"
	"net/url"
	"slices"
	"strconv"
	"strings"

	perr "pimms/internal/platform/errors"
)

// Format selects the body decoder
type Format string

const (
	// FormatAuto picks a decoder from the content type, then the first byte
	FormatAuto Format = "auto"
	// FormatJSON decodes a JSON document
	FormatJSON Format = "json"
	// FormatForm decodes application/x-www-form-urlencoded
	FormatForm Format = "form"
)

const maxDepth = 32

// labelKeys name the entry in a labeled array element, in priority order
var labelKeys = []string{"key", "label", "name", "slug", "ref", "title", "id"}

// Payload is a read-only flattened body
type Payload struct {
	fields map[string]string
}

// Parse decodes raw according to f
// an empty body yields an empty payload
func Parse(raw []byte, contentType string, f Format) (*Payload, error) {
	p := &Payload{fields: map[string]string{}}
	if len(bytes.TrimSpace(raw)) == 0 {
		return p, nil
	}
	switch detect(raw, contentType, f) {
	case FormatForm:
		if err := p.fromForm(raw); err != nil {
			return nil, err
		}
	default:
		if err := p.fromJSON(raw); err != nil {
			return nil, err
		}
	}
	return p, nil
}

func detect(raw []byte, contentType string, f Format) Format {
	if f == FormatJSON || f == FormatForm {
		return f
	}
	ct := strings.ToLower(contentType)
	switch {
	case strings.Contains(ct, "x-www-form-urlencoded"):
		return FormatForm
	case strings.Contains(ct, "json"):
		return FormatJSON
	}
	if b := bytes.TrimLeft(raw, " \t\r\n"); len(b) > 0 && (b[0] == '{' || b[0] == '[') {
		return FormatJSON
	}
	return FormatForm
}

func (p *Payload) fromJSON(raw []byte) error {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return perr.Wrap(err, perr.ErrorCodeJSON, "invalid json payload")
	}
	p.walk("", v, 0)
	return nil
}

func (p *Payload) fromForm(raw []byte) error {
	vals, err := url.ParseQuery(string(raw))
	if err != nil {
		return perr.Wrap(err, perr.ErrorCodeValidation, "invalid form payload")
	}
	for k, vs := range vals {
		if len(vs) == 0 {
			continue
		}
		p.set(bracketsToDots(k), vs[0])
	}
	return nil
}

// bracketsToDots maps a[b][0] to a.b.0
func bracketsToDots(k string) string {
	r := strings.NewReplacer("][", ".", "[", ".", "]", "")
	return strings.Trim(r.Replace(k), ".")
}

func (p *Payload) walk(path string, v any, depth int) {
	if depth > maxDepth {
		return
	}
	switch x := v.(type) {
	case map[string]any:
		keys := make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		slices.Sort(keys)
		for _, k := range keys {
			p.walk(join(path, k), x[k], depth+1)
		}
	case []any:
		for i, child := range x {
			p.walk(join(path, strconv.Itoa(i)), child, depth+1)
			if m, ok := child.(map[string]any); ok {
				for _, label := range labelsOf(m) {
					p.walk(join(path, label), m["value"], depth+1)
				}
			}
		}
	case string:
		p.set(path, x)
	case json.Number:
		p.set(path, x.String())
	case bool:
		p.set(path, strconv.FormatBool(x))
	}
}

// labelsOf returns the labels of an element shaped like {"label": "...", "value": ...}
func labelsOf(m map[string]any) []string {
	if _, ok := m["value"]; !ok {
		return nil
	}
	var out []string
	for _, k := range labelKeys {
		if s, ok := m[k].(string); ok && strings.TrimSpace(s) != "" {
			out = append(out, strings.TrimSpace(s))
		}
	}
	return out
}

func join(path, k string) string {
	if path == "" {
		return k
	}
	return path + "." + k
}

// set keeps the first value written for a path
func (p *Payload) set(path, v string) {
	if path == "" {
		return
	}
	key := strings.ToLower(path)
	if _, ok := p.fields[key]; ok {
		return
	}
	p.fields[key] = v
}

// Get returns the value at path, case-insensitive
// a leading "*." matches the suffix at any depth, preferring the shallowest path
func (p *Payload) Get(path string) (string, bool) {
	if p == nil {
		return "", false
	}
	key := strings.ToLower(strings.TrimSpace(path))
	if suffix, ok := strings.CutPrefix(key, "*."); ok {
		return p.suffix(suffix)
	}
	v, ok := p.fields[key]
	return v, ok
}

func (p *Payload) suffix(s string) (string, bool) {
	best := ""
	found := false
	for k := range p.fields {
		if k != s && !strings.HasSuffix(k, "."+s) {
			continue
		}
		if !found || len(k) < len(best) || (len(k) == len(best) && k < best) {
			best, found = k, true
		}
	}
	if !found {
		return "", false
	}
	return p.fields[best], true
}

// First returns the first non-blank value among paths and the path that matched
func (p *Payload) First(paths []string) (string, string, bool) {
	for _, path := range paths {
		if v, ok := p.Get(path); ok {
			if v = strings.TrimSpace(v); v != "" {
				return v, path, true
			}
		}
	}
	return "", "", false
}

// Len is the number of flattened leaves
func (p *Payload) Len() int {
	if p == nil {
		return 0
	}
	return len(p.fields)
}

// Keys returns the flattened paths in sorted order
func (p *Payload) Keys() []string {
	if p == nil {
		return nil
	}
	out := make([]string, 0, len(p.fields))
	for k := range p.fields {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}
